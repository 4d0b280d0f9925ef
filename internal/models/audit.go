package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionLogin            = "LOGIN"
	AuditActionLogout           = "LOGOUT"
	AuditActionEnroll           = "ENROLL"
	AuditActionUnenroll         = "UNENROLL"
	AuditActionGradeUpdate      = "GRADE_UPDATE"
	AuditActionGradeSubmit      = "GRADE_SUBMIT"
	AuditActionRequestCreate    = "REQUEST_CREATE"
	AuditActionRequestApprove   = "REQUEST_APPROVE"
	AuditActionRequestReject    = "REQUEST_REJECT"
	AuditActionSemesterOpen     = "SEMESTER_OPEN"
	AuditActionTransferCredit   = "TRANSFER_CREDIT"
	AuditActionPasswordChange   = "PASSWORD_CHANGE"
	AuditActionCatalogMutation  = "CATALOG_MUTATION"
	AuditActionUserAdministrate = "USER_ADMINISTRATE"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// AuditLogDetail enriches AuditLog with the acting user's name.
type AuditLogDetail struct {
	AuditLog
	UserName string `db:"user_name" json:"user_name"`
}

// AuditLogFilter provides filters for listing audit logs.
type AuditLogFilter struct {
	UserID   string
	Action   string
	Page     int
	PageSize int
}
