package models

import "time"

// RequestType classifies a registration request.
type RequestType string

const (
	RequestTypeAdd      RequestType = "ADD"
	RequestTypeDrop     RequestType = "DROP"
	RequestTypeOverride RequestType = "OVERRIDE"
	RequestTypeReview   RequestType = "REVIEW"
)

// RequestStatus captures the workflow state. PENDING transitions to
// APPROVED or REJECTED; both are terminal.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "PENDING"
	RequestStatusApproved RequestStatus = "APPROVED"
	RequestStatusRejected RequestStatus = "REJECTED"
)

// RegistrationRequest is a student petition resolved by an admin.
type RegistrationRequest struct {
	ID          string        `db:"id" json:"id"`
	StudentID   string        `db:"student_id" json:"student_id"`
	CourseID    string        `db:"course_id" json:"course_id"`
	RequestType RequestType   `db:"request_type" json:"request_type"`
	Status      RequestStatus `db:"status" json:"status"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}

// RequestDetail enriches RegistrationRequest with names for listings.
type RequestDetail struct {
	RegistrationRequest
	StudentName string `db:"student_name" json:"student_name"`
	StudentNo   string `db:"student_no" json:"student_no"`
	CourseName  string `db:"course_name" json:"course_name"`
	CourseCode  string `db:"course_code" json:"course_code"`
}

// RequestFilter provides filters for listing requests.
type RequestFilter struct {
	StudentID   string
	CourseID    string
	Status      RequestStatus
	RequestType RequestType
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}
