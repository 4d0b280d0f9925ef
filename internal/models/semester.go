package models

import "time"

// SemesterStatus flags whether registration and grading are active.
type SemesterStatus string

const (
	SemesterStatusOpen   SemesterStatus = "OPEN"
	SemesterStatusClosed SemesterStatus = "CLOSED"
)

// Semester models an academic term within the university calendar.
// By convention at most one semester is OPEN at a time; the services
// enforce this, not the database.
type Semester struct {
	ID                      string         `db:"id" json:"id"`
	Name                    string         `db:"name" json:"name"`
	Status                  SemesterStatus `db:"status" json:"status"`
	StartDate               time.Time      `db:"start_date" json:"start_date"`
	EndDate                 time.Time      `db:"end_date" json:"end_date"`
	GradeSubmissionDeadline time.Time      `db:"grade_submission_deadline" json:"grade_submission_deadline"`
	CreatedAt               time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time      `db:"updated_at" json:"updated_at"`
}

// SemesterFilter defines filters supported by list endpoints.
type SemesterFilter struct {
	Status    SemesterStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
