package models

import "time"

// SubmissionStatus is derived per (course, semester) from the
// submission record and the enrollment ledger.
type SubmissionStatus string

const (
	SubmissionStatusPending   SubmissionStatus = "PENDING"
	SubmissionStatusSubmitted SubmissionStatus = "SUBMITTED"
	SubmissionStatusLate      SubmissionStatus = "LATE"
)

// Label returns the Arabic display label the legacy portal shows for
// each status.
func (s SubmissionStatus) Label() string {
	switch s {
	case SubmissionStatusSubmitted:
		return "تم التسليم"
	case SubmissionStatusPending:
		return "قيد الانتظار"
	case SubmissionStatusLate:
		return "متأخر"
	default:
		return string(s)
	}
}

// CourseSubmission marks grades for a (course, semester) as finalized
// by a professor. At most one submission per pair.
type CourseSubmission struct {
	ID             string    `db:"id" json:"id"`
	CourseID       string    `db:"course_id" json:"course_id"`
	SemesterID     string    `db:"semester_id" json:"semester_id"`
	ProfessorID    string    `db:"professor_id" json:"professor_id"`
	SubmissionDate time.Time `db:"submission_date" json:"submission_date"`
}

// SubmissionBoardRow describes one course on the admin results board.
type SubmissionBoardRow struct {
	CourseID       string           `json:"course_id"`
	CourseCode     string           `json:"course_code"`
	CourseName     string           `json:"course_name"`
	ProfessorID    *string          `json:"professor_id,omitempty"`
	ProfessorName  string           `json:"professor_name"`
	StudentCount   int              `json:"student_count"`
	Status         SubmissionStatus `json:"status"`
	SubmissionDate *time.Time       `json:"submission_date,omitempty"`
}

// SubmissionBoard aggregates the per-course rows with progress totals.
type SubmissionBoard struct {
	SemesterID   string               `json:"semester_id"`
	Rows         []SubmissionBoardRow `json:"rows"`
	TotalCourses int                  `json:"total_courses"`
	Submitted    int                  `json:"submitted"`
	Pending      int                  `json:"pending"`
	Progress     float64              `json:"progress"`
}
