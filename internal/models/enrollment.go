package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusEnrolled    EnrollmentStatus = "ENROLLED"
	EnrollmentStatusCompleted   EnrollmentStatus = "COMPLETED"
	EnrollmentStatusWithdrawn   EnrollmentStatus = "WITHDRAWN"
	EnrollmentStatusTransferred EnrollmentStatus = "TRANSFERRED"
)

// SemesterTransfer is the sentinel semester identifier for transfer
// credits granted for prior external coursework.
const SemesterTransfer = "transfer"

// Grade component bounds. Coursework and final sum to a 0-100 total.
const (
	MaxCourseworkGrade = 40
	MaxFinalGrade      = 60
	PassingTotal       = 50
)

// Enrollment records a student taking a course within a semester.
// SemesterID is either a semester UUID or the literal "transfer".
type Enrollment struct {
	ID              string           `db:"id" json:"id"`
	StudentID       string           `db:"student_id" json:"student_id"`
	CourseID        string           `db:"course_id" json:"course_id"`
	SemesterID      string           `db:"semester_id" json:"semester_id"`
	CourseworkGrade *int             `db:"coursework_grade" json:"coursework_grade"`
	FinalGrade      *int             `db:"final_grade" json:"final_grade"`
	Status          EnrollmentStatus `db:"status" json:"status"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time        `db:"updated_at" json:"updated_at"`
}

// TotalGrade returns coursework+final when both components are present.
func (e Enrollment) TotalGrade() *int {
	if e.CourseworkGrade == nil || e.FinalGrade == nil {
		return nil
	}
	total := *e.CourseworkGrade + *e.FinalGrade
	return &total
}

// Passed reports whether the enrollment total meets the passing mark.
// False when either grade component is missing.
func (e Enrollment) Passed() bool {
	total := e.TotalGrade()
	return total != nil && *total >= PassingTotal
}

// EnrollmentDetail enriches Enrollment with student and course info.
type EnrollmentDetail struct {
	Enrollment
	StudentName string `db:"student_name" json:"student_name"`
	StudentNo   string `db:"student_no" json:"student_no"`
	CourseName  string `db:"course_name" json:"course_name"`
	CourseCode  string `db:"course_code" json:"course_code"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	StudentID  string
	CourseID   string
	SemesterID string
	Status     EnrollmentStatus
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
