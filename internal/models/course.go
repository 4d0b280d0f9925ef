package models

import (
	"time"

	"github.com/lib/pq"
)

// Course describes a catalog entry students can register for.
type Course struct {
	ID            string         `db:"id" json:"id"`
	Code          string         `db:"code" json:"code"`
	Name          string         `db:"name" json:"name"`
	Credits       int            `db:"credits" json:"credits"`
	DepartmentID  string         `db:"department_id" json:"department_id"`
	Prerequisites pq.StringArray `db:"prerequisites" json:"prerequisites"`
	Program       string         `db:"program" json:"program"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// CourseDetail enriches Course with the department name.
type CourseDetail struct {
	Course
	DepartmentName string `db:"department_name" json:"department_name"`
}

// CourseFilter provides filters for listing courses.
type CourseFilter struct {
	DepartmentID string
	Program      string
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

// ProfessorCourseAssignment links a professor to a course they teach.
type ProfessorCourseAssignment struct {
	ID          string    `db:"id" json:"id"`
	ProfessorID string    `db:"professor_id" json:"professor_id"`
	CourseID    string    `db:"course_id" json:"course_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
