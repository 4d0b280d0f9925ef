package models

import "time"

// Department groups courses and students under a faculty unit.
type Department struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Head      string    `db:"head" json:"head"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// DepartmentDetail enriches Department with derived counts.
type DepartmentDetail struct {
	Department
	CourseCount  int `db:"course_count" json:"course_count"`
	StudentCount int `db:"student_count" json:"student_count"`
}
