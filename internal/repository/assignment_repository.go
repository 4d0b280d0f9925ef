package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/judy4534/studentSystem/internal/models"
)

// AssignmentRepository handles professor-course teaching assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Create links a professor to a course. The pair is unique.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.ProfessorCourseAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	assignment.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO professor_course_assignments (id, professor_id, course_id, created_at)
        VALUES (:id, :professor_id, :course_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return translateUnique(err, "professor already assigned to course")
	}
	return nil
}

// Delete removes the assignment and reports whether it existed.
func (r *AssignmentRepository) Delete(ctx context.Context, professorID, courseID string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM professor_course_assignments WHERE professor_id = $1 AND course_id = $2`, professorID, courseID)
	if err != nil {
		return false, fmt.Errorf("delete assignment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete assignment: %w", err)
	}
	return affected > 0, nil
}

// FindByCourse returns the assignment for a course when one exists.
func (r *AssignmentRepository) FindByCourse(ctx context.Context, courseID string) (*models.ProfessorCourseAssignment, error) {
	const query = `SELECT id, professor_id, course_id, created_at FROM professor_course_assignments WHERE course_id = $1 LIMIT 1`
	var assignment models.ProfessorCourseAssignment
	if err := r.db.GetContext(ctx, &assignment, query, courseID); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// ExistsForProfessor checks whether the professor teaches the course.
func (r *AssignmentRepository) ExistsForProfessor(ctx context.Context, professorID, courseID string) (bool, error) {
	var exists int
	err := r.db.GetContext(ctx, &exists, `SELECT 1 FROM professor_course_assignments WHERE professor_id = $1 AND course_id = $2 LIMIT 1`, professorID, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check assignment: %w", err)
	}
	return true, nil
}
