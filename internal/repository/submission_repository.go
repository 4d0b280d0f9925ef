package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/judy4534/studentSystem/internal/models"
)

// SubmissionRepository handles persistence of course grade submissions.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository constructs the repository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// ListBySemester returns every submission recorded for a semester.
func (r *SubmissionRepository) ListBySemester(ctx context.Context, semesterID string) ([]models.CourseSubmission, error) {
	const query = `SELECT id, course_id, semester_id, professor_id, submission_date FROM course_submissions WHERE semester_id = $1`
	var submissions []models.CourseSubmission
	if err := r.db.SelectContext(ctx, &submissions, query, semesterID); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return submissions, nil
}

// FindByCourseAndSemester returns the submission for an offering.
func (r *SubmissionRepository) FindByCourseAndSemester(ctx context.Context, courseID, semesterID string) (*models.CourseSubmission, error) {
	const query = `SELECT id, course_id, semester_id, professor_id, submission_date FROM course_submissions WHERE course_id = $1 AND semester_id = $2`
	var submission models.CourseSubmission
	if err := r.db.GetContext(ctx, &submission, query, courseID, semesterID); err != nil {
		return nil, err
	}
	return &submission, nil
}

// Create records the single submission for a (course, semester). The
// unique constraint makes the loser of a concurrent double-submit fail
// with a conflict rather than double-submitting.
func (r *SubmissionRepository) Create(ctx context.Context, submission *models.CourseSubmission) error {
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	if submission.SubmissionDate.IsZero() {
		submission.SubmissionDate = time.Now().UTC()
	}
	const query = `INSERT INTO course_submissions (id, course_id, semester_id, professor_id, submission_date)
        VALUES (:id, :course_id, :semester_id, :professor_id, :submission_date)`
	if _, err := r.db.NamedExecContext(ctx, query, submission); err != nil {
		return translateUnique(err, "grades already submitted for this course and semester")
	}
	return nil
}
