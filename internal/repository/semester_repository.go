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

// SemesterRepository handles persistence of semesters.
type SemesterRepository struct {
	db *sqlx.DB
}

// NewSemesterRepository constructs the repository.
func NewSemesterRepository(db *sqlx.DB) *SemesterRepository {
	return &SemesterRepository{db: db}
}

// List returns semesters ordered by start date, newest first.
func (r *SemesterRepository) List(ctx context.Context, filter models.SemesterFilter) ([]models.Semester, int, error) {
	query := `SELECT id, name, status, start_date, end_date, grade_submission_deadline, created_at, updated_at FROM semesters`
	countQuery := `SELECT COUNT(*) FROM semesters`
	var args []interface{}
	if filter.Status != "" {
		query += " WHERE status = $1"
		countQuery += " WHERE status = $1"
		args = append(args, filter.Status)
	}
	query += " ORDER BY start_date DESC"

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", size, (page-1)*size)

	var semesters []models.Semester
	if err := r.db.SelectContext(ctx, &semesters, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list semesters: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count semesters: %w", err)
	}
	return semesters, total, nil
}

// FindByID returns a semester by its ID.
func (r *SemesterRepository) FindByID(ctx context.Context, id string) (*models.Semester, error) {
	const query = `SELECT id, name, status, start_date, end_date, grade_submission_deadline, created_at, updated_at FROM semesters WHERE id = $1`
	var semester models.Semester
	if err := r.db.GetContext(ctx, &semester, query, id); err != nil {
		return nil, err
	}
	return &semester, nil
}

// FindOpen returns the semester currently open for registration and
// grading. sql.ErrNoRows when none is open.
func (r *SemesterRepository) FindOpen(ctx context.Context) (*models.Semester, error) {
	const query = `SELECT id, name, status, start_date, end_date, grade_submission_deadline, created_at, updated_at FROM semesters WHERE status = $1 ORDER BY start_date DESC LIMIT 1`
	var semester models.Semester
	if err := r.db.GetContext(ctx, &semester, query, models.SemesterStatusOpen); err != nil {
		return nil, err
	}
	return &semester, nil
}

// ExistsByName checks name uniqueness, optionally excluding one record.
func (r *SemesterRepository) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	query := "SELECT 1 FROM semesters WHERE name = $1"
	args := []interface{}{name}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	query += " LIMIT 1"
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check semester name: %w", err)
	}
	return true, nil
}

// Create persists a new semester record.
func (r *SemesterRepository) Create(ctx context.Context, semester *models.Semester) error {
	if semester.ID == "" {
		semester.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	semester.CreatedAt = now
	semester.UpdatedAt = now
	if semester.Status == "" {
		semester.Status = models.SemesterStatusClosed
	}
	const query = `INSERT INTO semesters (id, name, status, start_date, end_date, grade_submission_deadline, created_at, updated_at)
        VALUES (:id, :name, :status, :start_date, :end_date, :grade_submission_deadline, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, semester); err != nil {
		return translateUnique(err, "semester name already exists")
	}
	return nil
}

// Update modifies a semester record.
func (r *SemesterRepository) Update(ctx context.Context, semester *models.Semester) error {
	semester.UpdatedAt = time.Now().UTC()
	const query = `UPDATE semesters SET name = :name, status = :status, start_date = :start_date, end_date = :end_date,
        grade_submission_deadline = :grade_submission_deadline, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, semester); err != nil {
		return translateUnique(err, "semester name already exists")
	}
	return nil
}

// SetOpen marks the given semester OPEN and closes every other one,
// preserving the at-most-one-open convention.
func (r *SemesterRepository) SetOpen(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set open: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `UPDATE semesters SET status = $1, updated_at = NOW() WHERE status = $2 AND id <> $3`,
		models.SemesterStatusClosed, models.SemesterStatusOpen, id); err != nil {
		return fmt.Errorf("close other semesters: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE semesters SET status = $1, updated_at = NOW() WHERE id = $2`,
		models.SemesterStatusOpen, id); err != nil {
		return fmt.Errorf("open semester: %w", err)
	}
	return tx.Commit()
}

// Delete removes a semester.
func (r *SemesterRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM semesters WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete semester: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
