package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/judy4534/studentSystem/internal/models"
)

// RequestRepository handles persistence of registration requests.
type RequestRepository struct {
	db *sqlx.DB
}

// NewRequestRepository constructs the repository.
func NewRequestRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// List returns requests with student and course context.
func (r *RequestRepository) List(ctx context.Context, filter models.RequestFilter) ([]models.RequestDetail, int, error) {
	base := `FROM registration_requests q
LEFT JOIN users s ON s.id = q.student_id
LEFT JOIN courses c ON c.id = q.course_id`
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("q.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("q.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("q.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.RequestType != "" {
		conditions = append(conditions, fmt.Sprintf("q.request_type = $%d", len(args)+1))
		args = append(args, filter.RequestType)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}

	query := fmt.Sprintf(`SELECT q.id, q.student_id, q.course_id, q.request_type, q.status, q.created_at, q.updated_at,
        s.full_name AS student_name, COALESCE(s.student_no, '') AS student_no, c.name AS course_name, c.code AS course_code
        %s ORDER BY q.created_at DESC LIMIT %d OFFSET %d`, base+clause, size, (page-1)*size)

	var requests []models.RequestDetail
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list requests: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count requests: %w", err)
	}
	return requests, total, nil
}

// FindByID returns a request by its ID.
func (r *RequestRepository) FindByID(ctx context.Context, id string) (*models.RegistrationRequest, error) {
	const query = `SELECT id, student_id, course_id, request_type, status, created_at, updated_at FROM registration_requests WHERE id = $1`
	var request models.RegistrationRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// Create persists a new request in PENDING state.
func (r *RequestRepository) Create(ctx context.Context, request *models.RegistrationRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	request.CreatedAt = now
	request.UpdatedAt = now
	if request.Status == "" {
		request.Status = models.RequestStatusPending
	}
	const query = `INSERT INTO registration_requests (id, student_id, course_id, request_type, status, created_at, updated_at)
        VALUES (:id, :student_id, :course_id, :request_type, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return nil
}

// UpdateStatus moves a request to a terminal state.
func (r *RequestRepository) UpdateStatus(ctx context.Context, id string, status models.RequestStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE registration_requests SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update request status: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountByStatus returns the number of requests in the given state.
func (r *RequestRepository) CountByStatus(ctx context.Context, status models.RequestStatus) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM registration_requests WHERE status = $1`, status); err != nil {
		return 0, fmt.Errorf("count requests: %w", err)
	}
	return count, nil
}
