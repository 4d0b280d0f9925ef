package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/judy4534/studentSystem/internal/models"
)

// EnrollmentRepository handles persistence of the enrollment ledger.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// List returns enrollments filtered by the provided criteria.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	base := `FROM enrollments e
LEFT JOIN users s ON s.id = e.student_id
LEFT JOIN courses c ON c.id = e.course_id`
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("e.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("e.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.SemesterID != "" {
		conditions = append(conditions, fmt.Sprintf("e.semester_id = $%d", len(args)+1))
		args = append(args, filter.SemesterID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("e.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"created_at":   "e.created_at",
		"student_name": "s.full_name",
		"course_code":  "c.code",
	}
	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	orderBy := allowedSorts[sortBy]
	if orderBy == "" {
		orderBy = "e.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT e.id, e.student_id, e.course_id, e.semester_id, e.coursework_grade, e.final_grade, e.status, e.created_at, e.updated_at,
        s.full_name AS student_name, COALESCE(s.student_no, '') AS student_no, c.name AS course_name, c.code AS course_code
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	const query = `SELECT id, student_id, course_id, semester_id, coursework_grade, final_grade, status, created_at, updated_at FROM enrollments WHERE id = $1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindByStudentCourseSemester returns the unique ledger row for the triple.
func (r *EnrollmentRepository) FindByStudentCourseSemester(ctx context.Context, studentID, courseID, semesterID string) (*models.Enrollment, error) {
	const query = `SELECT id, student_id, course_id, semester_id, coursework_grade, final_grade, status, created_at, updated_at
        FROM enrollments WHERE student_id = $1 AND course_id = $2 AND semester_id = $3`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, studentID, courseID, semesterID); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// ListByStudent returns every ledger row for a student, transfer
// credits included.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	const query = `SELECT id, student_id, course_id, semester_id, coursework_grade, final_grade, status, created_at, updated_at
        FROM enrollments WHERE student_id = $1 ORDER BY created_at`
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, studentID); err != nil {
		return nil, fmt.Errorf("list student enrollments: %w", err)
	}
	return enrollments, nil
}

// ListByCourseAndSemester returns the ledger rows for one course offering.
func (r *EnrollmentRepository) ListByCourseAndSemester(ctx context.Context, courseID, semesterID string) ([]models.Enrollment, error) {
	const query = `SELECT id, student_id, course_id, semester_id, coursework_grade, final_grade, status, created_at, updated_at
        FROM enrollments WHERE course_id = $1 AND semester_id = $2`
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, courseID, semesterID); err != nil {
		return nil, fmt.Errorf("list course enrollments: %w", err)
	}
	return enrollments, nil
}

// Create persists a new enrollment. A duplicate
// (student, course, semester) violates the ledger's unique constraint
// and surfaces as a conflict.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now
	if enrollment.Status == "" {
		enrollment.Status = models.EnrollmentStatusEnrolled
	}
	const query = `INSERT INTO enrollments (id, student_id, course_id, semester_id, coursework_grade, final_grade, status, created_at, updated_at)
        VALUES (:id, :student_id, :course_id, :semester_id, :coursework_grade, :final_grade, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return translateUnique(err, "student already enrolled in course for semester")
	}
	return nil
}

// UpdateGrades writes the provided grade components, leaving a nil
// component untouched. Status is never changed here.
func (r *EnrollmentRepository) UpdateGrades(ctx context.Context, id string, coursework, final *int) error {
	sets := []string{"updated_at = NOW()"}
	args := []interface{}{id}
	if coursework != nil {
		sets = append(sets, fmt.Sprintf("coursework_grade = $%d", len(args)+1))
		args = append(args, *coursework)
	}
	if final != nil {
		sets = append(sets, fmt.Sprintf("final_grade = $%d", len(args)+1))
		args = append(args, *final)
	}
	query := fmt.Sprintf("UPDATE enrollments SET %s WHERE id = $1", strings.Join(sets, ", "))
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update grades: %w", err)
	}
	return nil
}

// MarkCompleted transitions every ENROLLED row of the offering to
// COMPLETED and reports how many rows changed.
func (r *EnrollmentRepository) MarkCompleted(ctx context.Context, courseID, semesterID string) (int, error) {
	const query = `UPDATE enrollments SET status = $1, updated_at = NOW() WHERE course_id = $2 AND semester_id = $3 AND status = $4`
	result, err := r.db.ExecContext(ctx, query, models.EnrollmentStatusCompleted, courseID, semesterID, models.EnrollmentStatusEnrolled)
	if err != nil {
		return 0, fmt.Errorf("mark enrollments completed: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark enrollments completed: %w", err)
	}
	return int(affected), nil
}

// Delete removes the ledger row for the triple and reports whether a
// row existed.
func (r *EnrollmentRepository) Delete(ctx context.Context, studentID, courseID, semesterID string) (bool, error) {
	const query = `DELETE FROM enrollments WHERE student_id = $1 AND course_id = $2 AND semester_id = $3`
	result, err := r.db.ExecContext(ctx, query, studentID, courseID, semesterID)
	if err != nil {
		return false, fmt.Errorf("delete enrollment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete enrollment: %w", err)
	}
	return affected > 0, nil
}
