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

// CourseRepository handles persistence of the course catalog.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns catalog entries with their department names.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error) {
	base := `FROM courses c LEFT JOIN departments d ON d.id = c.department_id`
	var conditions []string
	var args []interface{}

	if filter.DepartmentID != "" {
		conditions = append(conditions, fmt.Sprintf("c.department_id = $%d", len(args)+1))
		args = append(args, filter.DepartmentID)
	}
	if filter.Program != "" {
		conditions = append(conditions, fmt.Sprintf("c.program = $%d", len(args)+1))
		args = append(args, filter.Program)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(c.name ILIKE $%d OR c.code ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"code":    "c.code",
		"name":    "c.name",
		"credits": "c.credits",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "c.code"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}

	query := fmt.Sprintf(`SELECT c.id, c.code, c.name, c.credits, c.department_id, c.prerequisites, c.program, c.created_at, c.updated_at,
        COALESCE(d.name, '') AS department_name
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, (page-1)*size)

	var courses []models.CourseDetail
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// FindByID returns a course by its ID.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, code, name, credits, department_id, prerequisites, program, created_at, updated_at FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// FindByIDs returns the courses matching the given IDs keyed by ID.
func (r *CourseRepository) FindByIDs(ctx context.Context, ids []string) (map[string]models.Course, error) {
	result := make(map[string]models.Course, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	query, args, err := sqlx.In(`SELECT id, code, name, credits, department_id, prerequisites, program, created_at, updated_at FROM courses WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build courses query: %w", err)
	}
	query = r.db.Rebind(query)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, fmt.Errorf("find courses: %w", err)
	}
	for _, course := range courses {
		result[course.ID] = course
	}
	return result, nil
}

// ListByProfessor returns the courses assigned to a professor.
func (r *CourseRepository) ListByProfessor(ctx context.Context, professorID string) ([]models.Course, error) {
	const query = `SELECT c.id, c.code, c.name, c.credits, c.department_id, c.prerequisites, c.program, c.created_at, c.updated_at
        FROM courses c
        JOIN professor_course_assignments a ON a.course_id = c.id
        WHERE a.professor_id = $1 ORDER BY c.code`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, professorID); err != nil {
		return nil, fmt.Errorf("list professor courses: %w", err)
	}
	return courses, nil
}

// Create persists a new catalog entry. Course codes are unique.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now
	const query = `INSERT INTO courses (id, code, name, credits, department_id, prerequisites, program, created_at, updated_at)
        VALUES (:id, :code, :name, :credits, :department_id, :prerequisites, :program, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return translateUnique(err, "course code already exists")
	}
	return nil
}

// Update modifies a catalog entry.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET code = :code, name = :name, credits = :credits, department_id = :department_id,
        prerequisites = :prerequisites, program = :program, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return translateUnique(err, "course code already exists")
	}
	return nil
}

// Delete removes a catalog entry.
func (r *CourseRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete course: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete course: %w", err)
	}
	return affected > 0, nil
}

// CountByDepartment returns how many catalog entries a department owns.
func (r *CourseRepository) CountByDepartment(ctx context.Context, departmentID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM courses WHERE department_id = $1`, departmentID); err != nil {
		return 0, fmt.Errorf("count department courses: %w", err)
	}
	return count, nil
}

// Count returns the catalog size.
func (r *CourseRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM courses`); err != nil {
		return 0, fmt.Errorf("count courses: %w", err)
	}
	return count, nil
}
