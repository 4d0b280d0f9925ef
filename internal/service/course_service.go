package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/judy4534/studentSystem/internal/models"
	appErrors "github.com/judy4534/studentSystem/pkg/errors"
)

type courseStore interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ListByProfessor(ctx context.Context, professorID string) ([]models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) (bool, error)
}

type courseDepartments interface {
	FindByID(ctx context.Context, id string) (*models.Department, error)
}

type courseAssignments interface {
	Create(ctx context.Context, assignment *models.ProfessorCourseAssignment) error
	Delete(ctx context.Context, professorID, courseID string) (bool, error)
}

type professorDirectory interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// CreateCourseRequest is the payload for adding a catalog entry.
type CreateCourseRequest struct {
	Code          string   `json:"code" validate:"required,min=2,max=20"`
	Name          string   `json:"name" validate:"required,min=3,max=200"`
	Credits       int      `json:"credits" validate:"required,min=1,max=12"`
	DepartmentID  string   `json:"department_id" validate:"required"`
	Prerequisites []string `json:"prerequisites"`
	Program       string   `json:"program"`
}

// UpdateCourseRequest is the payload for modifying a catalog entry.
type UpdateCourseRequest struct {
	Code          *string   `json:"code" validate:"omitempty,min=2,max=20"`
	Name          *string   `json:"name" validate:"omitempty,min=3,max=200"`
	Credits       *int      `json:"credits" validate:"omitempty,min=1,max=12"`
	DepartmentID  *string   `json:"department_id"`
	Prerequisites *[]string `json:"prerequisites"`
	Program       *string   `json:"program"`
}

// CourseService manages the course catalog and teaching assignments.
type CourseService struct {
	courses     courseStore
	departments courseDepartments
	assignments courseAssignments
	professors  professorDirectory
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewCourseService constructs CourseService.
func NewCourseService(courses courseStore, departments courseDepartments, assignments courseAssignments, professors professorDirectory, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{
		courses:     courses,
		departments: departments,
		assignments: assignments,
		professors:  professors,
		validator:   validate,
		logger:      logger,
	}
}

// List returns catalog entries matching the filter.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error) {
	courses, total, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, total, nil
}

// GetByID returns one catalog entry.
func (s *CourseService) GetByID(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// ListByProfessor returns the courses a professor teaches.
func (s *CourseService) ListByProfessor(ctx context.Context, professorID string) ([]models.Course, error) {
	courses, err := s.courses.ListByProfessor(ctx, professorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list professor courses")
	}
	return courses, nil
}

// Create adds a catalog entry. Prerequisites reference course codes,
// not IDs, so entries can cite courses added later.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	if _, err := s.departments.FindByID(ctx, req.DepartmentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}

	course := &models.Course{
		Code:          req.Code,
		Name:          req.Name,
		Credits:       req.Credits,
		DepartmentID:  req.DepartmentID,
		Prerequisites: req.Prerequisites,
		Program:       req.Program,
	}
	if course.Prerequisites == nil {
		course.Prerequisites = []string{}
	}
	if err := s.courses.Create(ctx, course); err != nil {
		if appErr := appErrors.FromError(err); appErr.Code == appErrors.ErrConflict.Code {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	s.logger.Info("course created", zap.String("course_id", course.ID), zap.String("code", course.Code))
	return course, nil
}

// Update modifies the provided fields of a catalog entry.
func (s *CourseService) Update(ctx context.Context, id string, req UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Code != nil {
		course.Code = *req.Code
	}
	if req.Name != nil {
		course.Name = *req.Name
	}
	if req.Credits != nil {
		course.Credits = *req.Credits
	}
	if req.DepartmentID != nil {
		if _, err := s.departments.FindByID(ctx, *req.DepartmentID); err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
		}
		course.DepartmentID = *req.DepartmentID
	}
	if req.Prerequisites != nil {
		course.Prerequisites = *req.Prerequisites
	}
	if req.Program != nil {
		course.Program = *req.Program
	}

	if err := s.courses.Update(ctx, course); err != nil {
		if appErr := appErrors.FromError(err); appErr.Code == appErrors.ErrConflict.Code {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	s.logger.Info("course updated", zap.String("course_id", id))
	return course, nil
}

// Delete removes a catalog entry.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	removed, err := s.courses.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	if !removed {
		return appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	s.logger.Info("course deleted", zap.String("course_id", id))
	return nil
}

// AssignProfessor links a professor to a course they will teach.
func (s *CourseService) AssignProfessor(ctx context.Context, professorID, courseID string) (*models.ProfessorCourseAssignment, error) {
	professor, err := s.professors.FindByID(ctx, professorID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "professor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load professor")
	}
	if professor.Role != models.RoleProfessor {
		return nil, appErrors.Clone(appErrors.ErrValidation, "user is not a professor")
	}
	if _, err := s.GetByID(ctx, courseID); err != nil {
		return nil, err
	}

	assignment := &models.ProfessorCourseAssignment{ProfessorID: professorID, CourseID: courseID}
	if err := s.assignments.Create(ctx, assignment); err != nil {
		if appErr := appErrors.FromError(err); appErr.Code == appErrors.ErrConflict.Code {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}
	s.logger.Info("professor assigned",
		zap.String("professor_id", professorID),
		zap.String("course_id", courseID))
	return assignment, nil
}

// UnassignProfessor removes a teaching assignment.
func (s *CourseService) UnassignProfessor(ctx context.Context, professorID, courseID string) error {
	removed, err := s.assignments.Delete(ctx, professorID, courseID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
	}
	if !removed {
		return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
	}
	return nil
}
