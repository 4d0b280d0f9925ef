package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/judy4534/studentSystem/internal/models"
	appErrors "github.com/judy4534/studentSystem/pkg/errors"
)

type departmentStore interface {
	List(ctx context.Context) ([]models.DepartmentDetail, error)
	FindByID(ctx context.Context, id string) (*models.Department, error)
	Create(ctx context.Context, department *models.Department) error
	Update(ctx context.Context, department *models.Department) error
	Delete(ctx context.Context, id string) error
}

type departmentCourses interface {
	CountByDepartment(ctx context.Context, departmentID string) (int, error)
}

// DepartmentRequest is the payload for creating or updating a department.
type DepartmentRequest struct {
	Name string `json:"name" validate:"required,min=2,max=200"`
	Head string `json:"head" validate:"max=200"`
}

// DepartmentService manages academic departments.
type DepartmentService struct {
	departments departmentStore
	courses     departmentCourses
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewDepartmentService constructs DepartmentService.
func NewDepartmentService(departments departmentStore, courses departmentCourses, validate *validator.Validate, logger *zap.Logger) *DepartmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DepartmentService{departments: departments, courses: courses, validator: validate, logger: logger}
}

// List returns departments with their course and student counts.
func (s *DepartmentService) List(ctx context.Context) ([]models.DepartmentDetail, error) {
	departments, err := s.departments.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list departments")
	}
	return departments, nil
}

// GetByID returns one department.
func (s *DepartmentService) GetByID(ctx context.Context, id string) (*models.Department, error) {
	department, err := s.departments.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}
	return department, nil
}

// Create adds a department.
func (s *DepartmentService) Create(ctx context.Context, req DepartmentRequest) (*models.Department, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid department payload")
	}
	department := &models.Department{Name: req.Name, Head: req.Head}
	if err := s.departments.Create(ctx, department); err != nil {
		if appErr := appErrors.FromError(err); appErr.Code == appErrors.ErrConflict.Code {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create department")
	}
	s.logger.Info("department created", zap.String("department_id", department.ID))
	return department, nil
}

// Update modifies a department.
func (s *DepartmentService) Update(ctx context.Context, id string, req DepartmentRequest) (*models.Department, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid department payload")
	}
	department, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	department.Name = req.Name
	department.Head = req.Head
	if err := s.departments.Update(ctx, department); err != nil {
		if appErr := appErrors.FromError(err); appErr.Code == appErrors.ErrConflict.Code {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update department")
	}
	s.logger.Info("department updated", zap.String("department_id", id))
	return department, nil
}

// Delete removes a department unless courses still reference it.
func (s *DepartmentService) Delete(ctx context.Context, id string) error {
	count, err := s.courses.CountByDepartment(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count department courses")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "department still has courses")
	}
	if err := s.departments.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete department")
	}
	s.logger.Info("department deleted", zap.String("department_id", id))
	return nil
}
