package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/judy4534/studentSystem/internal/models"
	appErrors "github.com/judy4534/studentSystem/pkg/errors"
)

type semesterStore interface {
	List(ctx context.Context, filter models.SemesterFilter) ([]models.Semester, int, error)
	FindByID(ctx context.Context, id string) (*models.Semester, error)
	FindOpen(ctx context.Context) (*models.Semester, error)
	ExistsByName(ctx context.Context, name, excludeID string) (bool, error)
	Create(ctx context.Context, semester *models.Semester) error
	Update(ctx context.Context, semester *models.Semester) error
	SetOpen(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// CreateSemesterRequest is the payload for creating a semester.
type CreateSemesterRequest struct {
	Name                    string    `json:"name" validate:"required,min=3,max=100"`
	StartDate               time.Time `json:"start_date" validate:"required"`
	EndDate                 time.Time `json:"end_date" validate:"required"`
	GradeSubmissionDeadline time.Time `json:"grade_submission_deadline" validate:"required"`
}

// UpdateSemesterRequest is the payload for updating a semester.
type UpdateSemesterRequest struct {
	Name                    *string    `json:"name" validate:"omitempty,min=3,max=100"`
	StartDate               *time.Time `json:"start_date"`
	EndDate                 *time.Time `json:"end_date"`
	GradeSubmissionDeadline *time.Time `json:"grade_submission_deadline"`
}

// SemesterService manages the academic calendar.
type SemesterService struct {
	semesters semesterStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSemesterService constructs SemesterService.
func NewSemesterService(semesters semesterStore, validate *validator.Validate, logger *zap.Logger) *SemesterService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SemesterService{semesters: semesters, validator: validate, logger: logger}
}

// List returns semesters matching the filter.
func (s *SemesterService) List(ctx context.Context, filter models.SemesterFilter) ([]models.Semester, int, error) {
	semesters, total, err := s.semesters.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list semesters")
	}
	return semesters, total, nil
}

// GetByID returns one semester.
func (s *SemesterService) GetByID(ctx context.Context, id string) (*models.Semester, error) {
	semester, err := s.semesters.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester")
	}
	return semester, nil
}

// GetOpen returns the semester currently open for registration, or a
// registration-closed error when none is.
func (s *SemesterService) GetOpen(ctx context.Context) (*models.Semester, error) {
	return requireOpenSemester(ctx, s.semesters)
}

// Create records a new semester in CLOSED state.
func (s *SemesterService) Create(ctx context.Context, req CreateSemesterRequest) (*models.Semester, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid semester payload")
	}
	if !req.EndDate.After(req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date must be after start date")
	}

	exists, err := s.semesters.ExistsByName(ctx, req.Name, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check semester name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "semester name already exists")
	}

	semester := &models.Semester{
		Name:                    req.Name,
		Status:                  models.SemesterStatusClosed,
		StartDate:               req.StartDate,
		EndDate:                 req.EndDate,
		GradeSubmissionDeadline: req.GradeSubmissionDeadline,
	}
	if err := s.semesters.Create(ctx, semester); err != nil {
		if appErr := appErrors.FromError(err); appErr.Code == appErrors.ErrConflict.Code {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create semester")
	}
	s.logger.Info("semester created", zap.String("semester_id", semester.ID), zap.String("name", semester.Name))
	return semester, nil
}

// Update modifies the provided fields of a semester.
func (s *SemesterService) Update(ctx context.Context, id string, req UpdateSemesterRequest) (*models.Semester, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid semester payload")
	}
	semester, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != semester.Name {
		exists, err := s.semesters.ExistsByName(ctx, *req.Name, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check semester name")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrConflict, "semester name already exists")
		}
		semester.Name = *req.Name
	}
	if req.StartDate != nil {
		semester.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		semester.EndDate = *req.EndDate
	}
	if req.GradeSubmissionDeadline != nil {
		semester.GradeSubmissionDeadline = *req.GradeSubmissionDeadline
	}
	if !semester.EndDate.After(semester.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date must be after start date")
	}

	if err := s.semesters.Update(ctx, semester); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update semester")
	}
	s.logger.Info("semester updated", zap.String("semester_id", id))
	return semester, nil
}

// Open marks the semester OPEN and closes every other one, keeping at
// most a single semester open at a time.
func (s *SemesterService) Open(ctx context.Context, id string) (*models.Semester, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if err := s.semesters.SetOpen(ctx, id); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open semester")
	}
	s.logger.Info("semester opened", zap.String("semester_id", id))
	return s.GetByID(ctx, id)
}

// Close marks the semester CLOSED, ending registration and grading.
func (s *SemesterService) Close(ctx context.Context, id string) (*models.Semester, error) {
	semester, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if semester.Status == models.SemesterStatusClosed {
		return semester, nil
	}
	semester.Status = models.SemesterStatusClosed
	if err := s.semesters.Update(ctx, semester); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close semester")
	}
	s.logger.Info("semester closed", zap.String("semester_id", id))
	return semester, nil
}

// Delete removes a semester.
func (s *SemesterService) Delete(ctx context.Context, id string) error {
	if err := s.semesters.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete semester")
	}
	s.logger.Info("semester deleted", zap.String("semester_id", id))
	return nil
}
