package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/judy4534/studentSystem/internal/models"
	appErrors "github.com/judy4534/studentSystem/pkg/errors"
)

type enrollmentStore interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	Delete(ctx context.Context, studentID, courseID, semesterID string) (bool, error)
}

type enrollmentCatalog interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]models.Course, error)
}

// EnrollRequest enrolls a student into a course for the open semester.
type EnrollRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	CourseID  string `json:"course_id" validate:"required"`
}

// TransferCreditRequest grants credit for prior external coursework.
// The grade is the recognised total on the 0-100 scale.
type TransferCreditRequest struct {
	StudentID  string `json:"student_id" validate:"required"`
	CourseID   string `json:"course_id" validate:"required"`
	FinalGrade int    `json:"final_grade" validate:"min=0,max=100"`
}

// EnrollmentService manages the enrollment ledger.
type EnrollmentService struct {
	ledger    enrollmentStore
	catalog   enrollmentCatalog
	semesters semesterGate
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(ledger enrollmentStore, catalog enrollmentCatalog, semesters semesterGate, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		ledger:    ledger,
		catalog:   catalog,
		semesters: semesters,
		validator: validate,
		logger:    logger,
	}
}

// List returns ledger rows with student and course context.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	enrollments, total, err := s.ledger.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, total, nil
}

// Enroll adds the student to the course for the open semester.
// Students registering themselves must satisfy the course
// prerequisites; admins enroll anyone directly. A duplicate row for
// the (student, course, semester) triple is a conflict.
func (s *EnrollmentService) Enroll(ctx context.Context, actor models.JWTClaims, req EnrollRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	if actor.Role == models.RoleStudent && actor.UserID != req.StudentID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "students may only register themselves")
	}

	semester, err := requireOpenSemester(ctx, s.semesters)
	if err != nil {
		return nil, err
	}

	course, err := s.catalog.FindByID(ctx, req.CourseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	if actor.Role == models.RoleStudent {
		availability, err := s.availability(ctx, req.StudentID, *course)
		if err != nil {
			return nil, err
		}
		if !availability.Available {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unmet prerequisites: "+strings.Join(availability.Unmet, ", "))
		}
	}

	enrollment := &models.Enrollment{
		StudentID:  req.StudentID,
		CourseID:   req.CourseID,
		SemesterID: semester.ID,
		Status:     models.EnrollmentStatusEnrolled,
	}
	if err := s.ledger.Create(ctx, enrollment); err != nil {
		if appErr := appErrors.FromError(err); appErr.Code == appErrors.ErrConflict.Code {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}
	s.logger.Info("student enrolled",
		zap.String("student_id", req.StudentID),
		zap.String("course_id", req.CourseID),
		zap.String("semester_id", semester.ID))
	return enrollment, nil
}

// Unenroll removes the student's ledger row for the open semester.
func (s *EnrollmentService) Unenroll(ctx context.Context, actor models.JWTClaims, studentID, courseID string) error {
	if actor.Role == models.RoleStudent && actor.UserID != studentID {
		return appErrors.Clone(appErrors.ErrForbidden, "students may only drop their own courses")
	}
	semester, err := requireOpenSemester(ctx, s.semesters)
	if err != nil {
		return err
	}
	removed, err := s.ledger.Delete(ctx, studentID, courseID, semester.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove enrollment")
	}
	if !removed {
		return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
	}
	s.logger.Info("student unenrolled",
		zap.String("student_id", studentID),
		zap.String("course_id", courseID))
	return nil
}

// AddTransferCredit records recognised external coursework under the
// transfer semester sentinel, bypassing the open-semester gate. The
// full grade lands in the final component with zero coursework.
func (s *EnrollmentService) AddTransferCredit(ctx context.Context, req TransferCreditRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transfer credit payload")
	}
	if _, err := s.catalog.FindByID(ctx, req.CourseID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	coursework := 0
	final := req.FinalGrade
	enrollment := &models.Enrollment{
		StudentID:       req.StudentID,
		CourseID:        req.CourseID,
		SemesterID:      models.SemesterTransfer,
		CourseworkGrade: &coursework,
		FinalGrade:      &final,
		Status:          models.EnrollmentStatusTransferred,
	}
	if err := s.ledger.Create(ctx, enrollment); err != nil {
		if appErr := appErrors.FromError(err); appErr.Code == appErrors.ErrConflict.Code {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create transfer credit")
	}
	s.logger.Info("transfer credit added",
		zap.String("student_id", req.StudentID),
		zap.String("course_id", req.CourseID))
	return enrollment, nil
}

func (s *EnrollmentService) availability(ctx context.Context, studentID string, course models.Course) (models.Availability, error) {
	enrollments, err := s.ledger.ListByStudent(ctx, studentID)
	if err != nil {
		return models.Availability{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	ids := make([]string, 0, len(enrollments))
	seen := make(map[string]bool, len(enrollments))
	for _, enrollment := range enrollments {
		if !seen[enrollment.CourseID] {
			ids = append(ids, enrollment.CourseID)
			seen[enrollment.CourseID] = true
		}
	}
	courses, err := s.catalog.FindByIDs(ctx, ids)
	if err != nil {
		return models.Availability{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}
	completed := make(map[string]struct{})
	for _, enrollment := range enrollments {
		if enrollment.Status != models.EnrollmentStatusCompleted && enrollment.Status != models.EnrollmentStatusTransferred {
			continue
		}
		if c, ok := courses[enrollment.CourseID]; ok {
			completed[c.Code] = struct{}{}
		}
	}
	return CheckPrerequisites(course, completed), nil
}
