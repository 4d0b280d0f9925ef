package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/judy4534/studentSystem/internal/models"
	appErrors "github.com/judy4534/studentSystem/pkg/errors"
)

type requestStore interface {
	List(ctx context.Context, filter models.RequestFilter) ([]models.RequestDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.RegistrationRequest, error)
	Create(ctx context.Context, request *models.RegistrationRequest) error
	UpdateStatus(ctx context.Context, id string, status models.RequestStatus) error
}

type requestLedger interface {
	Create(ctx context.Context, enrollment *models.Enrollment) error
	Delete(ctx context.Context, studentID, courseID, semesterID string) (bool, error)
}

type requestCatalog interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type notifier interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// CreateRequestRequest is the student payload for opening a request.
type CreateRequestRequest struct {
	CourseID    string             `json:"course_id" validate:"required"`
	RequestType models.RequestType `json:"request_type" validate:"required,oneof=ADD DROP OVERRIDE REVIEW"`
}

// RequestService runs the registration-request workflow. Requests are
// recorded without eligibility checks; validation happens at approval
// against the state of the world at that moment.
type RequestService struct {
	requests  requestStore
	ledger    requestLedger
	catalog   requestCatalog
	semesters semesterGate
	notifier  notifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRequestService constructs RequestService.
func NewRequestService(requests requestStore, ledger requestLedger, catalog requestCatalog, semesters semesterGate, notifications notifier, validate *validator.Validate, logger *zap.Logger) *RequestService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestService{
		requests:  requests,
		ledger:    ledger,
		catalog:   catalog,
		semesters: semesters,
		notifier:  notifications,
		validator: validate,
		logger:    logger,
	}
}

// List returns requests matching the filter.
func (s *RequestService) List(ctx context.Context, filter models.RequestFilter) ([]models.RequestDetail, int, error) {
	requests, total, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list requests")
	}
	return requests, total, nil
}

// Create opens a PENDING request for the student. The course must
// exist; everything else is judged when an admin resolves the request.
func (s *RequestService) Create(ctx context.Context, studentID string, req CreateRequestRequest) (*models.RegistrationRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request payload")
	}
	if _, err := s.catalog.FindByID(ctx, req.CourseID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	request := &models.RegistrationRequest{
		StudentID:   studentID,
		CourseID:    req.CourseID,
		RequestType: req.RequestType,
		Status:      models.RequestStatusPending,
	}
	if err := s.requests.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create request")
	}
	s.logger.Info("request created",
		zap.String("request_id", request.ID),
		zap.String("student_id", studentID),
		zap.String("type", string(request.RequestType)))
	return request, nil
}

// Approve resolves a PENDING request and applies its effect against
// the open semester. ADD and OVERRIDE enroll the student, DROP removes
// the enrollment, REVIEW changes nothing. A failed effect leaves the
// request PENDING so the admin can retry.
func (s *RequestService) Approve(ctx context.Context, requestID string) (*models.RegistrationRequest, error) {
	request, err := s.pending(ctx, requestID)
	if err != nil {
		return nil, err
	}
	semester, err := requireOpenSemester(ctx, s.semesters)
	if err != nil {
		return nil, err
	}

	switch request.RequestType {
	case models.RequestTypeAdd, models.RequestTypeOverride:
		enrollment := &models.Enrollment{
			StudentID:  request.StudentID,
			CourseID:   request.CourseID,
			SemesterID: semester.ID,
			Status:     models.EnrollmentStatusEnrolled,
		}
		if err := s.ledger.Create(ctx, enrollment); err != nil {
			if appErr := appErrors.FromError(err); appErr.Code == appErrors.ErrConflict.Code {
				return nil, appErr
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll student")
		}
	case models.RequestTypeDrop:
		removed, err := s.ledger.Delete(ctx, request.StudentID, request.CourseID, semester.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove enrollment")
		}
		if !removed {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found for the open semester")
		}
	case models.RequestTypeReview:
		// no ledger effect
	}

	if err := s.requests.UpdateStatus(ctx, requestID, models.RequestStatusApproved); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update request")
	}
	request.Status = models.RequestStatusApproved

	s.notify(ctx, request.StudentID, "تم قبول طلبك", fmt.Sprintf("تمت الموافقة على طلب %s الخاص بك.", requestTypeLabel(request.RequestType)))
	s.logger.Info("request approved", zap.String("request_id", requestID))
	return request, nil
}

// Reject resolves a PENDING request without side effects on the ledger.
func (s *RequestService) Reject(ctx context.Context, requestID string) (*models.RegistrationRequest, error) {
	request, err := s.pending(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := s.requests.UpdateStatus(ctx, requestID, models.RequestStatusRejected); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update request")
	}
	request.Status = models.RequestStatusRejected

	s.notify(ctx, request.StudentID, "تم رفض طلبك", fmt.Sprintf("نأسف، تم رفض طلب %s الخاص بك.", requestTypeLabel(request.RequestType)))
	s.logger.Info("request rejected", zap.String("request_id", requestID))
	return request, nil
}

func (s *RequestService) pending(ctx context.Context, requestID string) (*models.RegistrationRequest, error) {
	request, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}
	if request.Status != models.RequestStatusPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "request already resolved")
	}
	return request, nil
}

func (s *RequestService) notify(ctx context.Context, userID, title, message string) {
	if s.notifier == nil {
		return
	}
	notification := &models.Notification{UserID: userID, Title: title, Message: message}
	if err := s.notifier.Create(ctx, notification); err != nil {
		s.logger.Warn("failed to create notification", zap.Error(err))
	}
}

func requestTypeLabel(t models.RequestType) string {
	switch t {
	case models.RequestTypeAdd:
		return "تسجيل المادة"
	case models.RequestTypeDrop:
		return "سحب المادة"
	case models.RequestTypeOverride:
		return "تجاوز المتطلبات"
	case models.RequestTypeReview:
		return "مراجعة الدرجات"
	default:
		return string(t)
	}
}
