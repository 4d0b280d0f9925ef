package service

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/judy4534/studentSystem/internal/models"
	appErrors "github.com/judy4534/studentSystem/pkg/errors"
)

type notificationStore interface {
	ListByUser(ctx context.Context, userID string) ([]models.Notification, error)
	FindByID(ctx context.Context, id string) (*models.Notification, error)
	Create(ctx context.Context, notification *models.Notification) error
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, userID string) error
}

// NotificationService manages in-portal notifications and sends
// grade-submission reminders to professors.
type NotificationService struct {
	notifications notificationStore
	records       *RecordsService
	logger        *zap.Logger
}

// NewNotificationService constructs NotificationService.
func NewNotificationService(notifications notificationStore, records *RecordsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{notifications: notifications, records: records, logger: logger}
}

// ListForUser returns a user's notifications, newest first.
func (s *NotificationService) ListForUser(ctx context.Context, userID string) ([]models.Notification, error) {
	notifications, err := s.notifications.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return notifications, nil
}

// MarkRead flags a notification as read. Users may only touch their own.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	notification, err := s.notifications.FindByID(ctx, notificationID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notification")
	}
	if notification.UserID != userID {
		return appErrors.Clone(appErrors.ErrForbidden, "notification belongs to another user")
	}
	if err := s.notifications.MarkRead(ctx, notificationID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	return nil
}

// MarkAllRead flags every unread notification of the user as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	if err := s.notifications.MarkAllRead(ctx, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications read")
	}
	return nil
}

// Notify records a notification for a user.
func (s *NotificationService) Notify(ctx context.Context, userID, title, message string) error {
	notification := &models.Notification{UserID: userID, Title: title, Message: message}
	if err := s.notifications.Create(ctx, notification); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create notification")
	}
	return nil
}

// SendGradeReminders notifies the professor of every course on the
// submission board that is still pending for the semester. Returns the
// number of reminders sent.
func (s *NotificationService) SendGradeReminders(ctx context.Context, semesterID string) (int, error) {
	board, err := s.records.SubmissionBoard(ctx, semesterID)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, row := range board.Rows {
		if row.Status != models.SubmissionStatusPending || row.ProfessorID == nil {
			continue
		}
		notification := &models.Notification{
			UserID:  *row.ProfessorID,
			Title:   "تذكير بتسليم الدرجات",
			Message: fmt.Sprintf("يرجى تسليم درجات مقرر %s قبل الموعد النهائي.", row.CourseName),
		}
		if err := s.notifications.Create(ctx, notification); err != nil {
			s.logger.Warn("failed to create reminder",
				zap.String("course_id", row.CourseID),
				zap.Error(err))
			continue
		}
		sent++
	}
	s.logger.Info("grade reminders sent",
		zap.String("semester_id", semesterID),
		zap.Int("count", sent))
	return sent, nil
}
