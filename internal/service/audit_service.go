package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/judy4534/studentSystem/internal/models"
	appErrors "github.com/judy4534/studentSystem/pkg/errors"
)

type auditStore interface {
	Create(ctx context.Context, log *models.AuditLog) error
	List(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLogDetail, int, error)
}

// AuditService exposes the audit trail to administrators.
type AuditService struct {
	audit  auditStore
	logger *zap.Logger
}

// NewAuditService constructs AuditService.
func NewAuditService(audit auditStore, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{audit: audit, logger: logger}
}

// List returns audit records newest first.
func (s *AuditService) List(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLogDetail, int, error) {
	logs, total, err := s.audit.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audit logs")
	}
	return logs, total, nil
}

// Record appends an audit record, logging failures without failing the
// caller's operation.
func (s *AuditService) Record(ctx context.Context, log *models.AuditLog) {
	if err := s.audit.Create(ctx, log); err != nil {
		s.logger.Warn("failed to record audit log", zap.Error(err))
	}
}
