package service

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/judy4534/studentSystem/internal/models"
	appErrors "github.com/judy4534/studentSystem/pkg/errors"
)

type roleCounter interface {
	CountByRole(ctx context.Context, role models.UserRole) (int, error)
}

type courseCounter interface {
	Count(ctx context.Context) (int, error)
}

type departmentCounter interface {
	Count(ctx context.Context) (int, error)
}

type requestCounter interface {
	CountByStatus(ctx context.Context, status models.RequestStatus) (int, error)
}

const dashboardCacheKey = "dashboard:stats"

// DashboardService composes the admin landing-page statistics.
type DashboardService struct {
	users       roleCounter
	courses     courseCounter
	departments departmentCounter
	requests    requestCounter
	semesters   semesterGate
	cache       *CacheService
	cacheTTL    time.Duration
	logger      *zap.Logger
}

// NewDashboardService constructs DashboardService.
func NewDashboardService(users roleCounter, courses courseCounter, departments departmentCounter, requests requestCounter, semesters semesterGate, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *DashboardService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		users:       users,
		courses:     courses,
		departments: departments,
		requests:    requests,
		semesters:   semesters,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

// Stats returns the headline numbers, served from cache when fresh.
func (s *DashboardService) Stats(ctx context.Context) (*models.DashboardStats, error) {
	var cached models.DashboardStats
	if hit, err := s.cache.Get(ctx, dashboardCacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	stats := &models.DashboardStats{}
	var err error

	if stats.Students, err = s.users.CountByRole(ctx, models.RoleStudent); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}
	if stats.Professors, err = s.users.CountByRole(ctx, models.RoleProfessor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count professors")
	}
	if stats.Courses, err = s.courses.Count(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count courses")
	}
	if stats.Departments, err = s.departments.Count(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count departments")
	}
	if stats.PendingRequests, err = s.requests.CountByStatus(ctx, models.RequestStatusPending); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pending requests")
	}

	if open, err := s.semesters.FindOpen(ctx); err == nil {
		stats.OpenSemester = open
	} else if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve open semester")
	}

	if err := s.cache.Set(ctx, dashboardCacheKey, stats, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache dashboard stats", zap.Error(err))
	}
	return stats, nil
}

// Invalidate drops the cached statistics after a mutation.
func (s *DashboardService) Invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, dashboardCacheKey); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}
