package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/judy4534/studentSystem/internal/models"
	appErrors "github.com/judy4534/studentSystem/pkg/errors"
)

type mockCounters struct {
	roles    map[models.UserRole]int
	courses  int
	depts    int
	requests map[models.RequestStatus]int
	calls    int
}

func (m *mockCounters) CountByRole(ctx context.Context, role models.UserRole) (int, error) {
	m.calls++
	return m.roles[role], nil
}

func (m *mockCounters) Count(ctx context.Context) (int, error) {
	m.calls++
	return m.courses, nil
}

type mockDeptCounter struct{ count int }

func (m *mockDeptCounter) Count(ctx context.Context) (int, error) { return m.count, nil }

func (m *mockCounters) CountByStatus(ctx context.Context, status models.RequestStatus) (int, error) {
	m.calls++
	return m.requests[status], nil
}

type memoryCache struct {
	data map[string]interface{}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	if v, ok := m.data[key]; ok {
		if stats, ok := dest.(*models.DashboardStats); ok {
			*stats = *v.(*models.DashboardStats)
			return nil
		}
	}
	return appErrors.ErrCacheMiss
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if stats, ok := value.(*models.DashboardStats); ok {
		copied := *stats
		m.data[key] = &copied
	}
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.data = map[string]interface{}{}
	return nil
}

func newDashboardFixture() (*DashboardService, *mockCounters, *memoryCache) {
	counters := &mockCounters{
		roles:    map[models.UserRole]int{models.RoleStudent: 120, models.RoleProfessor: 15},
		courses:  42,
		requests: map[models.RequestStatus]int{models.RequestStatusPending: 7},
	}
	cacheRepo := &memoryCache{data: map[string]interface{}{}}
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	gate := &mockGate{open: &models.Semester{ID: "s1", Name: "fall-2025"}}
	svc := NewDashboardService(counters, counters, &mockDeptCounter{count: 4}, counters, gate, cache, time.Minute, nil)
	return svc, counters, cacheRepo
}

func TestDashboardStats(t *testing.T) {
	svc, _, _ := newDashboardFixture()

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 120, stats.Students)
	assert.Equal(t, 15, stats.Professors)
	assert.Equal(t, 42, stats.Courses)
	assert.Equal(t, 4, stats.Departments)
	assert.Equal(t, 7, stats.PendingRequests)
	require.NotNil(t, stats.OpenSemester)
	assert.Equal(t, "s1", stats.OpenSemester.ID)
}

func TestDashboardStatsServedFromCache(t *testing.T) {
	svc, counters, _ := newDashboardFixture()

	_, err := svc.Stats(context.Background())
	require.NoError(t, err)
	firstCalls := counters.calls

	_, err = svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, firstCalls, counters.calls)
}

func TestDashboardInvalidate(t *testing.T) {
	svc, counters, _ := newDashboardFixture()

	_, err := svc.Stats(context.Background())
	require.NoError(t, err)
	firstCalls := counters.calls

	svc.Invalidate(context.Background())

	_, err = svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Greater(t, counters.calls, firstCalls)
}
