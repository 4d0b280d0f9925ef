package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/judy4534/studentSystem/internal/models"
	appErrors "github.com/judy4534/studentSystem/pkg/errors"
)

type mockCalendar struct {
	semesters map[string]*models.Semester
}

func (m *mockCalendar) List(ctx context.Context, filter models.SemesterFilter) ([]models.Semester, int, error) {
	var result []models.Semester
	for _, s := range m.semesters {
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		result = append(result, *s)
	}
	return result, len(result), nil
}

func (m *mockCalendar) FindByID(ctx context.Context, id string) (*models.Semester, error) {
	if s, ok := m.semesters[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCalendar) FindOpen(ctx context.Context) (*models.Semester, error) {
	for _, s := range m.semesters {
		if s.Status == models.SemesterStatusOpen {
			copied := *s
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockCalendar) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	for _, s := range m.semesters {
		if s.Name == name && s.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockCalendar) Create(ctx context.Context, semester *models.Semester) error {
	if semester.ID == "" {
		semester.ID = "sem-" + semester.Name
	}
	m.semesters[semester.ID] = semester
	return nil
}

func (m *mockCalendar) Update(ctx context.Context, semester *models.Semester) error {
	m.semesters[semester.ID] = semester
	return nil
}

func (m *mockCalendar) SetOpen(ctx context.Context, id string) error {
	for _, s := range m.semesters {
		if s.ID == id {
			s.Status = models.SemesterStatusOpen
		} else if s.Status == models.SemesterStatusOpen {
			s.Status = models.SemesterStatusClosed
		}
	}
	return nil
}

func (m *mockCalendar) Delete(ctx context.Context, id string) error {
	if _, ok := m.semesters[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.semesters, id)
	return nil
}

func newSemesterFixture() (*SemesterService, *mockCalendar) {
	calendar := &mockCalendar{semesters: map[string]*models.Semester{}}
	return NewSemesterService(calendar, nil, nil), calendar
}

func semesterDates() (time.Time, time.Time, time.Time) {
	start := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	deadline := time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)
	return start, end, deadline
}

func TestCreateSemesterStartsClosed(t *testing.T) {
	svc, _ := newSemesterFixture()
	start, end, deadline := semesterDates()

	semester, err := svc.Create(context.Background(), CreateSemesterRequest{
		Name: "fall-2025", StartDate: start, EndDate: end, GradeSubmissionDeadline: deadline,
	})
	require.NoError(t, err)
	assert.Equal(t, models.SemesterStatusClosed, semester.Status)
}

func TestCreateSemesterDuplicateName(t *testing.T) {
	svc, _ := newSemesterFixture()
	start, end, deadline := semesterDates()
	req := CreateSemesterRequest{Name: "fall-2025", StartDate: start, EndDate: end, GradeSubmissionDeadline: deadline}

	_, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCreateSemesterRejectsInvertedDates(t *testing.T) {
	svc, _ := newSemesterFixture()
	start, end, deadline := semesterDates()

	_, err := svc.Create(context.Background(), CreateSemesterRequest{
		Name: "fall-2025", StartDate: end, EndDate: start, GradeSubmissionDeadline: deadline,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestOpenSemesterClosesOthers(t *testing.T) {
	svc, calendar := newSemesterFixture()
	calendar.semesters["s1"] = &models.Semester{ID: "s1", Name: "fall-2025", Status: models.SemesterStatusOpen}
	calendar.semesters["s2"] = &models.Semester{ID: "s2", Name: "spring-2026", Status: models.SemesterStatusClosed}

	opened, err := svc.Open(context.Background(), "s2")
	require.NoError(t, err)
	assert.Equal(t, models.SemesterStatusOpen, opened.Status)
	assert.Equal(t, models.SemesterStatusClosed, calendar.semesters["s1"].Status)

	open, err := svc.GetOpen(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "s2", open.ID)
}

func TestGetOpenWithoutOpenSemester(t *testing.T) {
	svc, _ := newSemesterFixture()

	_, err := svc.GetOpen(context.Background())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrRegistrationClosed.Code, appErr.Code)
	assert.Equal(t, 400, appErr.Status)
}

func TestCloseSemesterIsIdempotent(t *testing.T) {
	svc, calendar := newSemesterFixture()
	calendar.semesters["s1"] = &models.Semester{ID: "s1", Name: "fall-2025", Status: models.SemesterStatusClosed}

	closed, err := svc.Close(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, models.SemesterStatusClosed, closed.Status)
}

func TestDeleteSemesterNotFound(t *testing.T) {
	svc, _ := newSemesterFixture()

	err := svc.Delete(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
