package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/judy4534/studentSystem/internal/models"
	appErrors "github.com/judy4534/studentSystem/pkg/errors"
)

type mockGradeLedger struct {
	enrollments map[string]*models.Enrollment
	completed   int
}

func (m *mockGradeLedger) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if e, ok := m.enrollments[id]; ok {
		copied := *e
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockGradeLedger) UpdateGrades(ctx context.Context, id string, coursework, final *int) error {
	e, ok := m.enrollments[id]
	if !ok {
		return sql.ErrNoRows
	}
	if coursework != nil {
		e.CourseworkGrade = coursework
	}
	if final != nil {
		e.FinalGrade = final
	}
	return nil
}

func (m *mockGradeLedger) MarkCompleted(ctx context.Context, courseID, semesterID string) (int, error) {
	count := 0
	for _, e := range m.enrollments {
		if e.CourseID == courseID && e.SemesterID == semesterID && e.Status == models.EnrollmentStatusEnrolled {
			e.Status = models.EnrollmentStatusCompleted
			count++
		}
	}
	m.completed = count
	return count, nil
}

type mockSubmissionStore struct {
	submissions map[string]models.CourseSubmission
}

func (m *mockSubmissionStore) FindByCourseAndSemester(ctx context.Context, courseID, semesterID string) (*models.CourseSubmission, error) {
	if s, ok := m.submissions[submissionKey(courseID, semesterID)]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSubmissionStore) Create(ctx context.Context, submission *models.CourseSubmission) error {
	key := submissionKey(submission.CourseID, submission.SemesterID)
	if _, ok := m.submissions[key]; ok {
		return appErrors.Clone(appErrors.ErrConflict, "grades already submitted for this course and semester")
	}
	if m.submissions == nil {
		m.submissions = make(map[string]models.CourseSubmission)
	}
	m.submissions[key] = *submission
	return nil
}

type mockRoster struct {
	pairs map[string]bool
}

func rosterKey(professorID, courseID string) string { return professorID + "|" + courseID }

func (m *mockRoster) ExistsForProfessor(ctx context.Context, professorID, courseID string) (bool, error) {
	return m.pairs[rosterKey(professorID, courseID)], nil
}

type mockGate struct {
	open *models.Semester
}

func (m *mockGate) FindOpen(ctx context.Context) (*models.Semester, error) {
	if m.open == nil {
		return nil, sql.ErrNoRows
	}
	return m.open, nil
}

func newGradeFixture(strict bool) (*GradeService, *mockGradeLedger, *mockSubmissionStore, *mockRoster, *mockGate) {
	ledger := &mockGradeLedger{enrollments: map[string]*models.Enrollment{}}
	submissions := &mockSubmissionStore{submissions: map[string]models.CourseSubmission{}}
	roster := &mockRoster{pairs: map[string]bool{}}
	gate := &mockGate{open: &models.Semester{ID: "s1"}}
	svc := NewGradeService(ledger, submissions, roster, gate, strict, nil, nil)
	return svc, ledger, submissions, roster, gate
}

func professorClaims(id string) models.JWTClaims {
	return models.JWTClaims{UserID: id, Role: models.RoleProfessor}
}

func adminClaims() models.JWTClaims {
	return models.JWTClaims{UserID: "admin", Role: models.RoleAdmin}
}

func TestUpdateGradeWritesComponents(t *testing.T) {
	svc, ledger, _, roster, _ := newGradeFixture(true)
	ledger.enrollments["e1"] = &models.Enrollment{ID: "e1", CourseID: "c1", SemesterID: "s1", Status: models.EnrollmentStatusEnrolled}
	roster.pairs[rosterKey("prof", "c1")] = true

	updated, err := svc.UpdateGrade(context.Background(), professorClaims("prof"), "e1", UpdateGradeRequest{
		CourseworkGrade: intPtr(35),
		FinalGrade:      intPtr(55),
	})
	require.NoError(t, err)
	assert.Equal(t, 35, *updated.CourseworkGrade)
	assert.Equal(t, 55, *updated.FinalGrade)
	assert.Equal(t, 90, *updated.TotalGrade())
	assert.True(t, updated.Passed())
}

func TestUpdateGradePartialKeepsOtherComponent(t *testing.T) {
	svc, ledger, _, _, _ := newGradeFixture(false)
	ledger.enrollments["e1"] = &models.Enrollment{ID: "e1", CourseID: "c1", SemesterID: "s1", CourseworkGrade: intPtr(20)}

	updated, err := svc.UpdateGrade(context.Background(), adminClaims(), "e1", UpdateGradeRequest{FinalGrade: intPtr(29)})
	require.NoError(t, err)
	assert.Equal(t, 20, *updated.CourseworkGrade)
	assert.Equal(t, 29, *updated.FinalGrade)
	assert.Equal(t, 49, *updated.TotalGrade())
	assert.False(t, updated.Passed())
}

func TestUpdateGradeRangeValidation(t *testing.T) {
	svc, ledger, _, _, _ := newGradeFixture(false)
	ledger.enrollments["e1"] = &models.Enrollment{ID: "e1", CourseID: "c1", SemesterID: "s1"}

	_, err := svc.UpdateGrade(context.Background(), adminClaims(), "e1", UpdateGradeRequest{CourseworkGrade: intPtr(41)})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.UpdateGrade(context.Background(), adminClaims(), "e1", UpdateGradeRequest{FinalGrade: intPtr(61)})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.UpdateGrade(context.Background(), adminClaims(), "e1", UpdateGradeRequest{})
	require.Error(t, err)
}

func TestUpdateGradePassBoundary(t *testing.T) {
	svc, ledger, _, _, _ := newGradeFixture(false)
	ledger.enrollments["e1"] = &models.Enrollment{ID: "e1", CourseID: "c1", SemesterID: "s1"}

	updated, err := svc.UpdateGrade(context.Background(), adminClaims(), "e1", UpdateGradeRequest{
		CourseworkGrade: intPtr(20),
		FinalGrade:      intPtr(30),
	})
	require.NoError(t, err)
	assert.Equal(t, 50, *updated.TotalGrade())
	assert.True(t, updated.Passed())
}

func TestUpdateGradeClosedSemester(t *testing.T) {
	svc, ledger, _, _, gate := newGradeFixture(false)
	ledger.enrollments["e1"] = &models.Enrollment{ID: "e1", CourseID: "c1", SemesterID: "s1"}
	gate.open = nil

	_, err := svc.UpdateGrade(context.Background(), adminClaims(), "e1", UpdateGradeRequest{FinalGrade: intPtr(40)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrRegistrationClosed))
	assert.Nil(t, ledger.enrollments["e1"].FinalGrade)
}

func TestUpdateGradeOutsideOpenSemester(t *testing.T) {
	svc, ledger, _, _, _ := newGradeFixture(false)
	ledger.enrollments["e1"] = &models.Enrollment{ID: "e1", CourseID: "c1", SemesterID: "s0"}

	_, err := svc.UpdateGrade(context.Background(), adminClaims(), "e1", UpdateGradeRequest{FinalGrade: intPtr(40)})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Nil(t, ledger.enrollments["e1"].FinalGrade)
}

func TestUpdateGradeTransferRowRejected(t *testing.T) {
	svc, ledger, _, _, _ := newGradeFixture(false)
	ledger.enrollments["e1"] = &models.Enrollment{ID: "e1", CourseID: "c1", SemesterID: models.SemesterTransfer, FinalGrade: intPtr(80)}

	_, err := svc.UpdateGrade(context.Background(), adminClaims(), "e1", UpdateGradeRequest{FinalGrade: intPtr(40)})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 80, *ledger.enrollments["e1"].FinalGrade)
}

func TestUpdateGradeUnassignedProfessorForbidden(t *testing.T) {
	svc, ledger, _, _, _ := newGradeFixture(false)
	ledger.enrollments["e1"] = &models.Enrollment{ID: "e1", CourseID: "c1", SemesterID: "s1"}

	_, err := svc.UpdateGrade(context.Background(), professorClaims("other"), "e1", UpdateGradeRequest{FinalGrade: intPtr(40)})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestUpdateGradeLockedAfterSubmission(t *testing.T) {
	svc, ledger, submissions, _, _ := newGradeFixture(true)
	ledger.enrollments["e1"] = &models.Enrollment{ID: "e1", CourseID: "c1", SemesterID: "s1"}
	submissions.submissions[submissionKey("c1", "s1")] = models.CourseSubmission{CourseID: "c1", SemesterID: "s1"}

	_, err := svc.UpdateGrade(context.Background(), adminClaims(), "e1", UpdateGradeRequest{FinalGrade: intPtr(40)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrGradesLocked))
}

func TestUpdateGradeLockDisabled(t *testing.T) {
	svc, ledger, submissions, _, _ := newGradeFixture(false)
	ledger.enrollments["e1"] = &models.Enrollment{ID: "e1", CourseID: "c1", SemesterID: "s1"}
	submissions.submissions[submissionKey("c1", "s1")] = models.CourseSubmission{CourseID: "c1", SemesterID: "s1"}

	_, err := svc.UpdateGrade(context.Background(), adminClaims(), "e1", UpdateGradeRequest{FinalGrade: intPtr(40)})
	require.NoError(t, err)
}

func TestSubmitGradesCompletesRoster(t *testing.T) {
	svc, ledger, submissions, roster, _ := newGradeFixture(true)
	roster.pairs[rosterKey("prof", "c1")] = true
	ledger.enrollments["e1"] = &models.Enrollment{ID: "e1", CourseID: "c1", SemesterID: "s1", Status: models.EnrollmentStatusEnrolled, CourseworkGrade: intPtr(30), FinalGrade: intPtr(40)}
	ledger.enrollments["e2"] = &models.Enrollment{ID: "e2", CourseID: "c1", SemesterID: "s1", Status: models.EnrollmentStatusEnrolled, CourseworkGrade: intPtr(10), FinalGrade: intPtr(20)}

	submission, err := svc.SubmitGrades(context.Background(), professorClaims("prof"), "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", submission.CourseID)
	assert.Equal(t, "s1", submission.SemesterID)
	assert.Equal(t, 2, ledger.completed)
	assert.Equal(t, models.EnrollmentStatusCompleted, ledger.enrollments["e1"].Status)
	_, ok := submissions.submissions[submissionKey("c1", "s1")]
	assert.True(t, ok)
}

func TestSubmitGradesTwiceConflicts(t *testing.T) {
	svc, ledger, _, roster, _ := newGradeFixture(true)
	roster.pairs[rosterKey("prof", "c1")] = true
	ledger.enrollments["e1"] = &models.Enrollment{ID: "e1", CourseID: "c1", SemesterID: "s1", Status: models.EnrollmentStatusEnrolled, CourseworkGrade: intPtr(30), FinalGrade: intPtr(40)}

	_, err := svc.SubmitGrades(context.Background(), professorClaims("prof"), "c1")
	require.NoError(t, err)

	_, err = svc.SubmitGrades(context.Background(), professorClaims("prof"), "c1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrAlreadySubmitted))
}

func TestSubmitGradesWithMissingComponents(t *testing.T) {
	svc, ledger, submissions, roster, _ := newGradeFixture(true)
	roster.pairs[rosterKey("prof", "c1")] = true
	ledger.enrollments["e1"] = &models.Enrollment{ID: "e1", CourseID: "c1", SemesterID: "s1", Status: models.EnrollmentStatusEnrolled, CourseworkGrade: intPtr(30)}

	submission, err := svc.SubmitGrades(context.Background(), professorClaims("prof"), "c1")
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusCompleted, ledger.enrollments["e1"].Status)
	_, ok := submissions.submissions[submissionKey(submission.CourseID, submission.SemesterID)]
	assert.True(t, ok)
}

func TestSubmitGradesClosedSemester(t *testing.T) {
	svc, _, _, roster, gate := newGradeFixture(true)
	roster.pairs[rosterKey("prof", "c1")] = true
	gate.open = nil

	_, err := svc.SubmitGrades(context.Background(), professorClaims("prof"), "c1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrRegistrationClosed))
}
