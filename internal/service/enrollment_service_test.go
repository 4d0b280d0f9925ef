package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/judy4534/studentSystem/internal/models"
	appErrors "github.com/judy4534/studentSystem/pkg/errors"
)

type mockEnrollmentStore struct {
	rows map[string]models.Enrollment
}

func (m *mockEnrollmentStore) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	var result []models.EnrollmentDetail
	for _, e := range m.rows {
		if filter.StudentID != "" && e.StudentID != filter.StudentID {
			continue
		}
		result = append(result, models.EnrollmentDetail{Enrollment: e})
	}
	return result, len(result), nil
}

func (m *mockEnrollmentStore) ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	var result []models.Enrollment
	for _, e := range m.rows {
		if e.StudentID == studentID {
			result = append(result, e)
		}
	}
	return result, nil
}

func (m *mockEnrollmentStore) Create(ctx context.Context, enrollment *models.Enrollment) error {
	key := tripleKey(enrollment.StudentID, enrollment.CourseID, enrollment.SemesterID)
	if _, ok := m.rows[key]; ok {
		return appErrors.Clone(appErrors.ErrConflict, "student already enrolled in course for semester")
	}
	m.rows[key] = *enrollment
	return nil
}

func (m *mockEnrollmentStore) Delete(ctx context.Context, studentID, courseID, semesterID string) (bool, error) {
	key := tripleKey(studentID, courseID, semesterID)
	if _, ok := m.rows[key]; !ok {
		return false, nil
	}
	delete(m.rows, key)
	return true, nil
}

func newEnrollmentFixture() (*EnrollmentService, *mockEnrollmentStore, *mockCatalog, *mockGate) {
	ledger := &mockEnrollmentStore{rows: map[string]models.Enrollment{}}
	catalog := &mockCatalog{courses: map[string]models.Course{
		"c1": {ID: "c1", Code: "CS101"},
		"c2": {ID: "c2", Code: "CS201", Prerequisites: []string{"CS101"}},
	}}
	gate := &mockGate{open: &models.Semester{ID: "s1"}}
	svc := NewEnrollmentService(ledger, catalog, gate, nil, nil)
	return svc, ledger, catalog, gate
}

func studentClaims(id string) models.JWTClaims {
	return models.JWTClaims{UserID: id, Role: models.RoleStudent}
}

func TestEnrollCreatesLedgerRow(t *testing.T) {
	svc, ledger, _, _ := newEnrollmentFixture()

	enrollment, err := svc.Enroll(context.Background(), studentClaims("stu"), EnrollRequest{StudentID: "stu", CourseID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusEnrolled, enrollment.Status)
	assert.Equal(t, "s1", enrollment.SemesterID)
	assert.Contains(t, ledger.rows, tripleKey("stu", "c1", "s1"))
}

func TestEnrollDuplicateConflicts(t *testing.T) {
	svc, _, _, _ := newEnrollmentFixture()

	_, err := svc.Enroll(context.Background(), adminClaims(), EnrollRequest{StudentID: "stu", CourseID: "c1"})
	require.NoError(t, err)

	_, err = svc.Enroll(context.Background(), adminClaims(), EnrollRequest{StudentID: "stu", CourseID: "c1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestEnrollClosedSemester(t *testing.T) {
	svc, _, _, gate := newEnrollmentFixture()
	gate.open = nil

	_, err := svc.Enroll(context.Background(), adminClaims(), EnrollRequest{StudentID: "stu", CourseID: "c1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrRegistrationClosed))
}

func TestEnrollStudentBlockedByPrerequisites(t *testing.T) {
	svc, _, _, _ := newEnrollmentFixture()

	_, err := svc.Enroll(context.Background(), studentClaims("stu"), EnrollRequest{StudentID: "stu", CourseID: "c2"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "CS101")
}

func TestEnrollStudentWithCompletedPrerequisite(t *testing.T) {
	svc, ledger, _, _ := newEnrollmentFixture()
	ledger.rows[tripleKey("stu", "c1", "s0")] = models.Enrollment{
		StudentID: "stu", CourseID: "c1", SemesterID: "s0",
		Status: models.EnrollmentStatusCompleted, CourseworkGrade: intPtr(30), FinalGrade: intPtr(40),
	}

	_, err := svc.Enroll(context.Background(), studentClaims("stu"), EnrollRequest{StudentID: "stu", CourseID: "c2"})
	require.NoError(t, err)
}

func TestEnrollAdminBypassesPrerequisites(t *testing.T) {
	svc, _, _, _ := newEnrollmentFixture()

	_, err := svc.Enroll(context.Background(), adminClaims(), EnrollRequest{StudentID: "stu", CourseID: "c2"})
	require.NoError(t, err)
}

func TestEnrollStudentCannotRegisterOthers(t *testing.T) {
	svc, _, _, _ := newEnrollmentFixture()

	_, err := svc.Enroll(context.Background(), studentClaims("stu"), EnrollRequest{StudentID: "victim", CourseID: "c1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestUnenrollRemovesRow(t *testing.T) {
	svc, ledger, _, _ := newEnrollmentFixture()
	ledger.rows[tripleKey("stu", "c1", "s1")] = models.Enrollment{StudentID: "stu", CourseID: "c1", SemesterID: "s1"}

	err := svc.Unenroll(context.Background(), studentClaims("stu"), "stu", "c1")
	require.NoError(t, err)
	assert.Empty(t, ledger.rows)
}

func TestUnenrollMissingRow(t *testing.T) {
	svc, _, _, _ := newEnrollmentFixture()

	err := svc.Unenroll(context.Background(), adminClaims(), "stu", "c1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUnenrollClosedSemester(t *testing.T) {
	svc, _, _, gate := newEnrollmentFixture()
	gate.open = nil

	err := svc.Unenroll(context.Background(), adminClaims(), "stu", "c1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrRegistrationClosed))
}

func TestAddTransferCreditShape(t *testing.T) {
	svc, ledger, _, gate := newEnrollmentFixture()
	gate.open = nil // transfer credits ignore the registration gate

	enrollment, err := svc.AddTransferCredit(context.Background(), TransferCreditRequest{
		StudentID: "stu", CourseID: "c1", FinalGrade: 95,
	})
	require.NoError(t, err)
	assert.Equal(t, models.SemesterTransfer, enrollment.SemesterID)
	assert.Equal(t, models.EnrollmentStatusTransferred, enrollment.Status)
	assert.Equal(t, 0, *enrollment.CourseworkGrade)
	assert.Equal(t, 95, *enrollment.FinalGrade)
	assert.Contains(t, ledger.rows, tripleKey("stu", "c1", models.SemesterTransfer))
}

func TestAddTransferCreditTwiceConflicts(t *testing.T) {
	svc, _, _, _ := newEnrollmentFixture()

	_, err := svc.AddTransferCredit(context.Background(), TransferCreditRequest{StudentID: "stu", CourseID: "c1", FinalGrade: 80})
	require.NoError(t, err)

	_, err = svc.AddTransferCredit(context.Background(), TransferCreditRequest{StudentID: "stu", CourseID: "c1", FinalGrade: 80})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAddTransferCreditGradeBounds(t *testing.T) {
	svc, _, _, _ := newEnrollmentFixture()

	_, err := svc.AddTransferCredit(context.Background(), TransferCreditRequest{StudentID: "stu", CourseID: "c1", FinalGrade: 101})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
