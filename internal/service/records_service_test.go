package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/judy4534/studentSystem/internal/models"
)

func intPtr(v int) *int { return &v }

type mockLedger struct {
	enrollments []models.Enrollment
}

func (m *mockLedger) ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	var result []models.Enrollment
	for _, e := range m.enrollments {
		if e.StudentID == studentID {
			result = append(result, e)
		}
	}
	return result, nil
}

func (m *mockLedger) ListByCourseAndSemester(ctx context.Context, courseID, semesterID string) ([]models.Enrollment, error) {
	var result []models.Enrollment
	for _, e := range m.enrollments {
		if e.CourseID == courseID && e.SemesterID == semesterID {
			result = append(result, e)
		}
	}
	return result, nil
}

type mockCatalog struct {
	courses map[string]models.Course
}

func (m *mockCatalog) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCatalog) FindByIDs(ctx context.Context, ids []string) (map[string]models.Course, error) {
	result := make(map[string]models.Course)
	for _, id := range ids {
		if c, ok := m.courses[id]; ok {
			result[id] = c
		}
	}
	return result, nil
}

func (m *mockCatalog) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error) {
	ids := make([]string, 0, len(m.courses))
	for id := range m.courses {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	total := len(ids)
	if filter.Page > 0 && filter.PageSize > 0 {
		start := (filter.Page - 1) * filter.PageSize
		if start > total {
			start = total
		}
		end := start + filter.PageSize
		if end > total {
			end = total
		}
		ids = ids[start:end]
	}
	result := make([]models.CourseDetail, 0, len(ids))
	for _, id := range ids {
		result = append(result, models.CourseDetail{Course: m.courses[id]})
	}
	return result, total, nil
}

type mockSemesterStore struct {
	semesters map[string]models.Semester
	open      *models.Semester
}

func (m *mockSemesterStore) FindOpen(ctx context.Context) (*models.Semester, error) {
	if m.open == nil {
		return nil, sql.ErrNoRows
	}
	return m.open, nil
}

func (m *mockSemesterStore) FindByID(ctx context.Context, id string) (*models.Semester, error) {
	if s, ok := m.semesters[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSemesterStore) List(ctx context.Context, filter models.SemesterFilter) ([]models.Semester, int, error) {
	var result []models.Semester
	for _, s := range m.semesters {
		result = append(result, s)
	}
	return result, len(result), nil
}

type mockSubmissionReader struct {
	submissions map[string]models.CourseSubmission
}

func submissionKey(courseID, semesterID string) string { return courseID + "|" + semesterID }

func (m *mockSubmissionReader) FindByCourseAndSemester(ctx context.Context, courseID, semesterID string) (*models.CourseSubmission, error) {
	if s, ok := m.submissions[submissionKey(courseID, semesterID)]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSubmissionReader) ListBySemester(ctx context.Context, semesterID string) ([]models.CourseSubmission, error) {
	var result []models.CourseSubmission
	for _, s := range m.submissions {
		if s.SemesterID == semesterID {
			result = append(result, s)
		}
	}
	return result, nil
}

type mockDirectory struct {
	users map[string]models.User
}

func (m *mockDirectory) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

type mockAssignmentReader struct {
	assignments map[string]models.ProfessorCourseAssignment
}

func (m *mockAssignmentReader) FindByCourse(ctx context.Context, courseID string) (*models.ProfessorCourseAssignment, error) {
	if a, ok := m.assignments[courseID]; ok {
		return &a, nil
	}
	return nil, sql.ErrNoRows
}

func newRecordsFixture() (*RecordsService, *mockLedger, *mockCatalog, *mockSemesterStore, *mockSubmissionReader) {
	ledger := &mockLedger{}
	catalog := &mockCatalog{courses: map[string]models.Course{}}
	semesters := &mockSemesterStore{semesters: map[string]models.Semester{}}
	submissions := &mockSubmissionReader{submissions: map[string]models.CourseSubmission{}}
	directory := &mockDirectory{users: map[string]models.User{}}
	assignments := &mockAssignmentReader{assignments: map[string]models.ProfessorCourseAssignment{}}
	svc := NewRecordsService(ledger, catalog, semesters, submissions, directory, assignments, nil)
	return svc, ledger, catalog, semesters, submissions
}

func TestCheckPrerequisites(t *testing.T) {
	course := models.Course{Code: "CS201", Prerequisites: []string{"CS101", "MATH101"}}

	result := CheckPrerequisites(course, map[string]struct{}{"CS101": {}, "MATH101": {}})
	assert.True(t, result.Available)
	assert.Empty(t, result.Unmet)

	result = CheckPrerequisites(course, map[string]struct{}{"CS101": {}})
	assert.False(t, result.Available)
	assert.Equal(t, []string{"MATH101"}, result.Unmet)

	result = CheckPrerequisites(models.Course{Code: "CS101"}, map[string]struct{}{})
	assert.True(t, result.Available)
}

func TestWeightedGPA(t *testing.T) {
	courses := map[string]models.Course{
		"c1": {ID: "c1", Code: "CS101", Credits: 3},
		"c2": {ID: "c2", Code: "MATH101", Credits: 4},
	}
	enrollments := []models.Enrollment{
		{CourseID: "c1", Status: models.EnrollmentStatusCompleted, CourseworkGrade: intPtr(30), FinalGrade: intPtr(50)},
		{CourseID: "c2", Status: models.EnrollmentStatusCompleted, CourseworkGrade: intPtr(25), FinalGrade: intPtr(35)},
	}

	// (80*3 + 60*4) / 7 = 480/7
	summary := WeightedGPA(enrollments, courses)
	assert.Equal(t, "68.57", summary.GPA)
	assert.Equal(t, 480, summary.Points)
	assert.Equal(t, 7, summary.Credits)
}

func TestWeightedGPAEmptySet(t *testing.T) {
	summary := WeightedGPA(nil, nil)
	assert.Equal(t, "0.00", summary.GPA)
	assert.Zero(t, summary.Credits)
}

func TestWeightedGPASkipsIncompleteRows(t *testing.T) {
	courses := map[string]models.Course{"c1": {ID: "c1", Credits: 3}}
	enrollments := []models.Enrollment{
		{CourseID: "c1", Status: models.EnrollmentStatusEnrolled, CourseworkGrade: intPtr(40), FinalGrade: intPtr(60)},
		{CourseID: "c1", Status: models.EnrollmentStatusCompleted, CourseworkGrade: intPtr(40)},
	}
	summary := WeightedGPA(enrollments, courses)
	assert.Equal(t, "0.00", summary.GPA)
}

func TestWeightedGPACountsTransferredCredits(t *testing.T) {
	courses := map[string]models.Course{"c1": {ID: "c1", Credits: 3}}
	enrollments := []models.Enrollment{
		{CourseID: "c1", SemesterID: models.SemesterTransfer, Status: models.EnrollmentStatusTransferred, CourseworkGrade: intPtr(0), FinalGrade: intPtr(95)},
	}
	summary := WeightedGPA(enrollments, courses)
	assert.Equal(t, "95.00", summary.GPA)
	assert.Equal(t, 3, summary.Credits)
}

func TestCourseStandingCompletedWinsOverEverything(t *testing.T) {
	svc, ledger, catalog, semesters, _ := newRecordsFixture()
	catalog.courses["c1"] = models.Course{ID: "c1", Code: "CS101", Prerequisites: []string{"NOPE"}}
	semesters.open = &models.Semester{ID: "s1"}
	ledger.enrollments = []models.Enrollment{
		{StudentID: "stu", CourseID: "c1", SemesterID: "s0", Status: models.EnrollmentStatusCompleted, CourseworkGrade: intPtr(35), FinalGrade: intPtr(50)},
		{StudentID: "stu", CourseID: "c1", SemesterID: "s1", Status: models.EnrollmentStatusEnrolled},
	}

	standing, err := svc.CourseStanding(context.Background(), "stu", "c1")
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationStateCompleted, standing.State)
	assert.Equal(t, "مكتمل", standing.Label)
	assert.Equal(t, 85, *standing.TotalGrade)
	assert.Contains(t, standing.Message, "85")
}

func TestCourseStandingRegisteredInOpenSemester(t *testing.T) {
	svc, ledger, catalog, semesters, _ := newRecordsFixture()
	catalog.courses["c1"] = models.Course{ID: "c1", Code: "CS101"}
	semesters.open = &models.Semester{ID: "s1"}
	ledger.enrollments = []models.Enrollment{
		{StudentID: "stu", CourseID: "c1", SemesterID: "s1", Status: models.EnrollmentStatusEnrolled},
	}

	standing, err := svc.CourseStanding(context.Background(), "stu", "c1")
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationStateRegistered, standing.State)
	assert.Equal(t, "مسجل", standing.Label)
	assert.Equal(t, "drop", standing.Action)
}

func TestCourseStandingEnrollmentInClosedSemesterIsNotRegistered(t *testing.T) {
	svc, ledger, catalog, semesters, _ := newRecordsFixture()
	catalog.courses["c1"] = models.Course{ID: "c1", Code: "CS101"}
	semesters.open = nil
	ledger.enrollments = []models.Enrollment{
		{StudentID: "stu", CourseID: "c1", SemesterID: "s0", Status: models.EnrollmentStatusEnrolled},
	}

	standing, err := svc.CourseStanding(context.Background(), "stu", "c1")
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationStateAvailable, standing.State)
}

func TestCourseStandingNeedsOverride(t *testing.T) {
	svc, _, catalog, _, _ := newRecordsFixture()
	catalog.courses["c1"] = models.Course{ID: "c1", Code: "CS301", Prerequisites: []string{"CS201", "MATH201"}}

	standing, err := svc.CourseStanding(context.Background(), "stu", "c1")
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationStateNeedsOverride, standing.State)
	assert.Equal(t, "يتطلب تجاوز", standing.Label)
	assert.Equal(t, "override", standing.Action)
	assert.Equal(t, []string{"CS201", "MATH201"}, standing.Unmet)
	assert.Contains(t, standing.Message, "CS201, MATH201")
}

func TestCourseStandingAvailableWithTransferredPrerequisite(t *testing.T) {
	svc, ledger, catalog, _, _ := newRecordsFixture()
	catalog.courses["c1"] = models.Course{ID: "c1", Code: "ENG201", Prerequisites: []string{"ENG101"}}
	catalog.courses["c0"] = models.Course{ID: "c0", Code: "ENG101"}
	ledger.enrollments = []models.Enrollment{
		{StudentID: "stu", CourseID: "c0", SemesterID: models.SemesterTransfer, Status: models.EnrollmentStatusTransferred, CourseworkGrade: intPtr(0), FinalGrade: intPtr(95)},
	}

	standing, err := svc.CourseStanding(context.Background(), "stu", "c1")
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationStateAvailable, standing.State)
	assert.Equal(t, "متاح", standing.Label)
	assert.Equal(t, "add", standing.Action)
}

func TestCatalogStandingsCoversEveryCourse(t *testing.T) {
	svc, _, catalog, _, _ := newRecordsFixture()
	for i := 0; i < 150; i++ {
		id := fmt.Sprintf("c%03d", i)
		catalog.courses[id] = models.Course{ID: id, Code: fmt.Sprintf("CS%03d", i)}
	}

	standings, err := svc.CatalogStandings(context.Background(), "stu", models.CourseFilter{})
	require.NoError(t, err)
	assert.Len(t, standings, 150)
}

func TestDeriveSubmissionStatus(t *testing.T) {
	deadline := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	semester := models.Semester{ID: "s1", GradeSubmissionDeadline: deadline}
	enrolled := []models.Enrollment{{Status: models.EnrollmentStatusEnrolled}}
	completed := []models.Enrollment{{Status: models.EnrollmentStatusCompleted}}

	onTime := &models.CourseSubmission{SubmissionDate: deadline.Add(-time.Hour)}
	assert.Equal(t, models.SubmissionStatusSubmitted, DeriveSubmissionStatus(onTime, semester, enrolled))

	late := &models.CourseSubmission{SubmissionDate: deadline.Add(time.Hour)}
	assert.Equal(t, models.SubmissionStatusLate, DeriveSubmissionStatus(late, semester, enrolled))

	// no record, still-enrolled students
	assert.Equal(t, models.SubmissionStatusPending, DeriveSubmissionStatus(nil, semester, enrolled))

	// legacy data: everyone already completed without a submission record
	assert.Equal(t, models.SubmissionStatusSubmitted, DeriveSubmissionStatus(nil, semester, completed))

	// vacuous: no enrollments at all
	assert.Equal(t, models.SubmissionStatusSubmitted, DeriveSubmissionStatus(nil, semester, nil))
}

func TestTranscriptGroupsAndAggregates(t *testing.T) {
	svc, ledger, catalog, semesters, _ := newRecordsFixture()
	catalog.courses["c1"] = models.Course{ID: "c1", Code: "CS101", Name: "Intro", Credits: 3}
	catalog.courses["c2"] = models.Course{ID: "c2", Code: "MATH101", Name: "Calculus", Credits: 4}
	semesters.semesters["s1"] = models.Semester{ID: "s1", Name: "fall-2025"}
	ledger.enrollments = []models.Enrollment{
		{StudentID: "stu", CourseID: "c1", SemesterID: "s1", Status: models.EnrollmentStatusCompleted, CourseworkGrade: intPtr(30), FinalGrade: intPtr(50)},
		{StudentID: "stu", CourseID: "c2", SemesterID: "s1", Status: models.EnrollmentStatusCompleted, CourseworkGrade: intPtr(25), FinalGrade: intPtr(35)},
	}

	directory := svc.students.(*mockDirectory)
	no := "20250001"
	directory.users["stu"] = models.User{ID: "stu", FullName: "Test Student", StudentNo: &no}

	transcript, err := svc.Transcript(context.Background(), "stu")
	require.NoError(t, err)
	require.Len(t, transcript.Semesters, 1)
	assert.Equal(t, "fall-2025", transcript.Semesters[0].SemesterName)
	assert.Len(t, transcript.Semesters[0].Courses, 2)
	assert.Equal(t, "68.57", transcript.Cumulative.GPA)
	assert.Equal(t, "20250001", transcript.StudentNo)
}

func TestTranscriptUnknownStudent(t *testing.T) {
	svc, _, _, _, _ := newRecordsFixture()
	_, err := svc.Transcript(context.Background(), "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "student not found")
}

func TestSubmissionBoard(t *testing.T) {
	svc, ledger, catalog, semesters, submissions := newRecordsFixture()
	deadline := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	semesters.semesters["s1"] = models.Semester{ID: "s1", GradeSubmissionDeadline: deadline}
	catalog.courses["c1"] = models.Course{ID: "c1", Code: "CS101", Name: "Intro"}
	catalog.courses["c2"] = models.Course{ID: "c2", Code: "MATH101", Name: "Calculus"}
	ledger.enrollments = []models.Enrollment{
		{StudentID: "a", CourseID: "c1", SemesterID: "s1", Status: models.EnrollmentStatusCompleted},
		{StudentID: "b", CourseID: "c2", SemesterID: "s1", Status: models.EnrollmentStatusEnrolled},
	}
	submissions.submissions[submissionKey("c1", "s1")] = models.CourseSubmission{
		CourseID: "c1", SemesterID: "s1", SubmissionDate: deadline.Add(-time.Hour),
	}

	board, err := svc.SubmissionBoard(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, board.TotalCourses)
	assert.Equal(t, 1, board.Submitted)
	assert.Equal(t, 1, board.Pending)
	assert.InDelta(t, 50.0, board.Progress, 0.01)
}
