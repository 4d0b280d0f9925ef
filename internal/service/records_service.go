package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/judy4534/studentSystem/internal/models"
	appErrors "github.com/judy4534/studentSystem/pkg/errors"
)

type ledgerReader interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error)
	ListByCourseAndSemester(ctx context.Context, courseID, semesterID string) ([]models.Enrollment, error)
}

type catalogReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]models.Course, error)
	List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error)
}

type semesterReader interface {
	semesterGate
	FindByID(ctx context.Context, id string) (*models.Semester, error)
	List(ctx context.Context, filter models.SemesterFilter) ([]models.Semester, int, error)
}

type submissionReader interface {
	FindByCourseAndSemester(ctx context.Context, courseID, semesterID string) (*models.CourseSubmission, error)
	ListBySemester(ctx context.Context, semesterID string) ([]models.CourseSubmission, error)
}

type studentDirectory interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type assignmentReader interface {
	FindByCourse(ctx context.Context, courseID string) (*models.ProfessorCourseAssignment, error)
}

// RecordsService is the academic records engine: side-effect-free
// computations over the enrollment ledger, catalog and semester data.
type RecordsService struct {
	ledger      ledgerReader
	catalog     catalogReader
	semesters   semesterReader
	submissions submissionReader
	students    studentDirectory
	assignments assignmentReader
	logger      *zap.Logger
}

// NewRecordsService constructs RecordsService.
func NewRecordsService(ledger ledgerReader, catalog catalogReader, semesters semesterReader, submissions submissionReader, students studentDirectory, assignments assignmentReader, logger *zap.Logger) *RecordsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordsService{
		ledger:      ledger,
		catalog:     catalog,
		semesters:   semesters,
		submissions: submissions,
		students:    students,
		assignments: assignments,
		logger:      logger,
	}
}

// CheckPrerequisites reports whether every direct prerequisite code of
// the course appears in the student's completed set. No transitive
// closure, no minimum grade on the prerequisite.
func CheckPrerequisites(course models.Course, completedCodes map[string]struct{}) models.Availability {
	var unmet []string
	for _, code := range course.Prerequisites {
		if _, ok := completedCodes[code]; !ok {
			unmet = append(unmet, code)
		}
	}
	return models.Availability{Available: len(unmet) == 0, Unmet: unmet}
}

// WeightedGPA computes the credit-weighted average over completed and
// transferred enrollments that carry both grade components.
// Returns "0.00" rather than NaN on an empty set.
func WeightedGPA(enrollments []models.Enrollment, courses map[string]models.Course) models.GPASummary {
	points := 0
	credits := 0
	for _, enrollment := range enrollments {
		if enrollment.Status != models.EnrollmentStatusCompleted && enrollment.Status != models.EnrollmentStatusTransferred {
			continue
		}
		total := enrollment.TotalGrade()
		if total == nil {
			continue
		}
		course, ok := courses[enrollment.CourseID]
		if !ok {
			continue
		}
		points += *total * course.Credits
		credits += course.Credits
	}
	if credits == 0 {
		return models.GPASummary{GPA: "0.00"}
	}
	return models.GPASummary{
		GPA:     fmt.Sprintf("%.2f", float64(points)/float64(credits)),
		Points:  points,
		Credits: credits,
	}
}

// DeriveSubmissionStatus resolves the grade-submission state of one
// (course, semester) offering. A recorded submission is SUBMITTED, or
// LATE past the deadline. Without a record the offering is PENDING
// unless no student is left in ENROLLED state (legacy data where the
// submission was never tracked, and the vacuous zero-enrollment case),
// which counts as SUBMITTED.
func DeriveSubmissionStatus(submission *models.CourseSubmission, semester models.Semester, enrollments []models.Enrollment) models.SubmissionStatus {
	if submission != nil {
		if submission.SubmissionDate.After(semester.GradeSubmissionDeadline) {
			return models.SubmissionStatusLate
		}
		return models.SubmissionStatusSubmitted
	}
	for _, enrollment := range enrollments {
		if enrollment.Status == models.EnrollmentStatusEnrolled {
			return models.SubmissionStatusPending
		}
	}
	return models.SubmissionStatusSubmitted
}

// completedCodes resolves the set of course codes the student has
// completed, joining ledger rows to catalog codes. Transfer credits
// count.
func (s *RecordsService) completedCodes(enrollments []models.Enrollment, courses map[string]models.Course) map[string]struct{} {
	codes := make(map[string]struct{})
	for _, enrollment := range enrollments {
		if enrollment.Status != models.EnrollmentStatusCompleted && enrollment.Status != models.EnrollmentStatusTransferred {
			continue
		}
		if course, ok := courses[enrollment.CourseID]; ok {
			codes[course.Code] = struct{}{}
		}
	}
	return codes
}

// CourseStanding derives the student's standing towards one course.
// Precedence: completed > registered this semester > prerequisite
// outcome.
func (s *RecordsService) CourseStanding(ctx context.Context, studentID, courseID string) (*models.CourseStanding, error) {
	course, err := s.catalog.FindByID(ctx, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	enrollments, courses, err := s.studentLedger(ctx, studentID)
	if err != nil {
		return nil, err
	}
	courses[course.ID] = *course

	openSemesterID := ""
	if open, err := s.semesters.FindOpen(ctx); err == nil {
		openSemesterID = open.ID
	} else if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve open semester")
	}

	standing := s.standingFor(*course, enrollments, courses, openSemesterID)
	return &standing, nil
}

// listFullCatalog pages through the course catalog until every
// matching row is collected.
func (s *RecordsService) listFullCatalog(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, error) {
	filter.Page = 1
	filter.PageSize = 100
	var all []models.CourseDetail
	for {
		page, total, err := s.catalog.List(ctx, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
		}
		all = append(all, page...)
		if len(page) == 0 || len(all) >= total {
			return all, nil
		}
		filter.Page++
	}
}

// CatalogStandings derives the standing towards every catalog course,
// the dataset behind the student registration screen.
func (s *RecordsService) CatalogStandings(ctx context.Context, studentID string, filter models.CourseFilter) ([]models.CourseStanding, error) {
	catalog, err := s.listFullCatalog(ctx, filter)
	if err != nil {
		return nil, err
	}

	enrollments, courses, err := s.studentLedger(ctx, studentID)
	if err != nil {
		return nil, err
	}

	openSemesterID := ""
	if open, err := s.semesters.FindOpen(ctx); err == nil {
		openSemesterID = open.ID
	} else if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve open semester")
	}

	standings := make([]models.CourseStanding, 0, len(catalog))
	for _, detail := range catalog {
		courses[detail.ID] = detail.Course
		standings = append(standings, s.standingFor(detail.Course, enrollments, courses, openSemesterID))
	}
	return standings, nil
}

func (s *RecordsService) standingFor(course models.Course, enrollments []models.Enrollment, courses map[string]models.Course, openSemesterID string) models.CourseStanding {
	standing := models.CourseStanding{CourseID: course.ID, CourseCode: course.Code}

	for _, enrollment := range enrollments {
		if enrollment.CourseID != course.ID {
			continue
		}
		if enrollment.Status == models.EnrollmentStatusCompleted || enrollment.Status == models.EnrollmentStatusTransferred {
			total := enrollment.TotalGrade()
			grade := 0
			if total != nil {
				grade = *total
			}
			standing.State = models.RegistrationStateCompleted
			standing.Label = standing.State.Label()
			standing.TotalGrade = total
			standing.Message = fmt.Sprintf("أنجزت هذه المادة بدرجة %d", grade)
			return standing
		}
	}

	if openSemesterID != "" {
		for _, enrollment := range enrollments {
			if enrollment.CourseID == course.ID && enrollment.SemesterID == openSemesterID && enrollment.Status == models.EnrollmentStatusEnrolled {
				standing.State = models.RegistrationStateRegistered
				standing.Label = standing.State.Label()
				standing.Action = "drop"
				standing.Message = "أنت مسجل حالياً في هذه المادة"
				return standing
			}
		}
	}

	availability := CheckPrerequisites(course, s.completedCodes(enrollments, courses))
	if availability.Available {
		standing.State = models.RegistrationStateAvailable
		standing.Action = "add"
		standing.Message = "جميع المتطلبات مستوفاة"
	} else {
		standing.State = models.RegistrationStateNeedsOverride
		standing.Action = "override"
		standing.Unmet = availability.Unmet
		standing.Message = fmt.Sprintf("المتطلبات غير المستوفاة: %s", strings.Join(availability.Unmet, ", "))
	}
	standing.Label = standing.State.Label()
	return standing
}

// Transcript assembles a student's full academic record with
// per-semester and cumulative credit-weighted GPAs.
func (s *RecordsService) Transcript(ctx context.Context, studentID string) (*models.Transcript, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	enrollments, courses, err := s.studentLedger(ctx, studentID)
	if err != nil {
		return nil, err
	}

	semesterNames := make(map[string]string)
	if semesters, _, err := s.semesters.List(ctx, models.SemesterFilter{PageSize: 100}); err == nil {
		for _, semester := range semesters {
			semesterNames[semester.ID] = semester.Name
		}
	}
	semesterNames[models.SemesterTransfer] = models.SemesterTransfer

	bySemester := make(map[string][]models.Enrollment)
	for _, enrollment := range enrollments {
		bySemester[enrollment.SemesterID] = append(bySemester[enrollment.SemesterID], enrollment)
	}

	semesterIDs := make([]string, 0, len(bySemester))
	for id := range bySemester {
		semesterIDs = append(semesterIDs, id)
	}
	sort.Strings(semesterIDs)

	transcript := &models.Transcript{
		StudentID:   student.ID,
		StudentName: student.FullName,
	}
	if student.StudentNo != nil {
		transcript.StudentNo = *student.StudentNo
	}

	for _, semesterID := range semesterIDs {
		rows := bySemester[semesterID]
		semester := models.TranscriptSemester{
			SemesterID:   semesterID,
			SemesterName: semesterNames[semesterID],
			GPA:          WeightedGPA(rows, courses),
		}
		for _, enrollment := range rows {
			course := courses[enrollment.CourseID]
			semester.Courses = append(semester.Courses, models.TranscriptCourse{
				CourseID:        enrollment.CourseID,
				CourseCode:      course.Code,
				CourseName:      course.Name,
				Credits:         course.Credits,
				SemesterID:      semesterID,
				CourseworkGrade: enrollment.CourseworkGrade,
				FinalGrade:      enrollment.FinalGrade,
				TotalGrade:      enrollment.TotalGrade(),
				Passed:          enrollment.Passed(),
				Status:          enrollment.Status,
			})
		}
		transcript.Semesters = append(transcript.Semesters, semester)
	}

	transcript.Cumulative = WeightedGPA(enrollments, courses)
	return transcript, nil
}

// SubmissionBoard builds the admin view of grade-submission progress
// for one semester.
func (s *RecordsService) SubmissionBoard(ctx context.Context, semesterID string) (*models.SubmissionBoard, error) {
	semester, err := s.semesters.FindByID(ctx, semesterID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester")
	}

	submissions, err := s.submissions.ListBySemester(ctx, semesterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	submitted := make(map[string]models.CourseSubmission, len(submissions))
	for _, submission := range submissions {
		submitted[submission.CourseID] = submission
	}

	catalog, err := s.listFullCatalog(ctx, models.CourseFilter{})
	if err != nil {
		return nil, err
	}

	board := &models.SubmissionBoard{SemesterID: semesterID}
	for _, course := range catalog {
		enrollments, err := s.ledger.ListByCourseAndSemester(ctx, course.ID, semesterID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
		}
		if len(enrollments) == 0 {
			continue
		}

		row := models.SubmissionBoardRow{
			CourseID:     course.ID,
			CourseCode:   course.Code,
			CourseName:   course.Name,
			StudentCount: len(enrollments),
		}

		var submission *models.CourseSubmission
		if record, ok := submitted[course.ID]; ok {
			submission = &record
			row.SubmissionDate = &record.SubmissionDate
		}
		row.Status = DeriveSubmissionStatus(submission, *semester, enrollments)

		if assignment, err := s.assignments.FindByCourse(ctx, course.ID); err == nil {
			row.ProfessorID = &assignment.ProfessorID
			if professor, err := s.students.FindByID(ctx, assignment.ProfessorID); err == nil {
				row.ProfessorName = professor.FullName
			}
		} else if err != sql.ErrNoRows {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
		}
		if row.ProfessorName == "" {
			row.ProfessorName = "غير مسند"
		}

		board.Rows = append(board.Rows, row)
	}

	board.TotalCourses = len(board.Rows)
	for _, row := range board.Rows {
		if row.Status == models.SubmissionStatusSubmitted || row.Status == models.SubmissionStatusLate {
			board.Submitted++
		}
	}
	board.Pending = board.TotalCourses - board.Submitted
	if board.TotalCourses > 0 {
		board.Progress = float64(board.Submitted) / float64(board.TotalCourses) * 100
	}
	return board, nil
}

// studentLedger loads a student's ledger rows plus the catalog entries
// they reference.
func (s *RecordsService) studentLedger(ctx context.Context, studentID string) ([]models.Enrollment, map[string]models.Course, error) {
	enrollments, err := s.ledger.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
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
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}
	return enrollments, courses, nil
}
