package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/judy4534/studentSystem/internal/models"
	appErrors "github.com/judy4534/studentSystem/pkg/errors"
)

type gradeLedger interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	UpdateGrades(ctx context.Context, id string, coursework, final *int) error
	MarkCompleted(ctx context.Context, courseID, semesterID string) (int, error)
}

type submissionStore interface {
	FindByCourseAndSemester(ctx context.Context, courseID, semesterID string) (*models.CourseSubmission, error)
	Create(ctx context.Context, submission *models.CourseSubmission) error
}

type teachingRoster interface {
	ExistsForProfessor(ctx context.Context, professorID, courseID string) (bool, error)
}

// UpdateGradeRequest carries a partial grade update for one ledger row.
type UpdateGradeRequest struct {
	CourseworkGrade *int `json:"coursework_grade" validate:"omitempty,min=0,max=40"`
	FinalGrade      *int `json:"final_grade" validate:"omitempty,min=0,max=60"`
}

// GradeService records grade components and finalizes course offerings.
type GradeService struct {
	ledger      gradeLedger
	submissions submissionStore
	roster      teachingRoster
	semesters   semesterGate
	strictLock  bool
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewGradeService constructs GradeService. With strictLock set, grades
// of an already-submitted offering reject further edits.
func NewGradeService(ledger gradeLedger, submissions submissionStore, roster teachingRoster, semesters semesterGate, strictLock bool, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{
		ledger:      ledger,
		submissions: submissions,
		roster:      roster,
		semesters:   semesters,
		strictLock:  strictLock,
		validator:   validate,
		logger:      logger,
	}
}

// UpdateGrade writes one or both grade components on an enrollment.
// Components are bounded (coursework 0-40, final 0-60); a nil component
// keeps its stored value. Professors may only grade courses they teach,
// and only rows of the open semester accept edits. Transfer rows carry
// their grade from the transfer itself and are never edited here.
func (s *GradeService) UpdateGrade(ctx context.Context, actor models.JWTClaims, enrollmentID string, req UpdateGradeRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "grade out of range")
	}
	if req.CourseworkGrade == nil && req.FinalGrade == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no grade component provided")
	}

	semester, err := requireOpenSemester(ctx, s.semesters)
	if err != nil {
		return nil, err
	}

	enrollment, err := s.ledger.FindByID(ctx, enrollmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.SemesterID != semester.ID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "enrollment is outside the open semester")
	}

	if actor.Role == models.RoleProfessor {
		teaches, err := s.roster.ExistsForProfessor(ctx, actor.UserID, enrollment.CourseID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check assignment")
		}
		if !teaches {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "course is not assigned to you")
		}
	}

	if s.strictLock {
		_, err := s.submissions.FindByCourseAndSemester(ctx, enrollment.CourseID, enrollment.SemesterID)
		if err == nil {
			return nil, appErrors.ErrGradesLocked
		}
		if err != sql.ErrNoRows {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check submission")
		}
	}

	if err := s.ledger.UpdateGrades(ctx, enrollmentID, req.CourseworkGrade, req.FinalGrade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update grades")
	}

	updated, err := s.ledger.FindByID(ctx, enrollmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload enrollment")
	}
	s.logger.Info("grade updated",
		zap.String("enrollment_id", enrollmentID),
		zap.String("actor_id", actor.UserID))
	return updated, nil
}

// SubmitGrades finalizes the grades of the professor's course for the
// open semester. The submission is recorded once and the roster rows
// move to COMPLETED regardless of missing components; rows without a
// total fall back to the submission record when status is derived.
func (s *GradeService) SubmitGrades(ctx context.Context, actor models.JWTClaims, courseID string) (*models.CourseSubmission, error) {
	semester, err := requireOpenSemester(ctx, s.semesters)
	if err != nil {
		return nil, err
	}

	if actor.Role == models.RoleProfessor {
		teaches, err := s.roster.ExistsForProfessor(ctx, actor.UserID, courseID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check assignment")
		}
		if !teaches {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "course is not assigned to you")
		}
	}

	submission := &models.CourseSubmission{
		CourseID:    courseID,
		SemesterID:  semester.ID,
		ProfessorID: actor.UserID,
	}
	if err := s.submissions.Create(ctx, submission); err != nil {
		if appErr := appErrors.FromError(err); appErr != nil && appErr.Code == appErrors.ErrConflict.Code {
			return nil, appErrors.ErrAlreadySubmitted
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record submission")
	}

	completed, err := s.ledger.MarkCompleted(ctx, courseID, semester.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete enrollments")
	}
	s.logger.Info("grades submitted",
		zap.String("course_id", courseID),
		zap.String("semester_id", semester.ID),
		zap.Int("completed", completed))
	return submission, nil
}
