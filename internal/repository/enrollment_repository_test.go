package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/judy4534/studentSystem/internal/models"
	appErrors "github.com/judy4534/studentSystem/pkg/errors"
)

func newEnrollmentMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func enrollmentColumns() []string {
	return []string{"id", "student_id", "course_id", "semester_id", "coursework_grade", "final_grade", "status", "created_at", "updated_at"}
}

func TestEnrollmentRepositoryListByStudent(t *testing.T) {
	db, mock, cleanup := newEnrollmentMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	rows := sqlmock.NewRows(enrollmentColumns()).
		AddRow("e1", "stu", "c1", "s1", 30, 50, "COMPLETED", time.Now(), time.Now()).
		AddRow("e2", "stu", "c2", "transfer", 0, 95, "TRANSFERRED", time.Now(), time.Now())
	mock.ExpectQuery("SELECT id, student_id, course_id, semester_id").
		WithArgs("stu").
		WillReturnRows(rows)

	enrollments, err := repo.ListByStudent(context.Background(), "stu")
	require.NoError(t, err)
	require.Len(t, enrollments, 2)
	assert.Equal(t, models.SemesterTransfer, enrollments[1].SemesterID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryFindByIDMissing(t *testing.T) {
	db, mock, cleanup := newEnrollmentMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery("SELECT id, student_id, course_id, semester_id").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestEnrollmentRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newEnrollmentMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec("INSERT INTO enrollments").
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.Enrollment{StudentID: "stu", CourseID: "c1", SemesterID: "s1"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, 409, appErr.Status)
}

func TestEnrollmentRepositoryUpdateGradesPartial(t *testing.T) {
	db, mock, cleanup := newEnrollmentMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET updated_at = NOW(), final_grade = $2 WHERE id = $1")).
		WithArgs("e1", 55).
		WillReturnResult(sqlmock.NewResult(0, 1))

	final := 55
	err := repo.UpdateGrades(context.Background(), "e1", nil, &final)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryMarkCompleted(t *testing.T) {
	db, mock, cleanup := newEnrollmentMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec("UPDATE enrollments SET status").
		WithArgs(models.EnrollmentStatusCompleted, "c1", "s1", models.EnrollmentStatusEnrolled).
		WillReturnResult(sqlmock.NewResult(0, 3))

	count, err := repo.MarkCompleted(context.Background(), "c1", "s1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestEnrollmentRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newEnrollmentMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec("DELETE FROM enrollments").
		WithArgs("stu", "c1", "s1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	removed, err := repo.Delete(context.Background(), "stu", "c1", "s1")
	require.NoError(t, err)
	assert.False(t, removed)
}
