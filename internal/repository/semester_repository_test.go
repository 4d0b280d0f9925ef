package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/judy4534/studentSystem/internal/models"
)

func newSemesterMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func semesterColumns() []string {
	return []string{"id", "name", "status", "start_date", "end_date", "grade_submission_deadline", "created_at", "updated_at"}
}

func TestSemesterRepositoryFindOpen(t *testing.T) {
	db, mock, cleanup := newSemesterMock(t)
	defer cleanup()
	repo := NewSemesterRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT id, name, status, start_date").
		WithArgs(models.SemesterStatusOpen).
		WillReturnRows(sqlmock.NewRows(semesterColumns()).
			AddRow("s1", "fall-2025", "OPEN", now, now, now, now, now))

	semester, err := repo.FindOpen(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "s1", semester.ID)
	assert.Equal(t, models.SemesterStatusOpen, semester.Status)
}

func TestSemesterRepositoryFindOpenNone(t *testing.T) {
	db, mock, cleanup := newSemesterMock(t)
	defer cleanup()
	repo := NewSemesterRepository(db)

	mock.ExpectQuery("SELECT id, name, status, start_date").
		WithArgs(models.SemesterStatusOpen).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindOpen(context.Background())
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestSemesterRepositorySetOpenClosesOthers(t *testing.T) {
	db, mock, cleanup := newSemesterMock(t)
	defer cleanup()
	repo := NewSemesterRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE semesters SET status").
		WithArgs(models.SemesterStatusClosed, models.SemesterStatusOpen, "s2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE semesters SET status").
		WithArgs(models.SemesterStatusOpen, "s2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.SetOpen(context.Background(), "s2")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSemesterRepositoryExistsByName(t *testing.T) {
	db, mock, cleanup := newSemesterMock(t)
	defer cleanup()
	repo := NewSemesterRepository(db)

	mock.ExpectQuery("SELECT 1 FROM semesters WHERE name").
		WithArgs("fall-2025").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsByName(context.Background(), "fall-2025", "")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery("SELECT 1 FROM semesters WHERE name").
		WithArgs("spring-2030").
		WillReturnError(sql.ErrNoRows)

	exists, err = repo.ExistsByName(context.Background(), "spring-2030", "")
	require.NoError(t, err)
	assert.False(t, exists)
}
