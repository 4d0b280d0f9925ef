package service

import (
	"context"
	"database/sql"

	"github.com/judy4534/studentSystem/internal/models"
	appErrors "github.com/judy4534/studentSystem/pkg/errors"
)

// semesterGate is the shared precondition consulted by every
// registration- and grade-mutating operation: the unique OPEN
// semester, or none.
type semesterGate interface {
	FindOpen(ctx context.Context) (*models.Semester, error)
}

// requireOpenSemester resolves the currently open semester, failing
// fast with a registration-closed error when there is none.
func requireOpenSemester(ctx context.Context, gate semesterGate) (*models.Semester, error) {
	semester, err := gate.FindOpen(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.ErrRegistrationClosed
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve open semester")
	}
	return semester, nil
}
