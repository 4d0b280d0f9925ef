package repository

import (
	"errors"

	"github.com/lib/pq"

	appErrors "github.com/judy4534/studentSystem/pkg/errors"
)

const uniqueViolation = "23505"

// translateUnique converts a Postgres unique-constraint violation into
// the shared conflict error so callers can surface a 409 instead of a
// generic failure. Any other error is returned untouched.
func translateUnique(err error, message string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return appErrors.Clone(appErrors.ErrConflict, message)
	}
	return err
}
