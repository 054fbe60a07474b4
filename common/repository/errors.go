package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clipvault/clipvault/common/clerr"
)

// Postgres error codes the store cares about.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeInvalidTextRep      = "22P02"
	codeSerializationFail   = "40001"
	codeDeadlockDetected    = "40P01"
)

// isUniqueViolation reports whether err is a unique-constraint conflict.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}

// storeErr classifies a driver error into the shared taxonomy and wraps it
// with the failing operation. Connectivity, serialization and deadlock
// failures become ErrTransientStore so the caller's transaction boundary
// can retry; malformed values become ErrInvalidInput; everything else is
// passed through for the fatal-error path to log with full context.
func storeErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == codeSerializationFail || pgErr.Code == codeDeadlockDetected:
			return fmt.Errorf("%s: %w: %s", op, clerr.ErrTransientStore, pgErr.Message)
		case strings.HasPrefix(pgErr.Code, "08"):
			return fmt.Errorf("%s: %w: %s", op, clerr.ErrTransientStore, pgErr.Message)
		case pgErr.Code == codeCheckViolation || pgErr.Code == codeInvalidTextRep || pgErr.Code == codeForeignKeyViolation:
			return fmt.Errorf("%s: %w: %s", op, clerr.ErrInvalidInput, pgErr.Message)
		}
	}

	return fmt.Errorf("%s: %w", op, err)
}
