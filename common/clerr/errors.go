// Package clerr defines the error taxonomy shared by the store, the
// dispatcher and the HTTP surface. Callers branch with errors.Is.
package clerr

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks malformed source references or names. Rejected
	// before any write; not retryable.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicateSave marks a tenant re-saving content they already hold.
	// Expected condition, not a defect.
	ErrDuplicateSave = errors.New("already saved")

	// ErrNotFound covers both genuinely missing rows and rows excluded by
	// tenant scoping. The two are deliberately indistinguishable so a
	// response never confirms that another tenant's data exists.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateName marks a collection name collision within a tenant.
	ErrDuplicateName = errors.New("name already in use")

	// ErrNotClaimed is returned to a worker that lost a job claim race.
	ErrNotClaimed = errors.New("job not claimed")

	// ErrTransientStore marks connectivity or serialization failures that
	// the caller's own transaction boundary may retry.
	ErrTransientStore = errors.New("transient store failure")
)

// Invalidf wraps ErrInvalidInput with a formatted detail message.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidInput}, args...)...)
}

// NotFoundf wraps ErrNotFound with a formatted detail message.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrNotFound}, args...)...)
}
