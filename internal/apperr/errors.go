package apperr

import (
	"errors"
	"fmt"
)

// Sentinel errors for every failure a caller is expected to branch on.
// Services return these (possibly wrapped); handlers map them to HTTP
// statuses with errors.Is.
var (
	// ErrInvalidCredentials deliberately covers both "unknown user" and
	// "wrong password" so a caller cannot enumerate usernames.
	ErrInvalidCredentials = errors.New("invalid username or password")

	ErrDuplicateUsername = errors.New("username already exists")
	ErrDuplicateRoleName = errors.New("role name already exists")

	// ErrRoleInUse blocks deleting a role while any user still references it.
	ErrRoleInUse = errors.New("role is assigned to one or more users")

	// ErrPermissionInUse blocks deleting a permission referenced by a role
	// grant or a module gate.
	ErrPermissionInUse = errors.New("permission is referenced by a role or module")

	ErrAccessDenied = errors.New("access denied")

	ErrNotFound = errors.New("record not found")

	// ErrStoreUnavailable wraps unexpected persistence failures.
	ErrStoreUnavailable = errors.New("storage unavailable")
)

// ValidationError reports an empty or out-of-bounds field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validation builds a ValidationError for a single field.
func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
