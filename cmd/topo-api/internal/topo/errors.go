package topo

import (
	"errors"
	"fmt"
)

var (
	errNotFound = errors.New("NotFound")
	errConflict = errors.New("Conflict")
	errInternal = errors.New("Internal")
)

// NotFound creates a new notfound error with a given error message.
func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errNotFound, fmt.Sprintf(format, args...))
}

// IsNotFound checks if an error is a notfound error.
func IsNotFound(e error) bool {
	return errors.Is(e, errNotFound)
}

// Conflict creates a new conflict error with a given error message.
func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errConflict, fmt.Sprintf(format, args...))
}

// IsConflict checks if an error is a conflict error.
func IsConflict(e error) bool {
	return errors.Is(e, errConflict)
}

// Internal creates a new internal error with a given error message and the original error.
func Internal(err error, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %w", errInternal, fmt.Sprintf(format, args...), err)
}

// IsInternal checks if an error is an internal error.
func IsInternal(e error) bool {
	return errors.Is(e, errInternal)
}
