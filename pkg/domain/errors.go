package domain

import (
	"errors"
	"fmt"
)

// ErrStateNotFound is returned when a state ID cannot be found in the store.
var ErrStateNotFound = errors.New("state not found")

// ErrIncompatibleShape is returned when a field exists with a type a transform cannot reconcile.
var ErrIncompatibleShape = errors.New("incompatible state shape")

// ErrVersionMismatch is returned when a transform would be invoked against a state
// that is already at or past its target version. It indicates a registry ordering bug.
var ErrVersionMismatch = errors.New("version mismatch")

// ErrInvalidRegistry is returned when a set of transforms cannot form a registry.
var ErrInvalidRegistry = errors.New("invalid registry")

// MigrationError reports the failure of a single version step.
type MigrationError struct {
	Version int
	Name    string
	Err     error
}

func (e *MigrationError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("migration %d failed: %v", e.Version, e.Err)
	}
	return fmt.Sprintf("migration %d (%s) failed: %v", e.Version, e.Name, e.Err)
}

func (e *MigrationError) Unwrap() error {
	return e.Err
}

// FailedVersion extracts the failing version from err, if it wraps a MigrationError.
func FailedVersion(err error) (int, bool) {
	var merr *MigrationError
	if errors.As(err, &merr) {
		return merr.Version, true
	}
	return 0, false
}
