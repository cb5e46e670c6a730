package matchmaking

import (
	"errors"
	"fmt"
)

var (
	ErrSessionNotFound = errors.New("match session not found")
	ErrRequestNotFound = errors.New("match request not found")
	// ErrNotParticipant is returned when a caller acts on a session they are not part of.
	ErrNotParticipant = errors.New("not authorized for this session")
	// ErrReservationConflict marks a lost reservation race. It never reaches API callers.
	ErrReservationConflict = errors.New("reservation lost to a concurrent match")
)

// ValidationError reports a malformed match request. It is raised before
// anything is persisted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StorageError wraps a failure of the persistence backend. Callers may retry
// the operation that produced it.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// NewStorageError wraps err as a retryable storage failure of op.
func NewStorageError(op string, err error) error {
	return storageErr(op, err)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsStorage reports whether err is a transient storage failure.
func IsStorage(err error) bool {
	var s *StorageError
	return errors.As(err, &s)
}
