package ports

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrPersistence marks storage-layer failures during reads or writes.
	ErrPersistence = errors.New("persistence failure")
	// ErrConcurrencyConflict indicates a concurrent modification was detected during commit.
	ErrConcurrencyConflict = errors.New("concurrency conflict")
	// ErrTxDone is returned when a handle is used after Commit or Rollback.
	ErrTxDone = errors.New("transaction already committed or rolled back")
)

// PersistenceError wraps a driver error with the failing operation.
type PersistenceError struct {
	Op  string
	Err error
}

// NewPersistenceError wraps err unless it is nil or already classified.
func NewPersistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrPersistence) || errors.Is(err, ErrConcurrencyConflict) || errors.Is(err, ErrTxDone) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrPersistence, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }
