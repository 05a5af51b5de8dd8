package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
)

// SQLSTATE codes that mean the transaction lost a race and may be retried.
const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateUniqueViolation      = "23505"
)

// classify maps driver errors onto the port error vocabulary.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ports.ErrConcurrencyConflict
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlStateSerializationFailure, sqlStateDeadlockDetected, sqlStateUniqueViolation:
			return ports.ErrConcurrencyConflict
		}
	}
	return ports.NewPersistenceError(op, err)
}
