package ports

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrIdempotencyConflict indicates the same key was used with a different cart or order.
	ErrIdempotencyConflict = errors.New("idempotency conflict")
	// ErrIdempotencyKeyClaimed is returned by Claim when a committed checkout already holds the key.
	ErrIdempotencyKeyClaimed = errors.New("idempotency key already claimed")
)

// IdempotencyRecord associates a client-supplied checkout key with the order it produced.
type IdempotencyRecord struct {
	Key         string
	RequestHash string
	OrderID     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IdempotencyStore persists checkout keys so retries replay the original receipt.
type IdempotencyStore interface {
	// Get returns the stored record for the key, or nil when unknown.
	Get(ctx context.Context, key string) (*IdempotencyRecord, error)
	// Save persists the record. If the key exists with the same hash and order the stored record is
	// returned; otherwise ErrIdempotencyConflict is returned together with the stored record.
	Save(ctx context.Context, record IdempotencyRecord) (*IdempotencyRecord, error)
}

// IdempotencyClaims reserves checkout keys inside the transaction that places the order. A
// second transaction claiming the same key waits for the first and then sees its claim, so
// only one order is ever committed per key.
type IdempotencyClaims interface {
	// Claim reserves key for requestHash. If the key is already held the stored record is
	// returned together with ErrIdempotencyKeyClaimed.
	Claim(ctx context.Context, key, requestHash string) (*IdempotencyRecord, error)
	// Bind attaches the order created under a key claimed in the same transaction.
	Bind(ctx context.Context, key string, orderID int64) error
}
