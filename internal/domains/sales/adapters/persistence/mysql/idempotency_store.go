package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// IdempotencyStore reads and writes checkout keys in the same table the transactional claims use.
type IdempotencyStore struct {
	db *sql.DB
}

// NewIdempotencyStore wires a MySQL-backed idempotency store.
func NewIdempotencyStore(db *sql.DB) *IdempotencyStore {
	return &IdempotencyStore{db: db}
}

// Get loads a record by key, returning nil when absent.
func (s *IdempotencyStore) Get(ctx context.Context, key string) (*ports.IdempotencyRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("mysql idempotency store not configured")
	}
	return getIdempotencyRecord(ctx, s.db, key, false)
}

// Save inserts the record. An existing key must match both hash and order.
func (s *IdempotencyStore) Save(ctx context.Context, record ports.IdempotencyRecord) (*ports.IdempotencyRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("mysql idempotency store not configured")
	}
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO checkout_idempotency_keys (idempotency_key, request_hash, order_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE idempotency_key = idempotency_key`,
		record.Key, record.RequestHash, record.OrderID, now, now,
	)
	if err != nil {
		return nil, classify("save idempotency key", err)
	}
	if rows, _ := result.RowsAffected(); rows == 1 {
		record.CreatedAt, record.UpdatedAt = now, now
		return &record, nil
	}
	existing, err := s.Get(ctx, record.Key)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ports.ErrConcurrencyConflict
	}
	if existing.RequestHash != record.RequestHash || existing.OrderID != record.OrderID {
		return existing, ports.ErrIdempotencyConflict
	}
	return existing, nil
}

func getIdempotencyRecord(ctx context.Context, q querier, key string, forUpdate bool) (*ports.IdempotencyRecord, error) {
	query := `
		SELECT idempotency_key, request_hash, order_id, created_at, updated_at
		FROM checkout_idempotency_keys WHERE idempotency_key = ?`
	if forUpdate {
		query += " FOR UPDATE"
	}
	var record ports.IdempotencyRecord
	err := q.QueryRowContext(ctx, query, key).Scan(
		&record.Key, &record.RequestHash, &record.OrderID, &record.CreatedAt, &record.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("get idempotency key", err)
	}
	return &record, nil
}
