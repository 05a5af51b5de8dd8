package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
)

const (
	idempotencyKeyPrefix = "checkout:idempotency:"
	// DefaultTTL bounds how long a checkout can be replayed.
	DefaultTTL = 24 * time.Hour
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// IdempotencyStore keeps checkout keys in Redis with an expiry.
type IdempotencyStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewIdempotencyStore wires a Redis-backed store. A non-positive ttl uses DefaultTTL.
func NewIdempotencyStore(client redis.UniversalClient, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

type storedRecord struct {
	RequestHash string    `json:"requestHash"`
	OrderID     int64     `json:"orderId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Get returns the record for key, or nil when it is absent or expired.
func (s *IdempotencyStore) Get(ctx context.Context, key string) (*ports.IdempotencyRecord, error) {
	raw, err := s.client.Get(ctx, idempotencyKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, ports.NewPersistenceError("get idempotency key", err)
	}
	var stored storedRecord
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, ports.NewPersistenceError("decode idempotency key", err)
	}
	return stored.toPort(key), nil
}

// Save claims key with SETNX. When the key is already held the stored record is compared
// against the new one.
func (s *IdempotencyStore) Save(ctx context.Context, record ports.IdempotencyRecord) (*ports.IdempotencyRecord, error) {
	stored := storedRecord{
		RequestHash: record.RequestHash,
		OrderID:     record.OrderID,
		CreatedAt:   time.Now().UTC(),
	}
	payload, err := json.Marshal(stored)
	if err != nil {
		return nil, err
	}
	ok, err := s.client.SetNX(ctx, idempotencyKeyPrefix+record.Key, payload, s.ttl).Result()
	if err != nil {
		return nil, ports.NewPersistenceError("save idempotency key", err)
	}
	if ok {
		return stored.toPort(record.Key), nil
	}
	existing, err := s.Get(ctx, record.Key)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		// Expired between SETNX and GET.
		return nil, ports.ErrConcurrencyConflict
	}
	if existing.RequestHash != record.RequestHash || existing.OrderID != record.OrderID {
		return existing, ports.ErrIdempotencyConflict
	}
	return existing, nil
}

func (r storedRecord) toPort(key string) *ports.IdempotencyRecord {
	return &ports.IdempotencyRecord{
		Key:         key,
		RequestHash: r.RequestHash,
		OrderID:     r.OrderID,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.CreatedAt,
	}
}
