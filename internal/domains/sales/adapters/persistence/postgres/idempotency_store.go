package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// IdempotencyStore persists checkout keys in PostgreSQL.
type IdempotencyStore struct {
	db *gorm.DB
}

// NewIdempotencyStore wires a PostgreSQL-backed idempotency store.
func NewIdempotencyStore(db *gorm.DB) *IdempotencyStore {
	return &IdempotencyStore{db: db}
}

// Get loads a record by key, returning nil when absent.
func (s *IdempotencyStore) Get(ctx context.Context, key string) (*ports.IdempotencyRecord, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var record idempotencyRecord
	if err := s.db.WithContext(ctx).First(&record, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, classify("get idempotency key", err)
	}
	return record.toPort(), nil
}

// Save inserts the record. A key that already exists is compared against the stored hash and
// order; a mismatch yields ErrIdempotencyConflict with the stored record.
func (s *IdempotencyStore) Save(ctx context.Context, record ports.IdempotencyRecord) (*ports.IdempotencyRecord, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	dbRecord := idempotencyRecord{
		Key:         record.Key,
		RequestHash: record.RequestHash,
		OrderID:     record.OrderID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "key"}}, DoNothing: true}).
		Create(&dbRecord)
	if result.Error != nil {
		return nil, classify("save idempotency key", result.Error)
	}
	if result.RowsAffected == 1 {
		return dbRecord.toPort(), nil
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

func (s *IdempotencyStore) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres idempotency store not configured")
	}
	return nil
}

type idempotencyRecord struct {
	Key         string    `gorm:"primaryKey;column:key;size:255"`
	RequestHash string    `gorm:"column:request_hash;size:128"`
	OrderID     int64     `gorm:"column:order_id"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (idempotencyRecord) TableName() string { return "checkout_idempotency_keys" }

func (r *idempotencyRecord) toPort() *ports.IdempotencyRecord {
	return &ports.IdempotencyRecord{
		Key:         r.Key,
		RequestHash: r.RequestHash,
		OrderID:     r.OrderID,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
