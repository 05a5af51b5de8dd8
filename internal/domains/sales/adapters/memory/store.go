package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
	"github.com/Apurer/go-gin-pos-server/internal/shared/projection"
)

var (
	_ ports.Repository  = (*Store)(nil)
	_ ports.OutboxStore = (*Store)(nil)
)

type productRow struct {
	product   domain.Product
	createdAt time.Time
	updatedAt time.Time
}

type orderRow struct {
	order     *domain.Order
	updatedAt time.Time
}

// Store keeps products, orders and outbox messages in process memory. A transaction holds the
// write lock for its whole lifetime, so readers never observe uncommitted state.
type Store struct {
	// slot admits one transaction at a time and lets Begin honor context cancellation.
	slot chan struct{}
	mu   sync.RWMutex

	products map[int64]*productRow
	orders   map[int64]*orderRow
	byNumber map[string]int64
	outbox   []ports.OutboxMessage
	claims   map[string]ports.IdempotencyRecord

	nextOrderID  int64
	nextLineID   int64
	nextOutboxID int64
	now          func() time.Time
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{
		slot:     make(chan struct{}, 1),
		products: map[int64]*productRow{},
		orders:   map[int64]*orderRow{},
		byNumber: map[string]int64{},
		claims:   map[string]ports.IdempotencyRecord{},
		now:      time.Now,
	}
}

// WithClock overrides the time source for deterministic testing.
func (s *Store) WithClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Begin opens a transaction, waiting for any open one to finish.
func (s *Store) Begin(ctx context.Context) (ports.Tx, error) {
	select {
	case s.slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	s.mu.Lock()
	return &tx{store: s}, nil
}

// SaveProduct inserts or replaces a product.
func (s *Store) SaveProduct(ctx context.Context, product *domain.Product) error {
	if product == nil {
		return domain.ErrProductNotFound
	}
	if err := product.Validate(); err != nil {
		return err
	}
	select {
	case s.slot <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-s.slot }()
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	row, ok := s.products[product.ID]
	if !ok {
		row = &productRow{createdAt: now}
		s.products[product.ID] = row
	}
	row.product = *product.Clone()
	row.updatedAt = now
	return nil
}

// GetProduct returns the committed product.
func (s *Store) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.products[id]
	if !ok {
		return nil, &domain.ProductNotFoundError{ProductID: id}
	}
	return row.product.Clone(), nil
}

// ListLowStock returns products at or below their threshold, ordered by id.
func (s *Store) ListLowStock(_ context.Context) ([]*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Product
	for _, row := range s.products {
		if row.product.IsLowStock() {
			out = append(out, row.product.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetOrder returns the committed order with its line items.
func (s *Store) GetOrder(_ context.Context, id int64) (*projection.Projection[*domain.Order], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return projection.New(row.order.Clone(), row.order.CreatedAt, row.updatedAt), nil
}

// OrderCount reports how many orders are stored.
func (s *Store) OrderCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}

// FetchPending returns unpublished outbox messages in insertion order.
func (s *Store) FetchPending(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []ports.OutboxMessage
	for _, msg := range s.outbox {
		if msg.PublishedAt != nil {
			continue
		}
		out = append(out, msg)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// MarkPublished stamps the message as delivered.
func (s *Store) MarkPublished(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.outbox {
		if s.outbox[i].ID == id {
			now := s.now().UTC()
			s.outbox[i].PublishedAt = &now
			return nil
		}
	}
	return ports.ErrNotFound
}
