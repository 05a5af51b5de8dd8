package memory

import (
	"context"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
)

// tx mutates the store in place while holding its write lock and records an undo entry for
// every change so Rollback can restore the pre-transaction state.
type tx struct {
	store *Store
	undo  []func()
	done  bool
}

var (
	_ ports.Tx                = (*tx)(nil)
	_ ports.StockStore        = (*txStock)(nil)
	_ ports.OrderStore        = (*txOrders)(nil)
	_ ports.EventWriter       = (*txEvents)(nil)
	_ ports.IdempotencyClaims = (*txClaims)(nil)
)

type (
	txStock  struct{ tx *tx }
	txOrders struct{ tx *tx }
	txEvents struct{ tx *tx }
	txClaims struct{ tx *tx }
)

func (t *tx) Stock() ports.StockStore               { return &txStock{tx: t} }
func (t *tx) Orders() ports.OrderStore              { return &txOrders{tx: t} }
func (t *tx) Events() ports.EventWriter             { return &txEvents{tx: t} }
func (t *tx) Idempotency() ports.IdempotencyClaims { return &txClaims{tx: t} }

func (t *tx) Commit(context.Context) error {
	if t.done {
		return ports.ErrTxDone
	}
	t.undo = nil
	t.release()
	return nil
}

func (t *tx) Rollback(context.Context) error {
	if t.done {
		return ports.ErrTxDone
	}
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
	t.release()
	return nil
}

func (t *tx) release() {
	t.done = true
	t.store.mu.Unlock()
	<-t.store.slot
}

func (t *tx) active() error {
	if t.done {
		return ports.ErrTxDone
	}
	return nil
}

func (t *tx) onRollback(fn func()) {
	t.undo = append(t.undo, fn)
}

func (s *txStock) row(id int64) (*productRow, error) {
	if err := s.tx.active(); err != nil {
		return nil, err
	}
	row, ok := s.tx.store.products[id]
	if !ok {
		return nil, &domain.ProductNotFoundError{ProductID: id}
	}
	return row, nil
}

func (s *txStock) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	row, err := s.row(id)
	if err != nil {
		return nil, err
	}
	return row.product.Clone(), nil
}

func (s *txStock) GetStock(_ context.Context, id int64) (int, error) {
	row, err := s.row(id)
	if err != nil {
		return 0, err
	}
	return row.product.StockQuantity, nil
}

func (s *txStock) TryDecrement(_ context.Context, id int64, qty int) error {
	if qty <= 0 {
		return domain.ErrInvalidQuantity
	}
	row, err := s.row(id)
	if err != nil {
		return err
	}
	if row.product.StockQuantity < qty {
		return &domain.InsufficientStockError{
			ProductID:   id,
			ProductName: row.product.Name,
			Requested:   qty,
			Available:   row.product.StockQuantity,
		}
	}
	s.adjust(row, -qty)
	return nil
}

func (s *txStock) Increment(_ context.Context, id int64, qty int) error {
	if qty <= 0 {
		return domain.ErrInvalidQuantity
	}
	row, err := s.row(id)
	if err != nil {
		return err
	}
	s.adjust(row, qty)
	return nil
}

func (s *txStock) adjust(row *productRow, delta int) {
	prevStock, prevUpdated := row.product.StockQuantity, row.updatedAt
	row.product.StockQuantity += delta
	row.updatedAt = s.tx.store.now().UTC()
	s.tx.onRollback(func() {
		row.product.StockQuantity = prevStock
		row.updatedAt = prevUpdated
	})
}

func (o *txOrders) Create(_ context.Context, order *domain.Order) error {
	if err := o.tx.active(); err != nil {
		return err
	}
	store := o.tx.store
	if _, exists := store.byNumber[order.OrderNumber]; exists {
		return ports.ErrConcurrencyConflict
	}
	prevOrderID, prevLineID := store.nextOrderID, store.nextLineID

	store.nextOrderID++
	order.ID = store.nextOrderID
	for i := range order.LineItems {
		store.nextLineID++
		order.LineItems[i].ID = store.nextLineID
		order.LineItems[i].OrderID = order.ID
	}
	store.orders[order.ID] = &orderRow{order: order.Clone(), updatedAt: order.CreatedAt}
	store.byNumber[order.OrderNumber] = order.ID

	id, number := order.ID, order.OrderNumber
	o.tx.onRollback(func() {
		delete(store.orders, id)
		delete(store.byNumber, number)
		store.nextOrderID, store.nextLineID = prevOrderID, prevLineID
	})
	return nil
}

func (o *txOrders) Get(_ context.Context, id int64) (*domain.Order, error) {
	if err := o.tx.active(); err != nil {
		return nil, err
	}
	row, ok := o.tx.store.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return row.order.Clone(), nil
}

func (o *txOrders) GetByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	if err := o.tx.active(); err != nil {
		return nil, err
	}
	id, ok := o.tx.store.byNumber[orderNumber]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return o.Get(ctx, id)
}

func (o *txOrders) UpdateAnnotations(_ context.Context, order *domain.Order) error {
	if err := o.tx.active(); err != nil {
		return err
	}
	row, ok := o.tx.store.orders[order.ID]
	if !ok {
		return ports.ErrNotFound
	}
	prevMethod, prevComments, prevUpdated := row.order.PaymentMethod, row.order.Comments, row.updatedAt
	row.order.PaymentMethod = order.PaymentMethod
	row.order.Comments = order.Comments
	row.updatedAt = o.tx.store.now().UTC()
	o.tx.onRollback(func() {
		row.order.PaymentMethod = prevMethod
		row.order.Comments = prevComments
		row.updatedAt = prevUpdated
	})
	return nil
}

func (o *txOrders) Delete(_ context.Context, id int64) error {
	if err := o.tx.active(); err != nil {
		return err
	}
	store := o.tx.store
	row, ok := store.orders[id]
	if !ok {
		return ports.ErrNotFound
	}
	delete(store.orders, id)
	delete(store.byNumber, row.order.OrderNumber)
	o.tx.onRollback(func() {
		store.orders[id] = row
		store.byNumber[row.order.OrderNumber] = id
	})
	return nil
}

func (e *txEvents) Append(_ context.Context, event domain.Event) error {
	if err := e.tx.active(); err != nil {
		return err
	}
	msg, err := ports.NewOutboxMessage(event)
	if err != nil {
		return err
	}
	store := e.tx.store
	store.nextOutboxID++
	msg.ID = store.nextOutboxID
	store.outbox = append(store.outbox, msg)
	e.tx.onRollback(func() {
		store.outbox = store.outbox[:len(store.outbox)-1]
		store.nextOutboxID--
	})
	return nil
}

func (c *txClaims) Claim(_ context.Context, key, requestHash string) (*ports.IdempotencyRecord, error) {
	if err := c.tx.active(); err != nil {
		return nil, err
	}
	store := c.tx.store
	if existing, ok := store.claims[key]; ok {
		return &existing, ports.ErrIdempotencyKeyClaimed
	}
	now := store.now().UTC()
	record := ports.IdempotencyRecord{Key: key, RequestHash: requestHash, CreatedAt: now, UpdatedAt: now}
	store.claims[key] = record
	c.tx.onRollback(func() { delete(store.claims, key) })
	return &record, nil
}

func (c *txClaims) Bind(_ context.Context, key string, orderID int64) error {
	if err := c.tx.active(); err != nil {
		return err
	}
	store := c.tx.store
	record, ok := store.claims[key]
	if !ok {
		return ports.ErrNotFound
	}
	previous := record
	record.OrderID = orderID
	record.UpdatedAt = store.now().UTC()
	store.claims[key] = record
	c.tx.onRollback(func() { store.claims[key] = previous })
	return nil
}
