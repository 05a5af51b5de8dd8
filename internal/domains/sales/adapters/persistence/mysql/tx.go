package mysql

import (
	"context"
	"database/sql"
	"time"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
)

type tx struct {
	tx   *sql.Tx
	done bool
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
	t.done = true
	return classify("commit", t.tx.Commit())
}

func (t *tx) Rollback(context.Context) error {
	if t.done {
		return ports.ErrTxDone
	}
	t.done = true
	return classify("rollback", t.tx.Rollback())
}

func (t *tx) conn() (*sql.Tx, error) {
	if t.done {
		return nil, ports.ErrTxDone
	}
	return t.tx, nil
}

func (s *txStock) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	q, err := s.tx.conn()
	if err != nil {
		return nil, err
	}
	return getProduct(ctx, q, id, false)
}

func (s *txStock) GetStock(ctx context.Context, id int64) (int, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return 0, err
	}
	return product.StockQuantity, nil
}

func (s *txStock) TryDecrement(ctx context.Context, id int64, qty int) error {
	if qty <= 0 {
		return domain.ErrInvalidQuantity
	}
	q, err := s.tx.conn()
	if err != nil {
		return err
	}
	result, err := q.ExecContext(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity - ?, updated_at = CURRENT_TIMESTAMP(6)
		WHERE id = ? AND stock_quantity >= ?`,
		qty, id, qty,
	)
	if err != nil {
		return classify("decrement stock", err)
	}
	if rows, _ := result.RowsAffected(); rows == 1 {
		return nil
	}
	product, err := getProduct(ctx, q, id, false)
	if err != nil {
		return err
	}
	return &domain.InsufficientStockError{
		ProductID:   id,
		ProductName: product.Name,
		Requested:   qty,
		Available:   product.StockQuantity,
	}
}

func (s *txStock) Increment(ctx context.Context, id int64, qty int) error {
	if qty <= 0 {
		return domain.ErrInvalidQuantity
	}
	q, err := s.tx.conn()
	if err != nil {
		return err
	}
	result, err := q.ExecContext(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity + ?, updated_at = CURRENT_TIMESTAMP(6)
		WHERE id = ?`,
		qty, id,
	)
	if err != nil {
		return classify("increment stock", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return &domain.ProductNotFoundError{ProductID: id}
	}
	return nil
}

func (o *txOrders) Create(ctx context.Context, order *domain.Order) error {
	q, err := o.tx.conn()
	if err != nil {
		return err
	}
	result, err := q.ExecContext(ctx, `
		INSERT INTO orders (order_number, created_at, subtotal, discount_percent, discount_amount,
			tax_amount, total_amount, payment_method, comments, user_id, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.OrderNumber, order.CreatedAt, order.Subtotal, order.DiscountPercent, order.DiscountAmount,
		order.TaxAmount, order.TotalAmount, order.PaymentMethod, order.Comments, order.UserID, order.CreatedAt,
	)
	if err != nil {
		return classify("insert order", err)
	}
	orderID, err := result.LastInsertId()
	if err != nil {
		return classify("insert order", err)
	}
	for i := range order.LineItems {
		line := &order.LineItems[i]
		res, err := q.ExecContext(ctx, `
			INSERT INTO order_line_items (order_id, product_id, product_name, quantity, unit_price)
			VALUES (?, ?, ?, ?, ?)`,
			orderID, line.ProductID, line.ProductName, line.Quantity, line.UnitPrice,
		)
		if err != nil {
			return classify("insert line item", err)
		}
		lineID, err := res.LastInsertId()
		if err != nil {
			return classify("insert line item", err)
		}
		line.ID = lineID
		line.OrderID = orderID
	}
	order.ID = orderID
	return nil
}

func (o *txOrders) Get(ctx context.Context, id int64) (*domain.Order, error) {
	q, err := o.tx.conn()
	if err != nil {
		return nil, err
	}
	order, _, err := getOrder(ctx, q, "id = ?", id, true)
	return order, err
}

func (o *txOrders) GetByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	q, err := o.tx.conn()
	if err != nil {
		return nil, err
	}
	order, _, err := getOrder(ctx, q, "order_number = ?", orderNumber, true)
	return order, err
}

func (o *txOrders) UpdateAnnotations(ctx context.Context, order *domain.Order) error {
	q, err := o.tx.conn()
	if err != nil {
		return err
	}
	result, err := q.ExecContext(ctx, `
		UPDATE orders SET payment_method = ?, comments = ?, updated_at = CURRENT_TIMESTAMP(6)
		WHERE id = ?`,
		order.PaymentMethod, order.Comments, order.ID,
	)
	if err != nil {
		return classify("update order", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (o *txOrders) Delete(ctx context.Context, id int64) error {
	q, err := o.tx.conn()
	if err != nil {
		return err
	}
	result, err := q.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	if err != nil {
		return classify("delete order", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (e *txEvents) Append(ctx context.Context, event domain.Event) error {
	q, err := e.tx.conn()
	if err != nil {
		return err
	}
	msg, err := ports.NewOutboxMessage(event)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO outbox_messages (event_id, event_name, aggregate_key, payload, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		msg.EventID, msg.EventName, msg.Key, []byte(msg.Payload), msg.CreatedAt,
	)
	return classify("append outbox", err)
}

// Claim inserts the key row; the no-op ON DUPLICATE KEY UPDATE reports zero rows when the key
// exists. A concurrent claimant waits on the holder's row lock, then reads the committed
// record with a locking read.
func (c *txClaims) Claim(ctx context.Context, key, requestHash string) (*ports.IdempotencyRecord, error) {
	q, err := c.tx.conn()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	result, err := q.ExecContext(ctx, `
		INSERT INTO checkout_idempotency_keys (idempotency_key, request_hash, order_id, created_at, updated_at)
		VALUES (?, ?, 0, ?, ?)
		ON DUPLICATE KEY UPDATE idempotency_key = idempotency_key`,
		key, requestHash, now, now,
	)
	if err != nil {
		return nil, classify("claim idempotency key", err)
	}
	if rows, _ := result.RowsAffected(); rows == 1 {
		return &ports.IdempotencyRecord{Key: key, RequestHash: requestHash, CreatedAt: now, UpdatedAt: now}, nil
	}
	existing, err := getIdempotencyRecord(ctx, q, key, true)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ports.ErrConcurrencyConflict
	}
	return existing, ports.ErrIdempotencyKeyClaimed
}

func (c *txClaims) Bind(ctx context.Context, key string, orderID int64) error {
	q, err := c.tx.conn()
	if err != nil {
		return err
	}
	result, err := q.ExecContext(ctx, `
		UPDATE checkout_idempotency_keys SET order_id = ?, updated_at = ?
		WHERE idempotency_key = ?`,
		orderID, time.Now().UTC(), key,
	)
	if err != nil {
		return classify("bind idempotency key", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ports.ErrNotFound
	}
	return nil
}
