package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
)

// tx wraps a GORM transaction. Stock mutations are single conditional UPDATE statements, so
// concurrent checkouts serialize on the product row rather than on a read-then-write.
type tx struct {
	db   *gorm.DB
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
	return classify("commit", t.db.Commit().Error)
}

func (t *tx) Rollback(context.Context) error {
	if t.done {
		return ports.ErrTxDone
	}
	t.done = true
	return classify("rollback", t.db.Rollback().Error)
}

func (t *tx) conn(ctx context.Context) (*gorm.DB, error) {
	if t.done {
		return nil, ports.ErrTxDone
	}
	return t.db.WithContext(ctx), nil
}

func (s *txStock) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	db, err := s.tx.conn(ctx)
	if err != nil {
		return nil, err
	}
	return findProduct(db, id)
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
	db, err := s.tx.conn(ctx)
	if err != nil {
		return err
	}
	result := db.Model(&productRecord{}).
		Where("id = ? AND stock_quantity >= ?", id, qty).
		Updates(map[string]any{
			"stock_quantity": gorm.Expr("stock_quantity - ?", qty),
			"updated_at":     time.Now().UTC(),
		})
	if result.Error != nil {
		return classify("decrement stock", result.Error)
	}
	if result.RowsAffected == 1 {
		return nil
	}
	// Nothing matched: the product is missing or short. Report which.
	product, err := findProduct(db, id)
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
	db, err := s.tx.conn(ctx)
	if err != nil {
		return err
	}
	result := db.Model(&productRecord{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"stock_quantity": gorm.Expr("stock_quantity + ?", qty),
			"updated_at":     time.Now().UTC(),
		})
	if result.Error != nil {
		return classify("increment stock", result.Error)
	}
	if result.RowsAffected == 0 {
		return &domain.ProductNotFoundError{ProductID: id}
	}
	return nil
}

func (o *txOrders) Create(ctx context.Context, order *domain.Order) error {
	db, err := o.tx.conn(ctx)
	if err != nil {
		return err
	}
	record := toOrderRecord(order)
	if err := db.Create(&record).Error; err != nil {
		return classify("insert order", err)
	}
	if len(order.LineItems) > 0 {
		lines := make([]lineItemRecord, 0, len(order.LineItems))
		for _, line := range order.LineItems {
			lines = append(lines, lineItemRecord{
				OrderID:     record.ID,
				ProductID:   line.ProductID,
				ProductName: line.ProductName,
				Quantity:    line.Quantity,
				UnitPrice:   line.UnitPrice,
			})
		}
		if err := db.Create(&lines).Error; err != nil {
			return classify("insert line items", err)
		}
		for i := range order.LineItems {
			order.LineItems[i].ID = lines[i].ID
			order.LineItems[i].OrderID = record.ID
		}
	}
	order.ID = record.ID
	return nil
}

func (o *txOrders) Get(ctx context.Context, id int64) (*domain.Order, error) {
	db, err := o.tx.conn(ctx)
	if err != nil {
		return nil, err
	}
	var record orderRecord
	return findOrder(db, true, &record, "id = ?", id)
}

func (o *txOrders) GetByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	db, err := o.tx.conn(ctx)
	if err != nil {
		return nil, err
	}
	var record orderRecord
	return findOrder(db, true, &record, "order_number = ?", orderNumber)
}

func (o *txOrders) UpdateAnnotations(ctx context.Context, order *domain.Order) error {
	db, err := o.tx.conn(ctx)
	if err != nil {
		return err
	}
	result := db.Model(&orderRecord{}).
		Where("id = ?", order.ID).
		Updates(map[string]any{
			"payment_method": order.PaymentMethod,
			"comments":       order.Comments,
			"updated_at":     time.Now().UTC(),
		})
	if result.Error != nil {
		return classify("update order", result.Error)
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (o *txOrders) Delete(ctx context.Context, id int64) error {
	db, err := o.tx.conn(ctx)
	if err != nil {
		return err
	}
	if err := db.Where("order_id = ?", id).Delete(&lineItemRecord{}).Error; err != nil {
		return classify("delete line items", err)
	}
	result := db.Delete(&orderRecord{}, id)
	if result.Error != nil {
		return classify("delete order", result.Error)
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (e *txEvents) Append(ctx context.Context, event domain.Event) error {
	db, err := e.tx.conn(ctx)
	if err != nil {
		return err
	}
	msg, err := ports.NewOutboxMessage(event)
	if err != nil {
		return err
	}
	record := toOutboxRecord(msg)
	if err := db.Create(&record).Error; err != nil {
		return classify("append outbox", err)
	}
	return nil
}

// Claim inserts the key row with ON CONFLICT DO NOTHING. A concurrent claimant blocks on the
// uncommitted row and, once the holder commits, reads the stored record instead of aborting.
func (c *txClaims) Claim(ctx context.Context, key, requestHash string) (*ports.IdempotencyRecord, error) {
	db, err := c.tx.conn(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	record := idempotencyRecord{Key: key, RequestHash: requestHash, CreatedAt: now, UpdatedAt: now}
	result := db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "key"}}, DoNothing: true}).Create(&record)
	if result.Error != nil {
		return nil, classify("claim idempotency key", result.Error)
	}
	if result.RowsAffected == 1 {
		return record.toPort(), nil
	}
	var existing idempotencyRecord
	if err := db.First(&existing, "key = ?", key).Error; err != nil {
		return nil, classify("load idempotency claim", err)
	}
	return existing.toPort(), ports.ErrIdempotencyKeyClaimed
}

func (c *txClaims) Bind(ctx context.Context, key string, orderID int64) error {
	db, err := c.tx.conn(ctx)
	if err != nil {
		return err
	}
	result := db.Model(&idempotencyRecord{}).
		Where("key = ?", key).
		Updates(map[string]any{"order_id": orderID, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return classify("bind idempotency key", result.Error)
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}
