package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	driver "github.com/go-sql-driver/mysql"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
	"github.com/Apurer/go-gin-pos-server/internal/shared/projection"
)

var (
	_ ports.Repository  = (*Repository)(nil)
	_ ports.OutboxStore = (*Repository)(nil)
)

// MySQL server error numbers that mean the transaction lost a race.
const (
	errDeadlock        = 1213
	errLockWaitTimeout = 1205
	errDuplicateEntry  = 1062
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository persists the sales context in MySQL through database/sql.
type Repository struct {
	db *sql.DB
}

// NewRepository wires a MySQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Begin opens a transaction.
func (r *Repository) Begin(ctx context.Context) (ports.Tx, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify("begin", err)
	}
	return &tx{tx: sqlTx}, nil
}

// SaveProduct inserts or replaces a product row.
func (r *Repository) SaveProduct(ctx context.Context, product *domain.Product) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	if product == nil {
		return errors.New("product is nil")
	}
	if err := product.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (id, name, price, stock_quantity, low_stock_threshold)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			name = VALUES(name),
			price = VALUES(price),
			stock_quantity = VALUES(stock_quantity),
			low_stock_threshold = VALUES(low_stock_threshold),
			updated_at = CURRENT_TIMESTAMP(6)`,
		product.ID, product.Name, product.Price, product.StockQuantity, product.LowStockThreshold,
	)
	return classify("save product", err)
}

// GetProduct fetches the committed product.
func (r *Repository) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	return getProduct(ctx, r.db, id, false)
}

// ListLowStock returns products at or below their threshold.
func (r *Repository) ListLowStock(ctx context.Context) ([]*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, price, stock_quantity, low_stock_threshold
		FROM products WHERE stock_quantity <= low_stock_threshold ORDER BY id`)
	if err != nil {
		return nil, classify("list low stock", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.StockQuantity, &p.LowStockThreshold); err != nil {
			return nil, classify("scan product", err)
		}
		products = append(products, &p)
	}
	return products, classify("list low stock", rows.Err())
}

// GetOrder loads a committed order with its line items.
func (r *Repository) GetOrder(ctx context.Context, id int64) (*projection.Projection[*domain.Order], error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	order, updatedAt, err := getOrder(ctx, r.db, "id = ?", id, false)
	if err != nil {
		return nil, err
	}
	return projection.New(order, order.CreatedAt, updatedAt), nil
}

// FetchPending returns unpublished outbox messages oldest first.
func (r *Repository) FetchPending(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, event_id, event_name, aggregate_key, payload, created_at
		FROM outbox_messages WHERE published_at IS NULL ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, classify("fetch outbox", err)
	}
	defer rows.Close()

	var out []ports.OutboxMessage
	for rows.Next() {
		var msg ports.OutboxMessage
		var payload []byte
		if err := rows.Scan(&msg.ID, &msg.EventID, &msg.EventName, &msg.Key, &payload, &msg.CreatedAt); err != nil {
			return nil, classify("scan outbox", err)
		}
		msg.Payload = payload
		out = append(out, msg)
	}
	return out, classify("fetch outbox", rows.Err())
}

// MarkPublished stamps the outbox row as delivered.
func (r *Repository) MarkPublished(ctx context.Context, id int64) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx,
		`UPDATE outbox_messages SET published_at = ? WHERE id = ?`, time.Now().UTC(), id)
	if err != nil {
		return classify("mark published", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("mysql sales repository not configured")
	}
	return nil
}

func getProduct(ctx context.Context, q querier, id int64, forUpdate bool) (*domain.Product, error) {
	query := `SELECT id, name, price, stock_quantity, low_stock_threshold FROM products WHERE id = ?`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var p domain.Product
	err := q.QueryRowContext(ctx, query, id).
		Scan(&p.ID, &p.Name, &p.Price, &p.StockQuantity, &p.LowStockThreshold)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ProductNotFoundError{ProductID: id}
	}
	if err != nil {
		return nil, classify("get product", err)
	}
	return &p, nil
}

func getOrder(ctx context.Context, q querier, where string, arg any, forUpdate bool) (*domain.Order, time.Time, error) {
	query := `
		SELECT id, order_number, created_at, subtotal, discount_percent, discount_amount,
			tax_amount, total_amount, payment_method, COALESCE(comments, ''), user_id, updated_at
		FROM orders WHERE ` + where
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var (
		o         domain.Order
		updatedAt time.Time
	)
	err := q.QueryRowContext(ctx, query, arg).Scan(
		&o.ID, &o.OrderNumber, &o.CreatedAt, &o.Subtotal, &o.DiscountPercent, &o.DiscountAmount,
		&o.TaxAmount, &o.TotalAmount, &o.PaymentMethod, &o.Comments, &o.UserID, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, ports.ErrNotFound
	}
	if err != nil {
		return nil, time.Time{}, classify("get order", err)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT id, order_id, product_id, product_name, quantity, unit_price
		FROM order_line_items WHERE order_id = ? ORDER BY id`, o.ID)
	if err != nil {
		return nil, time.Time{}, classify("load line items", err)
	}
	defer rows.Close()
	for rows.Next() {
		var line domain.LineItem
		if err := rows.Scan(&line.ID, &line.OrderID, &line.ProductID, &line.ProductName, &line.Quantity, &line.UnitPrice); err != nil {
			return nil, time.Time{}, classify("scan line item", err)
		}
		o.LineItems = append(o.LineItems, line)
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, classify("load line items", err)
	}
	return &o, updatedAt, nil
}

// classify maps driver errors onto the port error vocabulary.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, sql.ErrTxDone) {
		return ports.ErrTxDone
	}
	var myErr *driver.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case errDeadlock, errLockWaitTimeout, errDuplicateEntry:
			return ports.ErrConcurrencyConflict
		}
	}
	return ports.NewPersistenceError(op, fmt.Errorf("mysql: %w", err))
}
