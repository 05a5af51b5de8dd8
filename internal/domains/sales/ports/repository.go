package ports

import (
	"context"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"
	"github.com/Apurer/go-gin-pos-server/internal/shared/projection"
)

// StockStore exposes product lookups and the stock counter mutations available inside a transaction.
type StockStore interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	GetStock(ctx context.Context, id int64) (int, error)
	// TryDecrement removes qty units only if at least qty are available. It returns
	// *domain.InsufficientStockError without mutating when stock is short.
	TryDecrement(ctx context.Context, id int64, qty int) error
	Increment(ctx context.Context, id int64, qty int) error
}

// OrderStore persists orders and their line items inside a transaction.
type OrderStore interface {
	// Create inserts the order and its line items, assigning identifiers in place.
	Create(ctx context.Context, order *domain.Order) error
	Get(ctx context.Context, id int64) (*domain.Order, error)
	GetByNumber(ctx context.Context, orderNumber string) (*domain.Order, error)
	// UpdateAnnotations persists the amendable fields: payment method and comments.
	UpdateAnnotations(ctx context.Context, order *domain.Order) error
	// Delete removes the order together with its line items.
	Delete(ctx context.Context, id int64) error
}

// EventWriter appends domain events to the transactional outbox.
type EventWriter interface {
	Append(ctx context.Context, event domain.Event) error
}

// Tx is an open unit of work. Every mutation in scope goes through its stores; nothing
// becomes visible to other observers until Commit.
type Tx interface {
	Stock() StockStore
	Orders() OrderStore
	Events() EventWriter
	Idempotency() IdempotencyClaims
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TxManager opens transactions.
type TxManager interface {
	Begin(ctx context.Context) (Tx, error)
}

// Catalog loads products from an external source of record.
type Catalog interface {
	SaveProduct(ctx context.Context, product *domain.Product) error
}

// Repository is the outbound port of the sales context: the transaction manager plus
// committed-state queries.
type Repository interface {
	TxManager
	Catalog
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListLowStock(ctx context.Context) ([]*domain.Product, error)
	GetOrder(ctx context.Context, id int64) (*projection.Projection[*domain.Order], error)
}
