package ports

import (
	"context"

	salestypes "github.com/Apurer/go-gin-pos-server/internal/domains/sales/application/types"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"
)

// Service defines the sales use cases exposed to adapters (inbound/driving port).
type Service interface {
	Checkout(ctx context.Context, input salestypes.CheckoutInput) (*salestypes.Receipt, error)
	ReverseOrder(ctx context.Context, orderID int64) (*salestypes.ReversalResult, error)
	ReverseOrders(ctx context.Context, orderIDs []int64) (*salestypes.ReversalResult, error)
	ConfirmPayment(ctx context.Context, input salestypes.PaymentConfirmation) (*domain.Order, error)
	AmendComments(ctx context.Context, orderID int64, comments string) (*domain.Order, error)
	GetOrder(ctx context.Context, orderID int64) (*salestypes.OrderProjection, error)
	GetStock(ctx context.Context, productID int64) (int, error)
	ReceiveStock(ctx context.Context, input salestypes.StockReceipt) (*domain.Product, error)
	ListLowStock(ctx context.Context) ([]*domain.Product, error)
}

// OrderNumberGenerator issues collision-free order numbers.
type OrderNumberGenerator interface {
	Next() (string, error)
}
