package ports

import (
	"context"

	salestypes "github.com/Apurer/go-gin-pos-server/internal/domains/sales/application/types"
)

// WorkflowOrchestrator exposes the durable sales operations.
type WorkflowOrchestrator interface {
	Checkout(ctx context.Context, input salestypes.CheckoutInput) (*salestypes.Receipt, error)
	ReverseOrders(ctx context.Context, orderIDs []int64) (*salestypes.ReversalResult, error)
}
