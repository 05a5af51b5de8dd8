package sales

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"

	salestypes "github.com/Apurer/go-gin-pos-server/internal/domains/sales/application/types"
	salesports "github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
)

const (
	// CheckoutActivityName commits a cart as one transaction.
	CheckoutActivityName = "sales.activities.Checkout"
	// ReverseOrdersActivityName reverses a batch of orders as one transaction.
	ReverseOrdersActivityName = "sales.activities.ReverseOrders"
)

// Activities groups activities that operate on the sales bounded context.
type Activities struct {
	service salesports.Service
}

// NewActivities wires the sales service into the Temporal activities bundle. The service should
// carry an idempotency store so retried checkouts replay instead of selling twice.
func NewActivities(service salesports.Service) *Activities {
	return &Activities{service: service}
}

// Checkout runs the checkout use case. Business failures are returned as non-retryable.
func (a *Activities) Checkout(ctx context.Context, input salestypes.CheckoutInput) (*salestypes.Receipt, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		logger.Error("checkout activity not initialized")
		return nil, errors.New("checkout activity not initialized")
	}
	logger.Info("Checkout activity started", "lines", len(input.Cart), "attempt", activity.GetInfo(ctx).Attempt)
	receipt, err := a.service.Checkout(ctx, input)
	if err != nil {
		logger.Error("Checkout activity failed", "error", err)
		return nil, EncodeError(err)
	}
	logger.Info("Checkout activity completed", "orderId", receipt.OrderID, "replayed", receipt.Replayed)
	return receipt, nil
}

// ReverseOrders runs the batch reversal use case.
func (a *Activities) ReverseOrders(ctx context.Context, orderIDs []int64) (*salestypes.ReversalResult, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		logger.Error("reversal activity not initialized")
		return nil, errors.New("reversal activity not initialized")
	}
	attempt := activity.GetInfo(ctx).Attempt
	logger.Info("ReverseOrders activity started", "orderIds", orderIDs, "attempt", attempt)
	result, err := a.service.ReverseOrders(ctx, orderIDs)
	if errors.Is(err, salesports.ErrNotFound) && attempt > 1 && a.allGone(ctx, orderIDs) {
		// An earlier attempt committed the batch but its result never reached the workflow.
		logger.Warn("ReverseOrders activity found batch already reversed", "orderIds", orderIDs)
		return &salestypes.ReversalResult{OrderIDs: orderIDs, Replayed: true}, nil
	}
	if err != nil {
		logger.Error("ReverseOrders activity failed", "orderIds", orderIDs, "error", err)
		return nil, EncodeError(err)
	}
	logger.Info("ReverseOrders activity completed", "count", len(result.OrderIDs))
	return result, nil
}

func (a *Activities) allGone(ctx context.Context, orderIDs []int64) bool {
	if len(orderIDs) == 0 {
		return false
	}
	for _, id := range orderIDs {
		if _, err := a.service.GetOrder(ctx, id); !errors.Is(err, salesports.ErrNotFound) {
			return false
		}
	}
	return true
}
