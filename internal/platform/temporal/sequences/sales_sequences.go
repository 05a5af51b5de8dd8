package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	salestypes "github.com/Apurer/go-gin-pos-server/internal/domains/sales/application/types"
	salesactivities "github.com/Apurer/go-gin-pos-server/internal/platform/temporal/activities/sales"
)

// salesActivityOptions retries only infrastructure failures; business errors are non-retryable.
var salesActivityOptions = workflow.ActivityOptions{
	StartToCloseTimeout: 30 * time.Second,
	RetryPolicy: &temporal.RetryPolicy{
		InitialInterval:    time.Second,
		BackoffCoefficient: 2.0,
		MaximumInterval:    10 * time.Second,
		MaximumAttempts:    5,
		NonRetryableErrorTypes: []string{
			salesactivities.ErrTypeInsufficientStock,
			salesactivities.ErrTypeProductNotFound,
			salesactivities.ErrTypeInvalidInput,
			salesactivities.ErrTypeOrderNotFound,
			salesactivities.ErrTypeIdempotencyConflict,
		},
	},
}

// RunCheckoutSequence commits the cart. Without a caller key the workflow id becomes the
// idempotency key, so an activity retry after a lost response replays the first receipt.
func RunCheckoutSequence(ctx workflow.Context, input salestypes.CheckoutInput) (*salestypes.Receipt, error) {
	logger := workflow.GetLogger(ctx)
	if input.IdempotencyKey == "" {
		input.IdempotencyKey = workflow.GetInfo(ctx).WorkflowExecution.ID
	}
	logger.Info("checkout sequence started", "lines", len(input.Cart))

	var receipt salestypes.Receipt
	err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, salesActivityOptions), salesactivities.CheckoutActivityName, input).Get(ctx, &receipt)
	if err != nil {
		logger.Error("checkout sequence failed", "error", err)
		return nil, err
	}
	logger.Info("checkout sequence committed", "orderId", receipt.OrderID, "orderNumber", receipt.OrderNumber)
	return &receipt, nil
}

// RunReversalSequence reverses the batch in a single activity so the batch stays atomic.
func RunReversalSequence(ctx workflow.Context, orderIDs []int64) (*salestypes.ReversalResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("reversal sequence started", "orderIds", orderIDs)

	var result salestypes.ReversalResult
	err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, salesActivityOptions), salesactivities.ReverseOrdersActivityName, orderIDs).Get(ctx, &result)
	if err != nil {
		logger.Error("reversal sequence failed", "orderIds", orderIDs, "error", err)
		return nil, err
	}
	logger.Info("reversal sequence completed", "count", len(result.OrderIDs))
	return &result, nil
}
