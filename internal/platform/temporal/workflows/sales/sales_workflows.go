package sales

import (
	"go.temporal.io/sdk/workflow"

	salestypes "github.com/Apurer/go-gin-pos-server/internal/domains/sales/application/types"
	"github.com/Apurer/go-gin-pos-server/internal/platform/temporal/sequences"
)

const (
	// CheckoutWorkflowName is the public identifier for registering the checkout workflow.
	CheckoutWorkflowName = "sales.workflows.Checkout"
	// ReversalWorkflowName is the public identifier for registering the batch reversal workflow.
	ReversalWorkflowName = "sales.workflows.Reversal"
	// SalesTaskQueue is the queue consumed by the worker processing sales workflows.
	SalesTaskQueue = "SALES"
)

// CheckoutWorkflowInput captures the cart to commit.
type CheckoutWorkflowInput struct {
	Command salestypes.CheckoutInput
	TraceID string
}

// ReversalWorkflowInput captures the orders to reverse.
type ReversalWorkflowInput struct {
	OrderIDs []int64
	TraceID  string
}

// CheckoutWorkflow orchestrates a durable checkout.
func CheckoutWorkflow(ctx workflow.Context, input CheckoutWorkflowInput) (*salestypes.Receipt, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("CheckoutWorkflow started", withTraceID(input.TraceID, "lines", len(input.Command.Cart))...)
	receipt, err := sequences.RunCheckoutSequence(ctx, input.Command)
	if err != nil {
		logger.Error("CheckoutWorkflow failed", withTraceID(input.TraceID, "error", err)...)
		return nil, err
	}
	logger.Info("CheckoutWorkflow completed", withTraceID(input.TraceID, "orderId", receipt.OrderID)...)
	return receipt, nil
}

// ReversalWorkflow orchestrates a durable batch reversal.
func ReversalWorkflow(ctx workflow.Context, input ReversalWorkflowInput) (*salestypes.ReversalResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("ReversalWorkflow started", withTraceID(input.TraceID, "orderIds", input.OrderIDs)...)
	result, err := sequences.RunReversalSequence(ctx, input.OrderIDs)
	if err != nil {
		logger.Error("ReversalWorkflow failed", withTraceID(input.TraceID, "error", err)...)
		return nil, err
	}
	logger.Info("ReversalWorkflow completed", withTraceID(input.TraceID, "count", len(result.OrderIDs))...)
	return result, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
