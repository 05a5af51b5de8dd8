package workflows

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	salestypes "github.com/Apurer/go-gin-pos-server/internal/domains/sales/application/types"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
	salesactivities "github.com/Apurer/go-gin-pos-server/internal/platform/temporal/activities/sales"
	salesworkflows "github.com/Apurer/go-gin-pos-server/internal/platform/temporal/workflows/sales"
)

var (
	_ ports.WorkflowOrchestrator = (*TemporalSalesWorkflows)(nil)
	_ ports.WorkflowOrchestrator = (*InlineSalesWorkflows)(nil)
)

// workflowStarter is the subset of client.Client the orchestrator needs.
type workflowStarter interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
	GetWorkflow(ctx context.Context, workflowID string, runID string) client.WorkflowRun
}

// TemporalSalesWorkflows starts sales workflows on a Temporal cluster.
type TemporalSalesWorkflows struct {
	client    workflowStarter
	taskQueue string
}

// NewTemporalSalesWorkflows wires a Temporal client into the orchestrator.
func NewTemporalSalesWorkflows(c client.Client) *TemporalSalesWorkflows {
	if c == nil {
		return &TemporalSalesWorkflows{taskQueue: salesworkflows.SalesTaskQueue}
	}
	return &TemporalSalesWorkflows{client: c, taskQueue: salesworkflows.SalesTaskQueue}
}

// Checkout runs the checkout workflow and waits for the receipt. A repeated idempotency key
// attaches to the run already started for it.
func (o *TemporalSalesWorkflows) Checkout(ctx context.Context, input salestypes.CheckoutInput) (*salestypes.Receipt, error) {
	if o == nil || o.client == nil {
		return nil, errors.New("temporal sales workflows not configured")
	}
	traceComponent := workflowTraceComponent(ctx)
	workflowID := buildCheckoutWorkflowID(input, traceComponent)
	run, err := o.client.ExecuteWorkflow(
		ctx,
		client.StartWorkflowOptions{ID: workflowID, TaskQueue: o.taskQueue},
		salesworkflows.CheckoutWorkflowName,
		salesworkflows.CheckoutWorkflowInput{Command: input, TraceID: traceComponent},
	)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if !errors.As(err, &alreadyStarted) || strings.TrimSpace(input.IdempotencyKey) == "" {
			return nil, err
		}
		run = o.client.GetWorkflow(ctx, workflowID, alreadyStarted.RunId)
	}
	var receipt salestypes.Receipt
	if err := run.Get(ctx, &receipt); err != nil {
		return nil, salesactivities.DecodeError(err)
	}
	return &receipt, nil
}

// ReverseOrders runs the batch reversal workflow.
func (o *TemporalSalesWorkflows) ReverseOrders(ctx context.Context, orderIDs []int64) (*salestypes.ReversalResult, error) {
	if o == nil || o.client == nil {
		return nil, errors.New("temporal sales workflows not configured")
	}
	traceComponent := workflowTraceComponent(ctx)
	run, err := o.client.ExecuteWorkflow(
		ctx,
		client.StartWorkflowOptions{ID: fmt.Sprintf("sales-reversal-%d-%s", time.Now().UnixNano(), traceComponent), TaskQueue: o.taskQueue},
		salesworkflows.ReversalWorkflowName,
		salesworkflows.ReversalWorkflowInput{OrderIDs: orderIDs, TraceID: traceComponent},
	)
	if err != nil {
		return nil, err
	}
	var result salestypes.ReversalResult
	if err := run.Get(ctx, &result); err != nil {
		return nil, salesactivities.DecodeError(err)
	}
	return &result, nil
}

// InlineSalesWorkflows executes the service directly without Temporal, useful for tests or dev fallbacks.
type InlineSalesWorkflows struct {
	service ports.Service
}

// NewInlineSalesWorkflows wraps the sales service for synchronous execution.
func NewInlineSalesWorkflows(service ports.Service) *InlineSalesWorkflows {
	return &InlineSalesWorkflows{service: service}
}

// Checkout delegates to the application service.
func (o *InlineSalesWorkflows) Checkout(ctx context.Context, input salestypes.CheckoutInput) (*salestypes.Receipt, error) {
	if o == nil || o.service == nil {
		return nil, errors.New("inline sales workflows not configured")
	}
	return o.service.Checkout(ctx, input)
}

// ReverseOrders delegates to the application service.
func (o *InlineSalesWorkflows) ReverseOrders(ctx context.Context, orderIDs []int64) (*salestypes.ReversalResult, error) {
	if o == nil || o.service == nil {
		return nil, errors.New("inline sales workflows not configured")
	}
	return o.service.ReverseOrders(ctx, orderIDs)
}

func buildCheckoutWorkflowID(input salestypes.CheckoutInput, traceComponent string) string {
	if key := strings.TrimSpace(input.IdempotencyKey); key != "" {
		return fmt.Sprintf("sales-checkout-idem-%s", hashIdempotencyKey(key))
	}
	return fmt.Sprintf("sales-checkout-%d-%s", time.Now().UnixNano(), traceComponent)
}

func hashIdempotencyKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:8])
}

func workflowTraceComponent(ctx context.Context) string {
	if traceID := workflowTraceID(ctx); traceID != "" {
		return traceID
	}
	return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
}

func workflowTraceID(ctx context.Context) string {
	spanCtx := oteltrace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}
