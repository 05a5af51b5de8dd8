package observability

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/application"
	salestypes "github.com/Apurer/go-gin-pos-server/internal/domains/sales/application/types"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
)

const tracerName = "github.com/Apurer/go-gin-pos-server/internal/domains/sales/adapters/observability/service"

// Service decorates the sales application port with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTracer injects a tracer implementation.
func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

// WithMeter injects the meter used to create service metrics instruments.
func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wires a decorator around the core service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  defaultLogger(),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = defaultLogger()
	}
	return s
}

// Checkout records the sale outcome, including why a cart was refused.
func (s *Service) Checkout(ctx context.Context, input salestypes.CheckoutInput) (*salestypes.Receipt, error) {
	ctx, span := s.startSpan(ctx, "Service.Checkout",
		attribute.Int("cart.lines", len(input.Cart)),
		attribute.Int("cart.units", input.Cart.Units()),
		attribute.String("checkout.discount_percent", input.DiscountPercent.String()),
		attribute.Bool("checkout.idempotent", input.IdempotencyKey != ""),
	)
	defer span.End()

	s.logInfo(ctx, "checking out cart", slog.Int("lines", len(input.Cart)), slog.String("user.id", input.UserID))
	receipt, err := s.inner.Checkout(ctx, input)
	if err != nil {
		s.metrics.recordCheckout(ctx, failureReason(err))
		var shortage *domain.InsufficientStockError
		if errors.As(err, &shortage) {
			span.SetAttributes(attribute.Int64("product.id", shortage.ProductID), attribute.Int("stock.available", shortage.Available))
		}
		return nil, s.handleError(ctx, span, err, "checkout failed", slog.Int("lines", len(input.Cart)))
	}
	span.SetAttributes(
		attribute.Int64("order.id", receipt.OrderID),
		attribute.String("order.number", receipt.OrderNumber),
		attribute.Bool("checkout.replayed", receipt.Replayed),
	)
	if !receipt.Replayed {
		s.metrics.recordCheckout(ctx, "success")
		total, _ := receipt.TotalAmount.Float64()
		s.metrics.recordSaleTotal(ctx, total)
		s.metrics.recordLowStock(ctx, len(receipt.LowStock))
	}
	for _, alert := range receipt.LowStock {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "product low on stock",
			slog.Int64("product.id", alert.ProductID),
			slog.String("product.name", alert.Name),
			slog.Int("stock", alert.Stock),
			slog.Int("threshold", alert.Threshold),
		)
	}
	s.logInfo(ctx, "checkout committed",
		slog.Int64("order.id", receipt.OrderID),
		slog.String("order.number", receipt.OrderNumber),
		slog.String("total", receipt.TotalAmount.StringFixed(domain.MoneyPlaces)),
	)
	return receipt, nil
}

// ReverseOrder reverses a single order.
func (s *Service) ReverseOrder(ctx context.Context, orderID int64) (*salestypes.ReversalResult, error) {
	ctx, span := s.startSpan(ctx, "Service.ReverseOrder", attribute.Int64("order.id", orderID))
	defer span.End()

	s.logInfo(ctx, "reversing order", slog.Int64("order.id", orderID))
	result, err := s.inner.ReverseOrder(ctx, orderID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to reverse order", slog.Int64("order.id", orderID))
	}
	s.metrics.recordReversed(ctx, len(result.OrderIDs))
	s.logInfo(ctx, "order reversed", slog.Int64("order.id", orderID), slog.Any("restocked", result.Restocked))
	return result, nil
}

// ReverseOrders reverses a batch atomically.
func (s *Service) ReverseOrders(ctx context.Context, orderIDs []int64) (*salestypes.ReversalResult, error) {
	ctx, span := s.startSpan(ctx, "Service.ReverseOrders", attribute.Int64Slice("order.ids", orderIDs))
	defer span.End()

	s.logInfo(ctx, "reversing orders", slog.Any("order.ids", orderIDs))
	result, err := s.inner.ReverseOrders(ctx, orderIDs)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to reverse orders", slog.Any("order.ids", orderIDs))
	}
	s.metrics.recordReversed(ctx, len(result.OrderIDs))
	s.logInfo(ctx, "orders reversed", slog.Int("count", len(result.OrderIDs)))
	return result, nil
}

// ConfirmPayment records a gateway callback.
func (s *Service) ConfirmPayment(ctx context.Context, input salestypes.PaymentConfirmation) (*domain.Order, error) {
	ctx, span := s.startSpan(ctx, "Service.ConfirmPayment",
		attribute.String("order.number", input.OrderNumber),
		attribute.String("payment.method", input.PaymentMethod),
	)
	defer span.End()

	s.logInfo(ctx, "confirming payment", slog.String("order.number", input.OrderNumber), slog.String("payment.method", input.PaymentMethod))
	order, err := s.inner.ConfirmPayment(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to confirm payment", slog.String("order.number", input.OrderNumber))
	}
	s.metrics.recordPayment(ctx, order.PaymentMethod)
	return order, nil
}

// AmendComments replaces order comments.
func (s *Service) AmendComments(ctx context.Context, orderID int64, comments string) (*domain.Order, error) {
	ctx, span := s.startSpan(ctx, "Service.AmendComments", attribute.Int64("order.id", orderID))
	defer span.End()

	order, err := s.inner.AmendComments(ctx, orderID, comments)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to amend comments", slog.Int64("order.id", orderID))
	}
	s.logInfo(ctx, "order comments amended", slog.Int64("order.id", orderID))
	return order, nil
}

// GetOrder loads an order.
func (s *Service) GetOrder(ctx context.Context, orderID int64) (*salestypes.OrderProjection, error) {
	ctx, span := s.startSpan(ctx, "Service.GetOrder", attribute.Int64("order.id", orderID))
	defer span.End()

	result, err := s.inner.GetOrder(ctx, orderID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load order", slog.Int64("order.id", orderID))
	}
	return result, nil
}

// GetStock reads a product's stock level.
func (s *Service) GetStock(ctx context.Context, productID int64) (int, error) {
	ctx, span := s.startSpan(ctx, "Service.GetStock", attribute.Int64("product.id", productID))
	defer span.End()

	stock, err := s.inner.GetStock(ctx, productID)
	if err != nil {
		return 0, s.handleError(ctx, span, err, "failed to read stock", slog.Int64("product.id", productID))
	}
	span.SetAttributes(attribute.Int("stock.quantity", stock))
	return stock, nil
}

// ReceiveStock adds received goods.
func (s *Service) ReceiveStock(ctx context.Context, input salestypes.StockReceipt) (*domain.Product, error) {
	ctx, span := s.startSpan(ctx, "Service.ReceiveStock",
		attribute.Int64("product.id", input.ProductID),
		attribute.Int("stock.received", input.Quantity),
	)
	defer span.End()

	s.logInfo(ctx, "receiving stock", slog.Int64("product.id", input.ProductID), slog.Int("quantity", input.Quantity))
	product, err := s.inner.ReceiveStock(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to receive stock", slog.Int64("product.id", input.ProductID))
	}
	s.metrics.recordReceived(ctx, input.Quantity)
	s.logInfo(ctx, "stock received", slog.Int64("product.id", product.ID), slog.Int("stock", product.StockQuantity))
	return product, nil
}

// ListLowStock lists products needing replenishment.
func (s *Service) ListLowStock(ctx context.Context) ([]*domain.Product, error) {
	ctx, span := s.startSpan(ctx, "Service.ListLowStock")
	defer span.End()

	products, err := s.inner.ListLowStock(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list low stock")
	}
	span.SetAttributes(attribute.Int("product.result.count", len(products)))
	return products, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrProductNotFound):
		return "product_not_found"
	case errors.Is(err, application.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ports.ErrIdempotencyConflict):
		return "idempotency_conflict"
	case errors.Is(err, ports.ErrConcurrencyConflict):
		return "conflict"
	default:
		return "error"
	}
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := s.tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type serviceMetrics struct {
	checkouts      metric.Int64Counter
	saleTotals     metric.Float64Histogram
	ordersReversed metric.Int64Counter
	payments       metric.Int64Counter
	unitsReceived  metric.Int64Counter
	lowStockAlerts metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	checkouts, _ := m.Int64Counter("sales.service.checkouts", metric.WithDescription("Checkout attempts by result"))
	saleTotals, _ := m.Float64Histogram("sales.service.sale_total", metric.WithDescription("Committed sale totals"))
	ordersReversed, _ := m.Int64Counter("sales.service.orders_reversed", metric.WithDescription("Number of orders reversed"))
	payments, _ := m.Int64Counter("sales.service.payments_confirmed", metric.WithDescription("Payment confirmations by method"))
	unitsReceived, _ := m.Int64Counter("sales.service.units_received", metric.WithDescription("Units received into stock"))
	lowStockAlerts, _ := m.Int64Counter("sales.service.low_stock_alerts", metric.WithDescription("Low stock alerts raised by sales"))
	return serviceMetrics{
		checkouts:      checkouts,
		saleTotals:     saleTotals,
		ordersReversed: ordersReversed,
		payments:       payments,
		unitsReceived:  unitsReceived,
		lowStockAlerts: lowStockAlerts,
	}
}

func (m serviceMetrics) recordCheckout(ctx context.Context, result string) {
	addCounter(ctx, m.checkouts, 1, attribute.String("checkout.result", result))
}

func (m serviceMetrics) recordSaleTotal(ctx context.Context, total float64) {
	if m.saleTotals == nil {
		return
	}
	m.saleTotals.Record(ctx, total)
}

func (m serviceMetrics) recordReversed(ctx context.Context, count int) {
	addCounter(ctx, m.ordersReversed, int64(count))
}

func (m serviceMetrics) recordPayment(ctx context.Context, method string) {
	addCounter(ctx, m.payments, 1, attribute.String("payment.method", method))
}

func (m serviceMetrics) recordReceived(ctx context.Context, units int) {
	addCounter(ctx, m.unitsReceived, int64(units))
}

func (m serviceMetrics) recordLowStock(ctx context.Context, alerts int) {
	if alerts == 0 {
		return
	}
	addCounter(ctx, m.lowStockAlerts, int64(alerts))
}

func addCounter(ctx context.Context, counter metric.Int64Counter, value int64, attrs ...attribute.KeyValue) {
	if counter == nil {
		return
	}
	counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

var _ ports.Service = (*Service)(nil)
