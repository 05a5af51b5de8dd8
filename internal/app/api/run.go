package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	posserver "github.com/Apurer/go-gin-pos-server/go"
	salesobs "github.com/Apurer/go-gin-pos-server/internal/domains/sales/adapters/observability"
	salesworkflows "github.com/Apurer/go-gin-pos-server/internal/domains/sales/adapters/workflows"
	salesapp "github.com/Apurer/go-gin-pos-server/internal/domains/sales/application"
	salesports "github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
	"github.com/Apurer/go-gin-pos-server/internal/platform/metrics"
	platformobservability "github.com/Apurer/go-gin-pos-server/internal/platform/observability"
)

const serviceName = "pos-api"

// Run boots the POS HTTP API with observability, storage, and workflows wired.
func Run(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	storage, cleanupStorage := OpenStorage(ctx, cfg, logger)
	defer cleanupStorage()

	service, err := NewSalesService(cfg, storage, instruments)
	if err != nil {
		return err
	}

	var workflows salesports.WorkflowOrchestrator = salesworkflows.NewInlineSalesWorkflows(service)
	if temporalClient, err := ConnectTemporal(cfg, instruments, "temporal-client"); err != nil {
		logger.Warn("Temporal workflows unavailable, running sales inline", slog.String("error", err.Error()))
	} else {
		defer temporalClient.Close()
		workflows = salesworkflows.NewTemporalSalesWorkflows(temporalClient)
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	}

	// An in-memory outbox is invisible to other processes, so the API relays it itself.
	if storage.Backend == BackendMemory {
		if relay, closeRelay, err := NewRelay(cfg, storage, instruments.Component("outbox")); err == nil {
			defer closeRelay()
			relayCtx, stopRelay := context.WithCancel(ctx)
			defer stopRelay()
			go func() { _ = relay.Run(relayCtx) }()
		}
	}

	handlers := posserver.ApiHandleFunctions{
		CheckoutAPI:  posserver.NewCheckoutAPI(service, workflows),
		OrdersAPI:    posserver.NewOrdersAPI(service, workflows),
		InventoryAPI: posserver.NewInventoryAPI(service),
		PaymentsAPI:  posserver.NewPaymentsAPI(service),
	}

	serverMetrics := metrics.NewServerMetrics("api", nil)
	router := gin.New()
	router.Use(gin.Recovery(), otelgin.Middleware(serviceName), serverMetrics.Middleware())
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router = posserver.NewRouterWithGinEngine(router, handlers)

	addr := ":" + cfg.Port
	logger.Info("POS API listening", slog.String("addr", addr), slog.String("storage", storage.Backend))
	if err := router.Run(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("POS API server exited", slog.String("addr", addr), slog.String("error", err.Error()))
		return err
	}
	return nil
}

// NewSalesService wires the application service and its observability decorator.
func NewSalesService(cfg Config, storage Storage, instruments *platformobservability.Instruments) (salesports.Service, error) {
	pricing, err := cfg.PricingEngine()
	if err != nil {
		return nil, err
	}
	logger := effectiveLogger(instruments).With(slog.String("component", "sales"))
	core := salesapp.NewService(
		storage.Repository,
		salesapp.WithPricing(pricing),
		salesapp.WithIdempotencyStore(storage.Idempotency),
		salesapp.WithLogger(logger),
	)
	return salesobs.New(
		core,
		salesobs.WithLogger(logger),
		salesobs.WithTracer(instruments.Tracer("internal.sales.application")),
		salesobs.WithMeter(instruments.Meter("internal.sales.application")),
	), nil
}
