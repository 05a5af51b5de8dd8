package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/go-gin-pos-server/internal/app/api"
	platformobservability "github.com/Apurer/go-gin-pos-server/internal/platform/observability"
	salesactivities "github.com/Apurer/go-gin-pos-server/internal/platform/temporal/activities/sales"
	salesworkflows "github.com/Apurer/go-gin-pos-server/internal/platform/temporal/workflows/sales"
)

func main() {
	ctx := context.Background()
	const serviceName = "pos-worker"
	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	storage, cleanupStorage := api.OpenStorage(ctx, cfg, logger)
	defer cleanupStorage()
	if storage.Backend == api.BackendMemory {
		logger.Warn("worker is using an in-memory store; the API will not see its orders")
	}
	salesService, err := api.NewSalesService(cfg, storage, instruments)
	if err != nil {
		logger.Error("failed to build sales service", slog.String("error", err.Error()))
		os.Exit(1)
	}
	acts := salesactivities.NewActivities(salesService)

	temporalClient, err := api.ConnectTemporal(cfg, instruments, "temporal-worker")
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, salesworkflows.SalesTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(salesworkflows.CheckoutWorkflow, workflow.RegisterOptions{Name: salesworkflows.CheckoutWorkflowName})
	w.RegisterWorkflowWithOptions(salesworkflows.ReversalWorkflow, workflow.RegisterOptions{Name: salesworkflows.ReversalWorkflowName})
	w.RegisterActivityWithOptions(acts.Checkout, activity.RegisterOptions{Name: salesactivities.CheckoutActivityName})
	w.RegisterActivityWithOptions(acts.ReverseOrders, activity.RegisterOptions{Name: salesactivities.ReverseOrdersActivityName})

	logger.Info("worker listening", slog.String("taskQueue", salesworkflows.SalesTaskQueue), slog.String("namespace", cfg.TemporalNamespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}
