package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/Apurer/go-gin-pos-server/internal/app/api"
	platformobservability "github.com/Apurer/go-gin-pos-server/internal/platform/observability"
)

func main() {
	once := flag.Bool("once", false, "deliver one batch and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, "pos-outbox-relay")
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(shutdownCtx)
	}()
	logger := instruments.Logger

	storage, cleanupStorage := api.OpenStorage(ctx, cfg, logger)
	defer cleanupStorage()
	if storage.Backend == api.BackendMemory {
		log.Fatal("POSTGRES_DSN or MYSQL_DSN must be set; an in-memory outbox has nothing to relay")
	}
	relay, closeRelay, err := api.NewRelay(cfg, storage, instruments.Component("outbox"))
	if err != nil {
		log.Fatalf("cannot start relay: %v", err)
	}
	defer closeRelay()

	if *once {
		delivered, err := relay.RunOnce(ctx)
		if err != nil {
			logger.Error("outbox relay batch failed", slog.Int("delivered", delivered), slog.String("error", err.Error()))
			return
		}
		logger.Info("outbox relay batch delivered", slog.Int("delivered", delivered))
		return
	}

	logger.Info("outbox relay running", slog.String("storage", storage.Backend))
	if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("outbox relay stopped", slog.String("error", err.Error()))
	}
}
