package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/Apurer/go-gin-pos-server/internal/app/api"
	"github.com/Apurer/go-gin-pos-server/internal/app/catalog"
	platformobservability "github.com/Apurer/go-gin-pos-server/internal/platform/observability"
)

func main() {
	path := flag.String("file", "catalog.yaml", "YAML catalog to load")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, "pos-catalog-loader")
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(shutdownCtx)
	}()
	logger := instruments.Logger

	storage, cleanup := api.OpenStorage(ctx, cfg, logger)
	defer cleanup()
	if storage.Backend == api.BackendMemory {
		log.Fatal("POSTGRES_DSN or MYSQL_DSN must be set to load a catalog")
	}

	f, err := os.Open(*path)
	if err != nil {
		log.Fatalf("open catalog: %v", err)
	}
	defer f.Close()

	n, err := catalog.Load(ctx, f, storage.Repository, instruments.Component("catalog"))
	if err != nil {
		logger.Error("catalog load failed", slog.Int("loaded", n), slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("catalog loaded", slog.Int("products", n), slog.String("storage", storage.Backend))
}
