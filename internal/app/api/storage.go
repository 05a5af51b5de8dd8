package api

import (
	"context"
	"log/slog"

	salesmemory "github.com/Apurer/go-gin-pos-server/internal/domains/sales/adapters/memory"
	salesmysql "github.com/Apurer/go-gin-pos-server/internal/domains/sales/adapters/persistence/mysql"
	salespostgres "github.com/Apurer/go-gin-pos-server/internal/domains/sales/adapters/persistence/postgres"
	salesredis "github.com/Apurer/go-gin-pos-server/internal/domains/sales/adapters/redis"
	salesports "github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
	"github.com/Apurer/go-gin-pos-server/internal/platform/migrations"
	platformmysql "github.com/Apurer/go-gin-pos-server/internal/platform/mysql"
	platformpostgres "github.com/Apurer/go-gin-pos-server/internal/platform/postgres"
	platformredis "github.com/Apurer/go-gin-pos-server/internal/platform/redis"
)

// Storage bundles the outbound sales ports backed by one database.
type Storage struct {
	Backend     string
	Repository  salesports.Repository
	Outbox      salesports.OutboxStore
	Idempotency salesports.IdempotencyStore
}

// OpenStorage connects the configured backend. A failing database falls back to memory so a
// developer can still boot the process; idempotency prefers Redis when it is reachable.
func OpenStorage(ctx context.Context, cfg Config, logger *slog.Logger) (Storage, func()) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	storage, dbCleanup := openDatabase(ctx, cfg, logger)
	cleanups = append(cleanups, dbCleanup)

	if client, redisCleanup := platformredis.Open(ctx, cfg.RedisAddr, logger); client != nil {
		cleanups = append(cleanups, redisCleanup)
		storage.Idempotency = salesredis.NewIdempotencyStore(client, cfg.IdempotencyTTL())
		logger.Info("checkout idempotency keys stored in redis")
	}
	if storage.Idempotency == nil {
		storage.Idempotency = salesmemory.NewIdempotencyStore()
	}
	logger.Info("sales storage configured", slog.String("backend", storage.Backend))
	return storage, cleanup
}

func openDatabase(ctx context.Context, cfg Config, logger *slog.Logger) (Storage, func()) {
	switch cfg.Backend() {
	case BackendPostgres:
		db, cleanup := platformpostgres.Open(ctx, cfg.PostgresDSN, logger)
		if db == nil {
			break
		}
		if err := migrations.Run(db.WithContext(ctx)); err != nil {
			logger.Warn("failed to migrate postgres, falling back to memory", slog.String("error", err.Error()))
			cleanup()
			break
		}
		repo := salespostgres.NewRepository(db)
		return Storage{
			Backend:     BackendPostgres,
			Repository:  repo,
			Outbox:      repo,
			Idempotency: salespostgres.NewIdempotencyStore(db),
		}, cleanup
	case BackendMySQL:
		db, cleanup := platformmysql.Open(ctx, cfg.MySQLDSN, logger)
		if db == nil {
			break
		}
		repo := salesmysql.NewRepository(db)
		return Storage{
			Backend:     BackendMySQL,
			Repository:  repo,
			Outbox:      repo,
			Idempotency: salesmysql.NewIdempotencyStore(db),
		}, cleanup
	default:
		logger.Warn("no database configured, falling back to in-memory sales store")
	}
	store := salesmemory.NewStore()
	return Storage{Backend: BackendMemory, Repository: store, Outbox: store}, func() {}
}
