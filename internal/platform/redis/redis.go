package redis

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Open connects to Redis at addr. An empty address or a failed ping is logged and yields nil
// with a no-op cleanup.
func Open(ctx context.Context, addr string, logger *slog.Logger) (*redis.Client, func()) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, func() {}
	}
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		if logger != nil {
			logger.Warn("failed to connect to redis", slog.String("addr", addr), slog.String("error", err.Error()))
		}
		_ = client.Close()
		return nil, func() {}
	}
	if logger != nil {
		logger.Info("redis connection established", slog.String("addr", addr))
	}
	return client, func() { _ = client.Close() }
}
