package mysql

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	driver "github.com/go-sql-driver/mysql"
)

//go:embed schema.sql
var schema string

// Connect opens a MySQL pool and verifies connectivity. The DSN is normalized so DATETIME
// columns scan into time.Time in UTC.
func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("mysql DSN is empty")
	}
	cfg, err := driver.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql DSN: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.MultiStatements = true

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates the sales tables when they are missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return nil
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply mysql schema: %w", err)
	}
	return nil
}

// Open dials MySQL and applies the schema. An empty DSN or a failure is logged and yields nil
// with a no-op cleanup so callers can fall back.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*sql.DB, func()) {
	if strings.TrimSpace(dsn) == "" {
		return nil, func() {}
	}
	db, err := Connect(ctx, dsn)
	if err != nil {
		if logger != nil {
			logger.Warn("failed to connect to mysql", slog.String("error", err.Error()))
		}
		return nil, func() {}
	}
	if err := Migrate(ctx, db); err != nil {
		if logger != nil {
			logger.Warn("failed to migrate mysql", slog.String("error", err.Error()))
		}
		db.Close()
		return nil, func() {}
	}
	if logger != nil {
		logger.Info("mysql connection established")
	}
	return db, func() { _ = db.Close() }
}
