package outbox

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
)

const (
	defaultInterval  = time.Second
	defaultBatchSize = 100
)

// Relay copies committed outbox rows to the event bus. Delivery is at least once: a row is
// marked published only after the publisher accepted it, so a crash in between republishes.
type Relay struct {
	store     ports.OutboxStore
	publisher ports.EventPublisher
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

// Option customizes the relay.
type Option func(*Relay)

// WithInterval sets the polling interval.
func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithBatchSize caps how many rows one poll publishes.
func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithLogger sets the relay logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRelay wires a relay between an outbox store and a publisher.
func NewRelay(store ports.OutboxStore, publisher ports.EventPublisher, opts ...Option) *Relay {
	r := &Relay{
		store:     store,
		publisher: publisher,
		logger:    slog.Default(),
		interval:  defaultInterval,
		batchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// RunOnce publishes one batch in id order and returns how many rows were delivered. It stops
// at the first publish failure so later events never overtake an earlier one.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	pending, err := r.store.FetchPending(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}
	delivered := 0
	for _, msg := range pending {
		if err := r.publisher.Publish(ctx, msg); err != nil {
			return delivered, err
		}
		if err := r.store.MarkPublished(ctx, msg.ID); err != nil {
			return delivered, err
		}
		delivered++
	}
	return delivered, nil
}

// Run polls until ctx is cancelled. Failures are logged and retried on the next tick.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		delivered, err := r.RunOnce(ctx)
		switch {
		case err != nil && !errors.Is(err, context.Canceled):
			r.logger.Error("outbox relay failed", slog.String("error", err.Error()), slog.Int("delivered", delivered))
		case delivered > 0:
			r.logger.Debug("outbox relay delivered", slog.Int("count", delivered))
		}
		// A full batch means more rows are probably waiting.
		if err == nil && delivered == r.batchSize {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
