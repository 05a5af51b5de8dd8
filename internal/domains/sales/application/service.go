package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
)

// Service orchestrates the sales bounded context use cases.
type Service struct {
	repo        ports.Repository
	pricing     domain.PricingEngine
	numbers     ports.OrderNumberGenerator
	idempotency ports.IdempotencyStore
	logger      *slog.Logger
	now         func() time.Time
}

// Option customizes the service.
type Option func(*Service)

// WithPricing overrides the default pricing engine.
func WithPricing(engine domain.PricingEngine) Option {
	return func(s *Service) {
		s.pricing = engine
	}
}

// WithOrderNumbers overrides the order number generator.
func WithOrderNumbers(gen ports.OrderNumberGenerator) Option {
	return func(s *Service) {
		if gen != nil {
			s.numbers = gen
		}
	}
}

// WithIdempotencyStore enables Idempotency-Key replay for checkouts.
func WithIdempotencyStore(store ports.IdempotencyStore) Option {
	return func(s *Service) {
		s.idempotency = store
	}
}

// WithLogger sets the logger used for failures that do not fail the operation.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source for deterministic testing.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires the sales service with its dependencies.
func NewService(repo ports.Repository, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		pricing: domain.DefaultPricingEngine(),
		numbers: UUIDOrderNumbers{},
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// UUIDOrderNumbers issues "INV-" prefixed time-ordered UUIDs.
type UUIDOrderNumbers struct{}

// Next returns a new order number.
func (UUIDOrderNumbers) Next() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return "INV-" + strings.ToUpper(id.String()), nil
}

var (
	_ ports.Service              = (*Service)(nil)
	_ ports.OrderNumberGenerator = UUIDOrderNumbers{}
)

func (s *Service) withinTx(ctx context.Context, fn func(ctx context.Context, tx ports.Tx) error) error {
	return withinTx(ctx, s.repo, fn)
}
