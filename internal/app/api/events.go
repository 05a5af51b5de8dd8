package api

import (
	"log/slog"

	"github.com/Apurer/go-gin-pos-server/internal/platform/kafka"
	"github.com/Apurer/go-gin-pos-server/internal/platform/outbox"
)

// NewRelay builds an outbox relay publishing to the configured Kafka topic. It returns
// kafka.ErrDisabled when no brokers are configured.
func NewRelay(cfg Config, storage Storage, logger *slog.Logger) (*outbox.Relay, func(), error) {
	brokers := kafka.NewClient(cfg.KafkaBrokers)
	if !brokers.Enabled() {
		return nil, func() {}, kafka.ErrDisabled
	}
	publisher := kafka.NewPublisher(brokers.NewWriter(cfg.KafkaTopic))
	relay := outbox.NewRelay(storage.Outbox, publisher,
		outbox.WithInterval(cfg.OutboxInterval()),
		outbox.WithLogger(logger),
	)
	logger.Info("outbox relay configured", slog.String("topic", cfg.KafkaTopic), slog.Any("brokers", brokers.Brokers))
	return relay, func() { _ = publisher.Close() }, nil
}
