package ports

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"
)

// OutboxMessage is a serialized event waiting to be published.
type OutboxMessage struct {
	ID          int64
	EventID     string
	EventName   string
	Key         string
	Payload     json.RawMessage
	CreatedAt   time.Time
	PublishedAt *time.Time
}

// OutboxStore reads committed outbox rows for relaying.
type OutboxStore interface {
	FetchPending(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkPublished(ctx context.Context, id int64) error
}

// EventPublisher delivers outbox messages to the event bus.
type EventPublisher interface {
	Publish(ctx context.Context, msg OutboxMessage) error
}

// NewOutboxMessage serializes an event with a fresh event id.
func NewOutboxMessage(event domain.Event) (OutboxMessage, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return OutboxMessage{}, fmt.Errorf("marshal %s: %w", event.EventName(), err)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return OutboxMessage{}, err
	}
	return OutboxMessage{
		EventID:   id.String(),
		EventName: event.EventName(),
		Key:       event.AggregateKey(),
		Payload:   payload,
		CreatedAt: event.OccurredAt().UTC(),
	}, nil
}
