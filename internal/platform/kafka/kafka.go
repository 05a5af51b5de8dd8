package kafka

import (
	"context"
	"errors"
	"strings"

	"github.com/segmentio/kafka-go"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
)

// ErrDisabled is returned when no brokers are configured.
var ErrDisabled = errors.New("kafka disabled")

// Client holds the broker list parsed from a comma-separated setting.
type Client struct {
	Brokers []string
}

// NewClient parses brokersCSV, ignoring blanks.
func NewClient(brokersCSV string) *Client {
	brokers := []string{}
	for _, b := range strings.Split(brokersCSV, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return &Client{Brokers: brokers}
}

// Enabled reports whether any broker is configured.
func (c *Client) Enabled() bool {
	return c != nil && len(c.Brokers) > 0
}

// NewWriter builds a writer that hashes message keys onto partitions, so events for one
// order land on one partition in order.
func (c *Client) NewWriter(topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(c.Brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
}

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

var _ ports.EventPublisher = (*Publisher)(nil)

// Publisher delivers outbox messages to a Kafka topic.
type Publisher struct {
	writer MessageWriter
}

// NewPublisher wraps writer.
func NewPublisher(writer MessageWriter) *Publisher {
	return &Publisher{writer: writer}
}

// Publish writes msg keyed by its aggregate with the event name and id as headers.
func (p *Publisher) Publish(ctx context.Context, msg ports.OutboxMessage) error {
	if p == nil || p.writer == nil {
		return ErrDisabled
	}
	return p.writer.WriteMessages(ctx, toMessage(msg))
}

// Close flushes and closes the writer.
func (p *Publisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

func toMessage(msg ports.OutboxMessage) kafka.Message {
	return kafka.Message{
		Key:   []byte(msg.Key),
		Value: msg.Payload,
		Time:  msg.CreatedAt,
		Headers: []kafka.Header{
			{Key: "event-name", Value: []byte(msg.EventName)},
			{Key: "event-id", Value: []byte(msg.EventID)},
		},
	}
}
