package domain

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderPlaced      = "sales.order.placed"
	EventOrderReversed    = "sales.order.reversed"
	EventPaymentConfirmed = "sales.order.payment_confirmed"
	EventStockReceived    = "sales.product.stock_received"
)

// Event is the base interface for all domain events.
type Event interface {
	EventName() string
	OccurredAt() time.Time
	// AggregateKey partitions the event stream.
	AggregateKey() string
}

// BaseEvent provides common event metadata.
type BaseEvent struct {
	Timestamp time.Time `json:"occurredAt"`
}

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// EventLine is the line-item shape carried by order events.
type EventLine struct {
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// OrderPlaced is raised when a checkout commits.
type OrderPlaced struct {
	BaseEvent
	OrderID     int64           `json:"orderId"`
	OrderNumber string          `json:"orderNumber"`
	UserID      string          `json:"userId,omitempty"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Lines       []EventLine     `json:"lines"`
}

func (e OrderPlaced) EventName() string    { return EventOrderPlaced }
func (e OrderPlaced) AggregateKey() string { return e.OrderNumber }

// OrderReversed is raised when an order is deleted and its stock restored.
type OrderReversed struct {
	BaseEvent
	OrderID     int64       `json:"orderId"`
	OrderNumber string      `json:"orderNumber"`
	Restocked   []EventLine `json:"restocked"`
}

func (e OrderReversed) EventName() string    { return EventOrderReversed }
func (e OrderReversed) AggregateKey() string { return e.OrderNumber }

// PaymentConfirmed is raised when a gateway callback tags an order.
type PaymentConfirmed struct {
	BaseEvent
	OrderID       int64  `json:"orderId"`
	OrderNumber   string `json:"orderNumber"`
	PaymentMethod string `json:"paymentMethod"`
}

func (e PaymentConfirmed) EventName() string    { return EventPaymentConfirmed }
func (e PaymentConfirmed) AggregateKey() string { return e.OrderNumber }

// StockReceived is raised when goods are received into inventory.
type StockReceived struct {
	BaseEvent
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
	NewStock  int   `json:"newStock"`
}

func (e StockReceived) EventName() string { return EventStockReceived }
func (e StockReceived) AggregateKey() string {
	return "product-" + strconv.FormatInt(e.ProductID, 10)
}

// NewOrderPlaced builds the event for a persisted order.
func NewOrderPlaced(order *Order) OrderPlaced {
	return OrderPlaced{
		BaseEvent:   BaseEvent{Timestamp: order.CreatedAt},
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount,
		Lines:       eventLines(order.LineItems),
	}
}

// NewOrderReversed builds the event for a reversed order.
func NewOrderReversed(order *Order, at time.Time) OrderReversed {
	return OrderReversed{
		BaseEvent:   BaseEvent{Timestamp: at.UTC()},
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Restocked:   eventLines(order.LineItems),
	}
}

func eventLines(items []LineItem) []EventLine {
	lines := make([]EventLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, EventLine{ProductID: item.ProductID, Quantity: item.Quantity, UnitPrice: item.UnitPrice})
	}
	return lines
}
