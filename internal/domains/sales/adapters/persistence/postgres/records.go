package postgres

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
)

// productRecord maps the product aggregate to a relational table.
type productRecord struct {
	ID                int64           `gorm:"primaryKey;column:id;autoIncrement:false"`
	Name              string          `gorm:"column:name"`
	Price             decimal.Decimal `gorm:"column:price;type:numeric(12,2)"`
	StockQuantity     int             `gorm:"column:stock_quantity"`
	LowStockThreshold int             `gorm:"column:low_stock_threshold"`
	CreatedAt         time.Time       `gorm:"column:created_at"`
	UpdatedAt         time.Time       `gorm:"column:updated_at"`
}

func (productRecord) TableName() string { return "products" }

type orderRecord struct {
	ID              int64           `gorm:"primaryKey;column:id"`
	OrderNumber     string          `gorm:"column:order_number"`
	CreatedAt       time.Time       `gorm:"column:created_at"`
	Subtotal        decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2)"`
	DiscountPercent decimal.Decimal `gorm:"column:discount_percent;type:numeric(5,2)"`
	DiscountAmount  decimal.Decimal `gorm:"column:discount_amount;type:numeric(12,2)"`
	TaxAmount       decimal.Decimal `gorm:"column:tax_amount;type:numeric(12,2)"`
	TotalAmount     decimal.Decimal `gorm:"column:total_amount;type:numeric(12,2)"`
	PaymentMethod   string          `gorm:"column:payment_method"`
	Comments        string          `gorm:"column:comments"`
	UserID          string          `gorm:"column:user_id"`
	UpdatedAt       time.Time       `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

type lineItemRecord struct {
	ID          int64           `gorm:"primaryKey;column:id"`
	OrderID     int64           `gorm:"column:order_id"`
	ProductID   int64           `gorm:"column:product_id"`
	ProductName string          `gorm:"column:product_name"`
	Quantity    int             `gorm:"column:quantity"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2)"`
}

func (lineItemRecord) TableName() string { return "order_line_items" }

type outboxRecord struct {
	ID           int64      `gorm:"primaryKey;column:id"`
	EventID      string     `gorm:"column:event_id"`
	EventName    string     `gorm:"column:event_name"`
	AggregateKey string     `gorm:"column:aggregate_key"`
	Payload      []byte     `gorm:"column:payload;type:jsonb"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxRecord) TableName() string { return "outbox_messages" }

func toProductRecord(p *domain.Product) productRecord {
	return productRecord{
		ID:                p.ID,
		Name:              p.Name,
		Price:             p.Price,
		StockQuantity:     p.StockQuantity,
		LowStockThreshold: p.LowStockThreshold,
	}
}

func (r productRecord) toDomain() *domain.Product {
	return &domain.Product{
		ID:                r.ID,
		Name:              r.Name,
		Price:             r.Price,
		StockQuantity:     r.StockQuantity,
		LowStockThreshold: r.LowStockThreshold,
	}
}

func toOrderRecord(o *domain.Order) orderRecord {
	return orderRecord{
		OrderNumber:     o.OrderNumber,
		CreatedAt:       o.CreatedAt,
		Subtotal:        o.Subtotal,
		DiscountPercent: o.DiscountPercent,
		DiscountAmount:  o.DiscountAmount,
		TaxAmount:       o.TaxAmount,
		TotalAmount:     o.TotalAmount,
		PaymentMethod:   o.PaymentMethod,
		Comments:        o.Comments,
		UserID:          o.UserID,
		UpdatedAt:       o.CreatedAt,
	}
}

func (r orderRecord) toDomain(lines []lineItemRecord) *domain.Order {
	order := &domain.Order{
		ID:              r.ID,
		OrderNumber:     r.OrderNumber,
		CreatedAt:       r.CreatedAt.UTC(),
		Subtotal:        r.Subtotal,
		DiscountPercent: r.DiscountPercent,
		DiscountAmount:  r.DiscountAmount,
		TaxAmount:       r.TaxAmount,
		TotalAmount:     r.TotalAmount,
		PaymentMethod:   r.PaymentMethod,
		Comments:        r.Comments,
		UserID:          r.UserID,
		LineItems:       make([]domain.LineItem, 0, len(lines)),
	}
	for _, line := range lines {
		order.LineItems = append(order.LineItems, domain.LineItem{
			ID:          line.ID,
			OrderID:     line.OrderID,
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
		})
	}
	return order
}

func toOutboxRecord(msg ports.OutboxMessage) outboxRecord {
	return outboxRecord{
		EventID:      msg.EventID,
		EventName:    msg.EventName,
		AggregateKey: msg.Key,
		Payload:      msg.Payload,
		CreatedAt:    msg.CreatedAt,
	}
}

func (r outboxRecord) toPort() ports.OutboxMessage {
	return ports.OutboxMessage{
		ID:          r.ID,
		EventID:     r.EventID,
		EventName:   r.EventName,
		Key:         r.AggregateKey,
		Payload:     r.Payload,
		CreatedAt:   r.CreatedAt,
		PublishedAt: r.PublishedAt,
	}
}
