package migrations

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Run applies the sales schema. Adapters never automigrate on their own.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&productRecord{},
		&orderRecord{},
		&lineItemRecord{},
		&outboxRecord{},
		&idempotencyRecord{},
	)
}

// Product schema mirrors the sales Postgres adapter. Stock may never go negative.
type productRecord struct {
	ID                int64           `gorm:"primaryKey;column:id;autoIncrement:false"`
	Name              string          `gorm:"column:name;not null"`
	Price             decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	StockQuantity     int             `gorm:"column:stock_quantity;not null;check:chk_products_stock_non_negative,stock_quantity >= 0"`
	LowStockThreshold int             `gorm:"column:low_stock_threshold;not null;default:5"`
	CreatedAt         time.Time       `gorm:"column:created_at"`
	UpdatedAt         time.Time       `gorm:"column:updated_at"`
}

func (productRecord) TableName() string { return "products" }

type orderRecord struct {
	ID              int64           `gorm:"primaryKey;column:id"`
	OrderNumber     string          `gorm:"column:order_number;size:64;not null;uniqueIndex"`
	CreatedAt       time.Time       `gorm:"column:created_at;index"`
	Subtotal        decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
	DiscountPercent decimal.Decimal `gorm:"column:discount_percent;type:numeric(5,2);not null"`
	DiscountAmount  decimal.Decimal `gorm:"column:discount_amount;type:numeric(12,2);not null"`
	TaxAmount       decimal.Decimal `gorm:"column:tax_amount;type:numeric(12,2);not null"`
	TotalAmount     decimal.Decimal `gorm:"column:total_amount;type:numeric(12,2);not null"`
	PaymentMethod   string          `gorm:"column:payment_method;size:32;not null;default:Cash"`
	Comments        string          `gorm:"column:comments"`
	UserID          string          `gorm:"column:user_id;size:128;index"`
	UpdatedAt       time.Time       `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

type lineItemRecord struct {
	ID          int64           `gorm:"primaryKey;column:id"`
	OrderID     int64           `gorm:"column:order_id;not null;index"`
	ProductID   int64           `gorm:"column:product_id;not null;index"`
	ProductName string          `gorm:"column:product_name"`
	Quantity    int             `gorm:"column:quantity;not null;check:chk_line_items_quantity_positive,quantity > 0"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
}

func (lineItemRecord) TableName() string { return "order_line_items" }

// Outbox schema mirrors the relay's reads: pending rows are found by published_at IS NULL.
type outboxRecord struct {
	ID           int64      `gorm:"primaryKey;column:id"`
	EventID      string     `gorm:"column:event_id;size:64;not null;uniqueIndex"`
	EventName    string     `gorm:"column:event_name;size:128;not null"`
	AggregateKey string     `gorm:"column:aggregate_key;size:128"`
	Payload      []byte     `gorm:"column:payload;type:jsonb;not null"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at;index"`
}

func (outboxRecord) TableName() string { return "outbox_messages" }

type idempotencyRecord struct {
	Key         string    `gorm:"primaryKey;column:key;size:255"`
	RequestHash string    `gorm:"column:request_hash;size:128"`
	OrderID     int64     `gorm:"column:order_id"`
	CreatedAt   time.Time `gorm:"column:created_at;index"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (idempotencyRecord) TableName() string { return "checkout_idempotency_keys" }
