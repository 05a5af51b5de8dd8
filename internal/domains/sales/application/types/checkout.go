package types

import (
	"github.com/shopspring/decimal"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"
)

// CheckoutInput is a submitted cart plus sale metadata.
type CheckoutInput struct {
	Cart            domain.Cart
	DiscountPercent decimal.Decimal
	Comments        string
	// UserID identifies the acting cashier, when known.
	UserID         string
	IdempotencyKey string
}

// LowStockAlert flags a product the sale left at or below its threshold.
type LowStockAlert struct {
	ProductID int64
	Name      string
	Stock     int
	Threshold int
}

// Receipt summarizes a committed checkout.
type Receipt struct {
	OrderID        int64
	OrderNumber    string
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	TotalAmount    decimal.Decimal
	Message        string
	LowStock       []LowStockAlert
	// Replayed is set when an idempotency key matched an earlier checkout.
	Replayed bool
}

// ReversalResult lists the reversed orders and the units returned to stock per product.
// Replayed results come from a retry that found the batch already reversed and carry no
// restock counts.
type ReversalResult struct {
	OrderIDs  []int64
	Restocked map[int64]int
	Replayed  bool
}

// PaymentConfirmation is the payload of a gateway callback.
type PaymentConfirmation struct {
	OrderNumber   string
	PaymentMethod string
}

// StockReceipt describes goods received into inventory.
type StockReceipt struct {
	ProductID int64
	Quantity  int
}
