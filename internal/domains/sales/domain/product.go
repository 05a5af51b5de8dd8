package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultLowStockThreshold applies when a product does not set its own.
const DefaultLowStockThreshold = 5

// Product is a sellable item with its authoritative stock counter.
type Product struct {
	ID                int64
	Name              string
	Price             decimal.Decimal
	StockQuantity     int
	LowStockThreshold int
}

// NewProduct validates and builds a product. A negative threshold falls back to the default.
func NewProduct(id int64, name string, price decimal.Decimal, stock, threshold int) (*Product, error) {
	p := &Product{
		ID:                id,
		Name:              strings.TrimSpace(name),
		Price:             RoundMoney(price),
		StockQuantity:     stock,
		LowStockThreshold: threshold,
	}
	if threshold < 0 {
		p.LowStockThreshold = DefaultLowStockThreshold
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks product invariants.
func (p *Product) Validate() error {
	if p.ID <= 0 {
		return ErrInvalidProductID
	}
	if p.Name == "" {
		return ErrEmptyName
	}
	if p.Price.IsNegative() {
		return ErrInvalidPrice
	}
	if p.StockQuantity < 0 {
		return ErrNegativeStock
	}
	return nil
}

// IsLowStock reports whether stock sits at or below the alert threshold.
func (p *Product) IsLowStock() bool {
	return p.StockQuantity <= p.LowStockThreshold
}

// Clone returns an independent copy.
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
