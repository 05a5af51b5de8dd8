package domain

import "fmt"

// CartLine is one requested (product, quantity) pair.
type CartLine struct {
	ProductID int64
	Quantity  int
}

// Cart is the ordered list of lines submitted for one sale.
type Cart []CartLine

// Validate rejects empty carts and malformed lines before any stock is touched.
func (c Cart) Validate() error {
	if len(c) == 0 {
		return ErrEmptyCart
	}
	for i, line := range c {
		if line.ProductID <= 0 {
			return fmt.Errorf("line %d: %w", i+1, ErrInvalidProductID)
		}
		if line.Quantity <= 0 {
			return fmt.Errorf("line %d: %w", i+1, ErrInvalidQuantity)
		}
	}
	return nil
}

// Units is the total quantity across lines.
func (c Cart) Units() int {
	total := 0
	for _, line := range c {
		total += line.Quantity
	}
	return total
}
