package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart            = errors.New("cart is empty")
	ErrProductNotFound      = errors.New("product not found")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrInvalidProductID     = errors.New("product id must be positive")
	ErrInvalidOrderID       = errors.New("order id must be positive")
	ErrNoOrdersSelected     = errors.New("at least one order id is required")
	ErrInvalidQuantity      = errors.New("quantity must be positive")
	ErrInvalidDiscount      = errors.New("discount percent must be between 0 and 100 with at most two decimal places")
	ErrInvalidTaxRate       = errors.New("tax rate must be between 0 and 1")
	ErrNegativeAmount       = errors.New("amount must not be negative")
	ErrInvalidPrice         = errors.New("price must not be negative")
	ErrEmptyName            = errors.New("name is required")
	ErrNegativeStock        = errors.New("stock quantity must not be negative")
	ErrInvalidPaymentMethod = errors.New("payment method must be 1-32 characters")
	ErrTotalsMismatch       = errors.New("order totals do not reconcile")
	ErrEmptyOrderNumber     = errors.New("order number is required")
)

// ProductNotFoundError reports a cart line or stock operation referencing an unknown product.
type ProductNotFoundError struct {
	ProductID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

func (e *ProductNotFoundError) Is(target error) bool {
	return target == ErrProductNotFound
}

// InsufficientStockError carries the shortfall of a rejected conditional decrement.
type InsufficientStockError struct {
	ProductID   int64
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	name := e.ProductName
	if name == "" {
		name = fmt.Sprintf("product %d", e.ProductID)
	}
	return fmt.Sprintf("not enough stock for %s: requested %d, available %d", name, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
