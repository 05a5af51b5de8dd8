package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultPaymentMethod is recorded until a gateway confirms otherwise.
const DefaultPaymentMethod = "Cash"

const maxPaymentMethodLength = 32

// LineItem captures one product sold within an order at its sale-time price.
type LineItem struct {
	ID          int64
	OrderID     int64
	ProductID   int64
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// LineTotal is unit price times quantity.
func (l LineItem) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order is a committed sale.
type Order struct {
	ID              int64
	OrderNumber     string
	CreatedAt       time.Time
	Subtotal        decimal.Decimal
	DiscountPercent decimal.Decimal
	DiscountAmount  decimal.Decimal
	TaxAmount       decimal.Decimal
	TotalAmount     decimal.Decimal
	PaymentMethod   string
	Comments        string
	UserID          string
	LineItems       []LineItem
}

// NewOrder starts an order with the default payment method.
func NewOrder(orderNumber string, userID string, createdAt time.Time) (*Order, error) {
	orderNumber = strings.TrimSpace(orderNumber)
	if orderNumber == "" {
		return nil, ErrEmptyOrderNumber
	}
	return &Order{
		OrderNumber:   orderNumber,
		CreatedAt:     createdAt.UTC(),
		PaymentMethod: DefaultPaymentMethod,
		UserID:        strings.TrimSpace(userID),
	}, nil
}

// AddLine appends a line priced at the product's current price.
func (o *Order) AddLine(product *Product, quantity int) (LineItem, error) {
	if product == nil {
		return LineItem{}, ErrProductNotFound
	}
	if quantity <= 0 {
		return LineItem{}, ErrInvalidQuantity
	}
	line := LineItem{
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    quantity,
		UnitPrice:   product.Price,
	}
	o.LineItems = append(o.LineItems, line)
	return line, nil
}

// LinesSubtotal sums the line totals.
func (o *Order) LinesSubtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, line := range o.LineItems {
		sum = sum.Add(line.LineTotal())
	}
	return sum
}

// ApplyTotals copies a pricing result onto the order.
func (o *Order) ApplyTotals(t Totals) {
	o.Subtotal = t.Subtotal
	o.DiscountPercent = t.DiscountPercent
	o.DiscountAmount = t.DiscountAmount
	o.TaxAmount = t.TaxAmount
	o.TotalAmount = t.TotalAmount
}

// Validate checks line items and that the financial fields reconcile.
func (o *Order) Validate() error {
	if strings.TrimSpace(o.OrderNumber) == "" {
		return ErrEmptyOrderNumber
	}
	if len(o.LineItems) == 0 {
		return ErrEmptyCart
	}
	for _, line := range o.LineItems {
		if line.Quantity <= 0 {
			return ErrInvalidQuantity
		}
	}
	if !RoundMoney(o.LinesSubtotal()).Equal(o.Subtotal) {
		return fmt.Errorf("%w: subtotal %s != lines %s", ErrTotalsMismatch, o.Subtotal, o.LinesSubtotal())
	}
	expected := o.Subtotal.Sub(o.DiscountAmount).Add(o.TaxAmount)
	if !expected.Equal(o.TotalAmount) {
		return fmt.Errorf("%w: total %s != %s", ErrTotalsMismatch, o.TotalAmount, expected)
	}
	return nil
}

// SetPaymentMethod records the gateway-confirmed payment method.
func (o *Order) SetPaymentMethod(method string) error {
	method = strings.TrimSpace(method)
	if method == "" || len(method) > maxPaymentMethodLength {
		return ErrInvalidPaymentMethod
	}
	o.PaymentMethod = method
	return nil
}

// AmendComments replaces the free-text comments.
func (o *Order) AmendComments(comments string) {
	o.Comments = strings.TrimSpace(comments)
}

// OwnedBy reports whether the given user placed the order.
func (o *Order) OwnedBy(userID string) bool {
	return o.UserID != "" && o.UserID == strings.TrimSpace(userID)
}

// Quantities aggregates sold units per product.
func (o *Order) Quantities() map[int64]int {
	out := make(map[int64]int, len(o.LineItems))
	for _, line := range o.LineItems {
		out[line.ProductID] += line.Quantity
	}
	return out
}

// Clone deep-copies the order and its line items.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.LineItems = append([]LineItem(nil), o.LineItems...)
	return &c
}

// FormatSaleComments appends the seller to a free-text note.
func FormatSaleComments(note, soldBy string) string {
	note = strings.TrimSpace(note)
	soldBy = strings.TrimSpace(soldBy)
	switch {
	case soldBy == "":
		return note
	case note == "":
		return fmt.Sprintf("Sold by: %s", soldBy)
	default:
		return fmt.Sprintf("%s (Sold by: %s)", note, soldBy)
	}
}
