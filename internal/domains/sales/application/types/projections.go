package types

import (
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"
	"github.com/Apurer/go-gin-pos-server/internal/shared/projection"
)

// OrderProjection transports an order with its persistence metadata.
type OrderProjection = projection.Projection[*domain.Order]

// NewReceipt builds a receipt from a persisted order.
func NewReceipt(order *domain.Order, message string) *Receipt {
	if order == nil {
		return nil
	}
	return &Receipt{
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		Subtotal:       order.Subtotal,
		DiscountAmount: order.DiscountAmount,
		TaxAmount:      order.TaxAmount,
		TotalAmount:    order.TotalAmount,
		Message:        message,
	}
}
