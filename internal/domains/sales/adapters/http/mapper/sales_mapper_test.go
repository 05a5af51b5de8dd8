package mapper

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	salestypes "github.com/Apurer/go-gin-pos-server/internal/domains/sales/application/types"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"
	"github.com/Apurer/go-gin-pos-server/internal/shared/projection"
)

func TestToCheckoutInput(t *testing.T) {
	var req CheckoutRequest
	require.NoError(t, json.Unmarshal([]byte(`{"cart_items":[{"product_id":1,"quantity":3}],"discount_percent":10,"comments":"walk-in"}`), &req))

	input := ToCheckoutInput(req, "cashier-1", "key-1")
	assert.Equal(t, domain.Cart{{ProductID: 1, Quantity: 3}}, input.Cart)
	assert.True(t, input.DiscountPercent.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, "walk-in", input.Comments)
	assert.Equal(t, "cashier-1", input.UserID)
	assert.Equal(t, "key-1", input.IdempotencyKey)
}

func TestToCheckoutInput_MissingDiscountIsZero(t *testing.T) {
	input := ToCheckoutInput(CheckoutRequest{}, "", "")
	assert.True(t, input.DiscountPercent.IsZero())
	assert.Empty(t, input.Cart)
}

func TestFromReceipt_FormatsMoney(t *testing.T) {
	resp := FromReceipt(&salestypes.Receipt{
		OrderID:        7,
		OrderNumber:    "INV-7",
		Subtotal:       decimal.NewFromInt(300),
		DiscountAmount: decimal.NewFromInt(30),
		TaxAmount:      decimal.RequireFromString("35.1"),
		TotalAmount:    decimal.RequireFromString("305.1"),
		LowStock:       []salestypes.LowStockAlert{{ProductID: 1, Name: "Pen", Stock: 2, Threshold: 5}},
	})
	assert.True(t, resp.Success)
	assert.Equal(t, "300.00", resp.Subtotal)
	assert.Equal(t, "35.10", resp.TaxAmount)
	assert.Equal(t, "305.10", resp.TotalAmount)
	require.Len(t, resp.LowStock, 1)
	assert.Equal(t, "Pen", resp.LowStock[0].Name)
}

func TestFromProjection(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	order := &domain.Order{
		ID:          1,
		OrderNumber: "INV-1",
		LineItems:   []domain.LineItem{{ProductID: 2, ProductName: "Pen", Quantity: 3, UnitPrice: decimal.RequireFromString("1.5")}},
	}
	out := FromProjection(projection.New(order, created, created.Add(time.Hour)))
	assert.Equal(t, created, out.CreatedAt)
	assert.Equal(t, created.Add(time.Hour), out.UpdatedAt)
	require.Len(t, out.LineItems, 1)
	assert.Equal(t, "4.50", out.LineItems[0].LineTotal)
	assert.Equal(t, "1.50", out.LineItems[0].UnitPrice)
}

func TestFromProducts_NeverNil(t *testing.T) {
	assert.NotNil(t, FromProducts(nil))
}
