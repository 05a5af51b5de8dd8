package mapper

import (
	"time"

	"github.com/shopspring/decimal"

	salestypes "github.com/Apurer/go-gin-pos-server/internal/domains/sales/application/types"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"
)

// CartItem is one requested line of a checkout payload.
type CartItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// CheckoutRequest is the checkout payload. Discount accepts a JSON number or string.
type CheckoutRequest struct {
	CartItems       []CartItem       `json:"cart_items"`
	DiscountPercent *decimal.Decimal `json:"discount_percent,omitempty"`
	Comments        string           `json:"comments,omitempty"`
}

// LowStockAlert mirrors salestypes.LowStockAlert on the wire.
type LowStockAlert struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Stock     int    `json:"stock"`
	Threshold int    `json:"threshold"`
}

// CheckoutResponse is returned for both outcomes; failures carry only Success, Message and Problem.
type CheckoutResponse struct {
	Success        bool            `json:"success"`
	OrderID        int64           `json:"order_id,omitempty"`
	OrderNumber    string          `json:"order_number,omitempty"`
	Subtotal       string          `json:"subtotal,omitempty"`
	DiscountAmount string          `json:"discount_amount,omitempty"`
	TaxAmount      string          `json:"tax_amount,omitempty"`
	TotalAmount    string          `json:"total_amount,omitempty"`
	Message        string          `json:"message"`
	LowStock       []LowStockAlert `json:"low_stock,omitempty"`
	Replayed       bool            `json:"replayed,omitempty"`
	Problem        any             `json:"problem,omitempty"`
}

// LineItem is the HTTP representation of an order line.
type LineItem struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	LineTotal   string `json:"line_total"`
}

// Order is the HTTP representation of a committed order.
type Order struct {
	ID              int64      `json:"id"`
	OrderNumber     string     `json:"order_number"`
	Subtotal        string     `json:"subtotal"`
	DiscountPercent string     `json:"discount_percent"`
	DiscountAmount  string     `json:"discount_amount"`
	TaxAmount       string     `json:"tax_amount"`
	TotalAmount     string     `json:"total_amount"`
	PaymentMethod   string     `json:"payment_method"`
	Comments        string     `json:"comments"`
	UserID          string     `json:"user_id,omitempty"`
	LineItems       []LineItem `json:"line_items"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at,omitempty"`
}

// ReversalRequest selects orders to reverse.
type ReversalRequest struct {
	OrderIDs []int64 `json:"order_ids"`
}

// ReversalResponse reports reversed orders and restocked units per product id.
type ReversalResponse struct {
	Success   bool          `json:"success"`
	OrderIDs  []int64       `json:"order_ids"`
	Restocked map[int64]int `json:"restocked"`
	Message   string        `json:"message"`
}

// CommentsRequest replaces an order's comments.
type CommentsRequest struct {
	Comments string `json:"comments"`
}

// PaymentConfirmationRequest is the gateway callback body.
type PaymentConfirmationRequest struct {
	OrderNumber   string `json:"order_number" binding:"required"`
	PaymentMethod string `json:"payment_method" binding:"required"`
}

// StockReceiptRequest adds units to a product.
type StockReceiptRequest struct {
	Quantity int `json:"quantity"`
}

// Stock reports a product's current quantity.
type Stock struct {
	ProductID     int64 `json:"product_id"`
	StockQuantity int   `json:"stock_quantity"`
}

// Product is the HTTP representation of a catalog product.
type Product struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	Price             string `json:"price"`
	StockQuantity     int    `json:"stock_quantity"`
	LowStockThreshold int    `json:"low_stock_threshold"`
}

// ToCheckoutInput maps the request onto the use case input.
func ToCheckoutInput(req CheckoutRequest, userID, idempotencyKey string) salestypes.CheckoutInput {
	cart := make(domain.Cart, 0, len(req.CartItems))
	for _, item := range req.CartItems {
		cart = append(cart, domain.CartLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	discount := decimal.Zero
	if req.DiscountPercent != nil {
		discount = *req.DiscountPercent
	}
	return salestypes.CheckoutInput{
		Cart:            cart,
		DiscountPercent: discount,
		Comments:        req.Comments,
		UserID:          userID,
		IdempotencyKey:  idempotencyKey,
	}
}

// FromReceipt maps a successful checkout.
func FromReceipt(receipt *salestypes.Receipt) CheckoutResponse {
	if receipt == nil {
		return CheckoutResponse{}
	}
	resp := CheckoutResponse{
		Success:        true,
		OrderID:        receipt.OrderID,
		OrderNumber:    receipt.OrderNumber,
		Subtotal:       money(receipt.Subtotal),
		DiscountAmount: money(receipt.DiscountAmount),
		TaxAmount:      money(receipt.TaxAmount),
		TotalAmount:    money(receipt.TotalAmount),
		Message:        receipt.Message,
		Replayed:       receipt.Replayed,
	}
	for _, alert := range receipt.LowStock {
		resp.LowStock = append(resp.LowStock, LowStockAlert{
			ProductID: alert.ProductID,
			Name:      alert.Name,
			Stock:     alert.Stock,
			Threshold: alert.Threshold,
		})
	}
	return resp
}

// FromOrder maps a domain order without persistence metadata.
func FromOrder(order *domain.Order) Order {
	if order == nil {
		return Order{}
	}
	out := Order{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		Subtotal:        money(order.Subtotal),
		DiscountPercent: money(order.DiscountPercent),
		DiscountAmount:  money(order.DiscountAmount),
		TaxAmount:       money(order.TaxAmount),
		TotalAmount:     money(order.TotalAmount),
		PaymentMethod:   order.PaymentMethod,
		Comments:        order.Comments,
		UserID:          order.UserID,
		LineItems:       make([]LineItem, 0, len(order.LineItems)),
		CreatedAt:       order.CreatedAt,
	}
	for _, line := range order.LineItems {
		out.LineItems = append(out.LineItems, LineItem{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			UnitPrice:   money(line.UnitPrice),
			LineTotal:   money(line.LineTotal()),
		})
	}
	return out
}

// FromProjection maps an order projection including timestamps.
func FromProjection(p *salestypes.OrderProjection) Order {
	if p == nil {
		return Order{}
	}
	out := FromOrder(p.Entity)
	if !p.Metadata.CreatedAt.IsZero() {
		out.CreatedAt = p.Metadata.CreatedAt
	}
	out.UpdatedAt = p.Metadata.UpdatedAt
	return out
}

// FromReversal maps a reversal result.
func FromReversal(result *salestypes.ReversalResult) ReversalResponse {
	if result == nil {
		return ReversalResponse{Success: true}
	}
	return ReversalResponse{
		Success:   true,
		OrderIDs:  result.OrderIDs,
		Restocked: result.Restocked,
		Message:   "Orders reversed and stock restored",
	}
}

// FromProduct maps a catalog product.
func FromProduct(p *domain.Product) Product {
	if p == nil {
		return Product{}
	}
	return Product{
		ID:                p.ID,
		Name:              p.Name,
		Price:             money(p.Price),
		StockQuantity:     p.StockQuantity,
		LowStockThreshold: p.LowStockThreshold,
	}
}

// FromProducts maps a product list, never returning nil.
func FromProducts(products []*domain.Product) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		out = append(out, FromProduct(p))
	}
	return out
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
