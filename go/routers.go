package posserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
}

// ApiHandleFunctions groups the handlers of every API surface.
type ApiHandleFunctions struct {
	// Routes for the checkout part of the API
	CheckoutAPI CheckoutAPI
	// Routes for the orders part of the API
	OrdersAPI OrdersAPI
	// Routes for the inventory part of the API
	InventoryAPI InventoryAPI
	// Routes for the payments part of the API
	PaymentsAPI PaymentsAPI
}

// NewRouter returns a new router.
func NewRouter(handleFunctions ApiHandleFunctions) *gin.Engine {
	return NewRouterWithGinEngine(gin.Default(), handleFunctions)
}

// NewRouterWithGinEngine add routes to existing gin engine.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions) *gin.Engine {
	for _, route := range getRoutes(handleFunctions) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = DefaultHandleFunc
		}
		switch route.Method {
		case http.MethodGet:
			router.GET(route.Pattern, route.HandlerFunc)
		case http.MethodPost:
			router.POST(route.Pattern, route.HandlerFunc)
		case http.MethodPut:
			router.PUT(route.Pattern, route.HandlerFunc)
		case http.MethodPatch:
			router.PATCH(route.Pattern, route.HandlerFunc)
		case http.MethodDelete:
			router.DELETE(route.Pattern, route.HandlerFunc)
		}
	}
	return router
}

// DefaultHandleFunc answers routes without a wired handler.
func DefaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

func getRoutes(handleFunctions ApiHandleFunctions) []Route {
	return []Route{
		{
			"Checkout",
			http.MethodPost,
			"/api/v1/sales/checkout",
			handleFunctions.CheckoutAPI.Checkout,
		},
		{
			"GetOrder",
			http.MethodGet,
			"/api/v1/orders/:orderId",
			handleFunctions.OrdersAPI.GetOrder,
		},
		{
			"ReverseOrder",
			http.MethodDelete,
			"/api/v1/orders/:orderId",
			handleFunctions.OrdersAPI.ReverseOrder,
		},
		{
			"ReverseOrders",
			http.MethodPost,
			"/api/v1/orders/reversals",
			handleFunctions.OrdersAPI.ReverseOrders,
		},
		{
			"AmendComments",
			http.MethodPatch,
			"/api/v1/orders/:orderId/comments",
			handleFunctions.OrdersAPI.AmendComments,
		},
		{
			"ConfirmPayment",
			http.MethodPost,
			"/api/v1/payments/confirmations",
			handleFunctions.PaymentsAPI.ConfirmPayment,
		},
		{
			"GetStock",
			http.MethodGet,
			"/api/v1/products/:productId/stock",
			handleFunctions.InventoryAPI.GetStock,
		},
		{
			"ReceiveStock",
			http.MethodPost,
			"/api/v1/products/:productId/receipts",
			handleFunctions.InventoryAPI.ReceiveStock,
		},
		{
			"ListLowStock",
			http.MethodGet,
			"/api/v1/products/low-stock",
			handleFunctions.InventoryAPI.ListLowStock,
		},
	}
}
