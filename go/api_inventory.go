package posserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	salesmapper "github.com/Apurer/go-gin-pos-server/internal/domains/sales/adapters/http/mapper"
	salestypes "github.com/Apurer/go-gin-pos-server/internal/domains/sales/application/types"
	salesports "github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
	"github.com/Apurer/go-gin-pos-server/internal/shared/authz"
)

// InventoryAPI exposes stock reads and receiving.
type InventoryAPI struct {
	service salesports.Service
}

// NewInventoryAPI creates an InventoryAPI.
func NewInventoryAPI(service salesports.Service) InventoryAPI {
	return InventoryAPI{service: service}
}

// Get /api/v1/products/:productId/stock
// Returns the committed stock of a product
func (api *InventoryAPI) GetStock(c *gin.Context) {
	id, ok := parseIDParam(c, "productId")
	if !ok {
		return
	}
	stock, err := api.service.GetStock(c.Request.Context(), id)
	if err != nil {
		respondSalesError(c, err)
		return
	}
	c.JSON(http.StatusOK, salesmapper.Stock{ProductID: id, StockQuantity: stock})
}

// Post /api/v1/products/:productId/receipts
// Adds received units to stock
func (api *InventoryAPI) ReceiveStock(c *gin.Context) {
	if err := authz.RequireAdmin(authz.ActorFromRequest(c)); err != nil {
		respondSalesError(c, err)
		return
	}
	id, ok := parseIDParam(c, "productId")
	if !ok {
		return
	}
	var payload salesmapper.StockReceiptRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err)
		return
	}
	product, err := api.service.ReceiveStock(c.Request.Context(), salestypes.StockReceipt{ProductID: id, Quantity: payload.Quantity})
	if err != nil {
		respondSalesError(c, err)
		return
	}
	c.JSON(http.StatusOK, salesmapper.FromProduct(product))
}

// Get /api/v1/products/low-stock
// Lists products at or below their alert threshold
func (api *InventoryAPI) ListLowStock(c *gin.Context) {
	products, err := api.service.ListLowStock(c.Request.Context())
	if err != nil {
		respondSalesError(c, err)
		return
	}
	c.JSON(http.StatusOK, salesmapper.FromProducts(products))
}
