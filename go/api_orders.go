package posserver

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"

	salesmapper "github.com/Apurer/go-gin-pos-server/internal/domains/sales/adapters/http/mapper"
	salestypes "github.com/Apurer/go-gin-pos-server/internal/domains/sales/application/types"
	salesports "github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
	"github.com/Apurer/go-gin-pos-server/internal/shared/authz"
)

// OrdersAPI exposes order lookup, reversal and amendment.
type OrdersAPI struct {
	service   salesports.Service
	workflows salesports.WorkflowOrchestrator
}

// NewOrdersAPI creates an OrdersAPI. When workflows is nil reversals run against the service directly.
func NewOrdersAPI(service salesports.Service, workflows salesports.WorkflowOrchestrator) OrdersAPI {
	return OrdersAPI{service: service, workflows: workflows}
}

// Get /api/v1/orders/:orderId
// Find order by ID
func (api *OrdersAPI) GetOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	order, err := api.service.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondSalesError(c, err)
		return
	}
	c.JSON(http.StatusOK, salesmapper.FromProjection(order))
}

// Delete /api/v1/orders/:orderId
// Reverses a single order and restores its stock
func (api *OrdersAPI) ReverseOrder(c *gin.Context) {
	if err := authz.RequireAdmin(authz.ActorFromRequest(c)); err != nil {
		respondSalesError(c, err)
		return
	}
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	result, err := api.reverse(c.Request.Context(), []int64{id})
	if err != nil {
		respondSalesError(c, err)
		return
	}
	c.JSON(http.StatusOK, salesmapper.FromReversal(result))
}

// Post /api/v1/orders/reversals
// Reverses a batch of orders atomically. Ids come from the body or the ids query parameter.
func (api *OrdersAPI) ReverseOrders(c *gin.Context) {
	if err := authz.RequireAdmin(authz.ActorFromRequest(c)); err != nil {
		respondSalesError(c, err)
		return
	}
	var payload salesmapper.ReversalRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&payload); err != nil {
			badRequest(c, err)
			return
		}
	}
	ids := payload.OrderIDs
	if len(ids) == 0 {
		if err := runtime.BindQueryParameter("form", false, false, "ids", c.Request.URL.Query(), &ids); err != nil {
			badRequest(c, err)
			return
		}
	}
	result, err := api.reverse(c.Request.Context(), ids)
	if err != nil {
		respondSalesError(c, err)
		return
	}
	c.JSON(http.StatusOK, salesmapper.FromReversal(result))
}

func (api *OrdersAPI) reverse(ctx context.Context, ids []int64) (*salestypes.ReversalResult, error) {
	if api.workflows != nil {
		return api.workflows.ReverseOrders(ctx, ids)
	}
	return api.service.ReverseOrders(ctx, ids)
}

// Patch /api/v1/orders/:orderId/comments
// Replaces the order comments. Admins may amend any order, other users only their own.
func (api *OrdersAPI) AmendComments(c *gin.Context) {
	actor := authz.ActorFromRequest(c)
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	var payload salesmapper.CommentsRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()
	current, err := api.service.GetOrder(ctx, id)
	if err != nil {
		respondSalesError(c, err)
		return
	}
	if err := authz.CanAmendOrder(actor, current.Entity.UserID); err != nil {
		respondSalesError(c, err)
		return
	}
	updated, err := api.service.AmendComments(ctx, id, payload.Comments)
	if err != nil {
		respondSalesError(c, err)
		return
	}
	c.JSON(http.StatusOK, salesmapper.FromOrder(updated))
}
