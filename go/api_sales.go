package posserver

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	salesmapper "github.com/Apurer/go-gin-pos-server/internal/domains/sales/adapters/http/mapper"
	salestypes "github.com/Apurer/go-gin-pos-server/internal/domains/sales/application/types"
	salesports "github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
	"github.com/Apurer/go-gin-pos-server/internal/shared/authz"
	apierrors "github.com/Apurer/go-gin-pos-server/internal/shared/errors"
)

// HeaderIdempotencyKey lets clients retry a checkout without selling twice.
const HeaderIdempotencyKey = "Idempotency-Key"

// CheckoutAPI wires HTTP transport with the sales service and workflows.
type CheckoutAPI struct {
	service   salesports.Service
	workflows salesports.WorkflowOrchestrator
}

// NewCheckoutAPI creates a CheckoutAPI. When workflows is nil checkouts run against the service directly.
func NewCheckoutAPI(service salesports.Service, workflows salesports.WorkflowOrchestrator) CheckoutAPI {
	return CheckoutAPI{service: service, workflows: workflows}
}

// Post /api/v1/sales/checkout
// Commits a cart as one sale
func (api *CheckoutAPI) Checkout(c *gin.Context) {
	var payload salesmapper.CheckoutRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		checkoutFailed(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	actor := authz.ActorFromRequest(c)
	input := salesmapper.ToCheckoutInput(payload, actor.UserID, strings.TrimSpace(c.GetHeader(HeaderIdempotencyKey)))
	receipt, err := api.checkout(c.Request.Context(), input)
	if err != nil {
		checkoutFailed(c, salesResponder.Problem(err))
		return
	}
	c.JSON(http.StatusOK, salesmapper.FromReceipt(receipt))
}

func (api *CheckoutAPI) checkout(ctx context.Context, input salestypes.CheckoutInput) (*salestypes.Receipt, error) {
	if api.workflows != nil {
		return api.workflows.Checkout(ctx, input)
	}
	return api.service.Checkout(ctx, input)
}

// checkoutFailed keeps the checkout envelope on failure so clients read a single shape.
func checkoutFailed(c *gin.Context, problem apierrors.ProblemDetail) {
	if problem.Instance == "" {
		problem.Instance = c.Request.URL.Path
	}
	message := problem.Detail
	if message == "" {
		message = problem.Title
	}
	c.JSON(problem.Status, salesmapper.CheckoutResponse{
		Success: false,
		Message: message,
		Problem: problem,
	})
}
