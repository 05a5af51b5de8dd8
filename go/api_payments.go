package posserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	salesmapper "github.com/Apurer/go-gin-pos-server/internal/domains/sales/adapters/http/mapper"
	salestypes "github.com/Apurer/go-gin-pos-server/internal/domains/sales/application/types"
	salesports "github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
)

// PaymentsAPI receives payment gateway callbacks.
type PaymentsAPI struct {
	service salesports.Service
}

// NewPaymentsAPI creates a PaymentsAPI.
func NewPaymentsAPI(service salesports.Service) PaymentsAPI {
	return PaymentsAPI{service: service}
}

// Post /api/v1/payments/confirmations
// Records the payment method confirmed by the gateway
func (api *PaymentsAPI) ConfirmPayment(c *gin.Context) {
	var payload salesmapper.PaymentConfirmationRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err)
		return
	}
	order, err := api.service.ConfirmPayment(c.Request.Context(), salestypes.PaymentConfirmation{
		OrderNumber:   payload.OrderNumber,
		PaymentMethod: payload.PaymentMethod,
	})
	if err != nil {
		respondSalesError(c, err)
		return
	}
	c.JSON(http.StatusOK, salesmapper.FromOrder(order))
}
