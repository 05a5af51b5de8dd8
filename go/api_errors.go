package posserver

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	salesapp "github.com/Apurer/go-gin-pos-server/internal/domains/sales/application"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"
	salesports "github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
	"github.com/Apurer/go-gin-pos-server/internal/shared/authz"
	apierrors "github.com/Apurer/go-gin-pos-server/internal/shared/errors"
)

var salesResponder = apierrors.NewChainedResponder("", salesProblem)

// salesProblem maps sales and authorization errors to problem details.
func salesProblem(err error) (apierrors.ProblemDetail, bool) {
	var shortage *domain.InsufficientStockError
	var missing *domain.ProductNotFoundError
	switch {
	case errors.As(err, &shortage):
		name := shortage.ProductName
		if name == "" {
			name = "product " + strconv.FormatInt(shortage.ProductID, 10)
		}
		return apierrors.NewOutOfStockProblem(shortage.ProductID, name, shortage.Requested, shortage.Available), true
	case errors.As(err, &missing):
		return apierrors.NewNotFoundProblem("product", missing.ProductID), true
	case errors.Is(err, salesapp.ErrInvalidInput):
		return apierrors.ErrValidation.WithDetail(err.Error()), true
	case errors.Is(err, salesports.ErrNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()), true
	case errors.Is(err, salesports.ErrIdempotencyConflict):
		return apierrors.ErrIdempotencyReused.WithDetail(err.Error()), true
	case errors.Is(err, salesports.ErrConcurrencyConflict):
		return apierrors.ErrConflict.WithDetail("concurrent update detected, retry the request"), true
	case errors.Is(err, salesports.ErrPersistence):
		return apierrors.ErrInternal.WithDetail("storage failure"), true
	case errors.Is(err, authz.ErrUnauthenticated):
		return apierrors.ErrUnauthorized.WithDetail(err.Error()), true
	case errors.Is(err, authz.ErrForbidden):
		return apierrors.ErrForbidden.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}

// respondProblem maps a ProblemDetail through the shared responder.
func respondProblem(c *gin.Context, problem apierrors.ProblemDetail) {
	salesResponder.Respond(c, problem)
}

// respondSalesError renders any error returned by the sales service or policy.
func respondSalesError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	salesResponder.RespondError(c, err)
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(name+" must be a positive integer"))
		return 0, false
	}
	return id, true
}

func badRequest(c *gin.Context, err error) {
	respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
}

