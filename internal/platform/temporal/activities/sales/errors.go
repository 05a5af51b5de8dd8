package sales

import (
	"errors"
	"fmt"

	"go.temporal.io/sdk/temporal"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/application"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
)

// Application error types carried across the Temporal boundary.
const (
	ErrTypeInsufficientStock   = "InsufficientStock"
	ErrTypeProductNotFound     = "ProductNotFound"
	ErrTypeInvalidInput        = "InvalidInput"
	ErrTypeOrderNotFound       = "OrderNotFound"
	ErrTypeIdempotencyConflict = "IdempotencyConflict"
)

// EncodeError turns business failures into non-retryable application errors. Anything else,
// including concurrency conflicts, stays retryable.
func EncodeError(err error) error {
	if err == nil {
		return nil
	}
	var shortage *domain.InsufficientStockError
	var missing *domain.ProductNotFoundError
	switch {
	case errors.As(err, &shortage):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInsufficientStock, err, *shortage)
	case errors.As(err, &missing):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeProductNotFound, err, *missing)
	case errors.Is(err, application.ErrInvalidInput):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInvalidInput, err)
	case errors.Is(err, ports.ErrNotFound):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeOrderNotFound, err)
	case errors.Is(err, ports.ErrIdempotencyConflict):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeIdempotencyConflict, err)
	default:
		return err
	}
}

// DecodeError restores the domain error carried by a workflow failure so callers can match it
// with errors.Is and errors.As.
func DecodeError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *temporal.ApplicationError
	if !errors.As(err, &appErr) {
		return err
	}
	switch appErr.Type() {
	case ErrTypeInsufficientStock:
		var shortage domain.InsufficientStockError
		if appErr.HasDetails() && appErr.Details(&shortage) == nil {
			return &shortage
		}
		return fmt.Errorf("%w: %s", domain.ErrInsufficientStock, appErr.Message())
	case ErrTypeProductNotFound:
		var missing domain.ProductNotFoundError
		if appErr.HasDetails() && appErr.Details(&missing) == nil {
			return &missing
		}
		return fmt.Errorf("%w: %s", domain.ErrProductNotFound, appErr.Message())
	case ErrTypeInvalidInput:
		return fmt.Errorf("%w: %s", application.ErrInvalidInput, appErr.Message())
	case ErrTypeOrderNotFound:
		return fmt.Errorf("%w: %s", ports.ErrNotFound, appErr.Message())
	case ErrTypeIdempotencyConflict:
		return fmt.Errorf("%w: %s", ports.ErrIdempotencyConflict, appErr.Message())
	default:
		return err
	}
}
