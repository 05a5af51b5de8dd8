package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"
)

// ErrInvalidInput signals the request violated a domain invariant.
var ErrInvalidInput = errors.New("invalid sales input")

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrInvalidInput) {
		return err
	}
	if errors.Is(err, domain.ErrEmptyCart) ||
		errors.Is(err, domain.ErrInvalidProductID) ||
		errors.Is(err, domain.ErrInvalidOrderID) ||
		errors.Is(err, domain.ErrNoOrdersSelected) ||
		errors.Is(err, domain.ErrInvalidQuantity) ||
		errors.Is(err, domain.ErrInvalidDiscount) ||
		errors.Is(err, domain.ErrInvalidPaymentMethod) ||
		errors.Is(err, domain.ErrNegativeAmount) ||
		errors.Is(err, domain.ErrEmptyOrderNumber) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
