package application

import (
	"context"
	"strings"

	salestypes "github.com/Apurer/go-gin-pos-server/internal/domains/sales/application/types"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
)

// ConfirmPayment records the payment method reported by a gateway callback.
func (s *Service) ConfirmPayment(ctx context.Context, input salestypes.PaymentConfirmation) (*domain.Order, error) {
	number := strings.TrimSpace(input.OrderNumber)
	if number == "" {
		return nil, mapError(domain.ErrEmptyOrderNumber)
	}
	var updated *domain.Order
	err := s.withinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		order, err := tx.Orders().GetByNumber(ctx, number)
		if err != nil {
			return err
		}
		if err := order.SetPaymentMethod(input.PaymentMethod); err != nil {
			return err
		}
		if err := tx.Orders().UpdateAnnotations(ctx, order); err != nil {
			return err
		}
		event := domain.PaymentConfirmed{
			BaseEvent:     domain.BaseEvent{Timestamp: s.now().UTC()},
			OrderID:       order.ID,
			OrderNumber:   order.OrderNumber,
			PaymentMethod: order.PaymentMethod,
		}
		if err := tx.Events().Append(ctx, event); err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, mapError(err)
	}
	return updated, nil
}

// AmendComments replaces an order's comments. Financial fields are untouched.
func (s *Service) AmendComments(ctx context.Context, orderID int64, comments string) (*domain.Order, error) {
	if orderID <= 0 {
		return nil, mapError(domain.ErrInvalidOrderID)
	}
	var updated *domain.Order
	err := s.withinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		order, err := tx.Orders().Get(ctx, orderID)
		if err != nil {
			return err
		}
		order.AmendComments(comments)
		if err := tx.Orders().UpdateAnnotations(ctx, order); err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, mapError(err)
	}
	return updated, nil
}

// GetOrder loads a committed order with its line items.
func (s *Service) GetOrder(ctx context.Context, orderID int64) (*salestypes.OrderProjection, error) {
	if orderID <= 0 {
		return nil, mapError(domain.ErrInvalidOrderID)
	}
	projection, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, mapError(err)
	}
	return projection, nil
}
