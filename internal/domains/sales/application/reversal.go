package application

import (
	"context"
	"fmt"
	"sort"

	salestypes "github.com/Apurer/go-gin-pos-server/internal/domains/sales/application/types"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
)

// ReverseOrder deletes one order and restores its stock.
func (s *Service) ReverseOrder(ctx context.Context, orderID int64) (*salestypes.ReversalResult, error) {
	return s.ReverseOrders(ctx, []int64{orderID})
}

// ReverseOrders deletes every listed order and restores the stock their line items removed.
// The whole batch is one transaction: if any order is missing or any write fails, no order is
// deleted and no stock is restored.
func (s *Service) ReverseOrders(ctx context.Context, orderIDs []int64) (*salestypes.ReversalResult, error) {
	ids, err := normalizeOrderIDs(orderIDs)
	if err != nil {
		return nil, mapError(err)
	}

	result := &salestypes.ReversalResult{Restocked: map[int64]int{}}
	err = s.withinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		orders := make([]*domain.Order, 0, len(ids))
		for _, id := range ids {
			order, err := tx.Orders().Get(ctx, id)
			if err != nil {
				return fmt.Errorf("reverse order %d: %w", id, err)
			}
			orders = append(orders, order)
			for productID, qty := range order.Quantities() {
				result.Restocked[productID] += qty
			}
		}

		// Increment in product order so overlapping reversals lock rows in the same sequence.
		productIDs := make([]int64, 0, len(result.Restocked))
		for productID := range result.Restocked {
			productIDs = append(productIDs, productID)
		}
		sort.Slice(productIDs, func(i, j int) bool { return productIDs[i] < productIDs[j] })
		for _, productID := range productIDs {
			if err := tx.Stock().Increment(ctx, productID, result.Restocked[productID]); err != nil {
				return fmt.Errorf("restock product %d: %w", productID, err)
			}
		}

		for _, order := range orders {
			if err := tx.Orders().Delete(ctx, order.ID); err != nil {
				return fmt.Errorf("delete order %d: %w", order.ID, err)
			}
			if err := tx.Events().Append(ctx, domain.NewOrderReversed(order, s.now())); err != nil {
				return err
			}
			result.OrderIDs = append(result.OrderIDs, order.ID)
		}
		return nil
	})
	if err != nil {
		return nil, mapError(err)
	}
	return result, nil
}

// normalizeOrderIDs validates ids and drops duplicates, keeping first-seen order.
func normalizeOrderIDs(orderIDs []int64) ([]int64, error) {
	if len(orderIDs) == 0 {
		return nil, domain.ErrNoOrdersSelected
	}
	seen := make(map[int64]struct{}, len(orderIDs))
	ids := make([]int64, 0, len(orderIDs))
	for _, id := range orderIDs {
		if id <= 0 {
			return nil, fmt.Errorf("%w: %d", domain.ErrInvalidOrderID, id)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}
