package application

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	salestypes "github.com/Apurer/go-gin-pos-server/internal/domains/sales/application/types"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
)

// SaleSuccessMessage is returned with every committed checkout.
const SaleSuccessMessage = "Sale successful!"

type soldLine struct {
	product  *domain.Product
	quantity int
}

// Checkout converts a cart into a committed order. Stock decrements, the order, its line items
// and the order-placed event are written in a single transaction: either all of them become
// visible or none do. An idempotency key is claimed in that transaction before any stock moves;
// a checkout that finds the key already held rolls back and replays the holder's receipt.
func (s *Service) Checkout(ctx context.Context, input salestypes.CheckoutInput) (*salestypes.Receipt, error) {
	if err := input.Cart.Validate(); err != nil {
		return nil, mapError(err)
	}
	if err := domain.ValidateDiscountPercent(input.DiscountPercent); err != nil {
		return nil, mapError(err)
	}

	key := strings.TrimSpace(input.IdempotencyKey)
	var fingerprint string
	if key != "" {
		fp, err := FingerprintCheckout(input)
		if err != nil {
			return nil, err
		}
		if s.idempotency != nil {
			existing, err := s.idempotency.Get(ctx, key)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				return s.replayCheckout(ctx, existing, fp)
			}
		}
		fingerprint = fp
	}

	var (
		order   *domain.Order
		alerts  []salestypes.LowStockAlert
		claimed *ports.IdempotencyRecord
	)
	err := s.withinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		if fingerprint != "" {
			record, err := tx.Idempotency().Claim(ctx, key, fingerprint)
			if errors.Is(err, ports.ErrIdempotencyKeyClaimed) {
				claimed = record
				return err
			}
			if err != nil {
				return err
			}
		}

		sold := make([]soldLine, 0, len(input.Cart))
		for _, line := range input.Cart {
			product, err := tx.Stock().GetProduct(ctx, line.ProductID)
			if err != nil {
				return err
			}
			if err := tx.Stock().TryDecrement(ctx, line.ProductID, line.Quantity); err != nil {
				var shortage *domain.InsufficientStockError
				if errors.As(err, &shortage) && shortage.ProductName == "" {
					shortage.ProductName = product.Name
				}
				return err
			}
			sold = append(sold, soldLine{product: product, quantity: line.Quantity})
		}

		number, err := s.numbers.Next()
		if err != nil {
			return err
		}
		order, err = domain.NewOrder(number, input.UserID, s.now())
		if err != nil {
			return err
		}
		for _, line := range sold {
			if _, err := order.AddLine(line.product, line.quantity); err != nil {
				return err
			}
		}
		totals, err := s.pricing.Price(order.LinesSubtotal(), input.DiscountPercent)
		if err != nil {
			return err
		}
		order.ApplyTotals(totals)
		order.Comments = domain.FormatSaleComments(input.Comments, input.UserID)
		if err := order.Validate(); err != nil {
			return err
		}
		if err := tx.Orders().Create(ctx, order); err != nil {
			return err
		}
		if fingerprint != "" {
			if err := tx.Idempotency().Bind(ctx, key, order.ID); err != nil {
				return err
			}
		}
		if err := tx.Events().Append(ctx, domain.NewOrderPlaced(order)); err != nil {
			return err
		}
		alerts, err = lowStockAlerts(ctx, tx.Stock(), sold)
		return err
	})
	if claimed != nil {
		return s.replayCheckout(ctx, claimed, fingerprint)
	}
	if err != nil {
		return nil, mapError(err)
	}

	receipt := salestypes.NewReceipt(order, SaleSuccessMessage)
	receipt.LowStock = alerts
	if fingerprint != "" && s.idempotency != nil {
		// The claim committed with the order; the store only serves the pre-transaction lookup.
		if _, err := s.idempotency.Save(ctx, ports.IdempotencyRecord{Key: key, RequestHash: fingerprint, OrderID: order.ID}); err != nil {
			s.logger.WarnContext(ctx, "idempotency record not cached",
				slog.String("idempotency_key", key),
				slog.Int64("order_id", order.ID),
				slog.Any("error", err),
			)
		}
	}
	return receipt, nil
}

func (s *Service) replayCheckout(ctx context.Context, record *ports.IdempotencyRecord, fingerprint string) (*salestypes.Receipt, error) {
	if record.RequestHash != fingerprint {
		return nil, ports.ErrIdempotencyConflict
	}
	projection, err := s.repo.GetOrder(ctx, record.OrderID)
	if err != nil {
		return nil, mapError(err)
	}
	receipt := salestypes.NewReceipt(projection.Entity, SaleSuccessMessage)
	receipt.Replayed = true
	return receipt, nil
}

// lowStockAlerts reads post-sale stock for each distinct product in the cart.
func lowStockAlerts(ctx context.Context, stock ports.StockStore, sold []soldLine) ([]salestypes.LowStockAlert, error) {
	seen := make(map[int64]*domain.Product, len(sold))
	for _, line := range sold {
		seen[line.product.ID] = line.product
	}
	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var alerts []salestypes.LowStockAlert
	for _, id := range ids {
		remaining, err := stock.GetStock(ctx, id)
		if err != nil {
			return nil, err
		}
		product := seen[id]
		if remaining <= product.LowStockThreshold {
			alerts = append(alerts, salestypes.LowStockAlert{
				ProductID: id,
				Name:      product.Name,
				Stock:     remaining,
				Threshold: product.LowStockThreshold,
			})
		}
	}
	return alerts, nil
}
