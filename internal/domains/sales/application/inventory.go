package application

import (
	"context"

	salestypes "github.com/Apurer/go-gin-pos-server/internal/domains/sales/application/types"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
)

// GetStock returns the committed stock level of a product.
func (s *Service) GetStock(ctx context.Context, productID int64) (int, error) {
	if productID <= 0 {
		return 0, mapError(domain.ErrInvalidProductID)
	}
	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return 0, mapError(err)
	}
	return product.StockQuantity, nil
}

// ReceiveStock adds received goods to a product's stock.
func (s *Service) ReceiveStock(ctx context.Context, input salestypes.StockReceipt) (*domain.Product, error) {
	if input.ProductID <= 0 {
		return nil, mapError(domain.ErrInvalidProductID)
	}
	if input.Quantity <= 0 {
		return nil, mapError(domain.ErrInvalidQuantity)
	}
	var product *domain.Product
	err := s.withinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		if err := tx.Stock().Increment(ctx, input.ProductID, input.Quantity); err != nil {
			return err
		}
		var err error
		product, err = tx.Stock().GetProduct(ctx, input.ProductID)
		if err != nil {
			return err
		}
		return tx.Events().Append(ctx, domain.StockReceived{
			BaseEvent: domain.BaseEvent{Timestamp: s.now().UTC()},
			ProductID: product.ID,
			Quantity:  input.Quantity,
			NewStock:  product.StockQuantity,
		})
	})
	if err != nil {
		return nil, mapError(err)
	}
	return product, nil
}

// ListLowStock returns products at or below their low-stock threshold.
func (s *Service) ListLowStock(ctx context.Context) ([]*domain.Product, error) {
	products, err := s.repo.ListLowStock(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return products, nil
}
