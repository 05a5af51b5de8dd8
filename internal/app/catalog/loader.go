// Package catalog seeds the product table from a YAML file.
package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
)

// Entry is one product line of the catalog file.
type Entry struct {
	ID                int64           `yaml:"id"`
	Name              string          `yaml:"name"`
	Price             decimal.Decimal `yaml:"price"`
	Stock             int             `yaml:"stock"`
	LowStockThreshold *int            `yaml:"low_stock_threshold"`
}

// File is the document layout:
//
//	products:
//	  - id: 1
//	    name: Rice 5kg
//	    price: "12.50"
//	    stock: 40
type File struct {
	Products []Entry `yaml:"products"`
}

// Parse decodes and validates a catalog. Duplicate ids are rejected.
func Parse(r io.Reader) ([]*domain.Product, error) {
	var doc File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	seen := make(map[int64]struct{}, len(doc.Products))
	products := make([]*domain.Product, 0, len(doc.Products))
	for i, entry := range doc.Products {
		if _, dup := seen[entry.ID]; dup {
			return nil, fmt.Errorf("catalog entry %d: duplicate product id %d", i, entry.ID)
		}
		seen[entry.ID] = struct{}{}

		threshold := domain.DefaultLowStockThreshold
		if entry.LowStockThreshold != nil {
			threshold = *entry.LowStockThreshold
		}
		product, err := domain.NewProduct(entry.ID, entry.Name, entry.Price, entry.Stock, threshold)
		if err != nil {
			return nil, fmt.Errorf("catalog entry %d (id %d): %w", i, entry.ID, err)
		}
		products = append(products, product)
	}
	return products, nil
}

// Load parses the catalog and upserts every product. It stops at the first failed write.
func Load(ctx context.Context, r io.Reader, dst ports.Catalog, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	products, err := Parse(r)
	if err != nil {
		return 0, err
	}
	for i, product := range products {
		if err := dst.SaveProduct(ctx, product); err != nil {
			return i, fmt.Errorf("save product %d: %w", product.ID, err)
		}
		logger.Debug("product loaded", slog.Int64("productId", product.ID), slog.Int("stock", product.StockQuantity))
	}
	return len(products), nil
}
