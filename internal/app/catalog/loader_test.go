package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/adapters/memory"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"
)

const sample = `
products:
  - id: 1
    name: Rice 5kg
    price: "12.499"
    stock: 40
  - id: 2
    name: Lentils
    price: 3.20
    stock: 2
    low_stock_threshold: 10
`

func TestLoad_SeedsStore(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	n, err := Load(ctx, strings.NewReader(sample), store, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rice, err := store.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "12.50", rice.Price.StringFixed(2))
	assert.Equal(t, domain.DefaultLowStockThreshold, rice.LowStockThreshold)

	low, err := store.ListLowStock(ctx)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, int64(2), low[0].ID)
}

func TestParse_RejectsBadEntries(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"negative stock", "products:\n  - {id: 1, name: A, price: 1, stock: -1}\n", domain.ErrNegativeStock},
		{"empty name", "products:\n  - {id: 1, name: ' ', price: 1, stock: 1}\n", domain.ErrEmptyName},
		{"bad id", "products:\n  - {id: 0, name: A, price: 1, stock: 1}\n", domain.ErrInvalidProductID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.doc))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParse_DuplicateAndUnknownFields(t *testing.T) {
	_, err := Parse(strings.NewReader("products:\n  - {id: 1, name: A, price: 1, stock: 1}\n  - {id: 1, name: B, price: 1, stock: 1}\n"))
	assert.ErrorContains(t, err, "duplicate product id 1")

	_, err = Parse(strings.NewReader("products:\n  - {id: 1, name: A, price: 1, stock: 1, colour: red}\n"))
	assert.Error(t, err)
}

func TestParse_EmptyDocument(t *testing.T) {
	products, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, products)
}

type failingSaver struct{ calls int }

func (f *failingSaver) SaveProduct(context.Context, *domain.Product) error {
	f.calls++
	if f.calls == 2 {
		return errors.New("boom")
	}
	return nil
}

func TestLoad_StopsAtFirstFailure(t *testing.T) {
	saver := &failingSaver{}
	n, err := Load(context.Background(), strings.NewReader(sample), saver, nil)
	assert.ErrorContains(t, err, "save product 2")
	assert.Equal(t, 1, n)
}
