//go:build integration

package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/application"
	salestypes "github.com/Apurer/go-gin-pos-server/internal/domains/sales/application/types"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
	"github.com/Apurer/go-gin-pos-server/internal/platform/migrations"
)

func setupSalesPostgresContainer(t *testing.T) (*gorm.DB, func()) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("pos_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	err = migrations.Run(db)
	require.NoError(t, err)

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		pgContainer.Terminate(ctx)
	}

	return db, cleanup
}

func seed(t *testing.T, repo *Repository, id int64, price string, stock int) {
	t.Helper()
	product, err := domain.NewProduct(id, "Item", decimal.RequireFromString(price), stock, domain.DefaultLowStockThreshold)
	require.NoError(t, err)
	require.NoError(t, repo.SaveProduct(context.Background(), product))
}

func TestRepository_CheckoutAndReverse(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupSalesPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()
	seed(t, repo, 1, "100.00", 10)

	svc := application.NewService(repo)
	receipt, err := svc.Checkout(ctx, salestypes.CheckoutInput{
		Cart:            domain.Cart{{ProductID: 1, Quantity: 3}},
		DiscountPercent: decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	assert.Equal(t, "305.10", receipt.TotalAmount.StringFixed(2))

	stock, err := svc.GetStock(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 7, stock)

	projection, err := repo.GetOrder(ctx, receipt.OrderID)
	require.NoError(t, err)
	require.Len(t, projection.Entity.LineItems, 1)
	assert.Equal(t, "100.00", projection.Entity.LineItems[0].UnitPrice.StringFixed(2))

	_, err = svc.ReverseOrder(ctx, receipt.OrderID)
	require.NoError(t, err)
	stock, err = svc.GetStock(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 10, stock)

	_, err = repo.GetOrder(ctx, receipt.OrderID)
	assert.ErrorIs(t, err, ports.ErrNotFound)

	pending, err := repo.FetchPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, domain.EventOrderPlaced, pending[0].EventName)
	assert.Equal(t, domain.EventOrderReversed, pending[1].EventName)
	require.NoError(t, repo.MarkPublished(ctx, pending[0].ID))
	pending, err = repo.FetchPending(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestRepository_ShortageRollsBack(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupSalesPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()
	seed(t, repo, 1, "5.00", 10)
	seed(t, repo, 2, "5.00", 1)

	svc := application.NewService(repo)
	_, err := svc.Checkout(ctx, salestypes.CheckoutInput{
		Cart: domain.Cart{{ProductID: 1, Quantity: 4}, {ProductID: 2, Quantity: 2}},
	})
	var shortage *domain.InsufficientStockError
	require.ErrorAs(t, err, &shortage)
	assert.Equal(t, 1, shortage.Available)

	product, err := repo.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 10, product.StockQuantity)

	var orders int64
	require.NoError(t, db.Model(&orderRecord{}).Count(&orders).Error)
	assert.Zero(t, orders)
}

func TestRepository_ConcurrentCheckoutsNeverOversell(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupSalesPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()
	seed(t, repo, 1, "1.00", 10)
	svc := application.NewService(repo)

	var wg sync.WaitGroup
	results := make(chan error, 30)
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Checkout(ctx, salestypes.CheckoutInput{Cart: domain.Cart{{ProductID: 1, Quantity: 1}}})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	}
	assert.Equal(t, 10, succeeded)

	product, err := repo.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, product.StockQuantity)
}

func TestRepository_BatchReversalIsAtomic(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupSalesPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()
	seed(t, repo, 1, "1.00", 10)
	svc := application.NewService(repo)

	receipt, err := svc.Checkout(ctx, salestypes.CheckoutInput{Cart: domain.Cart{{ProductID: 1, Quantity: 4}}})
	require.NoError(t, err)

	_, err = svc.ReverseOrders(ctx, []int64{receipt.OrderID, receipt.OrderID + 1000})
	require.ErrorIs(t, err, ports.ErrNotFound)

	product, err := repo.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 6, product.StockQuantity)
	_, err = repo.GetOrder(ctx, receipt.OrderID)
	require.NoError(t, err)
}

func TestRepository_ConcurrentRetriesWithSameKeyPlaceOneOrder(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupSalesPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()
	seed(t, repo, 1, "1.00", 10)
	svc := application.NewService(repo, application.WithIdempotencyStore(NewIdempotencyStore(db)))

	input := salestypes.CheckoutInput{Cart: domain.Cart{{ProductID: 1, Quantity: 2}}, IdempotencyKey: "retry-key"}
	receipts := make([]*salestypes.Receipt, 4)
	errs := make([]error, len(receipts))
	var wg sync.WaitGroup
	for i := range receipts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			receipts[i], errs[i] = svc.Checkout(ctx, input)
		}(i)
	}
	wg.Wait()

	for i := range receipts {
		require.NoError(t, errs[i])
		assert.Equal(t, receipts[0].OrderID, receipts[i].OrderID)
	}
	var orders int64
	require.NoError(t, db.Model(&orderRecord{}).Count(&orders).Error)
	assert.Equal(t, int64(1), orders)
	product, err := repo.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 8, product.StockQuantity)
}

func TestIdempotencyStore_SaveAndConflict(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupSalesPostgresContainer(t)
	defer cleanup()

	store := NewIdempotencyStore(db)
	ctx := context.Background()

	_, err := store.Save(ctx, ports.IdempotencyRecord{Key: "k1", RequestHash: "h1", OrderID: 7})
	require.NoError(t, err)

	existing, err := store.Save(ctx, ports.IdempotencyRecord{Key: "k1", RequestHash: "h1", OrderID: 7})
	require.NoError(t, err)
	assert.Equal(t, int64(7), existing.OrderID)

	_, err = store.Save(ctx, ports.IdempotencyRecord{Key: "k1", RequestHash: "other", OrderID: 7})
	assert.ErrorIs(t, err, ports.ErrIdempotencyConflict)

	missing, err := store.Get(ctx, "absent")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
