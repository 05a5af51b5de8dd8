package application

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	salesmemory "github.com/Apurer/go-gin-pos-server/internal/domains/sales/adapters/memory"
	salestypes "github.com/Apurer/go-gin-pos-server/internal/domains/sales/application/types"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
)

func newStoreWithProduct(t *testing.T, id int64, price string, stock int) *salesmemory.Store {
	t.Helper()
	store := salesmemory.NewStore()
	addProduct(t, store, id, price, stock)
	return store
}

func addProduct(t *testing.T, store *salesmemory.Store, id int64, price string, stock int) {
	t.Helper()
	product, err := domain.NewProduct(id, fmt.Sprintf("Product %d", id), decimal.RequireFromString(price), stock, domain.DefaultLowStockThreshold)
	require.NoError(t, err)
	require.NoError(t, store.SaveProduct(context.Background(), product))
}

func stockOf(t *testing.T, store *salesmemory.Store, id int64) int {
	t.Helper()
	product, err := store.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return product.StockQuantity
}

func checkoutInput(discount string, lines ...domain.CartLine) salestypes.CheckoutInput {
	return salestypes.CheckoutInput{
		Cart:            domain.Cart(lines),
		DiscountPercent: decimal.RequireFromString(discount),
		UserID:          "cashier-1",
	}
}

func TestCheckout_PricesAndDecrementsStock(t *testing.T) {
	store := newStoreWithProduct(t, 1, "100.00", 10)
	svc := NewService(store)

	receipt, err := svc.Checkout(context.Background(), checkoutInput("10", domain.CartLine{ProductID: 1, Quantity: 3}))
	require.NoError(t, err)
	assert.Equal(t, SaleSuccessMessage, receipt.Message)
	assert.Equal(t, "300.00", receipt.Subtotal.StringFixed(2))
	assert.Equal(t, "30.00", receipt.DiscountAmount.StringFixed(2))
	assert.Equal(t, "35.10", receipt.TaxAmount.StringFixed(2))
	assert.Equal(t, "305.10", receipt.TotalAmount.StringFixed(2))
	assert.Equal(t, 7, stockOf(t, store, 1))

	projection, err := svc.GetOrder(context.Background(), receipt.OrderID)
	require.NoError(t, err)
	order := projection.Entity
	assert.Equal(t, receipt.OrderNumber, order.OrderNumber)
	assert.Equal(t, domain.DefaultPaymentMethod, order.PaymentMethod)
	assert.Equal(t, "Sold by: cashier-1", order.Comments)
	require.Len(t, order.LineItems, 1)
	assert.Equal(t, "100.00", order.LineItems[0].UnitPrice.StringFixed(2))
	assert.True(t, order.Subtotal.Equal(order.LinesSubtotal()))
}

func TestCheckout_InsufficientStockLeavesNoTrace(t *testing.T) {
	store := newStoreWithProduct(t, 1, "100.00", 10)
	svc := NewService(store)

	_, err := svc.Checkout(context.Background(), checkoutInput("0", domain.CartLine{ProductID: 1, Quantity: 20}))
	var shortage *domain.InsufficientStockError
	require.ErrorAs(t, err, &shortage)
	assert.Equal(t, int64(1), shortage.ProductID)
	assert.Equal(t, 20, shortage.Requested)
	assert.Equal(t, 10, shortage.Available)
	assert.Equal(t, "Product 1", shortage.ProductName)
	assert.Equal(t, 10, stockOf(t, store, 1))
	assert.Zero(t, store.OrderCount())
}

func TestCheckout_LaterLineFailureRollsBackEarlierDecrements(t *testing.T) {
	store := newStoreWithProduct(t, 1, "5.00", 10)
	addProduct(t, store, 2, "7.50", 1)
	svc := NewService(store)

	_, err := svc.Checkout(context.Background(), checkoutInput("0",
		domain.CartLine{ProductID: 1, Quantity: 4},
		domain.CartLine{ProductID: 2, Quantity: 2},
	))
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 10, stockOf(t, store, 1))
	assert.Equal(t, 1, stockOf(t, store, 2))
	assert.Zero(t, store.OrderCount())
}

func TestCheckout_UnknownProductFailsFast(t *testing.T) {
	store := newStoreWithProduct(t, 1, "5.00", 10)
	svc := NewService(store)

	_, err := svc.Checkout(context.Background(), checkoutInput("0",
		domain.CartLine{ProductID: 1, Quantity: 1},
		domain.CartLine{ProductID: 42, Quantity: 1},
	))
	require.ErrorIs(t, err, domain.ErrProductNotFound)
	var notFound *domain.ProductNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, int64(42), notFound.ProductID)
	assert.Equal(t, 10, stockOf(t, store, 1))
	assert.Zero(t, store.OrderCount())
}

func TestCheckout_RejectsInvalidCarts(t *testing.T) {
	svc := NewService(salesmemory.NewStore())

	_, err := svc.Checkout(context.Background(), salestypes.CheckoutInput{})
	require.ErrorIs(t, err, ErrInvalidInput)
	require.ErrorIs(t, err, domain.ErrEmptyCart)

	_, err = svc.Checkout(context.Background(), checkoutInput("0", domain.CartLine{ProductID: 1, Quantity: 0}))
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Checkout(context.Background(), checkoutInput("150", domain.CartLine{ProductID: 1, Quantity: 1}))
	require.ErrorIs(t, err, ErrInvalidInput)
	require.ErrorIs(t, err, domain.ErrInvalidDiscount)

	_, err = svc.Checkout(context.Background(), checkoutInput("12.345", domain.CartLine{ProductID: 1, Quantity: 1}))
	require.ErrorIs(t, err, domain.ErrInvalidDiscount)
}

func TestCheckout_ReportsLowStock(t *testing.T) {
	store := newStoreWithProduct(t, 1, "1.00", 8)
	svc := NewService(store)

	receipt, err := svc.Checkout(context.Background(), checkoutInput("0", domain.CartLine{ProductID: 1, Quantity: 2}, domain.CartLine{ProductID: 1, Quantity: 2}))
	require.NoError(t, err)
	require.Len(t, receipt.LowStock, 1)
	assert.Equal(t, 4, receipt.LowStock[0].Stock)
	assert.Equal(t, domain.DefaultLowStockThreshold, receipt.LowStock[0].Threshold)
}

func TestCheckout_ConcurrentBuyersNeverOversell(t *testing.T) {
	const (
		stock   = 25
		buyers  = 60
		perSale = 1
	)
	store := newStoreWithProduct(t, 1, "2.00", stock)
	svc := NewService(store)

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int64
		rejected  atomic.Int64
		mu        sync.Mutex
		numbers   = map[string]struct{}{}
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			receipt, err := svc.Checkout(context.Background(), checkoutInput("0", domain.CartLine{ProductID: 1, Quantity: perSale}))
			if err != nil {
				if errors.Is(err, domain.ErrInsufficientStock) {
					rejected.Add(1)
				}
				return
			}
			succeeded.Add(1)
			mu.Lock()
			numbers[receipt.OrderNumber] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(stock), succeeded.Load())
	assert.Equal(t, int64(buyers-stock), rejected.Load())
	assert.Len(t, numbers, stock)
	assert.Equal(t, 0, stockOf(t, store, 1))
}

func TestReverseOrder_RestoresStockAndRemovesOrder(t *testing.T) {
	store := newStoreWithProduct(t, 1, "100.00", 10)
	svc := NewService(store)
	receipt, err := svc.Checkout(context.Background(), checkoutInput("10", domain.CartLine{ProductID: 1, Quantity: 3}))
	require.NoError(t, err)

	result, err := svc.ReverseOrder(context.Background(), receipt.OrderID)
	require.NoError(t, err)
	assert.Equal(t, []int64{receipt.OrderID}, result.OrderIDs)
	assert.Equal(t, map[int64]int{1: 3}, result.Restocked)
	assert.Equal(t, 10, stockOf(t, store, 1))

	_, err = svc.GetOrder(context.Background(), receipt.OrderID)
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestReverseOrders_MissingOrderAbortsWholeBatch(t *testing.T) {
	store := newStoreWithProduct(t, 1, "1.00", 10)
	svc := NewService(store)
	first, err := svc.Checkout(context.Background(), checkoutInput("0", domain.CartLine{ProductID: 1, Quantity: 2}))
	require.NoError(t, err)
	second, err := svc.Checkout(context.Background(), checkoutInput("0", domain.CartLine{ProductID: 1, Quantity: 3}))
	require.NoError(t, err)

	_, err = svc.ReverseOrders(context.Background(), []int64{first.OrderID, 9999, second.OrderID})
	require.ErrorIs(t, err, ports.ErrNotFound)
	assert.Equal(t, 5, stockOf(t, store, 1))
	assert.Equal(t, 2, store.OrderCount())

	result, err := svc.ReverseOrders(context.Background(), []int64{first.OrderID, second.OrderID, first.OrderID})
	require.NoError(t, err)
	assert.Len(t, result.OrderIDs, 2)
	assert.Equal(t, 10, stockOf(t, store, 1))
	assert.Zero(t, store.OrderCount())
}

func TestReverseOrders_RejectsEmptyBatch(t *testing.T) {
	svc := NewService(salesmemory.NewStore())
	_, err := svc.ReverseOrders(context.Background(), nil)
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.ReverseOrders(context.Background(), []int64{0})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestCheckout_OrderWriteFailureRollsBackStock(t *testing.T) {
	store := newStoreWithProduct(t, 1, "1.00", 10)
	boom := errors.New("disk full")
	svc := NewService(&failingRepo{Store: store, createErr: boom})

	_, err := svc.Checkout(context.Background(), checkoutInput("0", domain.CartLine{ProductID: 1, Quantity: 4}))
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 10, stockOf(t, store, 1))
	assert.Zero(t, store.OrderCount())
}

func TestCheckout_IdempotentReplay(t *testing.T) {
	store := newStoreWithProduct(t, 1, "1.00", 10)
	svc := NewService(store, WithIdempotencyStore(salesmemory.NewIdempotencyStore()))

	input := checkoutInput("0", domain.CartLine{ProductID: 1, Quantity: 2})
	input.IdempotencyKey = "key-1"
	first, err := svc.Checkout(context.Background(), input)
	require.NoError(t, err)
	assert.False(t, first.Replayed)

	replayed, err := svc.Checkout(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, replayed.Replayed)
	assert.Equal(t, first.OrderID, replayed.OrderID)
	assert.Equal(t, 8, stockOf(t, store, 1))

	input.Cart = domain.Cart{{ProductID: 1, Quantity: 5}}
	_, err = svc.Checkout(context.Background(), input)
	require.ErrorIs(t, err, ports.ErrIdempotencyConflict)
	assert.Equal(t, 8, stockOf(t, store, 1))
}

func TestCheckout_ConcurrentRetriesWithSameKeyPlaceOneOrder(t *testing.T) {
	store := newStoreWithProduct(t, 1, "1.00", 10)
	cache := &rendezvousIdempotency{IdempotencyStore: salesmemory.NewIdempotencyStore(), parties: 2, released: make(chan struct{})}
	svc := NewService(store, WithIdempotencyStore(cache))

	input := checkoutInput("0", domain.CartLine{ProductID: 1, Quantity: 2})
	input.IdempotencyKey = "retry-key"

	receipts := make([]*salestypes.Receipt, 2)
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range receipts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			receipts[i], errs[i] = svc.Checkout(context.Background(), input)
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, 1, store.OrderCount())
	assert.Equal(t, 8, stockOf(t, store, 1))
	assert.Equal(t, receipts[0].OrderID, receipts[1].OrderID)
	assert.NotEqual(t, receipts[0].Replayed, receipts[1].Replayed)
}

func TestCheckout_KeyIsClaimedWithoutLookupStore(t *testing.T) {
	store := newStoreWithProduct(t, 1, "1.00", 10)
	svc := NewService(store)

	input := checkoutInput("0", domain.CartLine{ProductID: 1, Quantity: 2})
	input.IdempotencyKey = "key-2"
	first, err := svc.Checkout(context.Background(), input)
	require.NoError(t, err)

	again, err := svc.Checkout(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, again.Replayed)
	assert.Equal(t, first.OrderID, again.OrderID)
	assert.Equal(t, 8, stockOf(t, store, 1))

	input.Cart = domain.Cart{{ProductID: 1, Quantity: 3}}
	_, err = svc.Checkout(context.Background(), input)
	require.ErrorIs(t, err, ports.ErrIdempotencyConflict)
	assert.Equal(t, 1, store.OrderCount())
}

func TestCheckout_CacheSaveFailureIsLogged(t *testing.T) {
	store := newStoreWithProduct(t, 1, "1.00", 10)
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	cache := &brokenSaveIdempotency{IdempotencyStore: salesmemory.NewIdempotencyStore(), err: errors.New("redis down")}
	svc := NewService(store, WithIdempotencyStore(cache), WithLogger(logger))

	input := checkoutInput("0", domain.CartLine{ProductID: 1, Quantity: 1})
	input.IdempotencyKey = "key-3"
	receipt, err := svc.Checkout(context.Background(), input)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "idempotency record not cached")
	assert.Contains(t, buf.String(), "redis down")

	replayed, err := svc.Checkout(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, replayed.Replayed)
	assert.Equal(t, receipt.OrderID, replayed.OrderID)
	assert.Equal(t, 9, stockOf(t, store, 1))
}

func TestConfirmPayment_SetsMethod(t *testing.T) {
	store := newStoreWithProduct(t, 1, "1.00", 10)
	svc := NewService(store)
	receipt, err := svc.Checkout(context.Background(), checkoutInput("0", domain.CartLine{ProductID: 1, Quantity: 1}))
	require.NoError(t, err)

	order, err := svc.ConfirmPayment(context.Background(), salestypes.PaymentConfirmation{OrderNumber: receipt.OrderNumber, PaymentMethod: "eSewa"})
	require.NoError(t, err)
	assert.Equal(t, "eSewa", order.PaymentMethod)

	projection, err := svc.GetOrder(context.Background(), receipt.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "eSewa", projection.Entity.PaymentMethod)
	assert.True(t, projection.Entity.TotalAmount.Equal(receipt.TotalAmount))

	_, err = svc.ConfirmPayment(context.Background(), salestypes.PaymentConfirmation{OrderNumber: "INV-missing", PaymentMethod: "Khalti"})
	require.ErrorIs(t, err, ports.ErrNotFound)

	_, err = svc.ConfirmPayment(context.Background(), salestypes.PaymentConfirmation{OrderNumber: receipt.OrderNumber})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestAmendComments(t *testing.T) {
	store := newStoreWithProduct(t, 1, "1.00", 10)
	svc := NewService(store)
	receipt, err := svc.Checkout(context.Background(), checkoutInput("0", domain.CartLine{ProductID: 1, Quantity: 1}))
	require.NoError(t, err)

	order, err := svc.AmendComments(context.Background(), receipt.OrderID, "  gift wrap ")
	require.NoError(t, err)
	assert.Equal(t, "gift wrap", order.Comments)

	_, err = svc.AmendComments(context.Background(), 12345, "x")
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestReceiveStock(t *testing.T) {
	store := newStoreWithProduct(t, 1, "1.00", 3)
	svc := NewService(store)

	product, err := svc.ReceiveStock(context.Background(), salestypes.StockReceipt{ProductID: 1, Quantity: 7})
	require.NoError(t, err)
	assert.Equal(t, 10, product.StockQuantity)

	stock, err := svc.GetStock(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 10, stock)

	_, err = svc.ReceiveStock(context.Background(), salestypes.StockReceipt{ProductID: 1, Quantity: 0})
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.ReceiveStock(context.Background(), salestypes.StockReceipt{ProductID: 77, Quantity: 1})
	require.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestCheckout_UsesInjectedOrderNumbersAndClock(t *testing.T) {
	store := newStoreWithProduct(t, 1, "1.00", 10)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := NewService(store, WithOrderNumbers(&sequence{prefix: "T"}), WithClock(func() time.Time { return fixed }))

	receipt, err := svc.Checkout(context.Background(), checkoutInput("0", domain.CartLine{ProductID: 1, Quantity: 1}))
	require.NoError(t, err)
	assert.Equal(t, "T-1", receipt.OrderNumber)

	projection, err := svc.GetOrder(context.Background(), receipt.OrderID)
	require.NoError(t, err)
	assert.True(t, projection.Entity.CreatedAt.Equal(fixed))
}

func TestUUIDOrderNumbers_AreUnique(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 1000; i++ {
		number, err := UUIDOrderNumbers{}.Next()
		require.NoError(t, err)
		require.NotContains(t, seen, number)
		seen[number] = struct{}{}
	}
}

func TestWithinTx_NestedScopePanics(t *testing.T) {
	store := salesmemory.NewStore()
	require.Panics(t, func() {
		_ = withinTx(context.Background(), store, func(ctx context.Context, tx ports.Tx) error {
			return withinTx(ctx, store, func(context.Context, ports.Tx) error { return nil })
		})
	})
	// the outer handle was rolled back, so a new transaction can start
	tx, err := store.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Rollback(context.Background()))
}

type sequence struct {
	prefix string
	n      atomic.Int64
}

func (s *sequence) Next() (string, error) {
	return fmt.Sprintf("%s-%d", s.prefix, s.n.Add(1)), nil
}

// failingRepo wraps the memory store so order inserts fail after stock was decremented.
type failingRepo struct {
	*salesmemory.Store
	createErr error
}

func (r *failingRepo) Begin(ctx context.Context) (ports.Tx, error) {
	tx, err := r.Store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &failingTx{Tx: tx, createErr: r.createErr}, nil
}

type failingTx struct {
	ports.Tx
	createErr error
}

func (t *failingTx) Orders() ports.OrderStore {
	return &failingOrders{OrderStore: t.Tx.Orders(), createErr: t.createErr}
}

type failingOrders struct {
	ports.OrderStore
	createErr error
}

func (o *failingOrders) Create(context.Context, *domain.Order) error {
	return o.createErr
}

// rendezvousIdempotency holds every Get until the expected number of callers have looked up the
// key, so all of them miss the cache before any checkout commits.
type rendezvousIdempotency struct {
	ports.IdempotencyStore
	parties  int
	mu       sync.Mutex
	arrived  int
	released chan struct{}
}

func (r *rendezvousIdempotency) Get(ctx context.Context, key string) (*ports.IdempotencyRecord, error) {
	record, err := r.IdempotencyStore.Get(ctx, key)
	r.mu.Lock()
	r.arrived++
	if r.arrived == r.parties {
		close(r.released)
	}
	r.mu.Unlock()
	select {
	case <-r.released:
	case <-time.After(5 * time.Second):
	}
	return record, err
}

type brokenSaveIdempotency struct {
	ports.IdempotencyStore
	err error
}

func (b *brokenSaveIdempotency) Save(context.Context, ports.IdempotencyRecord) (*ports.IdempotencyRecord, error) {
	return nil, b.err
}
