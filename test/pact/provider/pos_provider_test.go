//go:build pact
// +build pact

package provider_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	pacttest "github.com/Apurer/go-gin-pos-server/test/pact"

	posserver "github.com/Apurer/go-gin-pos-server/go"
	salesmemory "github.com/Apurer/go-gin-pos-server/internal/domains/sales/adapters/memory"
	salesobs "github.com/Apurer/go-gin-pos-server/internal/domains/sales/adapters/observability"
	salesworkflows "github.com/Apurer/go-gin-pos-server/internal/domains/sales/adapters/workflows"
	salesapp "github.com/Apurer/go-gin-pos-server/internal/domains/sales/application"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"

	"github.com/gin-gonic/gin"
	"github.com/pact-foundation/pact-go/v2/models"
	pactprovider "github.com/pact-foundation/pact-go/v2/provider"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestPOSProviderPact(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	app := newContractProviderApp(t)
	pactFile := filepath.ToSlash(pacttest.PactFile(t))
	if _, err := os.Stat(pactFile); errors.Is(err, os.ErrNotExist) {
		t.Fatalf("pact file not found at %s - run the pact consumer tests first", pactFile)
	} else {
		require.NoError(t, err)
	}

	verifier := pactprovider.NewVerifier()
	stateHandlers := models.StateHandlers{
		pacttest.StateCatalogStocked: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset(t)
			if setup {
				app.seedCatalog(t)
			}
			return nil, nil
		},
		pacttest.StateOrderMissing: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset(t)
			return nil, nil
		},
	}

	err := verifier.VerifyProvider(t, pactprovider.VerifyRequest{
		ProviderBaseURL: app.server.URL,
		Provider:        pacttest.ProviderName,
		PactFiles:       []string{pactFile},
		StateHandlers:   stateHandlers,
		BeforeEach: func() error {
			app.reset(t)
			return nil
		},
	})
	require.NoError(t, err)
}

// contractProviderApp rebuilds the whole in-memory stack on reset; the memory store has no truncate.
type contractProviderApp struct {
	mu     sync.RWMutex
	store  *salesmemory.Store
	router *gin.Engine
	server *httptest.Server
}

func newContractProviderApp(t testing.TB) *contractProviderApp {
	t.Helper()
	app := &contractProviderApp{}
	app.reset(t)
	app.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app.mu.RLock()
		router := app.router
		app.mu.RUnlock()
		router.ServeHTTP(w, r)
	}))
	t.Cleanup(app.server.Close)
	return app
}

func (a *contractProviderApp) reset(t testing.TB) {
	t.Helper()
	store := salesmemory.NewStore()
	service := salesobs.New(salesapp.NewService(store, salesapp.WithIdempotencyStore(salesmemory.NewIdempotencyStore())))
	workflows := salesworkflows.NewInlineSalesWorkflows(service)

	handlers := posserver.ApiHandleFunctions{
		CheckoutAPI:  posserver.NewCheckoutAPI(service, workflows),
		OrdersAPI:    posserver.NewOrdersAPI(service, workflows),
		InventoryAPI: posserver.NewInventoryAPI(service),
		PaymentsAPI:  posserver.NewPaymentsAPI(service),
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router = posserver.NewRouterWithGinEngine(router, handlers)

	a.mu.Lock()
	a.store = store
	a.router = router
	a.mu.Unlock()
}

func (a *contractProviderApp) seedCatalog(t testing.TB) {
	t.Helper()
	a.mu.RLock()
	store := a.store
	a.mu.RUnlock()
	for _, p := range []struct {
		id    int64
		name  string
		price string
		stock int
	}{
		{pacttest.NotebookID, pacttest.NotebookName, pacttest.NotebookPrice, pacttest.NotebookStock},
		{pacttest.PenID, pacttest.PenName, pacttest.PenPrice, pacttest.PenStock},
	} {
		product, err := domain.NewProduct(p.id, p.name, decimal.RequireFromString(p.price), p.stock, domain.DefaultLowStockThreshold)
		require.NoError(t, err)
		require.NoError(t, store.SaveProduct(context.Background(), product))
	}
}
