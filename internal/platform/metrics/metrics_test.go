package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_CountsByRouteAndStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	m := NewServerMetrics("test", reg)

	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/orders/:orderId", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	router.GET("/metrics", gin.WrapH(HandlerFor(reg)))

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders/42", nil))
		require.Equal(t, http.StatusNotFound, w.Code)
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(m.Requests.WithLabelValues("/orders/:orderId", "404")))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pos_test_http_requests_total")
}
