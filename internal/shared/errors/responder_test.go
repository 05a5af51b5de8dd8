package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errShort = stderrors.New("short")

func serve(t *testing.T, handler gin.HandlerFunc) (*httptest.ResponseRecorder, ProblemDetail) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/things/:id", handler)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/things/1", nil))
	var body ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestChainedResponder_UsesFirstMatchingMapper(t *testing.T) {
	responder := NewChainedResponder("https://pos.example",
		func(err error) (ProblemDetail, bool) {
			if stderrors.Is(err, errShort) {
				return NewOutOfStockProblem(1, "Pen", 3, 1), true
			}
			return ProblemDetail{}, false
		},
	)

	rec, body := serve(t, func(c *gin.Context) { responder.RespondError(c, errShort) })

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, ContentTypeProblemJSON, rec.Header().Get("Content-Type"))
	assert.Equal(t, "https://pos.example"+TypeOutOfStock, body.Type)
	assert.Equal(t, "/things/1", body.Instance)
	assert.EqualValues(t, 1, body.Extensions["available"])
}

func TestChainedResponder_FallsBackToInternal(t *testing.T) {
	responder := NewChainedResponder("")
	rec, body := serve(t, func(c *gin.Context) { responder.RespondError(c, stderrors.New("boom")) })

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "boom", body.Detail)
}

func TestChainedResponder_PassesProblemsThrough(t *testing.T) {
	responder := NewChainedResponder("")
	assert.Equal(t, http.StatusNotFound, responder.Problem(NewNotFoundProblem("order", 9)).Status)
}

func TestResponder_Forbidden(t *testing.T) {
	rec, body := serve(t, func(c *gin.Context) { DefaultResponder.Forbidden(c, "admins only") })
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "admins only", body.Detail)
}

func TestHTTPStatusFromError(t *testing.T) {
	assert.Equal(t, http.StatusConflict, HTTPStatusFromError(ErrIdempotencyReused))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatusFromError(stderrors.New("x")))
}

func TestWithExtension_DoesNotMutateTemplate(t *testing.T) {
	_ = NewOutOfStockProblem(1, "Pen", 2, 0)
	assert.Nil(t, ErrOutOfStock.Extensions)

	base := ErrConflict.WithExtension("a", 1)
	derived := base.WithExtension("b", 2)
	assert.Len(t, base.Extensions, 1)
	assert.Len(t, derived.Extensions, 2)
}

func TestResponder_Unauthorized(t *testing.T) {
	rec, body := serve(t, func(c *gin.Context) { DefaultResponder.Unauthorized(c, "sign in") })
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, TypeUnauthorized, body.Type)
}
