// Package errors renders failures as RFC 7807 problem documents.
package errors

import (
	"fmt"
	"net/http"
)

// ProblemDetail is the application/problem+json body (RFC 7807).
type ProblemDetail struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
	// Extensions carries per-problem fields such as the short product of a failed sale.
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (p ProblemDetail) Error() string {
	if p.Detail == "" {
		return p.Title
	}
	return p.Title + ": " + p.Detail
}

// WithDetail returns a copy with the given detail message.
func (p ProblemDetail) WithDetail(detail string) ProblemDetail {
	p.Detail = detail
	return p
}

// WithExtension returns a copy carrying one more extension member. The template's map is never shared.
func (p ProblemDetail) WithExtension(key string, value any) ProblemDetail {
	ext := make(map[string]any, len(p.Extensions)+1)
	for k, v := range p.Extensions {
		ext[k] = v
	}
	ext[key] = value
	p.Extensions = ext
	return p
}

// Problem type references, relative unless a responder is given a base URI.
const (
	TypeValidation   = "/problems/validation-error"
	TypeNotFound     = "/problems/not-found"
	TypeConflict     = "/problems/conflict"
	TypeInternal     = "/problems/internal-error"
	TypeUnauthorized = "/problems/unauthorized"
	TypeForbidden    = "/problems/forbidden"
	TypeBadRequest   = "/problems/bad-request"
	TypeOutOfStock   = "/problems/insufficient-stock"
	TypeIdempotency  = "/problems/idempotency-conflict"
)

func template(typ, title string, status int) ProblemDetail {
	return ProblemDetail{Type: typ, Title: title, Status: status}
}

// Templates. Handlers copy them with WithDetail.
var (
	ErrNotFound          = template(TypeNotFound, "Resource Not Found", http.StatusNotFound)
	ErrValidation        = template(TypeValidation, "Validation Error", http.StatusBadRequest)
	ErrBadRequest        = template(TypeBadRequest, "Bad Request", http.StatusBadRequest)
	ErrConflict          = template(TypeConflict, "Conflict", http.StatusConflict)
	ErrInternal          = template(TypeInternal, "Internal Server Error", http.StatusInternalServerError)
	ErrUnauthorized      = template(TypeUnauthorized, "Unauthorized", http.StatusUnauthorized)
	ErrForbidden         = template(TypeForbidden, "Forbidden", http.StatusForbidden)
	ErrOutOfStock        = template(TypeOutOfStock, "Insufficient Stock", http.StatusConflict)
	ErrIdempotencyReused = template(TypeIdempotency, "Idempotency Key Reused", http.StatusConflict)
)

// NewOutOfStockProblem describes the first product a sale could not cover.
func NewOutOfStockProblem(productID int64, productName string, requested, available int) ProblemDetail {
	return ErrOutOfStock.
		WithDetail(fmt.Sprintf("Not enough stock for %s: requested %d, available %d", productName, requested, available)).
		WithExtension("productId", productID).
		WithExtension("requested", requested).
		WithExtension("available", available)
}

// NewNotFoundProblem names the missing resource and its identifier.
func NewNotFoundProblem(resourceType string, identifier any) ProblemDetail {
	return ErrNotFound.
		WithDetail(fmt.Sprintf("%s %v not found", resourceType, identifier)).
		WithExtension("resourceType", resourceType).
		WithExtension("identifier", identifier)
}
