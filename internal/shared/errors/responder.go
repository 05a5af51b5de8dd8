package errors

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ContentTypeProblemJSON is the media type for problem responses.
const ContentTypeProblemJSON = "application/problem+json"

// ErrorMapper translates one family of errors into a problem. ok=false passes to the next mapper.
type ErrorMapper func(err error) (problem ProblemDetail, ok bool)

// Responder writes problem documents, resolving errors through its mappers in order.
type Responder struct {
	// BaseURI turns relative problem types into absolute ones.
	BaseURI string
	mappers []ErrorMapper
}

// NewChainedResponder builds a responder; mappers run in the order given.
func NewChainedResponder(baseURI string, mappers ...ErrorMapper) *Responder {
	return &Responder{BaseURI: baseURI, mappers: mappers}
}

// DefaultResponder uses relative type URIs and no mappers.
var DefaultResponder = NewChainedResponder("")

// Respond writes problem with its status, defaulting Instance to the request path.
func (r *Responder) Respond(c *gin.Context, problem ProblemDetail) {
	if r.BaseURI != "" && strings.HasPrefix(problem.Type, "/") {
		problem.Type = r.BaseURI + problem.Type
	}
	if problem.Instance == "" {
		problem.Instance = c.Request.URL.Path
	}
	c.Header("Content-Type", ContentTypeProblemJSON)
	c.JSON(problem.Status, problem)
}

// RespondError resolves err with Problem and writes it.
func (r *Responder) RespondError(c *gin.Context, err error) {
	r.Respond(c, r.Problem(err))
}

// Problem resolves err through the mappers without writing a response. Unmapped
// errors that are not already problems become 500s.
func (r *Responder) Problem(err error) ProblemDetail {
	for _, mapper := range r.mappers {
		if problem, ok := mapper(err); ok {
			return problem
		}
	}
	var problem ProblemDetail
	if errors.As(err, &problem) {
		return problem
	}
	return ErrInternal.WithDetail(err.Error())
}

// Forbidden sends a 403 problem response.
func (r *Responder) Forbidden(c *gin.Context, detail string) {
	r.Respond(c, ErrForbidden.WithDetail(detail))
}

// Unauthorized sends a 401 problem response.
func (r *Responder) Unauthorized(c *gin.Context, detail string) {
	r.Respond(c, ErrUnauthorized.WithDetail(detail))
}

// HTTPStatusFromError reports the status a problem error carries, else 500.
func HTTPStatusFromError(err error) int {
	var problem ProblemDetail
	if errors.As(err, &problem) {
		return problem.Status
	}
	return http.StatusInternalServerError
}
