package errors

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"
)

// ContentTypeProblemJSON is the media type for Problem Details responses.
const ContentTypeProblemJSON = "application/problem+json"

// Responder writes Problem Details responses.
type Responder struct {
	// BaseURI, when set, turns relative problem types into absolute ones.
	BaseURI string
	// Logger receives errors that could not be mapped to a problem. Nil means slog.Default.
	Logger *slog.Logger
}

func NewResponder(baseURI string) *Responder {
	return &Responder{BaseURI: strings.TrimSuffix(baseURI, "/")}
}

// DefaultResponder keeps problem types relative.
var DefaultResponder = NewResponder("")

// Respond aborts the handler chain with problem as the body.
func (r *Responder) Respond(c *gin.Context, problem ProblemDetail) {
	if r.BaseURI != "" && strings.HasPrefix(problem.Type, "/") {
		problem.Type = r.BaseURI + problem.Type
	}
	if problem.Instance == "" {
		problem.Instance = c.Request.URL.Path
	}
	c.Header("Content-Type", ContentTypeProblemJSON)
	c.AbortWithStatusJSON(problem.Status, problem)
}

// RespondError passes a ProblemDetail through unchanged. Any other error is
// logged and answered with a bare 500.
func (r *Responder) RespondError(c *gin.Context, err error) {
	if problem, ok := AsProblem(err); ok {
		r.Respond(c, problem)
		return
	}
	_ = c.Error(err)
	r.logger().ErrorContext(c.Request.Context(), "unhandled request error",
		slog.String("method", c.Request.Method),
		slog.String("path", c.FullPath()),
		slog.String("error", err.Error()),
	)
	r.Respond(c, ErrInternal.WithDetail("unexpected error"))
}

func (r *Responder) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// Respond writes problem with DefaultResponder.
func Respond(c *gin.Context, problem ProblemDetail) {
	DefaultResponder.Respond(c, problem)
}

// AsProblem reports whether err carries a ProblemDetail anywhere in its chain.
func AsProblem(err error) (ProblemDetail, bool) {
	var problem ProblemDetail
	if errors.As(err, &problem) {
		return problem, true
	}
	return ProblemDetail{}, false
}

// ErrorMapper translates a domain or application error into a problem.
type ErrorMapper func(err error) (ProblemDetail, bool)

// ChainedResponder tries its mappers in order and falls back to Responder.RespondError.
type ChainedResponder struct {
	*Responder
	mappers []ErrorMapper
}

func NewChainedResponder(baseURI string, mappers ...ErrorMapper) *ChainedResponder {
	return &ChainedResponder{Responder: NewResponder(baseURI), mappers: mappers}
}

func (r *ChainedResponder) AddMapper(mapper ErrorMapper) {
	r.mappers = append(r.mappers, mapper)
}

// Map returns the first mapped problem for err.
func (r *ChainedResponder) Map(err error) (ProblemDetail, bool) {
	for _, mapper := range r.mappers {
		if problem, ok := mapper(err); ok {
			return problem, true
		}
	}
	return ProblemDetail{}, false
}

func (r *ChainedResponder) RespondError(c *gin.Context, err error) {
	if problem, ok := r.Map(err); ok {
		r.Respond(c, problem)
		return
	}
	r.Responder.RespondError(c, err)
}
