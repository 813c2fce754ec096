// Package errors renders failures as RFC 7807 Problem Details.
package errors

import (
	"fmt"
	"net/http"
)

// ProblemDetail is the body of an application/problem+json response.
// See: https://www.rfc-editor.org/rfc/rfc7807
type ProblemDetail struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
	// Extensions carries problem-specific members such as the statuses of a rejected transition.
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (p ProblemDetail) Error() string {
	if p.Detail != "" {
		return fmt.Sprintf("%s: %s", p.Title, p.Detail)
	}
	return p.Title
}

// WithDetail returns a copy with the given detail message.
func (p ProblemDetail) WithDetail(detail string) ProblemDetail {
	p.Detail = detail
	return p
}

// WithExtension returns a copy with one more extension member. The receiver's map is never mutated.
func (p ProblemDetail) WithExtension(key string, value any) ProblemDetail {
	extensions := make(map[string]any, len(p.Extensions)+1)
	for k, v := range p.Extensions {
		extensions[k] = v
	}
	extensions[key] = value
	p.Extensions = extensions
	return p
}

// Problem type URIs. Clients switch on these, so they are stable.
const (
	TypeValidation        = "/problems/validation-error"
	TypeBadRequest        = "/problems/bad-request"
	TypeUnauthorized      = "/problems/unauthorized"
	TypeForbidden         = "/problems/forbidden"
	TypeNotFound          = "/problems/not-found"
	TypeConflict          = "/problems/conflict"
	TypeInvalidTransition = "/problems/invalid-transition"
	TypeTooManyRequests   = "/problems/too-many-requests"
	TypeInternal          = "/problems/internal-error"
)

var (
	ErrValidation = ProblemDetail{Type: TypeValidation, Title: "Validation Error", Status: http.StatusBadRequest}
	ErrBadRequest = ProblemDetail{Type: TypeBadRequest, Title: "Bad Request", Status: http.StatusBadRequest}
	// ErrUnauthorized means the caller is not authenticated.
	ErrUnauthorized = ProblemDetail{Type: TypeUnauthorized, Title: "Unauthorized", Status: http.StatusUnauthorized}
	// ErrForbidden means the caller is authenticated but has no standing on the resource.
	ErrForbidden = ProblemDetail{Type: TypeForbidden, Title: "Forbidden", Status: http.StatusForbidden}
	ErrNotFound  = ProblemDetail{Type: TypeNotFound, Title: "Resource Not Found", Status: http.StatusNotFound}
	// ErrConflict reports a concurrent modification or a duplicate resource.
	ErrConflict          = ProblemDetail{Type: TypeConflict, Title: "Conflict", Status: http.StatusConflict}
	ErrInvalidTransition = ProblemDetail{Type: TypeInvalidTransition, Title: "Status Change Not Allowed", Status: http.StatusConflict}
	ErrTooManyRequests   = ProblemDetail{Type: TypeTooManyRequests, Title: "Too Many Requests", Status: http.StatusTooManyRequests}
	ErrInternal          = ProblemDetail{Type: TypeInternal, Title: "Internal Server Error", Status: http.StatusInternalServerError}
)

// NewValidationProblem lists the offending fields.
func NewValidationProblem(fieldErrors map[string]string) ProblemDetail {
	return ErrValidation.WithExtension("fields", fieldErrors)
}

// NewNotFoundProblem names the missing resource.
func NewNotFoundProblem(resourceType string, identifier any) ProblemDetail {
	return ErrNotFound.
		WithDetail(fmt.Sprintf("%s '%v' not found", resourceType, identifier)).
		WithExtension("resourceType", resourceType).
		WithExtension("identifier", identifier)
}

// NewInvalidTransitionProblem reports a status change the lifecycle does not permit from the current status.
func NewInvalidTransitionProblem(current, requested string, allowed []string) ProblemDetail {
	if allowed == nil {
		allowed = []string{}
	}
	return ErrInvalidTransition.
		WithDetail(fmt.Sprintf("cannot change status from %s to %s", current, requested)).
		WithExtension("currentStatus", current).
		WithExtension("requestedStatus", requested).
		WithExtension("allowedStatuses", allowed)
}
