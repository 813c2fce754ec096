package marketserver

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	listingapp "github.com/Apurer/go-gin-marketplace/internal/domains/listings/application"
	listingports "github.com/Apurer/go-gin-marketplace/internal/domains/listings/ports"
	orderapp "github.com/Apurer/go-gin-marketplace/internal/domains/orders/application"
	orderdomain "github.com/Apurer/go-gin-marketplace/internal/domains/orders/domain"
	orderports "github.com/Apurer/go-gin-marketplace/internal/domains/orders/ports"
	userapp "github.com/Apurer/go-gin-marketplace/internal/domains/users/application"
	userports "github.com/Apurer/go-gin-marketplace/internal/domains/users/ports"
	apierrors "github.com/Apurer/go-gin-marketplace/internal/shared/errors"
)

// responder turns service errors into problem responses. Mapper order matters:
// InvalidTransitionError wraps a status error and has to be matched before generic invalid input.
var responder = apierrors.NewChainedResponder("",
	mapOrderError,
	mapListingError,
	mapUserError,
)

func respondError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	responder.RespondError(c, err)
}

// respondBindingError reports malformed payloads, listing the failing fields when the validator says which.
func respondBindingError(c *gin.Context, err error) {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		fields := make(map[string]string, len(fieldErrs))
		for _, fe := range fieldErrs {
			fields[fe.Field()] = "failed on " + fe.Tag()
		}
		apierrors.Respond(c, apierrors.NewValidationProblem(fields))
		return
	}
	apierrors.Respond(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
}

func mapOrderError(err error) (apierrors.ProblemDetail, bool) {
	var invalid *orderdomain.InvalidTransitionError
	switch {
	case errors.As(err, &invalid):
		allowed := orderdomain.AllowedTargets(invalid.From)
		names := make([]string, 0, len(allowed))
		for _, status := range allowed {
			names = append(names, status.String())
		}
		return apierrors.NewInvalidTransitionProblem(invalid.From.String(), invalid.To.String(), names), true
	case errors.Is(err, orderports.ErrNotFound):
		return apierrors.ErrNotFound.WithDetail("order not found"), true
	case errors.Is(err, orderdomain.ErrUnauthorized):
		return apierrors.ErrForbidden.WithDetail("you are not a participant in this order"), true
	case errors.Is(err, orderports.ErrConflict):
		return apierrors.ErrConflict.WithDetail("order was modified concurrently, retry the request"), true
	case errors.Is(err, orderports.ErrIdempotencyConflict):
		return apierrors.ErrConflict.WithDetail("idempotency key was already used for a different request"), true
	case errors.Is(err, orderports.ErrListingNotFound):
		return apierrors.ErrNotFound.WithDetail("listing not found"), true
	case errors.Is(err, orderapp.ErrInvalidInput):
		return apierrors.ErrBadRequest.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}

func mapListingError(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, listingports.ErrNotFound):
		return apierrors.ErrNotFound.WithDetail("listing not found"), true
	case errors.Is(err, listingapp.ErrNotSeller), errors.Is(err, listingapp.ErrNotOwner):
		return apierrors.ErrForbidden.WithDetail(err.Error()), true
	case errors.Is(err, listingapp.ErrInvalidInput):
		return apierrors.ErrBadRequest.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}

func mapUserError(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, userports.ErrNotFound):
		return apierrors.ErrNotFound.WithDetail("user not found"), true
	case errors.Is(err, userports.ErrExists):
		return apierrors.ErrConflict.WithDetail("username or email already taken"), true
	case errors.Is(err, userapp.ErrAuthentication):
		return apierrors.ErrUnauthorized.WithDetail(err.Error()), true
	case errors.Is(err, userapp.ErrForbidden):
		return apierrors.ErrForbidden.WithDetail(err.Error()), true
	case errors.Is(err, userapp.ErrInvalidInput):
		return apierrors.ErrBadRequest.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}
