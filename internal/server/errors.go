package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	checkoutdomain "github.com/shuddhilabs/shuddhi/internal/checkout/domain"
	creditdomain "github.com/shuddhilabs/shuddhi/internal/credit/domain"
	gatewaydomain "github.com/shuddhilabs/shuddhi/internal/gateway/domain"
	orderdomain "github.com/shuddhilabs/shuddhi/internal/order/domain"
	plandomain "github.com/shuddhilabs/shuddhi/internal/plan/domain"
	reconciledomain "github.com/shuddhilabs/shuddhi/internal/reconcile/domain"
	subdomain "github.com/shuddhilabs/shuddhi/internal/subscription/domain"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrTooManyRequests = errors.New("too_many_requests")
	ErrInvalidRequest  = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	var gwErr *gatewaydomain.GatewayError
	if errors.As(err, &gwErr) {
		return http.StatusBadGateway, errorPayload{
			Type:    "gateway_error",
			Message: "payment gateway error",
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, reconciledomain.ErrSignatureInvalid):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, checkoutdomain.ErrPlanNotPurchasable),
		errors.Is(err, checkoutdomain.ErrPlanNotRecurring),
		errors.Is(err, plandomain.ErrPlanInactive),
		errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}
	case errors.Is(err, creditdomain.ErrInsufficientCredits):
		return http.StatusPaymentRequired, errorPayload{
			Type:    "insufficient_credits",
			Message: "insufficient word credits",
		}
	case errors.Is(err, reconciledomain.ErrPaymentNotCaptured),
		errors.Is(err, reconciledomain.ErrPaymentMismatch),
		errors.Is(err, orderdomain.ErrOrderAlreadyPaid):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, plandomain.ErrPlanNotFound),
		errors.Is(err, orderdomain.ErrOrderNotFound),
		errors.Is(err, subdomain.ErrSubscriptionNotFound),
		errors.Is(err, subdomain.ErrMandateNotFound),
		errors.Is(err, reconciledomain.ErrUnknownOrder),
		errors.Is(err, reconciledomain.ErrUnknownSubscription),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	status, payload := mapError(err)
	if status >= http.StatusInternalServerError {
		return payload.Type, err.Error()
	}
	return payload.Type, payload.Message
}
