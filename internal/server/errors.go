package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	dispatchdomain "github.com/smallbiznis/dropin/internal/dispatch/domain"
	journaldomain "github.com/smallbiznis/dropin/internal/journal/domain"
	paymentsdomain "github.com/smallbiznis/dropin/internal/payments/domain"
)

var (
	ErrNotFound           = errors.New("not_found")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

// APIError is the wire shape of every failed response.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *APIError) Error() string { return e.Message }

func invalidRequestError() *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "invalid_request",
		Message: "request body is not valid JSON",
	}
}

func newValidationError(field, code, message string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    code,
		Field:   field,
		Message: message,
	}
}

// AbortWithError maps domain errors onto HTTP responses.
func AbortWithError(c *gin.Context, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		c.AbortWithStatusJSON(apiErr.Status, gin.H{"error": apiErr})
		return
	}

	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, journaldomain.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "not_found", "message": "resource not found"}})
	case errors.Is(err, paymentsdomain.ErrUnknownVariant):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "unknown_variant", "message": err.Error()}})
	case errors.Is(err, paymentsdomain.ErrMissingType), errors.Is(err, paymentsdomain.ErrInvalidPayload):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "invalid_payload", "message": err.Error()}})
	case errors.Is(err, dispatchdomain.ErrQueueFull), errors.Is(err, dispatchdomain.ErrStopped), errors.Is(err, ErrServiceUnavailable):
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": gin.H{"code": "service_unavailable", "message": "try again later"}})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": gin.H{"code": "internal_error", "message": "internal error"}})
	}
}
