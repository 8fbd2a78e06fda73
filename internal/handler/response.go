package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"metro/internal/repository"
	"metro/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
// Storage and unexpected failures are logged via c.Error and answered with
// a generic message.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	msg := err.Error()
	switch code {
	case http.StatusServiceUnavailable:
		_ = c.Error(err)
		msg = "storage temporarily unavailable, please retry"
	case http.StatusInternalServerError:
		_ = c.Error(err)
		msg = "internal server error"
	}
	c.JSON(code, ErrorResponse{Error: msg})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	var storage *service.StorageError

	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidPassengerID),
		errors.Is(err, service.ErrInvalidStationID),
		errors.Is(err, service.ErrInvalidTicketID),
		errors.Is(err, service.ErrInvalidLineID),
		errors.Is(err, service.ErrInvalidActorID),
		errors.Is(err, service.ErrInvalidDirection),
		errors.Is(err, service.ErrInvalidCode),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrSameStation),
		errors.Is(err, service.ErrSelfLoopConnection),
		errors.Is(err, service.ErrNoPath):
		return http.StatusBadRequest

	// Payment required
	case errors.Is(err, service.ErrInsufficientBalance):
		return http.StatusPaymentRequired

	// Conflict errors
	case errors.Is(err, service.ErrIllegalTransition),
		errors.Is(err, service.ErrScanInProgress),
		errors.Is(err, service.ErrNoActiveLine),
		errors.Is(err, repository.ErrDuplicate):
		return http.StatusConflict

	// Retryable storage failures
	case errors.As(err, &storage):
		return http.StatusServiceUnavailable

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
