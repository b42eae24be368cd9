package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"towdispatch/internal/repository"
	"towdispatch/internal/service"
)

// ErrorResponse represents an error response. For evidence-gate
// failures the required/actual counts are part of the contract so the
// client can render an actionable message.
type ErrorResponse struct {
	Error    string `json:"error"`
	Phase    string `json:"phase,omitempty"`
	Required int    `json:"required,omitempty"`
	Actual   int    `json:"actual,omitempty"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	resp := ErrorResponse{Error: err.Error()}

	var gate *service.EvidenceGateError
	if errors.As(err, &gate) {
		resp.Phase = string(gate.Phase)
		resp.Required = gate.Required
		resp.Actual = gate.Actual
	}

	c.JSON(code, resp)
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidJobID),
		errors.Is(err, service.ErrInvalidDriverID),
		errors.Is(err, service.ErrInvalidActorID),
		errors.Is(err, service.ErrInvalidRequestID),
		errors.Is(err, service.ErrUnknownRejectionReason),
		errors.Is(err, service.ErrEmptyEvidenceBatch),
		errors.Is(err, service.ErrMissingVehicleType),
		errors.Is(err, service.ErrNoVehicles),
		errors.Is(err, service.ErrUnknownPriceMode),
		errors.Is(err, service.ErrUnknownPriceItem),
		errors.Is(err, service.ErrUnknownSurcharge),
		errors.Is(err, service.ErrInvalidCustomAmount):
		return http.StatusBadRequest

	// Precondition failures
	case errors.Is(err, service.ErrEvidenceRequired),
		errors.Is(err, service.ErrJobCompleted),
		errors.Is(err, service.ErrJobCancelled),
		errors.Is(err, service.ErrJobUnassigned):
		return http.StatusUnprocessableEntity

	// Forbidden/Business rule errors
	case errors.Is(err, service.ErrNotAssignedDriver):
		return http.StatusForbidden

	// Conflict errors
	case errors.Is(err, service.ErrDuplicatePendingRequest),
		errors.Is(err, service.ErrRequestAlreadyDecided),
		errors.Is(err, service.ErrBatchInProgress),
		errors.Is(err, repository.ErrStaleVersion):
		return http.StatusConflict

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
