//
//
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/radio-control/cellstate/internal/clocksync"
	"github.com/radio-control/cellstate/internal/modem"
	"github.com/radio-control/cellstate/internal/tracker"
)

// APIError is an error with its HTTP status and envelope code.
type APIError struct {
	Code       string
	Message    string
	Details    interface{}
	StatusCode int
}

// NewAPIError creates an API error.
func NewAPIError(code, message string, statusCode int, details interface{}) *APIError {
	return &APIError{Code: code, Message: message, Details: details, StatusCode: statusCode}
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

var errorTable = []struct {
	target  error
	status  int
	code    string
	message string
}{
	{clocksync.ErrMalformedSignal, http.StatusBadRequest, "BAD_REQUEST", "Malformed network time signal"},
	{clocksync.ErrImplausibleDelay, http.StatusUnprocessableEntity, "REJECTED", "Network time receive delay is implausible"},
	{clocksync.ErrClosed, http.StatusServiceUnavailable, "UNAVAILABLE", "Clock sync is shut down"},
	{clocksync.ErrSetTime, http.StatusInternalServerError, "CLOCK_SET_FAILED", "System clock could not be set"},
	{tracker.ErrDisposed, http.StatusServiceUnavailable, "UNAVAILABLE", "Tracker is shut down"},
	{context.DeadlineExceeded, http.StatusServiceUnavailable, "BUSY", "Tracker did not answer in time, retry with backoff"},
	{modem.ErrRadioNotAvailable, http.StatusServiceUnavailable, "RADIO_NOT_AVAILABLE", "Radio is not available"},
	{modem.ErrOpNotAllowedBeforeReg, http.StatusConflict, "NOT_REGISTERED", "Not allowed before network registration"},
	{modem.ErrRequestNotSupported, http.StatusNotImplemented, "NOT_SUPPORTED", "Request not supported by the radio"},
}

// ToAPIError maps err onto an API error. Unknown errors are internal.
func ToAPIError(err error) *APIError {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	for _, e := range errorTable {
		if errors.Is(err, e.target) {
			return NewAPIError(e.code, e.message, e.status, nil)
		}
	}

	return NewAPIError("INTERNAL", "Internal server error", http.StatusInternalServerError,
		map[string]interface{}{"original": err.Error()})
}
