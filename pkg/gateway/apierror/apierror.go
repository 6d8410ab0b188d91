// Package apierror defines the JSON error envelope the HTTP surface speaks.
package apierror

import (
	"encoding/json"
	"net/http"
)

// Error codes used by the HTTP handlers.
const (
	CodeBadRequest  = "bad_request"
	CodeNotFound    = "not_found"
	CodeRateLimited = "rate_limited"
	CodeOverloaded  = "overloaded"
	CodeInternal    = "internal_error"
)

// Error is the wire shape of one API failure.
type Error struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Param     string `json:"param,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Envelope wraps an Error for the response body.
type Envelope struct {
	Error *Error `json:"error"`
}

// Write serializes the envelope with the given HTTP status.
func Write(w http.ResponseWriter, status int, e *Error) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{Error: e})
}

// StatusFor maps an error code to its HTTP status.
func StatusFor(code string) int {
	switch code {
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeOverloaded:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
