// Package errs defines the structured error taxonomy shared by the HTTP API,
// the search service, and the ingestion pipeline. Every user-visible failure
// carries a Kind so clients can branch programmatically instead of parsing
// message strings.
package errs

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for API consumers.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindDocumentFormat  Kind = "document_format"
	KindNotFound        Kind = "not_found"
	KindUnauthorized    Kind = "unauthorized"
	KindNotReady        Kind = "not_ready"
	KindIngestionFailed Kind = "ingestion_failed"
	KindRateLimited     Kind = "rate_limited"
	KindInternal        Kind = "internal"
)

// Error is a kinded error with an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a kinded error.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a kinded error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the Kind from err, or KindInternal if err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps a kind to its HTTP status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation, KindDocumentFormat:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotReady:
		return http.StatusConflict
	case KindIngestionFailed:
		return http.StatusUnprocessableEntity
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// WriteJSON writes err as a structured JSON error response.
func WriteJSON(w http.ResponseWriter, err error) {
	kind := KindOf(err)
	message := err.Error()
	var e *Error
	if errors.As(err, &e) {
		message = e.Message
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(HTTPStatus(kind))
	json.NewEncoder(w).Encode(errorBody{Error: errorDetail{Kind: kind, Message: message}})
}

// FromJSON reconstructs a kinded error from a response body produced by
// WriteJSON. Used by the client SDK.
func FromJSON(statusCode int, body []byte) error {
	var b errorBody
	if err := json.Unmarshal(body, &b); err == nil && b.Error.Kind != "" {
		return New(b.Error.Kind, b.Error.Message)
	}
	return Newf(KindInternal, "unexpected response (status %d)", statusCode)
}
