package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnavailable           = errors.New("server unavailable")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrUnexpectedContentType = errors.New("unexpected content type")
)

// Operation labels used in TransportError messages.
const (
	OpProcessRequest = "Processing Request"
	OpHistoryRequest = "History Request"
)

// TransportError is a non-2xx response from the backend.
type TransportError struct {
	Op         string
	StatusCode int
	StatusText string
	Body       string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s Failed: %s", e.Op, e.StatusText)
}

// Unwrap maps the status code onto a sentinel, if any.
func (e *TransportError) Unwrap() error {
	return mapStatus(e.StatusCode)
}

func mapStatus(code int) error {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return ErrUnavailable
	default:
		return nil
	}
}
