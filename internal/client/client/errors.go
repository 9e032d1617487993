package client

import (
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/folio/internal/common"
)

// Sentinel errors re-exported for callers that only import this package.
var (
	ErrUnavailable        = common.ErrUnavailable
	ErrUnauthorized       = common.ErrUnauthorized
	ErrNotFound           = common.ErrNotFound
	ErrInvalidCredentials = common.ErrInvalidCredentials
)

// APIError is a non-2xx response from the backend. It unwraps to the
// matching sentinel so callers can use errors.Is(err, ErrUnauthorized).
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api request failed with status %d", e.Status)
	}
	return fmt.Sprintf("api request failed (%d): %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusUnauthorized:
		return ErrUnauthorized
	case e.Status == http.StatusNotFound:
		return ErrNotFound
	case e.Status >= http.StatusInternalServerError, e.Status == http.StatusTooManyRequests:
		return ErrUnavailable
	default:
		return nil
	}
}
