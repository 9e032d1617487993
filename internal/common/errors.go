// Package common defines shared constants and sentinel errors used across
// the client layers of folio. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Transport-level errors.
	ErrUnauthorized = errors.New("unauthorized")
	ErrUnavailable  = errors.New("server unavailable")
	ErrNotFound     = errors.New("not found")

	// Session errors.
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrSessionExpired       = errors.New("session expired")
	ErrNoSession            = errors.New("no active session")
	ErrAccountNotApplicable = errors.New("paper account is not applicable for the current user")

	// Token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Response validation.
	ErrInvalidResponse = errors.New("invalid response payload")
)
