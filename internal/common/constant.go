// Package common contains shared constants and sentinel errors used across
// folio client components.
package common

// AuthorizationHeaderName is the HTTP header carrying the bearer credential
// on outbound requests.
const AuthorizationHeaderName = "Authorization"

// RequestIDHeaderName is the HTTP header carrying the per-request id.
const RequestIDHeaderName = "X-Request-ID"

// AccessTokenKey is the metadata key the bearer token is persisted under.
// It is the only piece of session state that survives a restart.
const AccessTokenKey = "access_token"
