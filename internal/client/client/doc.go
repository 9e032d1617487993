// Package client contains the transport building blocks of the folio client.
//
// # Overview
//
// The package provides:
//  1. HTTPClient, a REST client for the folio backend. It injects the bearer
//     token and a request id, rate-limits outbound calls, traces every
//     request and returns raw Responses so the session resolvers can
//     classify status codes themselves.
//  2. Typed helpers for the calls whose outcome is not classified by a
//     resolver: Authenticate, InvalidateSession, UpdatePreferences,
//     CompleteOnboarding and Ping.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) wiring an
//     SQLite database and applying the embedded goose migrations.
//
// # Error Handling
//
// Non-2xx replies become *APIError, which unwraps to ErrUnauthorized (401),
// ErrNotFound (404) or ErrUnavailable (5xx). Network failures wrap
// ErrUnavailable. Rejected logins wrap ErrInvalidCredentials.
//
// Concurrency & Contexts
//
// HTTPClient is safe for concurrent use. All operations accept
// context.Context and honor cancellation.
package client
