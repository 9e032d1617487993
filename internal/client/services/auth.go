// Package services contains application services for the folio client.
// This file defines the authentication service: the credential exchange,
// best-effort server-side logout and the backend liveness check.
package services

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrijs2005/folio/internal/common"
)

// AuthService defines authentication operations.
//
// Contract:
//   - Login: exchange credentials for a bearer token. Rejected credentials
//     yield common.ErrInvalidCredentials.
//   - Logout: ask the server to revoke a token.
//   - Ping: check server liveness.
//
// All methods must honor context cancellation/timeouts.
type AuthService interface {
	Login(ctx context.Context, email string, password []byte) (string, error)
	Logout(ctx context.Context, token string) error
	Ping(ctx context.Context) error
}

// authService is the concrete AuthService backed by an Authenticator.
type authService struct {
	backend Authenticator
	tracer  trace.Tracer
}

// NewAuthService constructs an AuthService bound to the given backend.
func NewAuthService(backend Authenticator, tracer trace.Tracer) AuthService {
	if tracer == nil {
		tracer = otel.Tracer("folio/services")
	}
	return &authService{backend: backend, tracer: tracer}
}

// Login wipes password once the exchange is done, whatever the outcome.
func (a *authService) Login(ctx context.Context, email string, password []byte) (string, error) {
	defer common.WipeByteArray(password)

	ctx, span := a.tracer.Start(ctx, "auth.Login", trace.WithAttributes(attribute.String("user.email", email)))
	defer span.End()

	token, err := a.backend.Authenticate(ctx, email, password)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("login error: %w", err)
	}
	if token == "" {
		span.SetStatus(codes.Error, common.ErrInvalidCredentials.Error())
		return "", common.ErrInvalidCredentials
	}
	return token, nil
}

func (a *authService) Logout(ctx context.Context, token string) error {
	ctx, span := a.tracer.Start(ctx, "auth.Logout")
	defer span.End()

	if err := a.backend.InvalidateSession(ctx, token); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("logout error: %w", err)
	}
	return nil
}

// Ping proxies a liveness check to the backend.
func (a *authService) Ping(ctx context.Context) error {
	return a.backend.Ping(ctx)
}
