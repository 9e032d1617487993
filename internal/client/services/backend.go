package services

//go:generate mockgen -source=backend.go -destination=mocks/backend_mock.go -package=mocks

import (
	"context"

	"github.com/dmitrijs2005/folio/internal/client/client"
	"github.com/dmitrijs2005/folio/internal/client/models"
)

// Authenticator exchanges credentials for tokens and revokes them.
type Authenticator interface {
	Authenticate(ctx context.Context, email string, password []byte) (string, error)
	InvalidateSession(ctx context.Context, token string) error
	Ping(ctx context.Context) error
}

// Backend is everything the session layer needs from the API.
// *client.HTTPClient implements it.
type Backend interface {
	Authenticator

	FetchIdentity(ctx context.Context, token string) (*client.Response, error)
	FetchPaperAccount(ctx context.Context, token string) (*client.Response, error)

	UpdatePreferences(ctx context.Context, token string, patch models.PreferencesPatch) (*client.PreferencesAck, error)
	CompleteOnboarding(ctx context.Context, token string) (*client.OnboardingAck, error)
}

var _ Backend = (*client.HTTPClient)(nil)
