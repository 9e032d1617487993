package resolvers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/folio/internal/client/client"
	"github.com/dmitrijs2005/folio/internal/client/metrics"
	"github.com/dmitrijs2005/folio/internal/client/models"
)

// IdentitySource fetches the current identity.
type IdentitySource interface {
	FetchIdentity(ctx context.Context, token string) (*client.Response, error)
}

// IdentityKind tags an IdentityOutcome.
type IdentityKind int

const (
	IdentityOK IdentityKind = iota
	IdentityUnauthorized
	IdentityFailed
)

func (k IdentityKind) String() string {
	switch k {
	case IdentityOK:
		return "ok"
	case IdentityUnauthorized:
		return "unauthorized"
	case IdentityFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IdentityOutcome is the classified result of an identity fetch. User is set
// only for IdentityOK, Err only for IdentityFailed.
type IdentityOutcome struct {
	Kind IdentityKind
	User *models.UserProfile
	Err  error
}

type identityDTO struct {
	ID                     string     `json:"id" validate:"required"`
	Email                  string     `json:"email" validate:"required,email"`
	IsActive               bool       `json:"is_active"`
	IsAdmin                bool       `json:"is_admin"`
	HasCompletedOnboarding bool       `json:"has_completed_onboarding"`
	PreferredCurrency      string     `json:"preferred_currency" validate:"omitempty,len=3,alpha"`
	OnboardingCompletedAt  *time.Time `json:"onboarding_completed_at"`
}

func (d identityDTO) toModel() *models.UserProfile {
	u := &models.UserProfile{
		ID:                     d.ID,
		Email:                  d.Email,
		IsActive:               d.IsActive,
		IsAdmin:                d.IsAdmin,
		HasCompletedOnboarding: d.HasCompletedOnboarding,
		PreferredCurrency:      strings.ToUpper(d.PreferredCurrency),
	}
	if d.OnboardingCompletedAt != nil {
		at := d.OnboardingCompletedAt.UTC()
		u.OnboardingCompletedAt = &at
	}
	return u
}

// IdentityResolver resolves a token into a user profile.
type IdentityResolver struct {
	src  IdentitySource
	opts options
}

// NewIdentityResolver returns an IdentityResolver reading from src.
func NewIdentityResolver(src IdentitySource, opts ...Option) *IdentityResolver {
	return &IdentityResolver{src: src, opts: newOptions(opts)}
}

// Resolve fetches and classifies the identity behind token.
func (r *IdentityResolver) Resolve(ctx context.Context, token string) IdentityOutcome {
	ctx, span := startSpan(ctx, r.opts.tracer, "resolvers.Identity")
	start := time.Now()

	out := r.resolve(ctx, token)

	r.opts.metrics.ObserveFetch(metrics.ResourceIdentity, out.Kind.String(), time.Since(start))
	endSpan(span, out.Kind.String(), out.Err)
	return out
}

func (r *IdentityResolver) resolve(ctx context.Context, token string) IdentityOutcome {
	resp, err := r.src.FetchIdentity(ctx, token)
	if err != nil {
		return IdentityOutcome{Kind: IdentityFailed, Err: err}
	}

	switch {
	case resp.Status == http.StatusUnauthorized:
		return IdentityOutcome{Kind: IdentityUnauthorized}
	case resp.Status < 200 || resp.Status >= 300:
		return IdentityOutcome{Kind: IdentityFailed, Err: resp.AsError()}
	}

	var dto identityDTO
	if err := decode(resp, &dto); err != nil {
		return IdentityOutcome{Kind: IdentityFailed, Err: err}
	}
	return IdentityOutcome{Kind: IdentityOK, User: dto.toModel()}
}
