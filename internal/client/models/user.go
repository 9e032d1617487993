// Package models defines client-side data models used by the folio session
// layer.
package models

import "time"

// UserProfile is the authenticated user as returned by the identity endpoint.
// It is replaced wholesale on every successful fetch; the only local edits
// are the shallow patches produced by ApplyPreferences and MarkOnboarded.
type UserProfile struct {
	// ID is the server-assigned user identifier.
	ID string `json:"id"`

	// Email is the login email.
	Email string `json:"email"`

	IsActive bool `json:"is_active"`
	IsAdmin  bool `json:"is_admin"`

	// HasCompletedOnboarding gates access to the paper account.
	HasCompletedOnboarding bool `json:"has_completed_onboarding"`

	// PreferredCurrency is an ISO-4217 code, e.g. "USD".
	PreferredCurrency string `json:"preferred_currency"`

	// OnboardingCompletedAt is set once onboarding finished, in UTC.
	OnboardingCompletedAt *time.Time `json:"onboarding_completed_at,omitempty"`
}

// Clone returns a deep copy of u. A nil receiver yields nil.
func (u *UserProfile) Clone() *UserProfile {
	if u == nil {
		return nil
	}
	c := *u
	if u.OnboardingCompletedAt != nil {
		at := *u.OnboardingCompletedAt
		c.OnboardingCompletedAt = &at
	}
	return &c
}

// ApplyPreferences returns a copy of u with the non-nil fields of p applied.
func (u *UserProfile) ApplyPreferences(p PreferencesPatch) *UserProfile {
	c := u.Clone()
	if c == nil {
		return nil
	}
	if p.PreferredCurrency != nil {
		c.PreferredCurrency = *p.PreferredCurrency
	}
	return c
}

// MarkOnboarded returns a copy of u flagged as onboarded at the given time.
func (u *UserProfile) MarkOnboarded(at time.Time) *UserProfile {
	c := u.Clone()
	if c == nil {
		return nil
	}
	at = at.UTC()
	c.HasCompletedOnboarding = true
	c.OnboardingCompletedAt = &at
	return c
}

// PreferencesPatch is a partial update of user preferences. Nil fields are
// left untouched.
type PreferencesPatch struct {
	PreferredCurrency *string `json:"preferred_currency,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p PreferencesPatch) IsEmpty() bool {
	return p.PreferredCurrency == nil
}

// Credentials are the email/password pair exchanged for a bearer token.
// Password is a byte slice so callers can wipe it after use.
type Credentials struct {
	Email    string
	Password []byte
}
