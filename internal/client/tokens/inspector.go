// Package tokens decodes bearer tokens locally and decides whether they have
// expired. Nothing here touches the network and nothing verifies signatures;
// the backend does that.
package tokens

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of the token payload the client cares about.
type Claims struct {
	UserID string `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

// Inspection is the result of decoding a token.
//
// Valid is false for anything that is not a well-formed JWT; such a token
// must be treated as if there were no token at all. Expired is always true
// when Valid is false.
type Inspection struct {
	Valid   bool
	Expired bool
	Claims  Claims
}

// Usable reports whether the token can be sent to the backend.
func (i Inspection) Usable() bool {
	return i.Valid && !i.Expired
}

// ExpiresAt returns the exp claim, or the zero time when it is missing.
func (i Inspection) ExpiresAt() time.Time {
	if i.Claims.ExpiresAt == nil {
		return time.Time{}
	}
	return i.Claims.ExpiresAt.Time
}

// Inspector decodes tokens against an injectable clock.
type Inspector struct {
	now    func() time.Time
	parser *jwt.Parser
}

// Option configures an Inspector.
type Option func(*Inspector)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(i *Inspector) {
		if now != nil {
			i.now = now
		}
	}
}

// NewInspector returns an Inspector using the wall clock by default.
func NewInspector(opts ...Option) *Inspector {
	i := &Inspector{
		now:    time.Now,
		parser: jwt.NewParser(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Inspect decodes token without verifying it. It never panics and never
// returns an error: every decoding problem yields Valid == false.
func (i *Inspector) Inspect(token string) Inspection {
	token = strings.TrimSpace(token)
	if token == "" || strings.Count(token, ".") != 2 {
		return Inspection{Expired: true}
	}

	var claims Claims
	if _, _, err := i.parser.ParseUnverified(token, &claims); err != nil {
		return Inspection{Expired: true}
	}

	// A token without exp never counts as fresh.
	expired := true
	if claims.ExpiresAt != nil {
		expired = claims.ExpiresAt.Time.Before(i.now())
	}

	return Inspection{Valid: true, Expired: expired, Claims: claims}
}
