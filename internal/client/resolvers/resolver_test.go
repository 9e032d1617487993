package resolvers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/folio/internal/client/client"
	"github.com/dmitrijs2005/folio/internal/client/metrics"
	"github.com/dmitrijs2005/folio/internal/common"
)

type stubSource struct {
	resp  *client.Response
	err   error
	token string
}

func (s *stubSource) FetchIdentity(_ context.Context, token string) (*client.Response, error) {
	s.token = token
	return s.resp, s.err
}

func (s *stubSource) FetchPaperAccount(_ context.Context, token string) (*client.Response, error) {
	s.token = token
	return s.resp, s.err
}

func reply(status int, body string) *stubSource {
	return &stubSource{resp: &client.Response{Status: status, Body: []byte(body)}}
}

func TestIdentityResolver_Resolve(t *testing.T) {
	tests := []struct {
		name     string
		src      *stubSource
		wantKind IdentityKind
		wantErr  error
	}{
		{
			name:     "ok",
			src:      reply(http.StatusOK, `{"id":"u1","email":"a@b.com","has_completed_onboarding":true,"preferred_currency":"usd"}`),
			wantKind: IdentityOK,
		},
		{
			name:     "unauthorized",
			src:      reply(http.StatusUnauthorized, `{"error":"expired"}`),
			wantKind: IdentityUnauthorized,
		},
		{
			name:     "server error",
			src:      reply(http.StatusBadGateway, ``),
			wantKind: IdentityFailed,
			wantErr:  common.ErrUnavailable,
		},
		{
			name:     "forbidden is a failure, not unauthorized",
			src:      reply(http.StatusForbidden, ``),
			wantKind: IdentityFailed,
		},
		{
			name:     "network",
			src:      &stubSource{err: common.ErrUnavailable},
			wantKind: IdentityFailed,
			wantErr:  common.ErrUnavailable,
		},
		{
			name:     "garbage body",
			src:      reply(http.StatusOK, `<html>`),
			wantKind: IdentityFailed,
			wantErr:  common.ErrInvalidResponse,
		},
		{
			name:     "missing id",
			src:      reply(http.StatusOK, `{"email":"a@b.com"}`),
			wantKind: IdentityFailed,
			wantErr:  common.ErrInvalidResponse,
		},
		{
			name:     "bad email",
			src:      reply(http.StatusOK, `{"id":"u1","email":"nope"}`),
			wantKind: IdentityFailed,
			wantErr:  common.ErrInvalidResponse,
		},
		{
			name:     "bad currency",
			src:      reply(http.StatusOK, `{"id":"u1","email":"a@b.com","preferred_currency":"DOLLARS"}`),
			wantKind: IdentityFailed,
			wantErr:  common.ErrInvalidResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := NewIdentityResolver(tt.src).Resolve(context.Background(), "tok")

			assert.Equal(t, tt.wantKind, out.Kind)
			assert.Equal(t, "tok", tt.src.token)
			switch tt.wantKind {
			case IdentityOK:
				require.NotNil(t, out.User)
				assert.NoError(t, out.Err)
			case IdentityUnauthorized:
				assert.Nil(t, out.User)
				assert.NoError(t, out.Err)
			case IdentityFailed:
				assert.Nil(t, out.User)
				require.Error(t, out.Err)
			}
			if tt.wantErr != nil {
				assert.ErrorIs(t, out.Err, tt.wantErr)
			}
		})
	}
}

func TestIdentityResolver_MapsProfile(t *testing.T) {
	src := reply(http.StatusOK, `{
		"id":"u1","email":"a@b.com","is_active":true,"is_admin":false,
		"has_completed_onboarding":true,"preferred_currency":"eur",
		"onboarding_completed_at":"2026-01-02T03:04:05+02:00"}`)

	out := NewIdentityResolver(src).Resolve(context.Background(), "tok")
	require.Equal(t, IdentityOK, out.Kind)

	u := out.User
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "a@b.com", u.Email)
	assert.True(t, u.IsActive)
	assert.True(t, u.HasCompletedOnboarding)
	assert.Equal(t, "EUR", u.PreferredCurrency)
	require.NotNil(t, u.OnboardingCompletedAt)
	assert.Equal(t, time.Date(2026, 1, 2, 1, 4, 5, 0, time.UTC), *u.OnboardingCompletedAt)
}

func TestAccountResolver_Resolve(t *testing.T) {
	tests := []struct {
		name     string
		src      *stubSource
		wantKind AccountKind
		wantErr  error
	}{
		{"present", reply(http.StatusOK, `{"id":"p1","user_id":"u1","currency":"USD","cash_balance":100000}`), AccountPresent, nil},
		{"absent", reply(http.StatusNotFound, `{"error":"no account"}`), AccountAbsent, nil},
		{"unauthorized", reply(http.StatusUnauthorized, ``), AccountUnauthorized, nil},
		{"server error", reply(http.StatusInternalServerError, ``), AccountFailed, common.ErrUnavailable},
		{"network", &stubSource{err: errors.New("dial tcp: refused")}, AccountFailed, nil},
		{"missing owner", reply(http.StatusOK, `{"id":"p1"}`), AccountFailed, common.ErrInvalidResponse},
		{"empty body", reply(http.StatusOK, ``), AccountFailed, common.ErrInvalidResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := NewAccountResolver(tt.src).Resolve(context.Background(), "tok")

			assert.Equal(t, tt.wantKind, out.Kind)
			assert.Equal(t, tt.wantKind == AccountPresent, out.Account != nil)
			assert.Equal(t, tt.wantKind == AccountFailed, out.Err != nil)
			if tt.wantErr != nil {
				assert.ErrorIs(t, out.Err, tt.wantErr)
			}
		})
	}
}

func TestAccountResolver_MapsAccount(t *testing.T) {
	src := reply(http.StatusOK, `{"id":"p1","user_id":"u1","currency":"usd","cash_balance":2500.5,"created_at":"2026-02-01T00:00:00Z"}`)

	out := NewAccountResolver(src).Resolve(context.Background(), "tok")
	require.Equal(t, AccountPresent, out.Kind)
	assert.Equal(t, "p1", out.Account.ID)
	assert.Equal(t, "u1", out.Account.UserID)
	assert.Equal(t, "USD", out.Account.Currency)
	assert.InDelta(t, 2500.5, out.Account.CashBalance, 1e-9)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), out.Account.CreatedAt)
}

func TestResolvers_RecordMetrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	NewIdentityResolver(reply(http.StatusUnauthorized, ``), WithMetrics(m)).Resolve(context.Background(), "t")
	NewAccountResolver(reply(http.StatusNotFound, ``), WithMetrics(m)).Resolve(context.Background(), "t")
	NewAccountResolver(reply(http.StatusNotFound, ``), WithMetrics(m)).Resolve(context.Background(), "t")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchesTotal.WithLabelValues(metrics.ResourceIdentity, "unauthorized")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.FetchesTotal.WithLabelValues(metrics.ResourceAccount, "absent")))
}

func TestKindStrings(t *testing.T) {
	assert.Equal(t, "ok", IdentityOK.String())
	assert.Equal(t, "failed", IdentityFailed.String())
	assert.Equal(t, "unknown", IdentityKind(99).String())
	assert.Equal(t, "absent", AccountAbsent.String())
	assert.Equal(t, "unknown", AccountKind(-1).String())
}
