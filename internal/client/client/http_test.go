package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/folio/internal/client/models"
)

func newTestServer(t *testing.T, setup func(r chi.Router)) *HTTPClient {
	t.Helper()
	r := chi.NewRouter()
	setup(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, WithRequestIDGenerator(func() string { return "req-1" }))
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNew_NormalizesBaseURL(t *testing.T) {
	c, err := New("  api.example:8080/ ")
	require.NoError(t, err)
	assert.Equal(t, "http://api.example:8080", c.baseURL)

	c, err = New("")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8080", c.baseURL)

	_, err = New("http://bad host\x7f")
	require.Error(t, err)
}

func TestDo_SetsHeaders(t *testing.T) {
	var gotAuth, gotReqID, gotCT string
	c := newTestServer(t, func(r chi.Router) {
		r.Post("/echo", func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotReqID = r.Header.Get("X-Request-ID")
			gotCT = r.Header.Get("Content-Type")
			w.WriteHeader(http.StatusNoContent)
		})
	})

	resp, err := c.Do(context.Background(), http.MethodPost, "/echo", "tok", map[string]string{"a": "b"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.Status)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "req-1", gotReqID)
	assert.Equal(t, "application/json", gotCT)
}

func TestDo_NoTokenNoAuthHeader(t *testing.T) {
	var hasAuth bool
	c := newTestServer(t, func(r chi.Router) {
		r.Get("/x", func(w http.ResponseWriter, r *http.Request) {
			_, hasAuth = r.Header["Authorization"]
		})
	})

	_, err := c.Do(context.Background(), http.MethodGet, "/x", "", nil)
	require.NoError(t, err)
	assert.False(t, hasAuth)
}

func TestDo_NetworkFailureWrapsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(url)
	require.NoError(t, err)

	_, err = c.Do(context.Background(), http.MethodGet, "/x", "", nil)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestDo_CancelledContextIsNotUnavailable(t *testing.T) {
	c := newTestServer(t, func(r chi.Router) {
		r.Get("/slow", func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		})
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Do(ctx, http.MethodGet, "/slow", "", nil)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnavailable))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAPIError_Unwrap(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusBadGateway, ErrUnavailable},
		{http.StatusTooManyRequests, ErrUnavailable},
	}
	for _, tt := range tests {
		err := (&Response{Status: tt.status, Body: []byte(`{"error":"boom"}`)}).AsError()
		require.ErrorIs(t, err, tt.want)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "boom", apiErr.Message)
	}

	err := (&Response{Status: http.StatusConflict, Body: []byte("plain text")}).AsError()
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Nil(t, apiErr.Unwrap())
	assert.Equal(t, "api request failed (409): plain text", err.Error())

	assert.NoError(t, (&Response{Status: http.StatusOK}).AsError())
}

func TestAuthenticate(t *testing.T) {
	c := newTestServer(t, func(r chi.Router) {
		r.Post(PathLogin, func(w http.ResponseWriter, r *http.Request) {
			var req loginRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			switch req.Email {
			case "a@b.com":
				writeJSON(w, http.StatusOK, map[string]string{"token": "tok-a"})
			case "empty@b.com":
				writeJSON(w, http.StatusOK, map[string]string{})
			case "down@b.com":
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "maintenance"})
			case "busy@b.com":
				writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "slow down"})
			case "banned@b.com":
				writeJSON(w, http.StatusForbidden, map[string]string{"error": "locked"})
			default:
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "bad credentials"})
			}
		})
	})
	ctx := context.Background()

	tok, err := c.Authenticate(ctx, "a@b.com", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "tok-a", tok)

	_, err = c.Authenticate(ctx, "nobody@b.com", []byte("x"))
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = c.Authenticate(ctx, "empty@b.com", []byte("x"))
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = c.Authenticate(ctx, "down@b.com", []byte("x"))
	require.ErrorIs(t, err, ErrUnavailable)
	assert.False(t, errors.Is(err, ErrInvalidCredentials))

	_, err = c.Authenticate(ctx, "banned@b.com", []byte("x"))
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = c.Authenticate(ctx, "busy@b.com", []byte("x"))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)
	assert.Equal(t, "slow down", apiErr.Message)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.False(t, errors.Is(err, ErrInvalidCredentials))
}

func TestInvalidateSession(t *testing.T) {
	var calls atomic.Int32
	c := newTestServer(t, func(r chi.Router) {
		r.Post(PathLogout, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			if r.Header.Get("Authorization") != "Bearer good" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
	})

	require.NoError(t, c.InvalidateSession(context.Background(), "good"))
	require.ErrorIs(t, c.InvalidateSession(context.Background(), "bad"), ErrUnauthorized)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchIdentityAndAccount_ReturnRawResponses(t *testing.T) {
	c := newTestServer(t, func(r chi.Router) {
		r.Get(PathIdentity, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"id": "u1"})
		})
		r.Get(PathPaperAccount, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
	})
	ctx := context.Background()

	resp, err := c.FetchIdentity(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.JSONEq(t, `{"id":"u1"}`, string(resp.Body))

	resp, err = c.FetchPaperAccount(ctx, "tok")
	require.NoError(t, err, "a 404 is a response, not a transport error")
	assert.Equal(t, http.StatusNotFound, resp.Status)
}

func TestUpdatePreferences(t *testing.T) {
	var body map[string]any
	c := newTestServer(t, func(r chi.Router) {
		r.Patch(PathPreferences, func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "Bearer expired" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			writeJSON(w, http.StatusOK, map[string]string{"preferred_currency": "EUR"})
		})
	})
	eur := "EUR"

	ack, err := c.UpdatePreferences(context.Background(), "tok", models.PreferencesPatch{PreferredCurrency: &eur})
	require.NoError(t, err)
	assert.Equal(t, "EUR", ack.PreferredCurrency)
	assert.Equal(t, map[string]any{"preferred_currency": "EUR"}, body)

	_, err = c.UpdatePreferences(context.Background(), "expired", models.PreferencesPatch{PreferredCurrency: &eur})
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestCompleteOnboarding(t *testing.T) {
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	c := newTestServer(t, func(r chi.Router) {
		r.Post(PathCompleteOnboarding, func(w http.ResponseWriter, r *http.Request) {
			switch r.Header.Get("Authorization") {
			case "Bearer empty":
				w.WriteHeader(http.StatusOK)
			case "Bearer bad":
				writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "incomplete"})
			default:
				writeJSON(w, http.StatusOK, map[string]any{"onboarding_completed_at": at})
			}
		})
	})
	ctx := context.Background()

	ack, err := c.CompleteOnboarding(ctx, "tok")
	require.NoError(t, err)
	require.NotNil(t, ack.OnboardingCompletedAt)
	assert.True(t, at.Equal(*ack.OnboardingCompletedAt))

	ack, err = c.CompleteOnboarding(ctx, "empty")
	require.NoError(t, err)
	assert.Nil(t, ack.OnboardingCompletedAt)

	_, err = c.CompleteOnboarding(ctx, "bad")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, "incomplete", apiErr.Message)
}

func TestPing(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	c := newTestServer(t, func(r chi.Router) {
		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			if healthy.Load() {
				w.WriteHeader(http.StatusOK)
				return
			}
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	})

	require.NoError(t, c.Ping(context.Background()))
	healthy.Store(false)
	require.ErrorIs(t, c.Ping(context.Background()), ErrUnavailable)
}

func TestWithRateLimit(t *testing.T) {
	c, err := New("http://x", WithRateLimit(0))
	require.NoError(t, err)
	assert.Nil(t, c.limiter)

	c, err = New("http://x", WithRateLimit(0.5))
	require.NoError(t, err)
	require.NotNil(t, c.limiter)
	assert.Equal(t, 1, c.limiter.Burst())
}
