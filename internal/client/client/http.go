package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/dmitrijs2005/folio/internal/client/models"
	"github.com/dmitrijs2005/folio/internal/common"
)

// Backend endpoints.
const (
	PathLogin              = "/api/v1/auth/login"
	PathLogout             = "/api/v1/auth/logout"
	PathIdentity           = "/api/v1/me"
	PathPreferences        = "/api/v1/me/preferences"
	PathCompleteOnboarding = "/api/v1/me/onboarding/complete"
	PathPaperAccount       = "/api/v1/paper-account"
)

// Response is a raw backend reply. Resolvers classify it themselves so the
// transport never decides what a status code means for the session.
type Response struct {
	Status int
	Body   []byte
}

// HTTPClient talks to the folio REST backend.
type HTTPClient struct {
	baseURL      string
	httpClient   *http.Client
	limiter      *rate.Limiter
	newRequestID func() string
	tracer       trace.Tracer
}

// Option customises client instantiation.
type Option func(*HTTPClient)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *HTTPClient) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRateLimit caps outbound requests per second; rps <= 0 disables it.
func WithRateLimit(rps float64) Option {
	return func(c *HTTPClient) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRequestIDGenerator overrides how X-Request-ID values are produced.
func WithRequestIDGenerator(fn func() string) Option {
	return func(c *HTTPClient) {
		if fn != nil {
			c.newRequestID = fn
		}
	}
}

// WithTracer injects a tracer; the global provider is used otherwise.
func WithTracer(t trace.Tracer) Option {
	return func(c *HTTPClient) {
		if t != nil {
			c.tracer = t
		}
	}
}

// New constructs an HTTPClient pointing at the provided API base URL.
func New(base string, opts ...Option) (*HTTPClient, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		trimmed = "http://127.0.0.1:8080"
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "http://" + trimmed
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}

	c := &HTTPClient{
		baseURL:      strings.TrimRight(trimmed, "/"),
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		newRequestID: uuid.NewString,
		tracer:       otel.Tracer("folio/client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Do performs one request and returns the raw response. The error is non-nil
// only when no response was received; it then wraps ErrUnavailable unless
// the context was cancelled.
func (c *HTTPClient) Do(ctx context.Context, method, path, token string, body any) (*Response, error) {
	ctx, span := c.tracer.Start(ctx, "folio.http "+method+" "+path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		))
	defer span.End()

	resp, err := c.do(ctx, method, path, token, body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.Status))
	return resp, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path, token string, body any) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(common.RequestIDHeaderName, c.newRequestID())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if v := common.BearerValue(token); v != "" {
		req.Header.Set(common.AuthorizationHeaderName, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("perform request: %w", ctxErr)
		}
		return nil, fmt.Errorf("perform request: %w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w: %w", ErrUnavailable, err)
	}
	return &Response{Status: resp.StatusCode, Body: data}, nil
}

// AsError converts a non-2xx response into an *APIError; 2xx yields nil.
func (r *Response) AsError() error {
	if r.Status >= 200 && r.Status < 300 {
		return nil
	}
	return &APIError{Status: r.Status, Message: extractError(r.Body)}
}

func extractError(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return strings.TrimSpace(string(data))
	}
	if payload.Error != "" {
		return strings.TrimSpace(payload.Error)
	}
	return strings.TrimSpace(payload.Message)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Authenticate exchanges credentials for a bearer token. A 400, 401 or 403
// reply and a success reply without a token yield ErrInvalidCredentials;
// every other failure, 429 included, is returned as an *APIError.
func (c *HTTPClient) Authenticate(ctx context.Context, email string, password []byte) (string, error) {
	resp, err := c.Do(ctx, http.MethodPost, PathLogin, "", loginRequest{Email: email, Password: string(password)})
	if err != nil {
		return "", err
	}
	switch resp.Status {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		return "", fmt.Errorf("%w: %w", ErrInvalidCredentials, resp.AsError())
	}
	if err := resp.AsError(); err != nil {
		return "", err
	}

	var lr loginResponse
	if err := json.Unmarshal(resp.Body, &lr); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	if strings.TrimSpace(lr.Token) == "" {
		return "", ErrInvalidCredentials
	}
	return strings.TrimSpace(lr.Token), nil
}

// InvalidateSession asks the backend to revoke token.
func (c *HTTPClient) InvalidateSession(ctx context.Context, token string) error {
	resp, err := c.Do(ctx, http.MethodPost, PathLogout, token, nil)
	if err != nil {
		return err
	}
	return resp.AsError()
}

// FetchIdentity returns the raw identity reply.
func (c *HTTPClient) FetchIdentity(ctx context.Context, token string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, PathIdentity, token, nil)
}

// FetchPaperAccount returns the raw paper account reply.
func (c *HTTPClient) FetchPaperAccount(ctx context.Context, token string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, PathPaperAccount, token, nil)
}

// PreferencesAck is the backend's acknowledgement of a preferences update.
type PreferencesAck struct {
	PreferredCurrency string `json:"preferred_currency"`
}

// UpdatePreferences sends a partial preferences update.
func (c *HTTPClient) UpdatePreferences(ctx context.Context, token string, patch models.PreferencesPatch) (*PreferencesAck, error) {
	resp, err := c.Do(ctx, http.MethodPatch, PathPreferences, token, patch)
	if err != nil {
		return nil, err
	}
	if err := resp.AsError(); err != nil {
		return nil, err
	}

	ack := &PreferencesAck{}
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return ack, nil
	}
	if err := json.Unmarshal(resp.Body, ack); err != nil {
		return nil, fmt.Errorf("decode preferences ack: %w", err)
	}
	return ack, nil
}

// OnboardingAck is the backend's acknowledgement of onboarding completion.
type OnboardingAck struct {
	OnboardingCompletedAt *time.Time `json:"onboarding_completed_at"`
}

// CompleteOnboarding marks the user's onboarding as finished.
func (c *HTTPClient) CompleteOnboarding(ctx context.Context, token string) (*OnboardingAck, error) {
	resp, err := c.Do(ctx, http.MethodPost, PathCompleteOnboarding, token, nil)
	if err != nil {
		return nil, err
	}
	if err := resp.AsError(); err != nil {
		return nil, err
	}

	ack := &OnboardingAck{}
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return ack, nil
	}
	if err := json.Unmarshal(resp.Body, ack); err != nil {
		return nil, fmt.Errorf("decode onboarding ack: %w", err)
	}
	return ack, nil
}

// Ping reports whether the backend answers at all.
func (c *HTTPClient) Ping(ctx context.Context) error {
	resp, err := c.Do(ctx, http.MethodGet, "/healthz", "", nil)
	if err != nil {
		return err
	}
	if resp.Status >= http.StatusInternalServerError {
		return resp.AsError()
	}
	return nil
}
