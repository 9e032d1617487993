package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/dmitrijs2005/folio/internal/client/credentials"
	"github.com/dmitrijs2005/folio/internal/client/metrics"
	"github.com/dmitrijs2005/folio/internal/client/models"
	"github.com/dmitrijs2005/folio/internal/client/readiness"
	"github.com/dmitrijs2005/folio/internal/client/redirect"
	"github.com/dmitrijs2005/folio/internal/client/resolvers"
	"github.com/dmitrijs2005/folio/internal/client/tokens"
	"github.com/dmitrijs2005/folio/internal/common"
	"github.com/dmitrijs2005/folio/internal/logging"
)

// Navigator is the navigation layer the coordinator drives once mounted.
type Navigator interface {
	CurrentRoute() redirect.Route
	Navigate(to redirect.Route)
}

// Notifier shows short user-visible notices.
type Notifier interface {
	Notify(msg string)
}

type NotifierFunc func(msg string)

func (f NotifierFunc) Notify(msg string) { f(msg) }

// Notices shown to the user.
const (
	NoticeSessionExpired = "Your session has expired. Please log in again."
	NoticeLoginFailed    = "Login failed. Please try again."
)

// DefaultExpiryCheckInterval replaces a non-positive watcher interval.
const DefaultExpiryCheckInterval = 30 * time.Second

// DebugSnapshot is a structured dump of the coordinator's internal flags.
type DebugSnapshot struct {
	Generation        uint64          `json:"generation"`
	Initialized       bool            `json:"initialized"`
	SuppressInit      bool            `json:"suppress_initialize"`
	Mounted           bool            `json:"mounted"`
	HasToken          bool            `json:"has_token"`
	TokenExpiresAt    *time.Time      `json:"token_expires_at,omitempty"`
	ExpiryNoticeShown bool            `json:"expiry_notice_shown"`
	AccountOwner      string          `json:"account_owner,omitempty"`
	Subscribers       int             `json:"subscribers"`
	Phase             redirect.Phase  `json:"phase"`
	Target            redirect.Target `json:"target"`
	Error             string          `json:"error,omitempty"`
	State             readiness.State `json:"state"`
}

type mount struct {
	nav Navigator
}

// SessionCoordinator owns the session lifecycle. It is the only writer of
// the readiness state and of the credential store.
//
// Every transition happens under mu and ends in a full readiness.Compute.
// Network calls run outside mu; each one is tagged with the generation it
// was started in, and results from an older generation are dropped.
// Subscribers and the navigator are called after mu is released, in commit
// order. They must not call coordinator methods synchronously.
type SessionCoordinator struct {
	backend   Backend
	auth      AuthService
	store     credentials.Store
	inspector *tokens.Inspector
	identity  *resolvers.IdentityResolver
	account   *resolvers.AccountResolver
	policy    *redirect.Policy
	log       logging.Logger
	metrics   *metrics.Metrics
	notifier  Notifier
	tracer    trace.Tracer
	now       func() time.Time

	flight singleflight.Group

	// Deliveries run in commit order: commit n waits until n-1 was published.
	pubMu     sync.Mutex
	pubCond   *sync.Cond
	published uint64
	mounted   atomic.Pointer[mount]

	mu           sync.Mutex
	gen          uint64
	token        string
	tokenExpiry  time.Time
	in           readiness.Inputs
	state        readiness.State
	initialized  bool
	suppressInit bool
	initSkipped  bool // Initialize returned early for a pending login
	noticeShown  bool
	accountArm   uint64
	refreshArm   uint64
	subs         map[int]func(readiness.State)
	nextSub      int
	seq          uint64
}

// Option configures a SessionCoordinator.
type Option func(*SessionCoordinator)

func WithLogger(l logging.Logger) Option {
	return func(c *SessionCoordinator) {
		if l != nil {
			c.log = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *SessionCoordinator) { c.metrics = m }
}

func WithNotifier(n Notifier) Option {
	return func(c *SessionCoordinator) {
		if n != nil {
			c.notifier = n
		}
	}
}

func WithPolicy(p *redirect.Policy) Option {
	return func(c *SessionCoordinator) {
		if p != nil {
			c.policy = p
		}
	}
}

// WithClock overrides time.Now for token expiry checks and local patches.
func WithClock(now func() time.Time) Option {
	return func(c *SessionCoordinator) {
		if now != nil {
			c.now = now
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(c *SessionCoordinator) { c.tracer = t }
}

// NewSessionCoordinator wires a coordinator over backend and store.
func NewSessionCoordinator(backend Backend, store credentials.Store, opts ...Option) *SessionCoordinator {
	c := &SessionCoordinator{
		backend:  backend,
		store:    store,
		policy:   redirect.DefaultPolicy(),
		log:      logging.Discard(),
		notifier: NotifierFunc(func(string) {}),
		now:      time.Now,
		subs:     make(map[int]func(readiness.State)),
	}
	c.pubCond = sync.NewCond(&c.pubMu)
	for _, opt := range opts {
		opt(c)
	}

	c.inspector = tokens.NewInspector(tokens.WithClock(c.now))
	c.auth = NewAuthService(backend, c.tracer)
	c.identity = resolvers.NewIdentityResolver(backend, resolvers.WithMetrics(c.metrics), resolvers.WithTracer(c.tracer))
	c.account = resolvers.NewAccountResolver(backend, resolvers.WithMetrics(c.metrics), resolvers.WithTracer(c.tracer))
	c.state = readiness.Compute(c.in)
	return c
}

// Initialize reads the stored token and resolves the session. It runs once
// per mount; later calls are no-ops, as is the first call after Login.
//
// Transport failures are retained in the state rather than returned. The
// returned error is non-nil only when the credential store could not be read.
func (c *SessionCoordinator) Initialize(ctx context.Context) error {
	c.mu.Lock()
	if c.initialized {
		c.mu.Unlock()
		return nil
	}
	c.initialized = true
	if c.suppressInit {
		c.suppressInit = false
		c.initSkipped = true
		c.mu.Unlock()
		c.log.Debug(ctx, "initialize suppressed by login")
		return nil
	}
	gen := c.gen
	c.mu.Unlock()

	token, storeErr := c.store.Get(ctx)
	if storeErr != nil {
		c.log.Warn(ctx, "failed to read stored token", "error", storeErr)
		token = ""
	}

	insp := c.inspector.Inspect(token)
	if !insp.Usable() {
		c.mu.Lock()
		if c.gen != gen {
			c.mu.Unlock()
			return nil
		}
		if token != "" {
			if err := c.store.Clear(ctx); err != nil {
				c.log.Warn(ctx, "failed to clear unusable token", "error", err)
			}
			c.log.Info(ctx, "discarded unusable stored token", "valid", insp.Valid, "expired", insp.Expired)
		}
		c.setSignedOutLocked()
		c.commitAndUnlock(ctx, "")

		if storeErr != nil {
			return fmt.Errorf("read credentials: %w", storeErr)
		}
		return nil
	}

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return nil
	}
	c.token = token
	c.tokenExpiry = insp.ExpiresAt()
	c.in = readiness.Inputs{TokenPresent: true, IdentityStatus: readiness.StatusLoading}
	c.commitAndUnlock(ctx, "")

	if err := c.resolveSession(ctx, gen, token); err != nil {
		c.log.Warn(ctx, "session initialization incomplete", "error", err)
	}
	return nil
}

// Login exchanges creds for a token, stores it and resolves the session,
// including the paper account of an onboarded user, before returning.
// The password is wiped once sent.
func (c *SessionCoordinator) Login(ctx context.Context, creds models.Credentials) error {
	c.mu.Lock()
	c.suppressInit = !c.initialized
	c.mu.Unlock()

	var insp tokens.Inspection
	token, err := c.auth.Login(ctx, creds.Email, creds.Password)
	if err == nil {
		insp = c.inspector.Inspect(token)
		switch {
		case !insp.Valid:
			err = fmt.Errorf("%w: %w", common.ErrInvalidCredentials, common.ErrInvalidToken)
		case insp.Expired:
			err = fmt.Errorf("%w: %w", common.ErrInvalidCredentials, common.ErrTokenExpired)
		}
	}
	if err != nil {
		c.mu.Lock()
		rerun := c.abortLoginLocked()
		c.mu.Unlock()
		c.resumeInitialize(ctx, rerun)

		if errors.Is(err, common.ErrInvalidCredentials) {
			c.metrics.RecordLogin("invalid_credentials")
			return err
		}
		c.metrics.RecordLogin("error")
		c.notifier.Notify(NoticeLoginFailed)
		return err
	}

	c.mu.Lock()
	if err := c.store.Set(ctx, token); err != nil {
		rerun := c.abortLoginLocked()
		c.mu.Unlock()
		c.resumeInitialize(ctx, rerun)

		c.metrics.RecordLogin("error")
		c.notifier.Notify(NoticeLoginFailed)
		return fmt.Errorf("store token: %w", err)
	}
	c.initSkipped = false
	c.gen++
	gen := c.gen
	c.token = token
	c.tokenExpiry = insp.ExpiresAt()
	c.noticeShown = false
	c.in = readiness.Inputs{TokenPresent: true, IdentityStatus: readiness.StatusLoading}
	c.commitAndUnlock(ctx, "")

	c.log.Info(ctx, "logged in", "email", creds.Email)

	if err := c.resolveSession(ctx, gen, token); err != nil {
		c.metrics.RecordLogin("error")
		if !errors.Is(err, common.ErrSessionExpired) {
			c.notifier.Notify(NoticeLoginFailed)
		}
		return err
	}
	c.metrics.RecordLogin("success")
	return nil
}

// Logout revokes the token on the server if possible, then clears all local
// session state and navigates to the login route. Server failures are
// logged and ignored.
func (c *SessionCoordinator) Logout(ctx context.Context) error {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()

	if token == "" {
		if stored, err := c.store.Get(ctx); err == nil {
			token = stored
		}
	}
	if token != "" {
		if err := c.auth.Logout(ctx, token); err != nil {
			c.log.Warn(ctx, "server-side logout failed", "error", err)
		}
	}

	c.mu.Lock()
	clearErr := c.store.Clear(ctx)
	c.gen++
	c.suppressInit = false
	c.setSignedOutLocked()
	c.commitAndUnlock(ctx, redirect.RouteLogin)

	c.metrics.RecordLogout()
	c.log.Info(ctx, "logged out")

	if clearErr != nil {
		return fmt.Errorf("clear credentials: %w", clearErr)
	}
	return nil
}

// UpdatePreferences sends patch and applies it locally once the server
// accepted it. A 401 expires the session and yields ErrSessionExpired.
func (c *SessionCoordinator) UpdatePreferences(ctx context.Context, patch models.PreferencesPatch) error {
	if patch.IsEmpty() {
		return nil
	}
	token, gen, userID, err := c.activeSession()
	if err != nil {
		return err
	}

	ack, err := c.backend.UpdatePreferences(ctx, token, patch)
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			return c.expireSession(ctx, gen, "update_preferences")
		}
		return fmt.Errorf("update preferences: %w", err)
	}
	if ack != nil && ack.PreferredCurrency != "" {
		cur := ack.PreferredCurrency
		patch.PreferredCurrency = &cur
	}

	c.mu.Lock()
	if c.gen != gen || c.in.User == nil || c.in.User.ID != userID {
		c.mu.Unlock()
		return nil
	}
	c.in.User = c.in.User.ApplyPreferences(patch)
	c.commitAndUnlock(ctx, "")
	return nil
}

// CompleteOnboarding marks the user as onboarded on the server, patches the
// profile and immediately fetches the paper account. A 401 expires the
// session and yields ErrSessionExpired.
func (c *SessionCoordinator) CompleteOnboarding(ctx context.Context) error {
	token, gen, userID, err := c.activeSession()
	if err != nil {
		return err
	}

	ack, err := c.backend.CompleteOnboarding(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			return c.expireSession(ctx, gen, "complete_onboarding")
		}
		return fmt.Errorf("complete onboarding: %w", err)
	}
	at := c.now()
	if ack != nil && ack.OnboardingCompletedAt != nil {
		at = *ack.OnboardingCompletedAt
	}

	c.mu.Lock()
	if c.gen != gen || c.in.User == nil || c.in.User.ID != userID {
		c.mu.Unlock()
		return nil
	}
	c.in.User = c.in.User.MarkOnboarded(at)
	arm := c.armAccountLocked(userID)
	c.commitAndUnlock(ctx, "")

	if err := c.fetchAccount(ctx, gen, arm, token, userID); errors.Is(err, common.ErrSessionExpired) {
		return err
	}
	return nil
}

// Revalidate re-resolves the identity behind the stored token, replacing
// the profile wholesale.
func (c *SessionCoordinator) Revalidate(ctx context.Context) error {
	c.mu.Lock()
	token, gen := c.token, c.gen
	c.mu.Unlock()

	if token == "" {
		return common.ErrNoSession
	}
	if !c.inspector.Inspect(token).Usable() {
		return c.expireSession(ctx, gen, "token_expiry")
	}
	return c.resolveSession(ctx, gen, token)
}

// RefreshAccount re-queries the paper account, typically after the user
// created one. It never reuses a fetch started by anything but another
// refresh still in flight, so it observes an account created before the
// call.
func (c *SessionCoordinator) RefreshAccount(ctx context.Context) error {
	c.mu.Lock()
	st := c.state
	token, gen := c.token, c.gen
	switch {
	case !st.IsAuthenticated:
		c.mu.Unlock()
		return common.ErrNoSession
	case !st.HasCompletedOnboarding:
		c.mu.Unlock()
		return common.ErrAccountNotApplicable
	}
	userID := c.in.User.ID
	arm := c.accountArm
	if c.refreshArm != arm || c.in.AccountOwner != userID || c.in.AccountStatus != readiness.StatusLoading {
		arm = c.armAccountLocked(userID)
		c.refreshArm = arm
		c.commitAndUnlock(ctx, "")
	} else {
		c.mu.Unlock()
	}

	return c.fetchAccount(ctx, gen, arm, token, userID)
}

// PingBackend reports whether the backend answers its liveness check. It
// does not touch session state.
func (c *SessionCoordinator) PingBackend(ctx context.Context) error {
	if err := c.auth.Ping(ctx); err != nil {
		c.log.Debug(ctx, "backend ping failed", "error", err)
		return err
	}
	return nil
}

// StartExpiryWatcher checks the token's exp claim every interval and
// expires the session once it passed. It blocks until ctx is done.
func (c *SessionCoordinator) StartExpiryWatcher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		c.log.Warn(ctx, "invalid expiry check interval, using default", "interval", interval, "default", DefaultExpiryCheckInterval)
		interval = DefaultExpiryCheckInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.checkExpiry(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (c *SessionCoordinator) checkExpiry(ctx context.Context) {
	c.mu.Lock()
	token, gen, expiry := c.token, c.gen, c.tokenExpiry
	c.mu.Unlock()

	if token == "" || c.now().Before(expiry) {
		return
	}
	_ = c.expireSession(ctx, gen, "token_expiry")
}

// State returns the current readiness snapshot.
func (c *SessionCoordinator) State() readiness.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// GetRedirectTarget returns where the session belongs, ignoring the
// current route.
func (c *SessionCoordinator) GetRedirectTarget() redirect.Target {
	return c.policy.Target(c.State())
}

// RedirectFor returns where a user on route should be sent.
func (c *SessionCoordinator) RedirectFor(route redirect.Route) redirect.Target {
	return c.policy.Decide(c.State(), route)
}

// ShouldRedirect reports whether a user on route should be sent elsewhere.
// It is always false until the state is ready.
func (c *SessionCoordinator) ShouldRedirect(route redirect.Route) bool {
	return c.RedirectFor(route) != redirect.TargetNone
}

// Subscribe registers fn for every committed state change. It returns a
// function that removes the subscription.
func (c *SessionCoordinator) Subscribe(fn func(readiness.State)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

// Mount attaches nav and applies the redirect policy to the current state.
// Unmounting stops navigation and debug logging. In-flight fetches still
// complete and update the state, and the next Mount runs Initialize again.
func (c *SessionCoordinator) Mount(nav Navigator) (unmount func()) {
	m := &mount{nav: nav}
	c.mounted.Store(m)

	c.mu.Lock()
	st := c.state
	seq := c.nextSeqLocked()
	c.mu.Unlock()

	c.publish(seq, func() {
		if c.mounted.Load() == m {
			c.applyRedirect(context.Background(), m, st, "")
		}
	})

	var once sync.Once
	return func() {
		once.Do(func() {
			if c.mounted.CompareAndSwap(m, nil) {
				c.mu.Lock()
				c.initialized = false
				c.mu.Unlock()
			}
		})
	}
}

// Debug returns a snapshot of the coordinator's internal flags. It has no
// side effects.
func (c *SessionCoordinator) Debug() DebugSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := DebugSnapshot{
		Generation:        c.gen,
		Initialized:       c.initialized,
		SuppressInit:      c.suppressInit,
		Mounted:           c.mounted.Load() != nil,
		HasToken:          c.token != "",
		ExpiryNoticeShown: c.noticeShown,
		AccountOwner:      c.in.AccountOwner,
		Subscribers:       len(c.subs),
		Phase:             redirect.PhaseOf(c.state),
		Target:            c.policy.Target(c.state),
		Error:             c.state.ErrorMessage(),
		State:             c.state,
	}
	if !c.tokenExpiry.IsZero() && c.token != "" {
		exp := c.tokenExpiry.UTC()
		snap.TokenExpiresAt = &exp
	}
	return snap
}

// resolveSession fetches the identity for token and, for an onboarded user,
// the paper account. It returns the transport error or ErrSessionExpired.
func (c *SessionCoordinator) resolveSession(ctx context.Context, gen uint64, token string) error {
	out := c.identity.Resolve(ctx, token)

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return nil
	}

	switch out.Kind {
	case resolvers.IdentityUnauthorized:
		c.mu.Unlock()
		return c.expireSession(ctx, gen, "identity")

	case resolvers.IdentityFailed:
		if c.in.IdentityStatus != readiness.StatusPresent {
			c.in.IdentityStatus = readiness.StatusFailed
		}
		c.in.IdentityErr = out.Err
		c.commitAndUnlock(ctx, "")
		return out.Err
	}

	user := out.User
	if prev := c.in.User; prev == nil || prev.ID != user.ID {
		c.in.AccountOwner = ""
		c.in.AccountStatus = readiness.StatusUnknown
		c.in.Account = nil
		c.in.AccountErr = nil
	}
	c.in.IdentityStatus = readiness.StatusPresent
	c.in.User = user
	c.in.IdentityErr = nil

	needAccount := user.HasCompletedOnboarding && (c.in.AccountOwner != user.ID ||
		c.in.AccountStatus == readiness.StatusUnknown || c.in.AccountStatus == readiness.StatusFailed)
	var arm uint64
	if needAccount {
		arm = c.armAccountLocked(user.ID)
	}
	c.commitAndUnlock(ctx, "")

	if needAccount {
		return c.fetchAccount(ctx, gen, arm, token, user.ID)
	}
	return nil
}

// armAccountLocked marks the account of userID as loading and returns the
// arm id of the fetch that may settle it. Completions of older arms are
// dropped.
func (c *SessionCoordinator) armAccountLocked(userID string) uint64 {
	c.accountArm++
	c.in.AccountOwner = userID
	c.in.AccountStatus = readiness.StatusLoading
	c.in.AccountErr = nil
	return c.accountArm
}

// fetchAccount resolves the paper account of userID for arm. Callers of the
// same arm share one request, which runs detached from any single caller:
// a caller whose ctx ends gets ctx.Err() while the request still settles
// the state.
func (c *SessionCoordinator) fetchAccount(ctx context.Context, gen, arm uint64, token, userID string) error {
	key := strconv.FormatUint(gen, 10) + "/" + userID + "/" + strconv.FormatUint(arm, 10)
	shared := context.WithoutCancel(ctx)
	ch := c.flight.DoChan(key, func() (any, error) {
		return nil, c.settleAccount(shared, gen, arm, token, userID)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *SessionCoordinator) settleAccount(ctx context.Context, gen, arm uint64, token, userID string) error {
	out := c.account.Resolve(ctx, token)

	if out.Kind == resolvers.AccountPresent && out.Account.UserID != userID {
		out = resolvers.AccountOutcome{
			Kind: resolvers.AccountFailed,
			Err:  fmt.Errorf("%w: paper account belongs to another user", common.ErrInvalidResponse),
		}
	}

	c.mu.Lock()
	if c.gen != gen || c.accountArm != arm || c.in.User == nil || c.in.User.ID != userID || c.in.AccountOwner != userID {
		c.mu.Unlock()
		return nil
	}

	switch out.Kind {
	case resolvers.AccountUnauthorized:
		c.mu.Unlock()
		return c.expireSession(ctx, gen, "account")
	case resolvers.AccountPresent:
		c.in.AccountStatus = readiness.StatusPresent
		c.in.Account = out.Account
		c.in.AccountErr = nil
	case resolvers.AccountAbsent:
		c.in.AccountStatus = readiness.StatusAbsent
		c.in.Account = nil
		c.in.AccountErr = nil
	default:
		c.in.AccountStatus = readiness.StatusFailed
		c.in.Account = nil
		c.in.AccountErr = out.Err
	}
	c.commitAndUnlock(ctx, "")
	return out.Err
}

// expireSession is the single path for every 401 and for local token
// expiry. It shows at most one notice per session.
func (c *SessionCoordinator) expireSession(ctx context.Context, gen uint64, source string) error {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return common.ErrSessionExpired
	}
	c.gen++
	if err := c.store.Clear(ctx); err != nil {
		c.log.Error(ctx, "failed to clear expired token", "error", err)
	}
	notify := !c.noticeShown
	c.noticeShown = true
	c.setSignedOutLocked()
	c.commitAndUnlock(ctx, redirect.RouteLogin)

	c.metrics.RecordSessionExpiry(source)
	c.log.Info(ctx, "session expired", "source", source)
	if notify {
		c.notifier.Notify(NoticeSessionExpired)
	}
	return common.ErrSessionExpired
}

// activeSession returns the token, generation and user of an authenticated
// session, or ErrNoSession.
func (c *SessionCoordinator) activeSession() (string, uint64, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == "" || !c.state.IsAuthenticated || c.in.User == nil {
		return "", 0, "", common.ErrNoSession
	}
	return c.token, c.gen, c.in.User.ID, nil
}

// abortLoginLocked drops the suppression set by a failed Login. It reports
// whether an Initialize was skipped for that login and must run now.
func (c *SessionCoordinator) abortLoginLocked() bool {
	c.suppressInit = false
	if !c.initSkipped {
		return false
	}
	c.initSkipped = false
	c.initialized = false
	return true
}

// resumeInitialize runs the Initialize a failed Login suppressed. It is
// detached from the login's cancellation.
func (c *SessionCoordinator) resumeInitialize(ctx context.Context, rerun bool) {
	if !rerun {
		return
	}
	if err := c.Initialize(context.WithoutCancel(ctx)); err != nil {
		c.log.Warn(ctx, "resumed initialization failed", "error", err)
	}
}

func (c *SessionCoordinator) setSignedOutLocked() {
	c.initSkipped = false
	c.token = ""
	c.tokenExpiry = time.Time{}
	c.in = readiness.Inputs{IdentityStatus: readiness.StatusAbsent}
}

// commitAndUnlock recomputes the state and publishes it. It must be called
// with mu held and returns with mu released. A non-empty force route is
// navigated to before the redirect policy runs.
func (c *SessionCoordinator) commitAndUnlock(ctx context.Context, force redirect.Route) {
	st := readiness.Compute(c.in)
	prev := c.state
	c.state = st

	subs := make([]func(readiness.State), 0, len(c.subs))
	for id := 0; id < c.nextSub; id++ {
		if fn, ok := c.subs[id]; ok {
			subs = append(subs, fn)
		}
	}
	seq := c.nextSeqLocked()
	c.mu.Unlock()

	c.publish(seq, func() {
		c.metrics.SetReady(st.IsReady)
		for _, fn := range subs {
			fn(st)
		}

		m := c.mounted.Load()
		if m == nil {
			return
		}
		if prev.IsReady != st.IsReady || prev.IsAuthenticated != st.IsAuthenticated ||
			prev.IdentityStatus != st.IdentityStatus || prev.AccountStatus != st.AccountStatus {
			c.log.Debug(ctx, "readiness changed",
				"phase", string(redirect.PhaseOf(st)),
				"ready", st.IsReady,
				"authenticated", st.IsAuthenticated,
				"identity", st.IdentityStatus.String(),
				"account", st.AccountStatus.String(),
			)
		}
		c.applyRedirect(ctx, m, st, force)
	})
}

func (c *SessionCoordinator) nextSeqLocked() uint64 {
	c.seq++
	return c.seq
}

// publish runs deliver once every earlier sequence number was published.
func (c *SessionCoordinator) publish(seq uint64, deliver func()) {
	c.pubMu.Lock()
	for c.published != seq-1 {
		c.pubCond.Wait()
	}
	c.pubMu.Unlock()

	defer func() {
		c.pubMu.Lock()
		c.published = seq
		c.pubCond.Broadcast()
		c.pubMu.Unlock()
	}()
	deliver()
}

func (c *SessionCoordinator) applyRedirect(ctx context.Context, m *mount, st readiness.State, force redirect.Route) {
	if force != "" && m.nav.CurrentRoute() != force {
		c.metrics.RecordRedirect(string(redirect.TargetLogin))
		m.nav.Navigate(force)
	}

	route := m.nav.CurrentRoute()
	t := c.policy.Decide(st, route)
	dest, ok := t.Route()
	if !ok {
		return
	}
	c.log.Debug(ctx, "redirecting", "from", string(route), "to", string(dest))
	c.metrics.RecordRedirect(string(t))
	m.nav.Navigate(dest)
}
