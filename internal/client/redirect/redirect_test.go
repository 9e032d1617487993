package redirect

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrijs2005/folio/internal/client/models"
	"github.com/dmitrijs2005/folio/internal/client/readiness"
)

func stateFor(phase Phase) readiness.State {
	u := &models.UserProfile{ID: "u1", HasCompletedOnboarding: true}
	in := readiness.Inputs{TokenPresent: true, IdentityStatus: readiness.StatusPresent, User: u, AccountOwner: "u1"}

	switch phase {
	case PhasePending:
		in.AccountStatus = readiness.StatusLoading
	case PhaseUnauthenticated:
		in = readiness.Inputs{IdentityStatus: readiness.StatusAbsent}
	case PhaseNeedsOnboarding:
		u.HasCompletedOnboarding = false
	case PhaseNeedsResource:
		in.AccountStatus = readiness.StatusAbsent
	case PhaseFullySetup:
		in.AccountStatus = readiness.StatusPresent
		in.Account = &models.PaperAccount{ID: "p1", UserID: "u1"}
	}
	return readiness.Compute(in)
}

var allRoutes = []Route{
	RouteLogin, RouteRegister, RouteResetPassword, RouteOnboarding,
	RouteAccountSetup, RouteDashboard, "/portfolio", "/settings/profile", "/",
}

func TestPhaseOf(t *testing.T) {
	for _, ph := range []Phase{PhasePending, PhaseUnauthenticated, PhaseNeedsOnboarding, PhaseNeedsResource, PhaseFullySetup} {
		assert.Equal(t, ph, PhaseOf(stateFor(ph)))
	}
}

func TestPolicy_Target(t *testing.T) {
	p := DefaultPolicy()
	tests := map[Phase]Target{
		PhasePending:         TargetNone,
		PhaseUnauthenticated: TargetLogin,
		PhaseNeedsOnboarding: TargetOnboarding,
		PhaseNeedsResource:   TargetResourceSetup,
		PhaseFullySetup:      TargetDashboard,
	}
	for ph, want := range tests {
		st := stateFor(ph)
		assert.Equal(t, want, p.Target(st), ph)
		assert.Equal(t, p.Target(st), p.Target(st), "idempotent for %s", ph)
	}
}

func TestPolicy_NeverRedirectsWhilePending(t *testing.T) {
	p := DefaultPolicy()
	st := stateFor(PhasePending)
	assert.True(t, st.IsResourceLoading)

	for _, r := range allRoutes {
		assert.Equal(t, TargetNone, p.Decide(st, r), r)
	}
}

func TestPolicy_Decide(t *testing.T) {
	p := DefaultPolicy()
	tests := []struct {
		phase Phase
		route Route
		want  Target
	}{
		{PhaseUnauthenticated, "/portfolio", TargetLogin},
		{PhaseUnauthenticated, RouteDashboard, TargetLogin},
		{PhaseUnauthenticated, RouteLogin, TargetNone},
		{PhaseUnauthenticated, RouteRegister, TargetNone},
		{PhaseUnauthenticated, RouteResetPassword, TargetNone},
		{PhaseUnauthenticated, RouteOnboarding, TargetLogin},

		{PhaseNeedsOnboarding, RouteDashboard, TargetOnboarding},
		{PhaseNeedsOnboarding, RouteOnboarding, TargetNone},
		{PhaseNeedsOnboarding, RouteLogin, TargetOnboarding},
		{PhaseNeedsOnboarding, RouteRegister, TargetNone},

		{PhaseNeedsResource, RouteDashboard, TargetResourceSetup},
		{PhaseNeedsResource, RouteAccountSetup, TargetNone},
		{PhaseNeedsResource, RouteOnboarding, TargetResourceSetup},

		{PhaseFullySetup, RouteLogin, TargetDashboard},
		{PhaseFullySetup, RouteOnboarding, TargetDashboard},
		{PhaseFullySetup, RouteAccountSetup, TargetDashboard},
		{PhaseFullySetup, RouteDashboard, TargetNone},
		{PhaseFullySetup, RouteRegister, TargetNone},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, p.Decide(stateFor(tt.phase), tt.route), "%s on %s", tt.phase, tt.route)
	}
}

func TestPolicy_FullySetupLeavesInAppRoutesAlone(t *testing.T) {
	p := DefaultPolicy()
	st := stateFor(PhaseFullySetup)
	for _, r := range []Route{"/portfolio", "/settings/profile", "/strategies/42", RouteDashboard} {
		assert.Equal(t, TargetNone, p.Decide(st, r), r)
	}
}

func TestPolicy_RetainedErrorNeverRedirects(t *testing.T) {
	p := DefaultPolicy()
	st := readiness.Compute(readiness.Inputs{
		TokenPresent:   true,
		IdentityStatus: readiness.StatusFailed,
		IdentityErr:    errors.New("503"),
	})
	assert.True(t, st.IsReady)

	assert.Equal(t, TargetNone, p.Target(st))
	for _, r := range allRoutes {
		assert.Equal(t, TargetNone, p.Decide(st, r), r)
	}
}

func TestPolicy_NormalizesRoutes(t *testing.T) {
	p := DefaultPolicy()
	st := stateFor(PhaseFullySetup)

	assert.Equal(t, TargetDashboard, p.Decide(st, "/login/"))
	assert.Equal(t, TargetDashboard, p.Decide(st, "/login?next=/x"))
	assert.True(t, p.IsPublic("register"))
	assert.True(t, p.IsEntryOnly("/paper-account/setup#top"))
}

func TestNormalizeRoute(t *testing.T) {
	tests := map[string]Route{
		"":                     "/",
		"/":                    "/",
		"///":                  "/",
		" /dashboard/ ":        "/dashboard",
		"dashboard?x=1":        "/dashboard",
		"/a/b#frag":            "/a/b",
		"/paper-account/setup": "/paper-account/setup",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeRoute(in), in)
	}
}

func TestTarget_Route(t *testing.T) {
	r, ok := TargetResourceSetup.Route()
	assert.True(t, ok)
	assert.Equal(t, RouteAccountSetup, r)

	_, ok = TargetNone.Route()
	assert.False(t, ok)
}

func TestPolicy_Custom(t *testing.T) {
	p := NewPolicy([]Route{"/welcome"}, nil)
	st := stateFor(PhaseUnauthenticated)

	assert.Equal(t, TargetNone, p.Decide(st, "/welcome"))
	assert.Equal(t, TargetLogin, p.Decide(st, "/dashboard"))
	assert.Equal(t, TargetNone, p.Decide(stateFor(PhaseFullySetup), RouteLogin))
}
