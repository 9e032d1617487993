// Package redirect maps a readiness.State and the current route to a
// navigation target.
package redirect

import (
	"strings"

	"github.com/dmitrijs2005/folio/internal/client/readiness"
)

// Route is an in-app path.
type Route string

const (
	RouteLogin         Route = "/login"
	RouteRegister      Route = "/register"
	RouteResetPassword Route = "/reset-password"
	RouteOnboarding    Route = "/onboarding"
	RouteAccountSetup  Route = "/paper-account/setup"
	RouteDashboard     Route = "/dashboard"
)

// NormalizeRoute strips the query, fragment and trailing slash from p.
func NormalizeRoute(p string) Route {
	p = strings.TrimSpace(p)
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			p = "/"
		}
	}
	return Route(p)
}

// Target is where the navigation layer should go.
type Target string

const (
	TargetNone          Target = "none"
	TargetLogin         Target = "login"
	TargetOnboarding    Target = "onboarding"
	TargetResourceSetup Target = "resource-setup"
	TargetDashboard     Target = "dashboard"
)

// Route returns the route a target navigates to; TargetNone has none.
func (t Target) Route() (Route, bool) {
	switch t {
	case TargetLogin:
		return RouteLogin, true
	case TargetOnboarding:
		return RouteOnboarding, true
	case TargetResourceSetup:
		return RouteAccountSetup, true
	case TargetDashboard:
		return RouteDashboard, true
	default:
		return "", false
	}
}

// Phase is the setup stage of the session.
type Phase string

const (
	// PhasePending means the state is not ready to be acted on.
	PhasePending         Phase = "pending"
	PhaseUnauthenticated Phase = "unauthenticated"
	PhaseNeedsOnboarding Phase = "needs_onboarding"
	PhaseNeedsResource   Phase = "needs_resource"
	PhaseFullySetup      Phase = "fully_setup"
)

// PhaseOf classifies st.
func PhaseOf(st readiness.State) Phase {
	switch {
	case !st.IsReady:
		return PhasePending
	case !st.IsAuthenticated:
		return PhaseUnauthenticated
	case !st.HasCompletedOnboarding:
		return PhaseNeedsOnboarding
	case st.HasResource:
		return PhaseFullySetup
	case st.IsResourceLoading:
		return PhasePending
	default:
		return PhaseNeedsResource
	}
}

// Policy decides redirects. The zero value has no public or entry-only
// routes; use DefaultPolicy.
type Policy struct {
	public    map[Route]struct{}
	entryOnly map[Route]struct{}
}

// NewPolicy returns a Policy with the given route sets.
//
// Public routes are never redirected away from. Entry-only routes are the
// ones a fully set-up user is sent to the dashboard from. A route in both
// sets is treated as entry-only.
func NewPolicy(public, entryOnly []Route) *Policy {
	p := &Policy{
		public:    make(map[Route]struct{}, len(public)),
		entryOnly: make(map[Route]struct{}, len(entryOnly)),
	}
	for _, r := range public {
		p.public[NormalizeRoute(string(r))] = struct{}{}
	}
	for _, r := range entryOnly {
		p.entryOnly[NormalizeRoute(string(r))] = struct{}{}
	}
	return p
}

// DefaultPolicy returns the application's route policy.
func DefaultPolicy() *Policy {
	return NewPolicy(
		[]Route{RouteLogin, RouteRegister, RouteResetPassword},
		[]Route{RouteLogin, RouteOnboarding, RouteAccountSetup},
	)
}

// IsPublic reports whether r is a public route.
func (p *Policy) IsPublic(r Route) bool {
	_, ok := p.public[NormalizeRoute(string(r))]
	return ok
}

// IsEntryOnly reports whether r is an entry-only route.
func (p *Policy) IsEntryOnly(r Route) bool {
	_, ok := p.entryOnly[NormalizeRoute(string(r))]
	return ok
}

// Target returns where the session belongs regardless of the current route.
// It is TargetNone while the state is not ready or carries a transport error.
func (p *Policy) Target(st readiness.State) Target {
	if st.Error != nil {
		return TargetNone
	}
	switch PhaseOf(st) {
	case PhaseUnauthenticated:
		return TargetLogin
	case PhaseNeedsOnboarding:
		return TargetOnboarding
	case PhaseNeedsResource:
		return TargetResourceSetup
	case PhaseFullySetup:
		return TargetDashboard
	default:
		return TargetNone
	}
}

// Decide returns where a user currently on route should be sent.
func (p *Policy) Decide(st readiness.State, route Route) Target {
	route = NormalizeRoute(string(route))
	entryOnly := p.IsEntryOnly(route)

	if p.IsPublic(route) && !entryOnly {
		return TargetNone
	}

	t := p.Target(st)
	if t == TargetDashboard && !entryOnly {
		return TargetNone
	}
	if dest, ok := t.Route(); !ok || dest == route {
		return TargetNone
	}
	return t
}
