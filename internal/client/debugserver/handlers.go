package debugserver

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/dmitrijs2005/folio/internal/client/readiness"
	"github.com/dmitrijs2005/folio/internal/client/redirect"
)

type readinessResponse struct {
	State  readiness.State `json:"state"`
	Phase  redirect.Phase  `json:"phase"`
	Target redirect.Target `json:"target"`
	Error  string          `json:"error,omitempty"`
}

type backendResponse struct {
	Reachable bool   `json:"reachable"`
	Error     string `json:"error,omitempty"`
}

type redirectResponse struct {
	Route          redirect.Route  `json:"route"`
	Target         redirect.Target `json:"target"`
	ShouldRedirect bool            `json:"should_redirect"`
	To             redirect.Route  `json:"to,omitempty"`
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.session.Debug())
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	st := s.session.State()
	snap := s.session.Debug()
	render.JSON(w, r, readinessResponse{
		State:  st,
		Phase:  redirect.PhaseOf(st),
		Target: snap.Target,
		Error:  st.ErrorMessage(),
	})
}

func (s *Server) handleRedirect(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("route")
	if raw == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]string{"error": "route query parameter is required"})
		return
	}

	route := redirect.NormalizeRoute(raw)
	t := s.session.RedirectFor(route)
	resp := redirectResponse{Route: route, Target: t, ShouldRedirect: t != redirect.TargetNone}
	if to, ok := t.Route(); ok {
		resp.To = to
	}
	render.JSON(w, r, resp)
}

func (s *Server) handleBackend(w http.ResponseWriter, r *http.Request) {
	if err := s.session.PingBackend(r.Context()); err != nil {
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, backendResponse{Error: err.Error()})
		return
	}
	render.JSON(w, r, backendResponse{Reachable: true})
}
