package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/dmitrijs2005/folio/internal/client/redirect"
)

// terminalNavigator keeps the current route of the terminal session and
// prints every navigation the coordinator performs.
type terminalNavigator struct {
	mu    sync.Mutex
	route redirect.Route
	out   io.Writer
}

func newTerminalNavigator(start redirect.Route, out io.Writer) *terminalNavigator {
	return &terminalNavigator{route: redirect.NormalizeRoute(string(start)), out: out}
}

func (n *terminalNavigator) CurrentRoute() redirect.Route {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.route
}

func (n *terminalNavigator) Navigate(to redirect.Route) {
	next := redirect.NormalizeRoute(string(to))

	n.mu.Lock()
	from := n.route
	n.route = next
	n.mu.Unlock()

	if from != next {
		fmt.Fprintf(n.out, "-> %s\n", next)
	}
}

// terminalNotifier prints notices on their own line.
type terminalNotifier struct {
	out io.Writer
}

func (n terminalNotifier) Notify(msg string) {
	fmt.Fprintf(n.out, "! %s\n", msg)
}
