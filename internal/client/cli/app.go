package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dmitrijs2005/folio/internal/client/client"
	"github.com/dmitrijs2005/folio/internal/client/config"
	"github.com/dmitrijs2005/folio/internal/client/credentials"
	"github.com/dmitrijs2005/folio/internal/client/debugserver"
	"github.com/dmitrijs2005/folio/internal/client/metrics"
	"github.com/dmitrijs2005/folio/internal/client/models"
	"github.com/dmitrijs2005/folio/internal/client/readiness"
	"github.com/dmitrijs2005/folio/internal/client/redirect"
	"github.com/dmitrijs2005/folio/internal/client/services"
	"github.com/dmitrijs2005/folio/internal/filex"
	"github.com/dmitrijs2005/folio/internal/logging"

	_ "modernc.org/sqlite"
)

// Session is the part of the session coordinator the CLI drives.
type Session interface {
	Initialize(ctx context.Context) error
	Login(ctx context.Context, creds models.Credentials) error
	Logout(ctx context.Context) error
	UpdatePreferences(ctx context.Context, patch models.PreferencesPatch) error
	CompleteOnboarding(ctx context.Context) error
	Revalidate(ctx context.Context) error
	RefreshAccount(ctx context.Context) error
	PingBackend(ctx context.Context) error
	StartExpiryWatcher(ctx context.Context, interval time.Duration)

	State() readiness.State
	RedirectFor(route redirect.Route) redirect.Target
	Mount(nav services.Navigator) (unmount func())
	Debug() services.DebugSnapshot
}

var _ Session = (*services.SessionCoordinator)(nil)

type App struct {
	session        Session
	nav            *terminalNavigator
	debug          *debugserver.Server
	db             *sql.DB
	logger         logging.Logger
	reader         *bufio.Reader
	out            io.Writer
	expiryInterval time.Duration
}

// NewApp opens the local database and wires the backend client, the
// credential store, metrics and the session coordinator from c.
func NewApp(ctx context.Context, c *config.Config, l logging.Logger) (*App, error) {
	storePath, err := filex.EnsureParentDir(c.StorePath)
	if err != nil {
		return nil, err
	}

	db, err := client.InitDatabase(ctx, storePath)
	if err != nil {
		l.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	apiClient, err := client.New(c.APIBaseURL,
		client.WithTimeout(c.RequestTimeout),
		client.WithRateLimit(c.RequestsPerSecond),
	)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	out := os.Stdout
	nav := newTerminalNavigator(redirect.RouteDashboard, out)
	coord := services.NewSessionCoordinator(apiClient,
		credentials.NewSQLiteStore(db, credentials.WithSecret(c.StoreSecret)),
		services.WithLogger(l),
		services.WithMetrics(metrics.New(reg)),
		services.WithNotifier(terminalNotifier{out: out}),
	)

	a := newApp(coord, nav, bufio.NewReader(os.Stdin), out, l)
	a.db = db
	a.expiryInterval = c.ExpiryCheckInterval
	if c.DebugAddr != "" {
		a.debug = debugserver.New(c.DebugAddr, coord, reg, l)
	}
	return a, nil
}

func newApp(s Session, nav *terminalNavigator, r *bufio.Reader, out io.Writer, l logging.Logger) *App {
	return &App{
		session:        s,
		nav:            nav,
		logger:         l,
		reader:         r,
		out:            out,
		expiryInterval: 30 * time.Second,
	}
}

// Run mounts the terminal navigator, restores the stored session and runs
// the REPL until the user exits or input ends.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.close(ctx)

	unmount := a.session.Mount(a.nav)
	defer unmount()

	fmt.Fprintln(a.out, "Welcome to folio CLI (type 'help' for commands)")

	if err := a.session.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize session: %w", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.session.StartExpiryWatcher(ctx, a.expiryInterval)
	}()

	if a.debug != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := a.debug.Run(ctx); err != nil {
				a.logger.Error(ctx, "debug server stopped", "error", err)
			}
		}()
	}

	runREPL(ctx, a, a.getStatus, a.reader)

	cancel()
	wg.Wait()
	return nil
}

func (a *App) close(ctx context.Context) {
	if a.db == nil {
		return
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn(ctx, "error closing database", "error", err)
	}
}

func (a *App) isLoggedIn() bool {
	return a.session.State().IsAuthenticated
}

// getStatus renders the prompt suffix: "(email phase route)".
func (a *App) getStatus() string {
	st := a.session.State()
	s := ""
	if st.User != nil && st.User.Email != "" {
		s = st.User.Email + " "
	}
	s += string(redirect.PhaseOf(st)) + " " + string(a.nav.CurrentRoute())
	return fmt.Sprintf("(%s)", s)
}
