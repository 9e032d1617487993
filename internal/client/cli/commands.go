package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/folio/internal/client/models"
	"github.com/dmitrijs2005/folio/internal/client/redirect"
	"github.com/dmitrijs2005/folio/internal/common"
)

// Status prints the readiness state and where the session belongs.
func (a *App) Status(ctx context.Context) error {
	st := a.session.State()

	fmt.Fprintf(a.out, "route:     %s\n", a.nav.CurrentRoute())
	fmt.Fprintf(a.out, "phase:     %s\n", redirect.PhaseOf(st))
	fmt.Fprintf(a.out, "identity:  %s\n", st.IdentityStatus)
	fmt.Fprintf(a.out, "account:   %s\n", st.AccountStatus)
	if st.User != nil {
		fmt.Fprintf(a.out, "user:      %s (%s)\n", st.User.Email, st.User.ID)
		if st.User.PreferredCurrency != "" {
			fmt.Fprintf(a.out, "currency:  %s\n", st.User.PreferredCurrency)
		}
	}
	if st.Account != nil {
		fmt.Fprintf(a.out, "paper:     %s %.2f %s\n", st.Account.ID, st.Account.CashBalance, st.Account.Currency)
	}
	if msg := st.ErrorMessage(); msg != "" {
		fmt.Fprintf(a.out, "error:     %s\n", msg)
	}
	if err := a.session.PingBackend(ctx); err != nil {
		fmt.Fprintf(a.out, "backend:   unreachable (%v)\n", err)
	} else {
		fmt.Fprintln(a.out, "backend:   reachable")
	}
	return nil
}

// Go moves the terminal to route and follows the redirect decision for it.
func (a *App) Go(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "Usage: go <route>")
		return nil
	}
	route := redirect.NormalizeRoute(args[0])
	a.nav.Navigate(route)

	t := a.session.RedirectFor(route)
	if to, ok := t.Route(); ok {
		a.logger.Debug(ctx, "redirecting", "from", route, "target", t)
		a.nav.Navigate(to)
	}
	return nil
}

// Prefs updates the preferred currency, prompting for it when not given.
func (a *App) Prefs(ctx context.Context, args []string) error {
	var currency string
	if len(args) > 0 {
		currency = args[0]
	} else {
		var err error
		currency, err = getSimpleText(a.reader, "Enter preferred currency (e.g. USD)", a.out)
		if err != nil {
			return err
		}
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if len(currency) != 3 {
		fmt.Fprintln(a.out, "Currency must be a 3-letter ISO code")
		return nil
	}

	err := a.session.UpdatePreferences(ctx, models.PreferencesPatch{PreferredCurrency: &currency})
	return a.report(ctx, "preferences updated", err)
}

// Onboard marks onboarding as completed.
func (a *App) Onboard(ctx context.Context) error {
	return a.report(ctx, "onboarding completed", a.session.CompleteOnboarding(ctx))
}

// Refresh reloads the paper account.
func (a *App) Refresh(ctx context.Context) error {
	return a.report(ctx, "paper account refreshed", a.session.RefreshAccount(ctx))
}

// Revalidate re-fetches the identity for the current token.
func (a *App) Revalidate(ctx context.Context) error {
	return a.report(ctx, "identity revalidated", a.session.Revalidate(ctx))
}

// Debug prints the coordinator's debug snapshot as indented JSON.
func (a *App) Debug(ctx context.Context) error {
	b, err := json.MarshalIndent(a.session.Debug(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, string(b))
	return nil
}

func (a *App) report(ctx context.Context, done string, err error) error {
	switch {
	case err == nil:
		fmt.Fprintln(a.out, strings.ToUpper(done[:1])+done[1:])
	case errors.Is(err, common.ErrNoSession):
		fmt.Fprintln(a.out, "Not logged in")
	case errors.Is(err, common.ErrAccountNotApplicable):
		fmt.Fprintln(a.out, "Complete onboarding first")
	case errors.Is(err, common.ErrSessionExpired):
		// The notifier already told the user.
	default:
		fmt.Fprintf(a.out, "Error: %v\n", err)
		a.logger.Warn(ctx, "command failed", "error", err)
	}
	return err
}
