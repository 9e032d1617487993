package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/folio/internal/client/models"
	"github.com/dmitrijs2005/folio/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login prompts the user for credentials and hands them to the session.
//
// Rejected credentials are reported here; other failures are already shown
// by the session's notifier. The password is wiped before returning.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	err = a.session.Login(ctx, models.Credentials{Email: email, Password: password})
	switch {
	case err == nil:
		fmt.Fprintln(a.out, "Login successful")
	case errors.Is(err, common.ErrInvalidCredentials):
		fmt.Fprintln(a.out, "Invalid email or password")
	default:
		a.logger.Warn(ctx, "login unsuccessful", "error", err)
	}
	return err
}

// Logout ends the session locally and on the server.
func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		a.logger.Warn(ctx, "logout incomplete", "error", err)
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}
