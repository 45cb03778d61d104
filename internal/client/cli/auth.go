package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/promptkeeper/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

func (a *App) readCredentials() (string, string, error) {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return "", "", err
	}
	pw, err := getPassword(a.out)
	if err != nil {
		return "", "", err
	}
	defer wipe(pw)
	return email, string(pw), nil
}

// SignUp creates an account. Guest data moves to the new account.
func (a *App) SignUp(ctx context.Context) error {
	email, pw, err := a.readCredentials()
	if err != nil {
		return err
	}
	s, err := a.auth.SignUp(ctx, email, pw)
	if err != nil {
		return a.report("sign up", err)
	}
	fmt.Fprintf(a.out, "Signed up as %s\n", s.Email)
	return nil
}

// Login signs in. Guest data moves to the account.
func (a *App) Login(ctx context.Context) error {
	email, pw, err := a.readCredentials()
	if err != nil {
		return err
	}
	s, err := a.auth.SignIn(ctx, email, pw)
	if err != nil {
		return a.report("login", err)
	}
	fmt.Fprintf(a.out, "Logged in as %s\n", s.Email)
	return nil
}

// Logout returns to the guest identity. Account data stays on the device
// but is hidden from the guest.
func (a *App) Logout(ctx context.Context) error {
	if !a.isSignedIn() {
		fmt.Fprintln(a.out, "Not logged in")
		return nil
	}
	if err := a.auth.SignOut(ctx); err != nil {
		return a.report("logout", err)
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) report(op string, err error) error {
	switch {
	case errors.Is(err, common.ErrNotConfigured):
		fmt.Fprintf(a.out, "%s: no remote backend configured\n", op)
	case errors.Is(err, common.ErrorUnauthorized):
		fmt.Fprintf(a.out, "%s: %v\n", op, err)
	default:
		fmt.Fprintf(a.out, "%s failed: %v\n", op, err)
	}
	return err
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
