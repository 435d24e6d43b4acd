package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophfeed/internal/client/routing"
	"github.com/dmitrijs2005/gophfeed/internal/common"
)

// getSimpleText, getMultiline and getPassword are indirections used to
// facilitate testing. They point to interactive input helpers and can be
// swapped in tests.
var (
	getSimpleText = GetSimpleText
	getMultiline  = GetMultiline
	getPassword   = GetPassword
)

// Register prompts for a username and password and creates the account.
// The user is not logged in afterwards; the view moves to /login.
func (a *App) Register(ctx context.Context) error {
	a.path = routing.PathSignup
	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	msg, err := a.authService.Register(ctx, userName, password)
	if err != nil {
		fmt.Fprintln(a.out, "Sign up failed:", err)
		return err
	}

	fmt.Fprintln(a.out, msg)
	a.path = routing.PathLogin
	return nil
}

// Login prompts for credentials; on success it shows the global feed.
func (a *App) Login(ctx context.Context) error {
	a.path = routing.PathLogin
	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if _, err := a.authService.Login(ctx, userName, password); err != nil {
		fmt.Fprintln(a.out, "Login failed:", err)
		return err
	}
	return a.Navigate(ctx, routing.PathPosts)
}

// Logout ends the session and moves to the login view. The session
// subscription reports the change.
func (a *App) Logout(ctx context.Context) error {
	if err := a.authService.Logout(ctx); err != nil {
		fmt.Fprintln(a.out, "Logout failed:", err)
		return err
	}
	a.enter(ctx, routing.PathLogin)
	return nil
}

// WhoAmI prints the current identity.
func (a *App) WhoAmI(_ context.Context) error {
	snap := a.sessions.Snapshot()
	if !snap.Authenticated() {
		fmt.Fprintln(a.out, "Not logged in")
		return nil
	}
	fmt.Fprintf(a.out, "User #%d\n", snap.Identity)
	return nil
}
