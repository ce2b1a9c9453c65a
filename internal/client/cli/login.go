package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/casconsole/internal/client/auth"
	"github.com/dmitrijs2005/casconsole/internal/client/config"
	"github.com/dmitrijs2005/casconsole/internal/common"
	"golang.org/x/oauth2"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login authenticates the operator, begins the session and starts history
// polling.
func (a *App) Login(ctx context.Context, _ []string) error {
	if a.session.Active() {
		fmt.Fprintf(a.out, "Already logged in as %s\n", a.session.Principal())
		return nil
	}

	principal, err := a.authenticate(ctx)
	if err != nil {
		return err
	}
	if err := a.session.Begin(ctx, principal); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Logged in as %s\n", principal)
	a.history.Start(ctx)
	return nil
}

func (a *App) authenticate(ctx context.Context) (string, error) {
	switch a.authMode {
	case config.AuthModePassword:
		return a.passwordLogin(ctx)
	case config.AuthModeDevice:
		return a.deviceLogin(ctx)
	default:
		name, err := getSimpleText(a.reader, "Enter user name", a.out)
		if err != nil {
			return "", err
		}
		if name == "" {
			return "", errors.New("user name is required")
		}
		return name, nil
	}
}

func (a *App) passwordLogin(ctx context.Context) (string, error) {
	name, err := getSimpleText(a.reader, "Enter user name", a.out)
	if err != nil {
		return "", err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(password)

	token, err := a.oauth.LoginPassword(ctx, name, password)
	if err != nil {
		return "", err
	}
	if p, err := auth.PrincipalFromToken(token); err == nil {
		return p, nil
	}
	return name, nil
}

func (a *App) deviceLogin(ctx context.Context) (string, error) {
	token, err := a.oauth.LoginDevice(ctx, func(da *oauth2.DeviceAuthResponse) {
		uri := da.VerificationURIComplete
		if uri == "" {
			uri = da.VerificationURI
		}
		fmt.Fprintf(a.out, "Open %s and enter code %s\n", uri, da.UserCode)
	})
	if err != nil {
		return "", err
	}
	return auth.PrincipalFromToken(token)
}

// Logout stops polling, clears the console state and ends the session.
func (a *App) Logout(ctx context.Context, _ []string) error {
	a.history.Stop()
	a.history.Reset()
	if err := a.uploads.Reset(); err != nil {
		return err
	}
	if a.oauth != nil {
		a.oauth.Logout()
	}
	if err := a.session.End(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}
