package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/playsync/internal/services"
	"github.com/desertthunder/playsync/internal/shared"
	"github.com/desertthunder/playsync/internal/ui"
	"github.com/urfave/cli/v3"
)

// AuthLogin runs the browser consent flow and caches the token, replacing any existing one.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	conf, err := services.LoadOAuthConfig(r.resolve(r.config.Credentials.OAuth2JSON))
	if err != nil {
		return err
	}

	store := r.tokenStore()
	if _, err := r.login(r.oauthContext(ctx), conf, store); err != nil {
		return err
	}

	return r.writePlain("%s\n", ui.Outro("Authentication successful, token saved to "+store.Path()))
}

// AuthStatus reports whether a token is cached and when it expires.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	store := r.tokenStore()

	tok, err := store.Load()
	if errors.Is(err, shared.ErrNotAuthenticated) {
		r.writePlain("%s\n", ui.Warn("Not authenticated"))
		return r.writePlain("Run 'playsync auth login' to authorize.\n")
	}
	if err != nil {
		return err
	}

	r.writePlain("%s\n", ui.Outro("Authenticated"))
	r.writePlain("Token: %s\n", store.Path())

	switch {
	case tok.Expiry.IsZero():
		r.writePlain("Expires: never\n")
	case tok.Valid():
		r.writePlain("Expires: %s (in %s)\n", tok.Expiry.Local().Format(time.RFC1123), time.Until(tok.Expiry).Round(time.Second))
	default:
		r.writePlain("Expires: %s (expired)\n", tok.Expiry.Local().Format(time.RFC1123))
	}

	refresh := "no, run 'playsync auth login' when it expires"
	if tok.RefreshToken != "" {
		refresh = "yes"
	}
	return r.writePlain("%s\n", fmt.Sprintf("Refreshable: %s", refresh))
}
