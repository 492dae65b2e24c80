package main

import (
	"context"

	"github.com/desertthunder/spottyfi/internal/auth"
	"github.com/desertthunder/spottyfi/internal/session"
	"github.com/urfave/cli/v3"
)

// AuthLogin runs the OAuth2 login flow: a silent refresh-token exchange when
// one is saved, otherwise the interactive browser + loopback redirect flow.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	if err := r.session.Login(ctx, cmd.Bool("browser")); err != nil {
		r.applyEvents()
		return err
	}
	r.applyEvents()

	if err := r.session.FetchData(ctx, r.config.API.Locale); err != nil {
		r.applyEvents()
		return err
	}
	r.applyEvents()

	state := r.session.State()
	if state.Profile != nil {
		return r.writePlain("✓ Logged in as %s\n", state.Profile.Name())
	}
	return r.writePlain("✓ Logged in\n")
}

// AuthLogout clears the session and the persisted refresh token.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	r.session.Logout()
	r.applyEvents()

	return r.writePlain("✓ Logged out\n")
}

// AuthStatus shows the current authentication state.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if r.session == nil {
		return r.writePlain("✗ Not configured (missing credentials.spotify.client_id)\n")
	}

	state := r.session.State()
	switch state.Status {
	case session.StatusLoggedIn:
		r.writePlain("✓ Logged in as %s\n", state.Profile.Name())
	case session.StatusAuthenticated:
		r.writePlain("✓ Authenticated (profile not fetched yet)\n")
	case session.StatusAuthenticating:
		r.writePlain("… Saved refresh token found, run 'spottyfi auth login' to use it\n")
	case session.StatusError:
		r.writePlain("✗ Error: %v\n", state.Err)
	default:
		r.writePlain("✗ Not authenticated\n")
	}
	return nil
}

// Profile fetches and prints the authenticated user's profile.
func (r *Runner) Profile(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureLogin(ctx); err != nil {
		return err
	}

	if err := r.session.FetchData(ctx, r.config.API.Locale); err != nil {
		r.applyEvents()
		return err
	}
	r.applyEvents()

	profile := r.session.State().Profile

	if cmd.Bool("json") {
		return r.writeJSON(profile, cmd.Bool("pretty"))
	}

	r.writePlainHeader(profile.Name())
	r.writePlain("ID:        %s\n", profile.ID)
	r.writePlain("Email:     %s\n", profile.SafeEmail())
	r.writePlain("Country:   %s\n", profile.SafeCountry())
	r.writePlain("Product:   %s\n", profile.Product)
	r.writePlain("Followers: %d\n", profile.Followers.Total)
	r.writePlain("\nManage your account at %s\n", auth.SpotifyAccountsURL)
	return nil
}
