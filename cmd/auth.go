package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/spotx/internal/auth"
	"github.com/desertthunder/spotx/internal/formatter"
	"github.com/desertthunder/spotx/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin restores the cached user token or runs the authorization-code flow through the configured prompter.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("force") {
		if err := r.discardCached(ctx); err != nil {
			return err
		}
	}

	session, cache, err := r.userSession(ctx, cmd.String("state"))
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	defer cache.Close()

	tok := session.Current()
	r.writePlain("✓ Authenticated\n")
	r.writePlain("Scope:   %s\n", strings.Join(tok.Scope(), " "))
	r.writePlain("Expires: %s\n", tok.ExpiresAt().Local().Format(time.RFC1123))

	if !cache.enabled() {
		r.logger.Warn("credential cache disabled, token will not be reused")
	}
	return nil
}

// AuthClient authorizes with client credentials and reports or prints the token.
func (r *Runner) AuthClient(ctx context.Context, cmd *cli.Command) error {
	session, err := r.appSession(ctx)
	if err != nil {
		return fmt.Errorf("client authorization failed: %w", err)
	}
	tok := session.Current()

	if cmd.Bool("print") {
		return r.writePlain("%s\n", tok.Value())
	}

	status := formatter.NewTokenStatus("client_credentials", tok, time.Now())
	if cmd.Bool("json") {
		return r.writeJSON(status, cmd.Bool("pretty"))
	}
	return r.writeBytes(status.Text(time.Now()))
}

// AuthStatus describes the cached user token without contacting Spotify.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	cache, err := r.openCache()
	if err != nil {
		return err
	}
	defer cache.Close()

	if !cache.enabled() {
		return fmt.Errorf("%w: credential cache is disabled", shared.ErrInvalidConfig)
	}

	tok, found, err := cache.store.Load(ctx, cache.id)
	if err != nil {
		return err
	}
	if !found {
		return r.writePlain("✗ Not authenticated (no token cached at %s)\n", cache.id)
	}

	now := time.Now()
	status := formatter.NewTokenStatus(cache.id, tok, now)
	if cmd.Bool("json") {
		return r.writeJSON(status, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Spotify user token")
	return r.writeBytes(status.Text(now))
}

// AuthRefresh refreshes the cached user token regardless of its expiry.
func (r *Runner) AuthRefresh(ctx context.Context, cmd *cli.Command) error {
	cache, err := r.openCache()
	if err != nil {
		return err
	}
	defer cache.Close()

	if !cache.enabled() {
		return fmt.Errorf("%w: credential cache is disabled", shared.ErrInvalidConfig)
	}

	tok, found, err := cache.store.Load(ctx, cache.id)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: run 'spotx auth login' first", shared.ErrNotAuthenticated)
	}

	opts, err := r.authOptions(cache)
	if err != nil {
		return err
	}
	flow, err := r.codeFlow(opts)
	if err != nil {
		return err
	}

	next, err := flow.Refresh(ctx, tok.RefreshToken())
	if err != nil {
		return fmt.Errorf("refresh failed: %w", err)
	}

	r.writePlain("✓ Token refreshed\n")
	return r.writePlain("Expires: %s\n", next.ExpiresAt().Local().Format(time.RFC1123))
}

// AuthURL prints the authorization URL for completing the flow elsewhere.
func (r *Runner) AuthURL(ctx context.Context, cmd *cli.Command) error {
	sp := r.config.Credentials.Spotify
	if sp.ClientID == "" || sp.RedirectURI == "" {
		return fmt.Errorf("%w: client_id and redirect_uri must be set", shared.ErrMissingCredentials)
	}

	state := cmd.String("state")
	if state == "" {
		var err error
		if state, err = shared.GenerateState(); err != nil {
			return err
		}
	}

	r.logger.Info("built authorization url", "state", state)
	return r.writePlain("%s\n", auth.BuildAuthorizeURL(r.endpoint, sp.ClientID, sp.RedirectURI, state, sp.Scopes, sp.ShowDialog))
}

// AuthLogout removes the cached user token.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.discardCached(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Logged out\n")
}

func (r *Runner) discardCached(ctx context.Context) error {
	cache, err := r.openCache()
	if err != nil {
		return err
	}
	defer cache.Close()

	if !cache.enabled() {
		return nil
	}

	r.logger.Info("removing cached credential", "id", cache.id)
	return cache.store.Delete(ctx, cache.id)
}
