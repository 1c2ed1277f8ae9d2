package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotx/internal/shared"
	"golang.org/x/oauth2"
)

// Renewer produces a replacement for an expiring token.
type Renewer interface {
	Renew(ctx context.Context, current *Token) (*Token, error)
}

// Session owns the current Token for API callers. It never refreshes on its own; callers decide when to call
// [Session.Refresh].
type Session struct {
	mu      sync.RWMutex
	token   *Token
	renewer Renewer
	logger  *log.Logger
}

// NewSession wraps an issued token. renewer may be nil, in which case [Session.Refresh] always fails.
func NewSession(tok *Token, renewer Renewer, opts ...Option) *Session {
	o := newOptions(opts)
	return &Session{token: tok, renewer: renewer, logger: o.logger}
}

// Current returns the token in use, or nil.
func (s *Session) Current() *Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// AuthorizationHeader returns "<type> <value>" for the current token.
func (s *Session) AuthorizationHeader() (string, error) {
	tok := s.Current()
	if tok == nil {
		return "", shared.ErrNotAuthenticated
	}
	return tok.AuthorizationHeader(), nil
}

// Refresh replaces the current token using the session's [Renewer]. On failure the previous token is kept.
func (s *Session) Refresh(ctx context.Context) error {
	if s.renewer == nil {
		return fmt.Errorf("%w: session cannot be renewed", shared.ErrNoRefreshToken)
	}

	next, err := s.renewer.Renew(ctx, s.Current())
	if err != nil {
		s.logger.Warn("session refresh failed, keeping current token", "err", err)
		return err
	}

	s.replace(next)
	s.logger.Info("session refreshed", "expires_at", next.ExpiresAt())
	return nil
}

// Reauthorize runs a full authorization again instead of refreshing. It is only available when the session was
// built from a flow that needs no user interaction, such as [ClientCredentialsFlow].
func (s *Session) Reauthorize(ctx context.Context) error {
	a, ok := s.renewer.(interface {
		Authorize(ctx context.Context) (*Token, error)
	})
	if !ok {
		return fmt.Errorf("%w: session requires interactive authorization", shared.ErrNotAuthenticated)
	}

	next, err := a.Authorize(ctx)
	if err != nil {
		s.logger.Warn("session reauthorization failed, keeping current token", "err", err)
		return err
	}

	s.replace(next)
	s.logger.Info("session reauthorized", "expires_at", next.ExpiresAt())
	return nil
}

func (s *Session) replace(tok *Token) {
	s.mu.Lock()
	s.token = tok
	s.mu.Unlock()
}

// TokenSource exposes the current token to [oauth2.Transport]. It returns whatever token the session holds, expired
// or not.
func (s *Session) TokenSource() oauth2.TokenSource {
	return sessionTokenSource{s}
}

type sessionTokenSource struct {
	s *Session
}

func (ts sessionTokenSource) Token() (*oauth2.Token, error) {
	tok := ts.s.Current()
	if tok == nil {
		return nil, shared.ErrNotAuthenticated
	}
	return tok.OAuth2(), nil
}

// EstablishLocalSession restores a session from the flow's cache or, failing that, runs the interactive
// authorization through prompter.
//
// A usable cached token (refreshed if expired) returns immediately with no user interaction. Otherwise the authorize
// URL is presented, the redirect URL is checked against state, and the code is exchanged and cached. An empty state
// is replaced with a random one. The wait on prompter is bounded only by ctx and [WithAwaitTimeout].
func EstablishLocalSession(ctx context.Context, flow *AuthorizationCodeFlow, prompter Prompter, state string, opts ...Option) (*Session, error) {
	o := newOptions(opts)
	logger := o.logger

	tok, found, err := flow.GetOrRefreshCached(ctx, flow.Scopes())
	switch {
	case err != nil:
		logger.Warn("cached credential unusable, starting authorization", "err", err)
	case found:
		logger.Info("session restored from cache", "expires_at", tok.ExpiresAt())
		return NewSession(tok, flow, opts...), nil
	}

	if state == "" {
		if state, err = shared.GenerateState(); err != nil {
			return nil, fmt.Errorf("failed to generate state: %w", err)
		}
	}

	authURL := flow.AuthorizeURL(state)
	flow.transition(StateAwaitingRedirect)

	redirected, err := awaitRedirect(ctx, prompter, authURL, o)
	if err != nil {
		flow.transition(StateUnauthenticated)
		return nil, err
	}

	code, found, err := ExtractCode(redirected, state)
	if err != nil {
		flow.transition(StateUnauthenticated)
		return nil, err
	}
	if !found {
		flow.transition(StateUnauthenticated)
		reason := RedirectError(redirected)
		if reason == "" {
			reason = "no authorization code in redirect"
		}
		return nil, &AuthorizationError{Reason: reason}
	}

	tok, err = flow.ExchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}

	logger.Info("session established", "expires_at", tok.ExpiresAt(), "scope", tok.Scope())
	return NewSession(tok, flow, opts...), nil
}

func awaitRedirect(ctx context.Context, prompter Prompter, authURL string, o *options) (string, error) {
	if o.awaitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.awaitTimeout)
		defer cancel()
	}

	redirected, err := prompter.Present(ctx, authURL)
	if errors.Is(err, context.DeadlineExceeded) {
		return "", fmt.Errorf("%w: no redirect url within %s", shared.ErrTimeout, o.awaitTimeout)
	}
	if err != nil {
		return "", fmt.Errorf("awaiting authorization redirect: %w", err)
	}
	return redirected, nil
}
