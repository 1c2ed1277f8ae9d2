package auth

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"sync"

	"github.com/desertthunder/spotx/internal/shared"
	"golang.org/x/oauth2"
)

// FlowState is a step of the authorization-code flow.
type FlowState int

const (
	StateUnauthenticated FlowState = iota
	StateAwaitingRedirect
	StateExchanging
	StateAuthenticated
	StateRefreshing
)

func (s FlowState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAwaitingRedirect:
		return "awaiting_redirect"
	case StateExchanging:
		return "exchanging"
	case StateAuthenticated:
		return "authenticated"
	case StateRefreshing:
		return "refreshing"
	default:
		return "unknown"
	}
}

// AuthorizationCodeConfig holds the application registration used by [AuthorizationCodeFlow].
type AuthorizationCodeConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string // requested at login and required of cached tokens
	ShowDialog   bool     // force the consent page even if the user already approved
}

// AuthorizationCodeFlow implements user-consent authorization.
type AuthorizationCodeFlow struct {
	config AuthorizationCodeConfig
	opts   *options

	mu    sync.Mutex
	state FlowState
}

// NewAuthorizationCodeFlow validates cfg and creates a flow in [StateUnauthenticated].
func NewAuthorizationCodeFlow(cfg AuthorizationCodeConfig, opts ...Option) (*AuthorizationCodeFlow, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: client id and secret are required", shared.ErrMissingCredentials)
	}
	if cfg.RedirectURI == "" {
		return nil, fmt.Errorf("%w: redirect uri is required", shared.ErrMissingCredentials)
	}

	cfg.Scopes = slices.Clone(cfg.Scopes)
	return &AuthorizationCodeFlow{config: cfg, opts: newOptions(opts)}, nil
}

// State returns the current step of the flow.
func (f *AuthorizationCodeFlow) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Scopes returns the scopes the flow requests.
func (f *AuthorizationCodeFlow) Scopes() []string {
	return slices.Clone(f.config.Scopes)
}

func (f *AuthorizationCodeFlow) transition(to FlowState) {
	f.mu.Lock()
	from := f.state
	f.state = to
	f.mu.Unlock()

	if from != to {
		f.opts.logger.Debug("authorization state", "from", from, "to", to)
	}
}

// BuildAuthorizeURL returns the provider's authorization page URL.
//
// The scope parameter is the space-joined scope list in the given order, and is left out entirely when scope is empty
// so the provider applies its default scope.
func BuildAuthorizeURL(endpoint oauth2.Endpoint, clientID, redirectURI, state string, scope []string, forceConsent bool) string {
	conf := oauth2.Config{
		ClientID:    clientID,
		RedirectURL: redirectURI,
		Endpoint:    endpoint,
		Scopes:      slices.DeleteFunc(slices.Clone(scope), func(s string) bool { return s == "" }),
	}
	return conf.AuthCodeURL(state, oauth2.SetAuthURLParam("show_dialog", strconv.FormatBool(forceConsent)))
}

// AuthorizeURL builds the authorization page URL for this flow's configuration.
func (f *AuthorizationCodeFlow) AuthorizeURL(state string) string {
	return BuildAuthorizeURL(f.opts.endpoint, f.config.ClientID, f.config.RedirectURI, state, f.config.Scopes, f.config.ShowDialog)
}

func (f *AuthorizationCodeFlow) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     f.config.ClientID,
		ClientSecret: f.config.ClientSecret,
		RedirectURL:  f.config.RedirectURI,
		Endpoint:     f.opts.oauth2Endpoint(),
	}
}

// ExtractCode reads the authorization code from the URL the user was redirected to.
//
// The state parameter must equal expectedState before the code is trusted. found is false when the redirect carries
// no code, which is what the provider does when the user denies access (see [RedirectError]).
func ExtractCode(redirectedURL, expectedState string) (code string, found bool, err error) {
	u, err := url.Parse(redirectedURL)
	if err != nil {
		return "", false, fmt.Errorf("%w: redirect url: %v", shared.ErrInvalidInput, err)
	}

	query := u.Query()
	if states := query["state"]; len(states) != 1 || states[0] != expectedState {
		return "", false, &AuthorizationError{Reason: "state mismatch", Err: shared.ErrStateMismatch}
	}

	code = query.Get("code")
	if code == "" {
		return "", false, nil
	}
	return code, true, nil
}

// RedirectError returns the provider's error parameter from a redirect URL, or "" if it has none.
func RedirectError(redirectedURL string) string {
	u, err := url.Parse(redirectedURL)
	if err != nil {
		return ""
	}
	return u.Query().Get("error")
}

// ExchangeCode trades an authorization code for a Token and caches it when a store is configured.
func (f *AuthorizationCodeFlow) ExchangeCode(ctx context.Context, code string) (*Token, error) {
	f.transition(StateExchanging)

	conf := f.oauth2Config()
	tok, err := f.opts.exchange(ctx, "authorization_code", func(ctx context.Context) (*oauth2.Token, error) {
		return conf.Exchange(ctx, code)
	})
	if err != nil {
		f.transition(StateUnauthenticated)
		return nil, err
	}

	f.opts.cache(ctx, tok)
	f.transition(StateAuthenticated)
	return tok, nil
}

// Refresh obtains a new Token from a refresh token and caches it when a store is configured.
//
// Servers may omit a new refresh token, in which case refreshToken is carried forward. A failed refresh leaves the
// flow in its previous state; whatever token the caller holds remains theirs.
func (f *AuthorizationCodeFlow) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	if refreshToken == "" {
		return nil, &AuthorizationError{Reason: "token cannot be refreshed", Err: shared.ErrNoRefreshToken}
	}

	prev := f.State()
	f.transition(StateRefreshing)

	conf := f.oauth2Config()
	tok, err := f.opts.exchange(ctx, "refresh_token", func(ctx context.Context) (*oauth2.Token, error) {
		return conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	})
	if err != nil {
		f.transition(prev)
		return nil, err
	}

	if !tok.HasRefreshToken() {
		tok = tok.WithRefreshToken(refreshToken)
	}

	f.opts.cache(ctx, tok)
	f.transition(StateAuthenticated)
	return tok, nil
}

// Renew implements [Renewer] using the current token's refresh token.
func (f *AuthorizationCodeFlow) Renew(ctx context.Context, current *Token) (*Token, error) {
	if current == nil {
		return nil, fmt.Errorf("%w: no token to renew", shared.ErrNotAuthenticated)
	}
	return f.Refresh(ctx, current.RefreshToken())
}

// GetOrRefreshCached restores a token from the configured store.
//
// found is false when nothing is cached, caching is disabled, or the cached token does not grant every scope in
// required; a scope change always calls for a new authorization, never a refresh. An expired token that covers the
// scope is refreshed, and a failed refresh is returned as an error.
func (f *AuthorizationCodeFlow) GetOrRefreshCached(ctx context.Context, required []string) (*Token, bool, error) {
	if !f.opts.cachingEnabled() {
		return nil, false, nil
	}

	logger := f.opts.logger.With("id", f.opts.cacheID)

	tok, found, err := f.opts.store.Load(ctx, f.opts.cacheID)
	if err != nil {
		return nil, false, err
	}
	if !found {
		logger.Debug("no cached token")
		return nil, false, nil
	}

	if !tok.Covers(required) {
		logger.Info("cached token does not cover required scope", "granted", tok.Scope(), "required", required)
		return nil, false, nil
	}

	if !tok.ExpiredAt(f.opts.now()) {
		logger.Debug("using cached token", "expires_at", tok.ExpiresAt())
		f.transition(StateAuthenticated)
		return tok, true, nil
	}

	logger.Info("cached token expired, refreshing", "expired_at", tok.ExpiresAt())
	f.transition(StateAuthenticated)

	refreshed, err := f.Refresh(ctx, tok.RefreshToken())
	if err != nil {
		f.transition(StateUnauthenticated)
		return nil, false, err
	}
	return refreshed, true, nil
}
