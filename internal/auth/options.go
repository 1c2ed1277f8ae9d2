package auth

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotx/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"

	// DefaultHTTPTimeout bounds each token-exchange request unless overridden.
	DefaultHTTPTimeout = 10 * time.Second
)

// Endpoint is the Spotify accounts service.
var Endpoint = oauth2.Endpoint{
	AuthURL:   spotifyAuthURL,
	TokenURL:  spotifyTokenURL,
	AuthStyle: oauth2.AuthStyleInHeader,
}

type options struct {
	endpoint     oauth2.Endpoint
	httpClient   *http.Client
	logger       *log.Logger
	now          func() time.Time
	store        CredentialStore
	cacheID      string
	awaitTimeout time.Duration
}

// Option configures flows and sessions.
type Option func(*options)

func newOptions(opts []Option) *options {
	o := &options{
		endpoint:   Endpoint,
		httpClient: &http.Client{Timeout: DefaultHTTPTimeout},
		logger:     shared.NopLogger(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithEndpoint points the flow at a different accounts service.
func WithEndpoint(e oauth2.Endpoint) Option {
	return func(o *options) { o.endpoint = e }
}

// WithHTTPClient sets the client used for token exchanges. Its Timeout is left as given.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.httpClient = c
		}
	}
}

// WithTimeout bounds every token-exchange request. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d <= 0 {
			return
		}
		c := *o.httpClient
		c.Timeout = d
		o.httpClient = &c
	}
}

// WithLogger sets the logger. Token values are never logged.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock replaces time.Now, which stamps issued tokens and decides expiry.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithCache writes every freshly issued token to store under id. An empty id or nil store disables caching.
func WithCache(store CredentialStore, id string) Option {
	return func(o *options) {
		o.store = store
		o.cacheID = id
	}
}

// WithAwaitTimeout bounds how long a session waits for the user to supply the redirect URL. Zero waits indefinitely.
func WithAwaitTimeout(d time.Duration) Option {
	return func(o *options) { o.awaitTimeout = d }
}

func (o *options) cachingEnabled() bool {
	return o.store != nil && o.cacheID != ""
}
