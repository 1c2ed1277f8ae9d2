package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotx/internal/auth"
	"github.com/desertthunder/spotx/internal/formatter"
	"github.com/desertthunder/spotx/internal/repositories"
	"github.com/desertthunder/spotx/internal/server"
	"github.com/desertthunder/spotx/internal/services"
	"github.com/desertthunder/spotx/internal/shared"
	"github.com/desertthunder/spotx/internal/ui"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	input      io.Reader
	endpoint   oauth2.Endpoint
	apiBaseURL string
	prompter   auth.Prompter
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Endpoint, APIBaseURL and Prompter replace the Spotify accounts service, the Web API root and the configured prompt;
// zero values keep the defaults.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
	Endpoint   oauth2.Endpoint
	APIBaseURL string
	Prompter   auth.Prompter
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Endpoint.TokenURL == "" {
		opts.Endpoint = auth.Endpoint
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
		endpoint:   opts.Endpoint,
		apiBaseURL: opts.APIBaseURL,
		prompter:   opts.Prompter,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, apiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads the configuration named by --config, applies environment overrides and sets the log level.
//
// A missing config file is not an error; the embedded defaults are used so that `setup config` can run.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	r.configPath = cmd.String("config")

	if _, err := os.Stat(r.configPath); err == nil {
		config, err := shared.LoadConfig(r.configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
	} else {
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
	}

	r.config.ApplyEnv()
	if err := r.config.Validate(); err != nil {
		return ctx, err
	}

	level := r.config.Log.Level
	if l := cmd.String("log-level"); l != "" {
		level = l
	}
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(level))

	return ctx, nil
}

// credentialCache is the store selected by [shared.CacheConfig] together with the identifier tokens are kept under.
type credentialCache struct {
	store auth.CredentialStore
	id    string
	close func() error
}

func (c *credentialCache) enabled() bool {
	return c.store != nil && c.id != ""
}

func (c *credentialCache) Close() error {
	if c.close == nil {
		return nil
	}
	return c.close()
}

// openCache opens the configured credential store. Callers must Close the result.
func (r *Runner) openCache() (*credentialCache, error) {
	switch r.config.Cache.Backend {
	case shared.CacheBackendNone:
		return &credentialCache{}, nil
	case shared.CacheBackendSQLite:
		r.logger.Debug("opening credential database", "path", r.config.Database.Path)
		db, err := shared.OpenCredentialDatabase(r.config.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to open credential database: %w", err)
		}
		return &credentialCache{
			store: repositories.NewCredentialRepository(db),
			id:    r.config.CacheID(),
			close: db.Close,
		}, nil
	default:
		return &credentialCache{store: auth.NewFileStore(), id: r.config.CacheID()}, nil
	}
}

// authOptions builds the flow options shared by every command. cache may be nil.
func (r *Runner) authOptions(cache *credentialCache) ([]auth.Option, error) {
	timeout, err := r.config.HTTPTimeout()
	if err != nil {
		return nil, err
	}
	await, err := r.config.AwaitTimeout()
	if err != nil {
		return nil, err
	}

	opts := []auth.Option{
		auth.WithEndpoint(r.endpoint),
		auth.WithHTTPClient(r.httpClient),
		auth.WithTimeout(timeout),
		auth.WithLogger(r.logger),
		auth.WithAwaitTimeout(await),
	}
	if cache != nil && cache.enabled() {
		opts = append(opts, auth.WithCache(cache.store, cache.id))
	}
	return opts, nil
}

func (r *Runner) codeFlow(opts []auth.Option) (*auth.AuthorizationCodeFlow, error) {
	sp := r.config.Credentials.Spotify
	return auth.NewAuthorizationCodeFlow(auth.AuthorizationCodeConfig{
		ClientID:     sp.ClientID,
		ClientSecret: sp.ClientSecret,
		RedirectURI:  sp.RedirectURI,
		Scopes:       sp.Scopes,
		ShowDialog:   sp.ShowDialog,
	}, opts...)
}

// prompt returns the prompter configured by [shared.AuthConfig.Prompt].
func (r *Runner) prompt() auth.Prompter {
	if r.prompter != nil {
		return r.prompter
	}

	switch r.config.Auth.Prompt {
	case shared.PromptTUI:
		return ui.NewPrompter(r.input, r.output)
	case shared.PromptServer:
		return server.NewCallbackPrompter(
			r.config.Server.Host, r.config.Server.Port, r.config.Credentials.Spotify.RedirectURI, r.output, r.logger,
		)
	default:
		return auth.NewReaderPrompter(r.input, r.output)
	}
}

// userSession restores or establishes a user session. The returned cache must be closed by the caller.
func (r *Runner) userSession(ctx context.Context, state string) (*auth.Session, *credentialCache, error) {
	cache, err := r.openCache()
	if err != nil {
		return nil, nil, err
	}

	opts, err := r.authOptions(cache)
	if err != nil {
		cache.Close()
		return nil, nil, err
	}

	flow, err := r.codeFlow(opts)
	if err != nil {
		cache.Close()
		return nil, nil, err
	}

	session, err := auth.EstablishLocalSession(ctx, flow, r.prompt(), state, opts...)
	if err != nil {
		cache.Close()
		return nil, nil, err
	}
	return session, cache, nil
}

// appSession authorizes with client credentials. The token is never cached.
func (r *Runner) appSession(ctx context.Context) (*auth.Session, error) {
	opts, err := r.authOptions(nil)
	if err != nil {
		return nil, err
	}

	sp := r.config.Credentials.Spotify
	flow, err := auth.NewClientCredentialsFlow(sp.ClientID, sp.ClientSecret, opts...)
	if err != nil {
		return nil, err
	}

	tok, err := flow.Authorize(ctx)
	if err != nil {
		return nil, err
	}
	return auth.NewSession(tok, flow, opts...), nil
}

// spotify creates an API client reading tokens from session.
func (r *Runner) spotify(session *auth.Session, market string) (*services.SpotifyService, error) {
	timeout, err := r.config.HTTPTimeout()
	if err != nil {
		return nil, err
	}

	opts := []services.Option{
		services.WithMarket(market),
		services.WithTimeout(timeout),
		services.WithTransport(r.httpClient.Transport),
		services.WithLogger(r.logger),
	}
	if r.apiBaseURL != "" {
		opts = append(opts, services.WithBaseURL(r.apiBaseURL))
	}
	return services.NewSpotifyService(session.TokenSource(), opts...), nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := formatter.JSON(data, pretty)
	if err != nil {
		return err
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writeBytes(data []byte) error {
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
