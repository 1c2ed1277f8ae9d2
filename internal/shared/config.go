package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	CacheBackendFile   = "file"
	CacheBackendSQLite = "sqlite"
	CacheBackendNone   = "none"

	PromptStdin  = "stdin"
	PromptTUI    = "tui"
	PromptServer = "server"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Cache       CacheConfig       `toml:"cache"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	HTTP        HTTPConfig        `toml:"http"`
	Auth        AuthConfig        `toml:"auth"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify application credentials and the scopes requested at login.
type SpotifyConfig struct {
	ClientID     string   `toml:"client_id"`
	ClientSecret string   `toml:"client_secret"`
	RedirectURI  string   `toml:"redirect_uri"`
	Scopes       []string `toml:"scopes"`
	ShowDialog   bool     `toml:"show_dialog"`
}

// CacheConfig selects where issued tokens are persisted.
//
// For the file backend Path names the JSON file; for sqlite Key names the row in the database from [DatabaseConfig].
type CacheConfig struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
	Key     string `toml:"key"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains settings for the local OAuth callback server.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// HTTPConfig bounds outgoing requests.
type HTTPConfig struct {
	Timeout string `toml:"timeout"`
}

// AuthConfig controls the interactive authorization step.
type AuthConfig struct {
	Prompt       string `toml:"prompt"`
	AwaitTimeout string `toml:"await_timeout"`
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string `toml:"level"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig encodes config as TOML and writes it to path.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ApplyEnv overrides Spotify credentials with SPOTIFY_CLIENT_ID, SPOTIFY_CLIENT_SECRET and SPOTIFY_REDIRECT_URI when set.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Credentials.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Credentials.Spotify.ClientSecret = v
	}
	if v := os.Getenv("SPOTIFY_REDIRECT_URI"); v != "" {
		c.Credentials.Spotify.RedirectURI = v
	}
}

// Validate reports configuration values that cannot be used.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case CacheBackendFile, CacheBackendSQLite, CacheBackendNone, "":
	default:
		return fmt.Errorf("%w: unknown cache backend %q", ErrInvalidConfig, c.Cache.Backend)
	}

	switch c.Auth.Prompt {
	case PromptStdin, PromptTUI, PromptServer, "":
	default:
		return fmt.Errorf("%w: unknown prompt %q", ErrInvalidConfig, c.Auth.Prompt)
	}

	if _, err := c.HTTPTimeout(); err != nil {
		return err
	}
	if _, err := c.AwaitTimeout(); err != nil {
		return err
	}

	return nil
}

// HasSpotifyCredentials reports whether both the client id and secret are set.
func (c *Config) HasSpotifyCredentials() bool {
	return c.Credentials.Spotify.ClientID != "" && c.Credentials.Spotify.ClientSecret != ""
}

// HTTPTimeout parses [HTTPConfig.Timeout], defaulting to 10 seconds when unset.
func (c *Config) HTTPTimeout() (time.Duration, error) {
	if c.HTTP.Timeout == "" {
		return 10 * time.Second, nil
	}
	d, err := time.ParseDuration(c.HTTP.Timeout)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%w: http.timeout %q", ErrInvalidConfig, c.HTTP.Timeout)
	}
	return d, nil
}

// AwaitTimeout parses [AuthConfig.AwaitTimeout]. Zero means wait indefinitely.
func (c *Config) AwaitTimeout() (time.Duration, error) {
	if c.Auth.AwaitTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Auth.AwaitTimeout)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%w: auth.await_timeout %q", ErrInvalidConfig, c.Auth.AwaitTimeout)
	}
	return d, nil
}

// CacheID returns the identifier handed to the credential store for the configured backend, or "" when caching is off.
func (c *Config) CacheID() string {
	switch c.Cache.Backend {
	case CacheBackendSQLite:
		if c.Cache.Key == "" {
			return "default"
		}
		return c.Cache.Key
	case CacheBackendNone:
		return ""
	default:
		return c.Cache.Path
	}
}
