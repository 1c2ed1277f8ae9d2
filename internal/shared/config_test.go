package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./spotx.db" {
			t.Errorf("expected database path ./spotx.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Cache.Backend != CacheBackendFile {
			t.Errorf("expected file cache backend, got %s", config.Cache.Backend)
		}

		if config.Credentials.Spotify.ClientID != "your_spotify_client_id" {
			t.Errorf("expected spotify client_id your_spotify_client_id, got %s", config.Credentials.Spotify.ClientID)
		}

		if len(config.Credentials.Spotify.Scopes) == 0 {
			t.Error("expected default scopes")
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate, got %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[cache]
backend = "sqlite"
key = "work"

[database]
path = "/custom/path.db"

[http]
timeout = "3s"

[auth]
prompt = "tui"
await_timeout = "2m"

[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"
redirect_uri = "http://localhost:3000/callback"
scopes = ["playlist-read-private"]
show_dialog = true
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected default server port to survive, got %d", config.Server.Port)
		}

		if config.CacheID() != "work" {
			t.Errorf("expected sqlite cache id work, got %s", config.CacheID())
		}

		if got := config.Credentials.Spotify.Scopes; len(got) != 1 || got[0] != "playlist-read-private" {
			t.Errorf("expected scopes to be replaced, got %v", got)
		}

		if !config.Credentials.Spotify.ShowDialog {
			t.Error("expected show_dialog to be true")
		}

		if d, err := config.HTTPTimeout(); err != nil || d != 3*time.Second {
			t.Errorf("HTTPTimeout() = %v, %v; want 3s", d, err)
		}

		if d, err := config.AwaitTimeout(); err != nil || d != 2*time.Minute {
			t.Errorf("AwaitTimeout() = %v, %v; want 2m", d, err)
		}
	})

	t.Run("LoadConfig Invalid TOML", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[cache\nbackend ="), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("SaveConfig", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "nested", "config.toml")
		config := DefaultConfig()
		config.Credentials.Spotify.ClientID = "saved_id"

		if err := SaveConfig(configPath, config); err != nil {
			t.Fatalf("SaveConfig() error = %v", err)
		}

		loaded, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load saved config: %v", err)
		}
		if loaded.Credentials.Spotify.ClientID != "saved_id" {
			t.Errorf("expected saved client id, got %s", loaded.Credentials.Spotify.ClientID)
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		t.Setenv("SPOTIFY_CLIENT_ID", "env_id")
		t.Setenv("SPOTIFY_CLIENT_SECRET", "env_secret")
		t.Setenv("SPOTIFY_REDIRECT_URI", "")

		config := DefaultConfig()
		config.ApplyEnv()

		if config.Credentials.Spotify.ClientID != "env_id" {
			t.Errorf("expected env client id, got %s", config.Credentials.Spotify.ClientID)
		}
		if config.Credentials.Spotify.ClientSecret != "env_secret" {
			t.Errorf("expected env client secret, got %s", config.Credentials.Spotify.ClientSecret)
		}
		if config.Credentials.Spotify.RedirectURI != DefaultConfig().Credentials.Spotify.RedirectURI {
			t.Error("empty env var should not override redirect uri")
		}
	})

	t.Run("Validate", func(t *testing.T) {
		tc := []struct {
			name   string
			mutate func(*Config)
		}{
			{name: "unknown backend", mutate: func(c *Config) { c.Cache.Backend = "redis" }},
			{name: "unknown prompt", mutate: func(c *Config) { c.Auth.Prompt = "carrier-pigeon" }},
			{name: "bad http timeout", mutate: func(c *Config) { c.HTTP.Timeout = "soon" }},
			{name: "negative await timeout", mutate: func(c *Config) { c.Auth.AwaitTimeout = "-1s" }},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				config := DefaultConfig()
				tt.mutate(config)
				if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
			})
		}
	})

	t.Run("CacheID", func(t *testing.T) {
		config := DefaultConfig()
		if config.CacheID() != config.Cache.Path {
			t.Errorf("file backend should use cache path, got %s", config.CacheID())
		}

		config.Cache.Backend = CacheBackendNone
		if config.CacheID() != "" {
			t.Errorf("none backend should disable caching, got %s", config.CacheID())
		}

		config.Cache.Backend = CacheBackendSQLite
		config.Cache.Key = ""
		if config.CacheID() != "default" {
			t.Errorf("sqlite backend should default key, got %s", config.CacheID())
		}
	})
}
