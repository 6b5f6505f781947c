// Package config resolves the configuration directory, the API base URL and
// the credential file paths.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// AppName is the application directory name.
	AppName = "taskmgr"

	// DefaultBaseURL is used when no base URL is configured anywhere.
	DefaultBaseURL = "https://task-manager-backend-miw9.onrender.com/api"

	// EnvPrefix prefixes every environment override (TASKMGR_API_URL, ...).
	EnvPrefix = "TASKMGR"

	// DotEnvFile is read from the working directory when present.
	DotEnvFile = ".env"

	// ConfigFile is the optional YAML settings file inside the config dir.
	ConfigFile = "config.yaml"

	// SessionFile holds the API session cookies.
	SessionFile = "session.json"

	// OAuthClientFile is the OAuth client credentials filename (google backend).
	OAuthClientFile = "oauth_client.json"

	// TokenFile is the stored OAuth token filename (google backend).
	TokenFile = "token.json"
)

// Backend names.
const (
	BackendAPI    = "api"
	BackendGoogle = "google"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// BaseURL is the task API base URL, including the /api prefix.
	BaseURL string

	// Backend selects the remote store: "api" or "google".
	Backend string

	// Token is an optional static bearer token sent with every API call.
	Token string

	// Password is TASKMGR_PASSWORD (environment or .env), used by login and
	// signup when no --password flag is given.
	Password string

	// Timeout bounds each remote call. Zero means no timeout.
	Timeout time.Duration

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	// Log receives diagnostics. Never nil after Load.
	Log *slog.Logger
}

// Load builds a Config for configDir (or the default directory when empty).
//
// Values are resolved in this order, first match wins: TASKMGR_* environment
// variables, the config.yaml file in the config directory, TASKMGR_* entries
// of a .env file in the working directory, built-in defaults.
func Load(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}

	dotenv, err := godotenv.Read(DotEnvFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", DotEnvFile, err)
	}

	v := viper.New()
	v.SetDefault("api_url", DefaultBaseURL)
	v.SetDefault("backend", BackendAPI)
	v.SetDefault("timeout", time.Duration(0))
	v.SetDefault("token", "")
	v.SetDefault("password", "")
	// .env sits just above the built-in defaults.
	for key, val := range dotenv {
		if name, ok := strings.CutPrefix(key, EnvPrefix+"_"); ok {
			v.SetDefault(strings.ToLower(name), val)
		}
	}
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	path := filepath.Join(dir, ConfigFile)
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", ConfigFile, err)
		}
	}

	cfg := &Config{
		Dir:      dir,
		BaseURL:  strings.TrimSpace(v.GetString("api_url")),
		Backend:  strings.ToLower(strings.TrimSpace(v.GetString("backend"))),
		Token:    strings.TrimSpace(v.GetString("token")),
		Password: v.GetString("password"),
		Timeout:  v.GetDuration("timeout"),
		Log:      slog.New(slog.DiscardHandler),
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the resolved settings.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendAPI, BackendGoogle:
	default:
		return fmt.Errorf("unknown backend: %s", c.Backend)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("invalid timeout: %s", c.Timeout)
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("invalid api url: %s", c.BaseURL)
	}
	return nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// SessionPath returns the path to the persisted API session.
func (c *Config) SessionPath() string {
	return filepath.Join(c.Dir, SessionFile)
}

// OAuthClientPath returns the path to the OAuth client credentials file.
func (c *Config) OAuthClientPath() string {
	return filepath.Join(c.Dir, OAuthClientFile)
}

// TokenPath returns the path to the stored OAuth token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// EnsureDir creates the config directory (mode 0700) if it doesn't exist.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasSession reports whether an API session file exists.
func (c *Config) HasSession() bool {
	return exists(c.SessionPath())
}

// HasOAuthClient checks if the OAuth client credentials file exists.
func (c *Config) HasOAuthClient() bool {
	return exists(c.OAuthClientPath())
}

// HasToken checks if the OAuth token file exists.
func (c *Config) HasToken() bool {
	return exists(c.TokenPath())
}

// RemoveSession deletes the session file.
func (c *Config) RemoveSession() error {
	return os.Remove(c.SessionPath())
}

// RemoveToken deletes the OAuth token file.
func (c *Config) RemoveToken() error {
	return os.Remove(c.TokenPath())
}

// Logger returns c.Log, or a discarding logger when unset.
func (c *Config) Logger() *slog.Logger {
	if c.Log == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Log
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
