// Package config loads CLI configuration from the XDG config dir and the environment.
// Only non-secret settings are kept in the file; the OAuth client id and the
// keyring passphrase are read from the environment only.
//
// Precedence, lowest to highest: built-in defaults, config.json, STREAMAUTH_* variables.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"golang.org/x/oauth2/twitch"

	"streamauth/cli/internal/xdg"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "STREAMAUTH_"

// Twitch endpoints used when nothing else is configured.
const (
	DefaultRevokeURL = "https://id.twitch.tv/oauth2/revoke"
	DefaultAPIURL    = "https://api.twitch.tv/helix"
)

// Config holds CLI settings.
type Config struct {
	// ClientID is the OAuth client identifier registered with the provider.
	ClientID string `json:"-" env:"CLIENT_ID,required,notEmpty"`

	RedirectPort int      `json:"redirect_port" env:"REDIRECT_PORT"`
	Scopes       []string `json:"scopes" env:"SCOPES" envSeparator:","`
	AuthorizeURL string   `json:"authorize_url" env:"AUTHORIZE_URL"`
	RevokeURL    string   `json:"revoke_url" env:"REVOKE_URL"`
	APIURL       string   `json:"api_url" env:"API_URL"`

	LogLevel  string `json:"log_level" env:"LOG_LEVEL"`
	LogFormat string `json:"log_format" env:"LOG_FORMAT"`

	// KeyringBackend restricts the credential store to one backend
	// (keychain, wincred, secret-service, kwallet, pass, file). Empty means auto.
	KeyringBackend  string `json:"keyring_backend" env:"KEYRING_BACKEND"`
	KeyringPassword string `json:"-" env:"KEYRING_PASSWORD"`
}

// Defaults returns the built-in configuration without a client id.
func Defaults() Config {
	return Config{
		RedirectPort: 3000,
		Scopes:       []string{"openid", "user:read:email", "user:read:follows"},
		AuthorizeURL: twitch.Endpoint.AuthURL,
		RevokeURL:    DefaultRevokeURL,
		APIURL:       DefaultAPIURL,
		LogLevel:     "warn",
		LogFormat:    "console",
	}
}

// path returns the path to the config file.
func path() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads configuration once at startup; a missing file yields defaults.
func Load() (Config, error) {
	c := Defaults()
	p, err := path()
	if err != nil {
		return c, err
	}
	data, err := os.ReadFile(p)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return c, err
	default:
		if err := json.Unmarshal(data, &c); err != nil {
			return c, fmt.Errorf("parse %s: %w", p, err)
		}
	}

	if err := env.ParseWithOptions(&c, env.Options{Prefix: EnvPrefix}); err != nil {
		return c, fmt.Errorf("parse env: %w", err)
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// Validate checks the values the auth flow cannot run without.
func (c Config) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("%sCLIENT_ID is required", EnvPrefix)
	}
	if c.RedirectPort <= 0 || c.RedirectPort > 65535 {
		return fmt.Errorf("redirect port %d out of range", c.RedirectPort)
	}
	if len(c.Scopes) == 0 {
		return errors.New("at least one scope is required")
	}
	if c.AuthorizeURL == "" || c.RevokeURL == "" || c.APIURL == "" {
		return errors.New("authorize, revoke and api urls must be set")
	}
	return nil
}
