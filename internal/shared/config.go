package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	OAuth       OAuthConfig       `toml:"oauth"`
	API         APIConfig         `toml:"api"`
	Database    DatabaseConfig    `toml:"database"`
}

// CredentialsConfig contains service credentials and persisted tokens.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains the Spotify application client ID and the persisted
// refresh token from the last successful login.
//
// The authorization-code flow uses PKCE, so no client secret is stored.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	RefreshToken string `toml:"refresh_token"`
}

// OAuthConfig contains settings for the loopback redirect listener.
type OAuthConfig struct {
	PortMin int `toml:"port_min"`
	PortMax int `toml:"port_max"`
}

// APIConfig contains Web API client settings.
type APIConfig struct {
	Locale               string `toml:"locale"`
	RefreshIntervalSecs  int    `toml:"refresh_interval_secs"`
	CategoryPlaylistSize int    `toml:"category_playlist_size"`
}

// DatabaseConfig contains browse cache database settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingConfig, err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return &config, nil
}

// SaveConfig writes the configuration to the specified path as TOML.
//
// Used to persist rotated refresh tokens after a successful login, so file
// permissions are restricted to the owner.
func SaveConfig(path string, config *Config) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
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
		return fmt.Errorf("%w: config file already exists at %s", ErrInvalidArgument, path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// UpdateRefreshToken stores a rotated refresh token. An empty secret clears
// the persisted token (logout).
func (c *Config) UpdateRefreshToken(secret string) {
	c.Credentials.Spotify.RefreshToken = secret
}
