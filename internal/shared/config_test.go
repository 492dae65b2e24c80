package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./spottyfi.db" {
			t.Errorf("expected database path ./spottyfi.db, got %s", config.Database.Path)
		}

		if config.Credentials.Spotify.ClientID != "your_spotify_client_id" {
			t.Errorf("expected spotify client_id placeholder, got %s", config.Credentials.Spotify.ClientID)
		}

		if config.OAuth.PortMin != 10000 || config.OAuth.PortMax != 65535 {
			t.Errorf("expected port range 10000-65535, got %d-%d", config.OAuth.PortMin, config.OAuth.PortMax)
		}

		if config.API.Locale != "en_US" {
			t.Errorf("expected locale en_US, got %s", config.API.Locale)
		}

		if config.API.RefreshIntervalSecs != 45 {
			t.Errorf("expected refresh interval 45, got %d", config.API.RefreshIntervalSecs)
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

		testConfig := `[credentials.spotify]
client_id = "test_client_id"
refresh_token = "persisted_token"

[oauth]
port_min = 20000
port_max = 30000

[api]
locale = "sv_SE"
refresh_interval_secs = 60
category_playlist_size = 8

[database]
path = "/custom/path.db"
max_open_conns = 20
max_idle_conns = 10
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Credentials.Spotify.ClientID != "test_client_id" {
			t.Errorf("expected spotify client_id test_client_id, got %s", config.Credentials.Spotify.ClientID)
		}
		if config.Credentials.Spotify.RefreshToken != "persisted_token" {
			t.Errorf("expected persisted refresh token, got %s", config.Credentials.Spotify.RefreshToken)
		}
		if config.OAuth.PortMin != 20000 {
			t.Errorf("expected port_min 20000, got %d", config.OAuth.PortMin)
		}
		if config.API.Locale != "sv_SE" {
			t.Errorf("expected locale sv_SE, got %s", config.API.Locale)
		}
		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
		if !errors.Is(err, ErrMissingConfig) {
			t.Errorf("expected missing config error, got %v", err)
		}
	})

	t.Run("LoadConfig Invalid TOML", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("not [valid toml"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected invalid config error, got %v", err)
		}
	})

	t.Run("Persist Rotated Refresh Token", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		config := DefaultConfig()
		config.UpdateRefreshToken("rotated_secret")
		if err := SaveConfig(configPath, config); err != nil {
			t.Fatalf("failed to save config: %v", err)
		}

		info, err := os.Stat(configPath)
		if err != nil {
			t.Fatalf("config file should exist: %v", err)
		}
		if perm := info.Mode().Perm(); perm != 0600 {
			t.Errorf("token-bearing config should be owner-only, got %v", perm)
		}

		reloaded, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to reload config: %v", err)
		}
		if reloaded.Credentials.Spotify.RefreshToken != "rotated_secret" {
			t.Errorf("rotated token should round trip, got %q", reloaded.Credentials.Spotify.RefreshToken)
		}

		// Clearing the token (logout) persists an empty value.
		reloaded.UpdateRefreshToken("")
		if err := SaveConfig(configPath, reloaded); err != nil {
			t.Fatalf("failed to save cleared config: %v", err)
		}
		cleared, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to reload cleared config: %v", err)
		}
		if cleared.Credentials.Spotify.RefreshToken != "" {
			t.Errorf("cleared token should round trip, got %q", cleared.Credentials.Spotify.RefreshToken)
		}
	})
}
