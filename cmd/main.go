package main

import (
	"context"
	"os"

	"github.com/desertthunder/spottyfi/internal/auth"
	"github.com/desertthunder/spottyfi/internal/session"
	"github.com/desertthunder/spottyfi/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	configPath := "config.toml"
	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "error", err)
		}
	}

	var sess *session.Session
	if config.Credentials.Spotify.ClientID != "" {
		provider, err := auth.New(auth.Options{
			ClientID:     config.Credentials.Spotify.ClientID,
			PortMin:      config.OAuth.PortMin,
			PortMax:      config.OAuth.PortMax,
			RefreshToken: config.Credentials.Spotify.RefreshToken,
		})
		if err != nil {
			logger.Warn("failed to initialize Spotify auth", "error", err)
		} else {
			sess, err = session.New(session.Options{
				Provider:              provider,
				Logger:                logger,
				CategoryPlaylistLimit: config.API.CategoryPlaylistSize,
			})
			if err != nil {
				logger.Warn("failed to initialize session", "error", err)
			}
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Session:    sess,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "spottyfi",
		Usage:    "Browse and search Spotify from the terminal",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
