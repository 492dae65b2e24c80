package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spottyfi/internal/session"
	"github.com/desertthunder/spottyfi/internal/shared"
	"github.com/desertthunder/spottyfi/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	store, err := r.openStore()
	if err != nil {
		r.logger.Warn("browse cache unavailable", "error", err)
		store = nil
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/spottyfi-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	model := ui.NewModel(ctx, ui.Options{
		Session:         r.session,
		Cache:           store,
		Locale:          r.config.API.Locale,
		Logger:          fileLogger,
		RefreshInterval: time.Duration(r.config.API.RefreshIntervalSecs) * time.Second,
	})
	p := tea.NewProgram(model)

	// Persist token rotations while the TUI runs; the goroutine stops with
	// the process.
	go func() {
		for ev := range r.session.Events() {
			if ev.Kind != session.EventPersistToken {
				continue
			}
			if ev.Token == r.config.Credentials.Spotify.RefreshToken {
				continue
			}
			r.config.UpdateRefreshToken(ev.Token)
			if err := shared.SaveConfig(r.configPath, r.config); err != nil {
				fileLogger.Warn("failed to persist refresh token", "error", err)
			}
		}
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
