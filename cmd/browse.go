package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/spottyfi/internal/formatter"
	"github.com/desertthunder/spottyfi/internal/session"
	"github.com/urfave/cli/v3"
)

// Browse fetches the labeled browse shelves (featured playlists first, then
// one per category) and caches the snapshot. With --cached it renders the
// last snapshot without touching the network.
func (r *Runner) Browse(ctx context.Context, cmd *cli.Command) error {
	locale := cmd.String("locale")
	if locale == "" {
		locale = r.config.API.Locale
	}

	var sections []session.RecommendationSection

	if cmd.Bool("cached") {
		store, err := r.openStore()
		if err != nil {
			return err
		}
		if sections, err = store.LoadSections(); err != nil {
			return err
		}
		if fetched, err := store.LastFetched(); err == nil && !fetched.IsZero() {
			r.logger.Info("showing cached browse content", "fetched_at", fetched)
		}
	} else {
		if err := r.ensureLogin(ctx); err != nil {
			return err
		}

		var err error
		if sections, err = r.session.BrowseRecommendations(ctx, locale); err != nil {
			r.applyEvents()
			return err
		}
		r.applyEvents()

		if store, err := r.openStore(); err != nil {
			r.logger.Warn("browse cache unavailable", "error", err)
		} else if err := store.SaveSections(sections); err != nil {
			r.logger.Warn("failed to cache browse content", "error", err)
		}
	}

	if path := cmd.String("export"); path != "" {
		if err := os.WriteFile(path, formatter.SectionsToMarkdown(sections), 0644); err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
		return r.writePlain("✓ Exported %d shelves to %s\n", len(sections), path)
	}

	if cmd.Bool("json") {
		return r.writeJSON(sections, cmd.Bool("pretty"))
	}

	if len(sections) == 0 {
		return r.writePlain("No browse content available\n")
	}

	for _, section := range sections {
		r.writePlainHeader(section.Title)
		for _, playlist := range section.Playlists {
			if playlist.Owner.DisplayName != "" {
				r.writePlain("• %s — %s\n", playlist.Name, playlist.Owner.DisplayName)
			} else {
				r.writePlain("• %s\n", playlist.Name)
			}
		}
		r.writePlain("\n")
	}
	return nil
}
