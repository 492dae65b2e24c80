package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/spottyfi/internal/formatter"
	"github.com/desertthunder/spottyfi/internal/session"
	"github.com/desertthunder/spottyfi/internal/shared"
	"github.com/urfave/cli/v3"
)

// Search queries the Spotify search endpoint and prints the results.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("%w: search query required", shared.ErrMissingArgument)
	}

	types := session.ParseSearchTypes(cmd.String("type"))
	if types == 0 {
		return fmt.Errorf("%w: unknown search types %q", shared.ErrInvalidArgument, cmd.String("type"))
	}

	if err := r.ensureLogin(ctx); err != nil {
		return err
	}

	results, err := r.session.Search(ctx, query, types, cmd.Int("limit"))
	if err != nil {
		r.applyEvents()
		return err
	}
	r.applyEvents()

	if path := cmd.String("export"); path != "" {
		if results.Tracks == nil || len(results.Tracks.Items) == 0 {
			return fmt.Errorf("%w: no track results to export", shared.ErrInvalidArgument)
		}
		data, err := formatter.TracksToCSV(results.Tracks.Items)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
		return r.writePlain("✓ Exported %d tracks to %s\n", len(results.Tracks.Items), path)
	}

	if cmd.Bool("json") {
		return r.writeJSON(results, cmd.Bool("pretty"))
	}

	if results.IsEmpty() {
		return r.writePlain("No results for '%s'\n", query)
	}

	if results.Tracks != nil && len(results.Tracks.Items) > 0 {
		r.writePlainHeader("Tracks")
		for _, track := range results.Tracks.Items {
			r.writePlain("• %s — %s\n", track.Name, artistList(track.Artists))
		}
	}
	if results.Albums != nil && len(results.Albums.Items) > 0 {
		r.writePlainHeader("Albums")
		for _, album := range results.Albums.Items {
			r.writePlain("• %s — %s (%s)\n", album.Name, artistList(album.Artists), album.ReleaseDate)
		}
	}
	if results.Artists != nil && len(results.Artists.Items) > 0 {
		r.writePlainHeader("Artists")
		for _, artist := range results.Artists.Items {
			r.writePlain("• %s\n", artist.Name)
		}
	}
	if results.Playlists != nil && len(results.Playlists.Items) > 0 {
		r.writePlainHeader("Playlists")
		for _, playlist := range results.Playlists.Items {
			r.writePlain("• %s — %s\n", playlist.Name, playlist.Owner.DisplayName)
		}
	}
	return nil
}

func artistList(artists []session.Artist) string {
	names := make([]string, 0, len(artists))
	for _, artist := range artists {
		names = append(names, artist.Name)
	}
	return strings.Join(names, ", ")
}
