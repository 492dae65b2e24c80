// package formatter provides functions to export search results and browse
// snapshots to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/spottyfi/internal/session"
)

// TracksToCSV converts tracks to CSV format with columns: ID, Title, Artists, Album, Duration, Popularity
func TracksToCSV(tracks []session.Track) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artists", "Album", "Duration", "Popularity"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range tracks {
		record := []string{
			track.ID,
			track.Name,
			artistNames(track.Artists),
			track.Album.Name,
			FormatDuration(track.DurationMS),
			strconv.Itoa(track.Popularity),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// SectionsToMarkdown converts browse sections to a Markdown document, one
// heading per shelf.
func SectionsToMarkdown(sections []session.RecommendationSection) []byte {
	var buf bytes.Buffer

	buf.WriteString("# Browse\n")

	for _, section := range sections {
		buf.WriteString(fmt.Sprintf("\n## %s\n\n", section.Title))
		if section.Description != "" {
			buf.WriteString(fmt.Sprintf("%s\n\n", section.Description))
		}
		for _, playlist := range section.Playlists {
			if playlist.Owner.DisplayName != "" {
				buf.WriteString(fmt.Sprintf("- **%s** — %s\n", playlist.Name, playlist.Owner.DisplayName))
			} else {
				buf.WriteString(fmt.Sprintf("- **%s**\n", playlist.Name))
			}
		}
	}

	return buf.Bytes()
}

// FormatDuration renders a track duration in m:ss form.
func FormatDuration(ms int) string {
	if ms <= 0 {
		return "0:00"
	}
	total := ms / 1000
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func artistNames(artists []session.Artist) string {
	names := make([]string, 0, len(artists))
	for _, artist := range artists {
		names = append(names, artist.Name)
	}
	return strings.Join(names, ", ")
}
