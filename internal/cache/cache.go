// package cache persists browse sections to sqlite so the TUI and CLI can
// render the home screen offline or before the next refresh completes.
package cache

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/spottyfi/internal/session"
)

// Store caches browse sections in sqlite.
//
// A save replaces the whole snapshot: partial fetches overwrite older, fuller
// ones on purpose, since the sections mirror what the user last saw.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store backed by the given database connection
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// SaveSections replaces the cached snapshot with the given sections.
func (s *Store) SaveSections(sections []session.RecommendationSection) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM browse_playlists"); err != nil {
		return fmt.Errorf("failed to clear cached playlists: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM browse_sections"); err != nil {
		return fmt.Errorf("failed to clear cached sections: %w", err)
	}

	now := time.Now()
	for i, section := range sections {
		result, err := tx.Exec(
			"INSERT INTO browse_sections (title, description, position, fetched_at) VALUES (?, ?, ?, ?)",
			section.Title, section.Description, i, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert section: %w", err)
		}

		sectionID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get section id: %w", err)
		}

		for j, playlist := range section.Playlists {
			_, err := tx.Exec(
				"INSERT INTO browse_playlists (section_id, playlist_id, name, description, owner, position) VALUES (?, ?, ?, ?, ?, ?)",
				sectionID, playlist.ID, playlist.Name, playlist.Description, playlist.Owner.DisplayName, j,
			)
			if err != nil {
				return fmt.Errorf("failed to insert playlist: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}

	return nil
}

// LoadSections retrieves the cached snapshot in display order.
func (s *Store) LoadSections() ([]session.RecommendationSection, error) {
	rows, err := s.db.Query(
		"SELECT id, title, description FROM browse_sections ORDER BY position ASC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query sections: %w", err)
	}
	defer rows.Close()

	var sections []session.RecommendationSection
	var ids []int64
	for rows.Next() {
		var (
			id                 int64
			title, description string
		)
		if err := rows.Scan(&id, &title, &description); err != nil {
			return nil, fmt.Errorf("failed to scan section: %w", err)
		}
		ids = append(ids, id)
		sections = append(sections, session.RecommendationSection{
			Title:       title,
			Description: description,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	for i, id := range ids {
		playlists, err := s.loadPlaylists(id)
		if err != nil {
			return nil, err
		}
		sections[i].Playlists = playlists
	}

	return sections, nil
}

// LastFetched returns when the cached snapshot was written, or the zero time
// when the cache is empty.
func (s *Store) LastFetched() (time.Time, error) {
	var fetched sql.NullTime
	err := s.db.QueryRow("SELECT MAX(fetched_at) FROM browse_sections").Scan(&fetched)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query fetch time: %w", err)
	}
	if !fetched.Valid {
		return time.Time{}, nil
	}
	return fetched.Time, nil
}

// Clear drops the cached snapshot.
func (s *Store) Clear() error {
	if _, err := s.db.Exec("DELETE FROM browse_playlists"); err != nil {
		return fmt.Errorf("failed to clear cached playlists: %w", err)
	}
	if _, err := s.db.Exec("DELETE FROM browse_sections"); err != nil {
		return fmt.Errorf("failed to clear cached sections: %w", err)
	}
	return nil
}

func (s *Store) loadPlaylists(sectionID int64) ([]session.Playlist, error) {
	rows, err := s.db.Query(
		"SELECT playlist_id, name, description, owner FROM browse_playlists WHERE section_id = ? ORDER BY position ASC",
		sectionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	var playlists []session.Playlist
	for rows.Next() {
		var p session.Playlist
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Owner.DisplayName); err != nil {
			return nil, fmt.Errorf("failed to scan playlist: %w", err)
		}
		playlists = append(playlists, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return playlists, nil
}
