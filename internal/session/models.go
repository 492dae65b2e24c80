// Spotify Web API response types, based on
// https://developer.spotify.com/documentation/web-api/reference/
package session

import "strings"

// Image represents an image resource.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type followers struct {
	Total int `json:"total"`
}

// Profile represents the authenticated user's profile. It is fetched once
// per login, cached in the session state, and refreshed only by an explicit
// re-fetch.
type Profile struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Country     string    `json:"country"`
	Product     string    `json:"product"` // premium, free, etc.
	Followers   followers `json:"followers"`
	Images      []Image   `json:"images"`
}

// Name returns the display name, falling back to the user ID.
func (p *Profile) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.ID
}

// SafeEmail returns the email or a placeholder when the scope did not grant it.
func (p *Profile) SafeEmail() string {
	if p.Email == "" {
		return "<none>"
	}
	return p.Email
}

// SafeCountry returns the country or a placeholder when unavailable.
func (p *Profile) SafeCountry() string {
	if p.Country == "" {
		return "<none>"
	}
	return p.Country
}

// Category represents a browse category.
type Category struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Icons []Image `json:"icons"`
}

// CategoryPage represents a paginated list of browse categories.
type CategoryPage struct {
	Items  []Category `json:"items"`
	Total  int        `json:"total"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
	Next   *string    `json:"next"`
}

// Owner identifies a playlist owner.
type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Playlist represents a simplified playlist object (used in lists).
type Playlist struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Owner       Owner   `json:"owner"`
	Images      []Image `json:"images"`
	URI         string  `json:"uri"`
}

// PlaylistPage represents a paginated list of playlists.
type PlaylistPage struct {
	Items  []Playlist `json:"items"`
	Total  int        `json:"total"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
	Next   *string    `json:"next"`
}

// FeaturedPlaylists is the featured-playlists browse response.
type FeaturedPlaylists struct {
	Message   string       `json:"message"`
	Playlists PlaylistPage `json:"playlists"`
}

// Artist represents an artist.
type Artist struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Genres []string `json:"genres"`
	Images []Image  `json:"images"`
	URI    string   `json:"uri"`
}

// Album represents an album.
type Album struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Artists     []Artist `json:"artists"`
	ReleaseDate string   `json:"release_date"`
	TotalTracks int      `json:"total_tracks"`
	Images      []Image  `json:"images"`
	URI         string   `json:"uri"`
}

// Track represents a track.
type Track struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Artists    []Artist `json:"artists"`
	Album      Album    `json:"album"`
	DurationMS int      `json:"duration_ms"`
	Explicit   bool     `json:"explicit"`
	Popularity int      `json:"popularity"`
	URI        string   `json:"uri"`
}

// ArtistPage represents a paginated list of artists.
type ArtistPage struct {
	Items  []Artist `json:"items"`
	Total  int      `json:"total"`
	Limit  int      `json:"limit"`
	Offset int      `json:"offset"`
	Next   *string  `json:"next"`
}

// AlbumPage represents a paginated list of albums.
type AlbumPage struct {
	Items  []Album `json:"items"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
	Next   *string `json:"next"`
}

// TrackPage represents a paginated list of tracks.
type TrackPage struct {
	Items  []Track `json:"items"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
	Next   *string `json:"next"`
}

// SearchResults holds whichever result pages the requested search types
// produced.
type SearchResults struct {
	Albums    *AlbumPage    `json:"albums"`
	Artists   *ArtistPage   `json:"artists"`
	Playlists *PlaylistPage `json:"playlists"`
	Tracks    *TrackPage    `json:"tracks"`
}

// IsEmpty reports whether the search produced no result pages at all.
func (r *SearchResults) IsEmpty() bool {
	return r.Albums == nil && r.Artists == nil && r.Playlists == nil && r.Tracks == nil
}

// SearchType is a bit set of result kinds to request from the search
// endpoint.
type SearchType uint8

const (
	SearchAlbum SearchType = 1 << iota
	SearchArtist
	SearchPlaylist
	SearchTrack

	SearchAll = SearchAlbum | SearchArtist | SearchPlaylist | SearchTrack
)

// ParseSearchTypes parses a comma-separated list of search type names,
// ignoring unknown entries.
func ParseSearchTypes(value string) SearchType {
	var flags SearchType
	for _, part := range strings.Split(value, ",") {
		switch strings.TrimSpace(part) {
		case "album":
			flags |= SearchAlbum
		case "artist":
			flags |= SearchArtist
		case "playlist":
			flags |= SearchPlaylist
		case "track":
			flags |= SearchTrack
		}
	}
	return flags
}

// String renders the set as the comma-separated form the search endpoint
// expects.
func (t SearchType) String() string {
	var names []string
	if t&SearchAlbum != 0 {
		names = append(names, "album")
	}
	if t&SearchArtist != 0 {
		names = append(names, "artist")
	}
	if t&SearchPlaylist != 0 {
		names = append(names, "playlist")
	}
	if t&SearchTrack != 0 {
		names = append(names, "track")
	}
	return strings.Join(names, ",")
}
