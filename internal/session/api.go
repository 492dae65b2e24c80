package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/desertthunder/spottyfi/internal/shared"
)

// SpotifyAPIURL is the Web API base URL.
const SpotifyAPIURL = "https://api.spotify.com/v1"

// requestTimeout bounds every Web API round trip.
const requestTimeout = 5 * time.Second

// do is the generic authenticated-request primitive. Failures are recorded
// in the observable session state.
func (s *Session) do(ctx context.Context, method, path string, query url.Values, result any) error {
	return s.request(ctx, method, path, query, result, true)
}

// request resolves the access token (forcing a refresh attempt when the last
// known state was an error), issues the call with a bounded timeout,
// classifies transport/status/decode failures, logs the outcome, and on
// success notifies collaborators to persist the possibly rotated refresh
// token. No call is retried automatically; the caller decides.
//
// A success clears a lingering error-carrying state, restoring the status
// held before the failure. With fatal unset a failure is only returned,
// never recorded: callers assembling partial results tolerate it themselves.
// A request aborted by the caller's own ctx is never recorded either,
// whatever fatal says.
func (s *Session) request(ctx context.Context, method, path string, query url.Values, result any, fatal bool) error {
	provider := s.currentProvider()

	tok, err := provider.Token(ctx, s.Status() == StatusError)
	if err != nil {
		s.recordFailure(ctx, err, fatal)
		return err
	}
	refreshSecret := provider.RefreshToken()

	endpoint := s.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	readable, _ := url.QueryUnescape(query.Encode())
	logger := shared.WithLogger(s.logger, "method", method, "path", path, "query", readable)

	start := time.Now()
	resp, err := s.client.Do(req)
	elapsed := time.Since(start)

	if err != nil {
		err = fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		logger.Error("request failed", "elapsed", elapsed, "error", err)
		s.recordFailure(ctx, err, fatal)
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		logger.Error("failed to read response", "elapsed", elapsed, "error", err)
		s.recordFailure(ctx, err, fatal)
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err = fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
		logger.Warn("request failed", "status", resp.StatusCode, "elapsed", elapsed)
		s.recordFailure(ctx, err, fatal)
		return err
	}

	if result != nil {
		if jerr := json.Unmarshal(body, result); jerr != nil {
			err = fmt.Errorf("%w: %v", shared.ErrDecodeResponse, jerr)
			logger.Error("failed to decode response", "elapsed", elapsed, "body", string(body))
			s.recordFailure(ctx, err, fatal)
			return err
		}
	}

	logger.Debug("request completed", "status", resp.StatusCode, "elapsed", elapsed)
	s.clearError()
	s.emit(Event{Kind: EventPersistToken, Token: refreshSecret})
	return nil
}

// recordFailure routes a request failure into the error-carrying state. An
// abort driven by the caller's own context is not a session error.
func (s *Session) recordFailure(ctx context.Context, err error, fatal bool) {
	if !fatal || ctx.Err() != nil {
		return
	}
	s.fail(err)
}

// CurrentUserProfile retrieves the authenticated user's profile.
func (s *Session) CurrentUserProfile(ctx context.Context) (*Profile, error) {
	var profile Profile
	if err := s.do(ctx, http.MethodGet, "/me", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Search queries the search endpoint for the given result types.
func (s *Session) Search(ctx context.Context, q string, types SearchType, limit int) (*SearchResults, error) {
	if q == "" {
		return nil, fmt.Errorf("%w: empty search query", shared.ErrInvalidArgument)
	}
	if types == 0 {
		types = SearchAll
	}

	query := url.Values{"q": {q}, "type": {types.String()}}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var results SearchResults
	if err := s.do(ctx, http.MethodGet, "/search", query, &results); err != nil {
		return nil, err
	}
	return &results, nil
}

type categoriesEnvelope struct {
	Categories CategoryPage `json:"categories"`
}

// BrowseCategories retrieves browse categories for the given locale.
func (s *Session) BrowseCategories(ctx context.Context, locale string, limit int) (*CategoryPage, error) {
	query := url.Values{}
	if locale != "" {
		query.Set("locale", locale)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var envelope categoriesEnvelope
	if err := s.do(ctx, http.MethodGet, "/browse/categories", query, &envelope); err != nil {
		return nil, err
	}
	return &envelope.Categories, nil
}

// Category retrieves a single browse category by ID.
func (s *Session) Category(ctx context.Context, id, locale string) (*Category, error) {
	query := url.Values{}
	if locale != "" {
		query.Set("locale", locale)
	}

	var category Category
	if err := s.do(ctx, http.MethodGet, "/browse/categories/"+id, query, &category); err != nil {
		return nil, err
	}
	return &category, nil
}

type categoryPlaylistsEnvelope struct {
	Playlists PlaylistPage `json:"playlists"`
}

// CategoryPlaylists retrieves playlists for a browse category.
func (s *Session) CategoryPlaylists(ctx context.Context, id string, limit int) (*PlaylistPage, error) {
	return s.categoryPlaylists(ctx, id, limit, true)
}

// categoryPlaylists backs CategoryPlaylists; recommendation assembly fetches
// with fatal unset because a failed shelf is skipped, not surfaced.
func (s *Session) categoryPlaylists(ctx context.Context, id string, limit int, fatal bool) (*PlaylistPage, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var envelope categoryPlaylistsEnvelope
	if err := s.request(ctx, http.MethodGet, "/browse/categories/"+id+"/playlists", query, &envelope, fatal); err != nil {
		return nil, err
	}
	return &envelope.Playlists, nil
}

// GetFeaturedPlaylists retrieves the featured-playlists browse shelf.
func (s *Session) GetFeaturedPlaylists(ctx context.Context, locale string, limit int) (*FeaturedPlaylists, error) {
	return s.featuredPlaylists(ctx, locale, limit, true)
}

func (s *Session) featuredPlaylists(ctx context.Context, locale string, limit int, fatal bool) (*FeaturedPlaylists, error) {
	query := url.Values{}
	if locale != "" {
		query.Set("locale", locale)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var featured FeaturedPlaylists
	if err := s.request(ctx, http.MethodGet, "/browse/featured-playlists", query, &featured, fatal); err != nil {
		return nil, err
	}
	return &featured, nil
}
