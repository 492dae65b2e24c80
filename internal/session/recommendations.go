package session

import (
	"context"
	"fmt"

	"github.com/desertthunder/spottyfi/internal/shared"
)

// MadeForYouCategoryID is the browse category holding personalized mixes.
const MadeForYouCategoryID = "0JQ5DAt0tbjZptfcdMSKl3"

// RecommendationSection is one labeled shelf of browse content.
type RecommendationSection struct {
	Title       string
	Description string
	Playlists   []Playlist
}

// BrowseRecommendations builds labeled browse sections: the featured shelf
// first, then one section per browse category.
//
// A failure fetching one shelf's playlists is logged and that section is
// skipped; partial results are acceptable and never disturb the observable
// session state. Category fetches are rate limited to stay inside the Web
// API quota.
func (s *Session) BrowseRecommendations(ctx context.Context, locale string) ([]RecommendationSection, error) {
	categories, err := s.BrowseCategories(ctx, locale, 20)
	if err != nil {
		return nil, err
	}

	sections := make([]RecommendationSection, 0, len(categories.Items)+1)

	if featured, err := s.featuredPlaylists(ctx, locale, s.catLimit, false); err != nil {
		s.logger.Warn("failed to get featured playlists", "error", err)
	} else {
		title := featured.Message
		if title == "" {
			title = "Featured playlists"
		}
		sections = append(sections, RecommendationSection{
			Title:     title,
			Playlists: featured.Playlists.Items,
		})
	}

	for _, category := range categories.Items {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}

		page, err := s.categoryPlaylists(ctx, category.ID, s.catLimit, false)
		if err != nil {
			s.logger.Error("failed to get playlists for category", "category", category.ID, "error", err)
			continue
		}

		section := RecommendationSection{
			Title:     category.Name,
			Playlists: page.Items,
		}

		// The personalized mixes shelf goes right after the featured one.
		if category.ID == MadeForYouCategoryID && len(sections) > 0 {
			sections = append(sections[:1], append([]RecommendationSection{section}, sections[1:]...)...)
			continue
		}

		sections = append(sections, section)
	}

	return sections, nil
}
