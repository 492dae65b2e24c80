package ui

import (
	"time"

	"github.com/desertthunder/spottyfi/internal/session"
)

// loginDoneMsg reports the outcome of a login attempt.
type loginDoneMsg struct {
	err error
}

// fetchDoneMsg reports the outcome of the post-login profile fetch.
type fetchDoneMsg struct {
	state session.State
	err   error
}

// sectionsFetchedMsg carries freshly fetched (or cached) browse shelves.
type sectionsFetchedMsg struct {
	sections []session.RecommendationSection
	cached   bool
	err      error
}

// searchResultMsg carries the outcome of the latest completed search. Aborted
// searches never produce one.
type searchResultMsg struct {
	query   string
	results *session.SearchResults
	err     error
}

// refreshTickMsg fires on the periodic browse-refresh timer.
type refreshTickMsg time.Time
