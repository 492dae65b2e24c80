package session

import (
	"context"
	"strings"
	"sync"
)

// Searcher issues cancellable search queries against a session.
//
// Starting a new search aborts any in-flight one, and an aborted search
// never delivers its result. An empty query cancels outstanding work without
// starting a new search.
type Searcher struct {
	mu      sync.Mutex
	cancel  context.CancelFunc
	session *Session
	types   SearchType
	limit   int
}

// NewSearcher creates a Searcher for the given result types and page size.
func NewSearcher(s *Session, types SearchType, limit int) *Searcher {
	if types == 0 {
		types = SearchAll
	}
	return &Searcher{session: s, types: types, limit: limit}
}

// Search starts a search for query, delivering the outcome through deliver
// on a separate goroutine. The delivered query identifies which search the
// results belong to.
func (sr *Searcher) Search(ctx context.Context, query string, deliver func(query string, results *SearchResults, err error)) {
	sr.mu.Lock()
	if sr.cancel != nil {
		sr.cancel()
		sr.cancel = nil
	}

	query = strings.TrimSpace(query)
	if query == "" {
		sr.mu.Unlock()
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	sr.cancel = cancel
	sr.mu.Unlock()

	go func() {
		defer cancel()

		results, err := sr.session.Search(ctx, query, sr.types, sr.limit)
		if ctx.Err() != nil {
			// Aborted: the result must never reach shared state.
			return
		}
		deliver(query, results, err)
	}()
}

// Cancel aborts any in-flight search.
func (sr *Searcher) Cancel() {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	if sr.cancel != nil {
		sr.cancel()
		sr.cancel = nil
	}
}
