package session

import (
	"context"
	"sync"
	"testing"
	"time"
)

type deliveryLog struct {
	mu      sync.Mutex
	queries []string
}

func (d *deliveryLog) record(query string, _ *SearchResults, _ error) {
	d.mu.Lock()
	d.queries = append(d.queries, query)
	d.mu.Unlock()
}

func (d *deliveryLog) snapshot() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.queries...)
}

func TestSearcher(t *testing.T) {
	login := func(t *testing.T) *harness {
		t.Helper()
		h := newHarness(t, "persisted_refresh")
		if err := h.session.Login(context.Background(), false); err != nil {
			t.Fatalf("login should succeed: %v", err)
		}
		return h
	}

	t.Run("New Search Aborts Previous", func(t *testing.T) {
		h := login(t)
		h.fake.setSearchDelay(200 * time.Millisecond)

		searcher := NewSearcher(h.session, SearchTrack, 20)
		deliveries := &deliveryLog{}

		searcher.Search(context.Background(), "a", deliveries.record)
		time.Sleep(50 * time.Millisecond)
		searcher.Search(context.Background(), "ab", deliveries.record)

		time.Sleep(500 * time.Millisecond)

		got := deliveries.snapshot()
		if len(got) != 1 || got[0] != "ab" {
			t.Fatalf("only the latest search should deliver, got %v", got)
		}
	})

	t.Run("Aborted Search Leaves State Intact", func(t *testing.T) {
		h := login(t)
		if err := h.session.FetchData(context.Background(), "en_US"); err != nil {
			t.Fatalf("fetch should succeed: %v", err)
		}
		h.fake.setSearchDelay(200 * time.Millisecond)

		searcher := NewSearcher(h.session, SearchTrack, 20)
		deliveries := &deliveryLog{}

		searcher.Search(context.Background(), "a", deliveries.record)
		time.Sleep(50 * time.Millisecond)
		searcher.Search(context.Background(), "ab", deliveries.record)

		time.Sleep(500 * time.Millisecond)

		if got := deliveries.snapshot(); len(got) != 1 || got[0] != "ab" {
			t.Fatalf("only the latest search should deliver, got %v", got)
		}

		st := h.session.State()
		if st.Status != StatusLoggedIn || st.Err != nil {
			t.Fatalf("an aborted search must not disturb the session state, got %+v", st)
		}
	})

	t.Run("Empty Query Cancels Without Searching", func(t *testing.T) {
		h := login(t)
		h.fake.setSearchDelay(200 * time.Millisecond)

		searcher := NewSearcher(h.session, SearchAll, 20)
		deliveries := &deliveryLog{}

		searcher.Search(context.Background(), "abandoned", deliveries.record)
		time.Sleep(50 * time.Millisecond)
		searcher.Search(context.Background(), "   ", deliveries.record)

		time.Sleep(400 * time.Millisecond)

		if got := deliveries.snapshot(); len(got) != 0 {
			t.Fatalf("cancelled search must not deliver, got %v", got)
		}
	})

	t.Run("Cancel Suppresses Delivery", func(t *testing.T) {
		h := login(t)
		h.fake.setSearchDelay(200 * time.Millisecond)

		searcher := NewSearcher(h.session, SearchAll, 20)
		deliveries := &deliveryLog{}

		searcher.Search(context.Background(), "doomed", deliveries.record)
		time.Sleep(50 * time.Millisecond)
		searcher.Cancel()

		time.Sleep(400 * time.Millisecond)

		if got := deliveries.snapshot(); len(got) != 0 {
			t.Fatalf("cancelled search must not deliver, got %v", got)
		}
	})

	t.Run("Completed Search Delivers Once", func(t *testing.T) {
		h := login(t)

		searcher := NewSearcher(h.session, SearchTrack, 10)
		deliveries := &deliveryLog{}

		searcher.Search(context.Background(), "radiohead", deliveries.record)
		time.Sleep(300 * time.Millisecond)

		got := deliveries.snapshot()
		if len(got) != 1 || got[0] != "radiohead" {
			t.Fatalf("expected a single delivery for %q, got %v", "radiohead", got)
		}
	})
}
