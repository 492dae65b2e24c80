package session

// EventKind enumerates the notifications the session emits to external
// collaborators (token persistence, UI refresh).
type EventKind int

const (
	// EventPersistToken asks the collaborator to persist the refresh token
	// carried in [Event.Token]. An empty token means clear any persisted one.
	EventPersistToken EventKind = iota
	// EventFirstLogin fires exactly once per fresh authentication, after the
	// first successful profile fetch.
	EventFirstLogin
	// EventFetchDone reports that a login or data fetch settled, carrying the
	// resulting session state.
	EventFetchDone
)

// Event is an asynchronous notification message. Events decouple the session
// core from whichever UI or persistence layer happens to be listening.
type Event struct {
	Kind  EventKind
	Token string
	State State
}

// Events returns the notification channel. Events are dropped, not queued
// indefinitely, when no collaborator is draining the channel.
func (s *Session) Events() <-chan Event {
	return s.events
}

// emit sends a notification without blocking the pipeline.
func (s *Session) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
		s.logger.Debug("dropping session event", "kind", ev.Kind)
	}
}
