// Package session provides the process-wide authenticated Spotify session.
//
// [Session] wraps an [auth.Provider] behind a mutex, tracks the coarse
// [State] the UI layer observes, and exposes typed Web API calls built on a
// single authenticated-request primitive. Collaborators (the CLI runner, the
// TUI) consume [Event] notifications instead of being called directly, so
// the core carries no rendering or persistence concern.
//
// The session object is constructed once at startup, with an optional
// persisted refresh token, and passed by handle to whoever needs it. There
// is no package-level singleton.
package session
