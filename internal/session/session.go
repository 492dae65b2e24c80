package session

import (
	"context"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spottyfi/internal/auth"
	"github.com/desertthunder/spottyfi/internal/shared"
	"golang.org/x/time/rate"
)

// Status is the coarse, externally observable session status. The UI reads
// it and never mutates it directly.
type Status int

const (
	StatusNotAuthenticated Status = iota
	StatusAuthenticating
	StatusAuthenticated
	StatusLoggingIn
	StatusLoggedIn
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusAuthenticating:
		return "authenticating"
	case StatusAuthenticated:
		return "authenticated"
	case StatusLoggingIn:
		return "logging in"
	case StatusLoggedIn:
		return "logged in"
	case StatusError:
		return "error"
	default:
		return "not authenticated"
	}
}

// State is a snapshot of the session: the status, the cached profile once
// logged in, and the error that produced an error-carrying state.
//
// The profile survives transient errors so the UI can keep identifying the
// user while a retry is pending.
type State struct {
	Status  Status
	Profile *Profile
	Err     error
}

// Options configures a Session. Provider is required; everything else
// defaults to production values.
type Options struct {
	Provider   *auth.Provider
	BaseURL    string
	HTTPClient *http.Client
	Logger     *log.Logger

	// CategoryPlaylistLimit caps playlists fetched per browse category.
	CategoryPlaylistLimit int
	// RateLimit throttles per-category playlist fetches (requests/second).
	RateLimit float64
	// OpenBrowser launches the system browser for the interactive flow.
	OpenBrowser func(url string) error
}

// Session is the authenticated-session façade the rest of the application
// uses. It owns the provider and the observable state, each behind the same
// mutex; the request pipeline never holds the lock across network I/O.
type Session struct {
	mu       sync.Mutex // guards provider, state, firstLogin
	lmu      sync.Mutex // serializes login/logout attempts
	provider *auth.Provider
	state    State

	// prevStatus is the status held before the last failure, restored when a
	// request succeeds again.
	prevStatus Status

	client      *http.Client
	baseURL     string
	logger      *log.Logger
	events      chan Event
	limiter     *rate.Limiter
	openBrowser func(string) error
	catLimit    int

	firstLoginPending bool
}

// New constructs the process-wide session. When the provider carries a
// persisted refresh token the session starts in the Authenticating state,
// signalling that a silent login is expected.
func New(opts Options) (*Session, error) {
	if opts.Provider == nil {
		return nil, shared.ErrMissingCredentials
	}
	if opts.BaseURL == "" {
		opts.BaseURL = SpotifyAPIURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.CategoryPlaylistLimit <= 0 {
		opts.CategoryPlaylistLimit = 5
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}

	state := State{Status: StatusNotAuthenticated}
	if opts.Provider.HasInitRefreshToken() {
		state.Status = StatusAuthenticating
	}

	return &Session{
		provider:    opts.Provider,
		state:       state,
		client:      opts.HTTPClient,
		baseURL:     opts.BaseURL,
		logger:      opts.Logger,
		events:      make(chan Event, 16),
		limiter:     rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
		openBrowser: opts.OpenBrowser,
		catLimit:    opts.CategoryPlaylistLimit,
	}, nil
}

// State returns a snapshot of the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Status returns the current coarse status.
func (s *Session) Status() Status {
	return s.State().Status
}

func (s *Session) currentProvider() *auth.Provider {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.provider
}

func (s *Session) setStatus(status Status) {
	s.mu.Lock()
	s.state.Status = status
	s.state.Err = nil
	s.mu.Unlock()
}

// fail records an error-carrying state, keeping the cached profile.
func (s *Session) fail(err error) {
	s.mu.Lock()
	if s.state.Status != StatusError {
		s.prevStatus = s.state.Status
	}
	s.state.Status = StatusError
	s.state.Err = err
	s.mu.Unlock()
}

// clearError leaves the error-carrying state once a request succeeds.
func (s *Session) clearError() {
	s.mu.Lock()
	if s.state.Status == StatusError {
		s.state.Status = s.prevStatus
		s.state.Err = nil
	}
	s.mu.Unlock()
}

func (s *Session) takeFirstLogin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending := s.firstLoginPending
	s.firstLoginPending = false
	return pending
}

// Login authenticates with Spotify.
//
// Without force, a persisted refresh token is exchanged silently; otherwise
// the system browser is opened to the authorization URL and the loopback
// listener waits for the redirect. Login attempts are serialized: the state
// moves Authenticating → Authenticated, or to an error-carrying state.
func (s *Session) Login(ctx context.Context, force bool) error {
	s.lmu.Lock()
	defer s.lmu.Unlock()

	logger := shared.WithLogger(s.logger, "attempt", shared.GenerateID())
	provider := s.currentProvider()

	s.setStatus(StatusAuthenticating)

	var err error
	if !force && provider.HasInitRefreshToken() {
		logger.Info("authenticating with persisted refresh token")
		err = provider.AuthenticateFromRefreshToken(ctx, provider.InitRefreshToken())
	} else {
		err = s.interactiveLogin(ctx, provider, logger)
	}

	if err != nil {
		logger.Error("login failed", "error", err)
		s.fail(err)
		s.emit(Event{Kind: EventFetchDone, State: s.State()})
		return err
	}

	s.mu.Lock()
	s.firstLoginPending = true
	s.mu.Unlock()
	s.setStatus(StatusAuthenticated)

	logger.Info("authenticated with Spotify")
	s.emit(Event{Kind: EventPersistToken, Token: provider.RefreshToken()})
	s.emit(Event{Kind: EventFetchDone, State: s.State()})
	return nil
}

// interactiveLogin drives the browser + loopback redirect flow.
func (s *Session) interactiveLogin(ctx context.Context, provider *auth.Provider, logger *log.Logger) error {
	if err := s.openBrowser(provider.AuthURL()); err != nil {
		logger.Warnf("could not open browser automatically: %v", err)
		logger.Infof("open this link in your web browser to continue:\n\n%s\n", provider.AuthURL())
	}

	srv := auth.NewServer(provider.Addr(), s.logger)
	code, state, err := srv.WaitForCode(ctx)
	if err != nil {
		return err
	}

	return provider.AuthenticateFromCode(ctx, code, state)
}

// Logout resets the session to NotAuthenticated, swaps in a brand-new
// provider with fresh PKCE material, and asks collaborators to clear the
// persisted refresh token.
func (s *Session) Logout() {
	s.lmu.Lock()
	defer s.lmu.Unlock()

	s.mu.Lock()
	if s.state.Profile != nil {
		s.logger.Info("logging out", "user", s.state.Profile.Name())
	}
	if next := s.provider.Logout(); next != nil {
		s.provider = next
	}
	s.state = State{Status: StatusNotAuthenticated}
	s.firstLoginPending = false
	s.mu.Unlock()

	s.emit(Event{Kind: EventPersistToken, Token: ""})
}

// FetchData orchestrates the profile fetch after authentication. Re-fetches
// update LoggedIn in place without flashing the LoggingIn state, and the
// first-login notification fires exactly once per fresh authentication.
func (s *Session) FetchData(ctx context.Context, locale string) error {
	if s.Status() != StatusLoggedIn {
		s.setStatus(StatusLoggingIn)
	}

	profile, err := s.CurrentUserProfile(ctx)
	if err != nil {
		s.emit(Event{Kind: EventFetchDone, State: s.State()})
		return err
	}

	s.mu.Lock()
	s.state = State{Status: StatusLoggedIn, Profile: profile}
	s.mu.Unlock()

	if s.takeFirstLogin() {
		s.logger.Info("first login completed", "user", profile.Name())
		s.emit(Event{Kind: EventFirstLogin})
	}
	s.emit(Event{Kind: EventFetchDone, State: s.State()})
	return nil
}
