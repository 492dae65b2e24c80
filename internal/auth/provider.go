package auth

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/desertthunder/spottyfi/internal/shared"
	"golang.org/x/oauth2"
)

const (
	// SpotifyAuthURL is the Spotify accounts authorization endpoint.
	SpotifyAuthURL = "https://accounts.spotify.com/authorize"
	// SpotifyTokenURL is the Spotify accounts token endpoint.
	SpotifyTokenURL = "https://accounts.spotify.com/api/token"
	// SpotifyAccountsURL links to the user's account overview page.
	SpotifyAccountsURL = "https://www.spotify.com/account/overview/"

	defaultPortMin = 10000
	defaultPortMax = 65535

	// Token endpoint calls get their own deadline so a stalled exchange
	// cannot hang a login attempt indefinitely.
	exchangeTimeout = 10 * time.Second
)

// DefaultScopes are the scopes requested during authorization.
var DefaultScopes = []string{
	"streaming",
	"user-read-email",
	"user-read-private",
	"playlist-read-private",
	"playlist-read-collaborative",
	"playlist-modify-public",
	"playlist-modify-private",
	"user-follow-modify",
	"user-follow-read",
	"user-library-read",
	"user-library-modify",
	"user-top-read",
	"user-read-recently-played",
}

// Phase describes the provider's client state.
type Phase int

const (
	// PhaseUnauthenticated is the initial state; the provider holds flow
	// config but no token.
	PhaseUnauthenticated Phase = iota
	// PhaseAuthenticating marks an exchange in flight. Concurrent exchange
	// attempts observe this phase and fail fast.
	PhaseAuthenticating
	// PhaseAuthenticated means the provider holds a valid token pair.
	PhaseAuthenticated
)

func (p Phase) String() string {
	switch p {
	case PhaseAuthenticating:
		return "authenticating"
	case PhaseAuthenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Options configures a Provider. AuthURL, TokenURL, Scopes, and the port
// range default to the Spotify production values when unset.
type Options struct {
	ClientID string
	Scopes   []string
	AuthURL  string
	TokenURL string
	PortMin  int
	PortMax  int

	// RefreshToken is a previously persisted refresh token. When present the
	// caller should attempt AuthenticateFromRefreshToken before falling back
	// to the interactive flow.
	RefreshToken string
}

// Provider manages the authorization-code + PKCE flow and token lifecycle
// for a single login attempt.
type Provider struct {
	mu sync.Mutex

	opts  Options
	phase Phase
	conf  *oauth2.Config
	token *oauth2.Token

	verifier  string
	csrfState string
	port      int
	authURL   string

	initRefreshToken string
}

// New creates a provider with a fresh PKCE verifier/challenge pair, CSRF
// state token, and a random loopback redirect port.
func New(opts Options) (*Provider, error) {
	if opts.ClientID == "" {
		return nil, fmt.Errorf("%w: client ID is required", shared.ErrMissingCredentials)
	}
	if opts.AuthURL == "" {
		opts.AuthURL = SpotifyAuthURL
	}
	if opts.TokenURL == "" {
		opts.TokenURL = SpotifyTokenURL
	}
	if len(opts.Scopes) == 0 {
		opts.Scopes = DefaultScopes
	}
	if opts.PortMin <= 0 {
		opts.PortMin = defaultPortMin
	}
	if opts.PortMax < opts.PortMin {
		opts.PortMax = defaultPortMax
	}

	state, err := shared.GenerateState()
	if err != nil {
		return nil, err
	}

	port := opts.PortMin + rand.IntN(opts.PortMax-opts.PortMin+1)
	verifier := oauth2.GenerateVerifier()

	conf := &oauth2.Config{
		ClientID:    opts.ClientID,
		Scopes:      opts.Scopes,
		RedirectURL: fmt.Sprintf("http://127.0.0.1:%d/login", port),
		Endpoint: oauth2.Endpoint{
			AuthURL:  opts.AuthURL,
			TokenURL: opts.TokenURL,
		},
	}

	return &Provider{
		opts:             opts,
		phase:            PhaseUnauthenticated,
		conf:             conf,
		verifier:         verifier,
		csrfState:        state,
		port:             port,
		authURL:          conf.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier)),
		initRefreshToken: opts.RefreshToken,
	}, nil
}

// AuthURL returns the authorization URL the user's browser should visit.
func (p *Provider) AuthURL() string { return p.authURL }

// Addr returns the loopback address the redirect listener must bind.
func (p *Provider) Addr() string { return fmt.Sprintf("127.0.0.1:%d", p.port) }

// Port returns the redirect port chosen for this login attempt.
func (p *Provider) Port() int { return p.port }

// Phase returns the current client phase.
func (p *Provider) Phase() Phase {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.phase
}

// HasInitRefreshToken reports whether a persisted refresh token was supplied
// at construction and has not yet been consumed.
func (p *Provider) HasInitRefreshToken() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.initRefreshToken != ""
}

// InitRefreshToken returns the persisted refresh token supplied at
// construction, if any.
func (p *Provider) InitRefreshToken() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.initRefreshToken
}

// RefreshToken returns the current refresh token secret for external
// persistence, or the empty string if none is held.
func (p *Provider) RefreshToken() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.token != nil && p.token.RefreshToken != "" {
		return p.token.RefreshToken
	}
	return p.initRefreshToken
}

// begin swaps the client into the Authenticating phase, failing fast when an
// exchange is already in flight or completed.
func (p *Provider) begin() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.phase {
	case PhaseAuthenticated:
		return fmt.Errorf("%w: cannot authenticate an already authenticated client", shared.ErrBadOperation)
	case PhaseAuthenticating:
		return fmt.Errorf("%w: cannot authenticate with a pending operation", shared.ErrBadOperation)
	}

	p.phase = PhaseAuthenticating
	return nil
}

// rollback restores the Unauthenticated phase after a failed exchange so the
// client is never left stuck in Authenticating.
func (p *Provider) rollback() {
	p.mu.Lock()
	p.phase = PhaseUnauthenticated
	p.mu.Unlock()
}

// complete stores the exchanged token pair and marks the client Authenticated.
func (p *Provider) complete(tok *oauth2.Token) {
	p.mu.Lock()
	p.token = tok
	p.initRefreshToken = ""
	p.phase = PhaseAuthenticated
	p.mu.Unlock()
}

// AuthenticateFromCode exchanges an authorization code and the stored PKCE
// verifier for a token pair.
//
// The csrfState must match the state token generated at construction;
// a mismatch fails the attempt before any network call.
func (p *Provider) AuthenticateFromCode(ctx context.Context, code, csrfState string) error {
	if err := p.begin(); err != nil {
		return err
	}

	if csrfState != p.csrfState {
		p.rollback()
		return fmt.Errorf("%w: state parameter does not match authorization request", shared.ErrAuthFailed)
	}

	ctx, cancel := context.WithTimeout(ctx, exchangeTimeout)
	defer cancel()

	tok, err := p.conf.Exchange(ctx, code, oauth2.VerifierOption(p.verifier))
	if err != nil {
		p.rollback()
		return fmt.Errorf("%w: %v", shared.ErrCodeExchange, err)
	}

	p.complete(tok)
	return nil
}

// AuthenticateFromRefreshToken exchanges a persisted refresh token for a
// fresh token pair, skipping the interactive flow.
func (p *Provider) AuthenticateFromRefreshToken(ctx context.Context, secret string) error {
	if secret == "" {
		return shared.ErrNoRefreshToken
	}

	if err := p.begin(); err != nil {
		return err
	}

	tok, err := p.exchangeRefreshToken(ctx, secret)
	if err != nil {
		p.rollback()
		return err
	}

	p.complete(tok)
	return nil
}

// Token returns the current token pair.
//
// When shouldRefresh is set and a refresh token is held, the access token is
// refreshed first and the stored pair replaced atomically. Without
// shouldRefresh the cached pair is returned unchanged.
func (p *Provider) Token(ctx context.Context, shouldRefresh bool) (*oauth2.Token, error) {
	p.mu.Lock()
	if p.phase != PhaseAuthenticated || p.token == nil {
		p.mu.Unlock()
		return nil, fmt.Errorf("%w: no Spotify session", shared.ErrNotAuthenticated)
	}
	tok := p.token
	p.mu.Unlock()

	if !shouldRefresh || tok.RefreshToken == "" {
		return tok, nil
	}

	fresh, err := p.exchangeRefreshToken(ctx, tok.RefreshToken)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.token = fresh
	p.mu.Unlock()

	return fresh, nil
}

// Logout returns a brand-new unauthenticated provider with fresh PKCE
// material, or nil when the client is not authenticated. The receiver is
// never mutated.
func (p *Provider) Logout() *Provider {
	p.mu.Lock()
	authenticated := p.phase == PhaseAuthenticated
	p.mu.Unlock()

	if !authenticated {
		return nil
	}

	opts := p.opts
	opts.RefreshToken = ""

	next, err := New(opts)
	if err != nil {
		return nil
	}
	return next
}

// exchangeRefreshToken performs a refresh-token grant against the token
// endpoint. Providers that do not rotate refresh tokens omit the secret from
// the response, so the previous secret is carried forward.
func (p *Provider) exchangeRefreshToken(ctx context.Context, secret string) (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, exchangeTimeout)
	defer cancel()

	src := p.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: secret})
	tok, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrTokenRefresh, err)
	}

	if tok.RefreshToken == "" {
		tok.RefreshToken = secret
	}
	return tok, nil
}
