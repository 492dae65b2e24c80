package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/spottyfi/internal/shared"
)

// fakeTokenEndpoint serves authorization-code and refresh-token grants with
// canned token pairs. The optional delay simulates a slow exchange.
func fakeTokenEndpoint(t *testing.T, delay time.Duration) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if delay > 0 {
			time.Sleep(delay)
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		switch r.FormValue("grant_type") {
		case "authorization_code":
			fmt.Fprint(w, `{"access_token":"access_1","token_type":"Bearer","refresh_token":"refresh_1","expires_in":3600}`)
		case "refresh_token":
			fmt.Fprint(w, `{"access_token":"access_2","token_type":"Bearer","expires_in":3600}`)
		default:
			http.Error(w, `{"error":"unsupported_grant_type"}`, http.StatusBadRequest)
		}
	}))
}

func newTestProvider(t *testing.T, tokenURL, refreshToken string) *Provider {
	t.Helper()

	p, err := New(Options{
		ClientID:     "test_client_id",
		TokenURL:     tokenURL,
		RefreshToken: refreshToken,
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	return p
}

func TestProvider(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("Missing Client ID", func(t *testing.T) {
			_, err := New(Options{})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected missing credentials error, got %v", err)
			}
		})

		t.Run("Authorization URL", func(t *testing.T) {
			p := newTestProvider(t, "", "")

			u, err := url.Parse(p.AuthURL())
			if err != nil {
				t.Fatalf("auth URL should parse: %v", err)
			}

			q := u.Query()
			if q.Get("client_id") != "test_client_id" {
				t.Errorf("auth URL should carry client_id, got %s", q.Get("client_id"))
			}
			if q.Get("code_challenge") == "" || q.Get("code_challenge_method") != "S256" {
				t.Error("auth URL should carry an S256 PKCE challenge")
			}
			if q.Get("state") == "" {
				t.Error("auth URL should carry a state token")
			}
			if !strings.Contains(q.Get("redirect_uri"), "127.0.0.1") {
				t.Errorf("redirect URI should be a loopback address, got %s", q.Get("redirect_uri"))
			}
		})

		t.Run("Fresh PKCE Material Per Provider", func(t *testing.T) {
			a := newTestProvider(t, "", "")
			b := newTestProvider(t, "", "")

			if a.AuthURL() == b.AuthURL() {
				t.Error("two providers should never share challenge or state")
			}
			if a.verifier == b.verifier {
				t.Error("two providers should never share a PKCE verifier")
			}
		})
	})

	t.Run("AuthenticateFromCode", func(t *testing.T) {
		t.Run("Success", func(t *testing.T) {
			ts := fakeTokenEndpoint(t, 0)
			defer ts.Close()

			p := newTestProvider(t, ts.URL, "")
			if err := p.AuthenticateFromCode(context.Background(), "auth_code", p.csrfState); err != nil {
				t.Fatalf("expected exchange to succeed, got %v", err)
			}

			if p.Phase() != PhaseAuthenticated {
				t.Errorf("expected authenticated phase, got %v", p.Phase())
			}

			tok, err := p.Token(context.Background(), false)
			if err != nil {
				t.Fatalf("expected token after exchange, got %v", err)
			}
			if tok.AccessToken != "access_1" || tok.RefreshToken != "refresh_1" {
				t.Errorf("unexpected token pair: %q / refresh present=%v", tok.AccessToken, tok.RefreshToken != "")
			}
		})

		t.Run("State Mismatch", func(t *testing.T) {
			ts := fakeTokenEndpoint(t, 0)
			defer ts.Close()

			p := newTestProvider(t, ts.URL, "")
			err := p.AuthenticateFromCode(context.Background(), "auth_code", "forged_state")
			if !errors.Is(err, shared.ErrAuthFailed) {
				t.Errorf("expected authentication failure, got %v", err)
			}

			if p.Phase() != PhaseUnauthenticated {
				t.Errorf("failed attempt should roll back to unauthenticated, got %v", p.Phase())
			}
		})

		t.Run("Exchange Failure Rolls Back", func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			}))
			defer ts.Close()

			p := newTestProvider(t, ts.URL, "")
			err := p.AuthenticateFromCode(context.Background(), "expired_code", p.csrfState)
			if !errors.Is(err, shared.ErrCodeExchange) {
				t.Errorf("expected code exchange failure, got %v", err)
			}

			if p.Phase() != PhaseUnauthenticated {
				t.Errorf("failed exchange should roll back to unauthenticated, got %v", p.Phase())
			}

			// The same provider must accept a retry after rollback.
			good := fakeTokenEndpoint(t, 0)
			defer good.Close()
			p.conf.Endpoint.TokenURL = good.URL

			if err := p.AuthenticateFromCode(context.Background(), "auth_code", p.csrfState); err != nil {
				t.Errorf("retry after rollback should succeed, got %v", err)
			}
		})

		t.Run("Already Authenticated", func(t *testing.T) {
			ts := fakeTokenEndpoint(t, 0)
			defer ts.Close()

			p := newTestProvider(t, ts.URL, "")
			if err := p.AuthenticateFromCode(context.Background(), "auth_code", p.csrfState); err != nil {
				t.Fatalf("first exchange should succeed: %v", err)
			}

			err := p.AuthenticateFromCode(context.Background(), "auth_code", p.csrfState)
			if !errors.Is(err, shared.ErrBadOperation) {
				t.Errorf("expected bad operation, got %v", err)
			}
		})

		t.Run("Single Exchange In Flight", func(t *testing.T) {
			ts := fakeTokenEndpoint(t, 150*time.Millisecond)
			defer ts.Close()

			p := newTestProvider(t, ts.URL, "")

			const attempts = 8
			var wg sync.WaitGroup
			errs := make([]error, attempts)

			for i := 0; i < attempts; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					errs[i] = p.AuthenticateFromCode(context.Background(), "auth_code", p.csrfState)
				}(i)
			}
			wg.Wait()

			succeeded := 0
			for _, err := range errs {
				if err == nil {
					succeeded++
				} else if !errors.Is(err, shared.ErrBadOperation) {
					t.Errorf("losing attempts must fail fast with bad operation, got %v", err)
				}
			}
			if succeeded != 1 {
				t.Errorf("exactly one concurrent exchange should succeed, got %d", succeeded)
			}
			if p.Phase() != PhaseAuthenticated {
				t.Errorf("winner should leave the client authenticated, got %v", p.Phase())
			}
		})
	})

	t.Run("AuthenticateFromRefreshToken", func(t *testing.T) {
		t.Run("Success", func(t *testing.T) {
			ts := fakeTokenEndpoint(t, 0)
			defer ts.Close()

			p := newTestProvider(t, ts.URL, "persisted_refresh")
			if err := p.AuthenticateFromRefreshToken(context.Background(), p.InitRefreshToken()); err != nil {
				t.Fatalf("refresh exchange should succeed: %v", err)
			}

			tok, err := p.Token(context.Background(), false)
			if err != nil {
				t.Fatalf("expected token: %v", err)
			}
			if tok.AccessToken != "access_2" {
				t.Errorf("expected refreshed access token, got %q", tok.AccessToken)
			}
			// Endpoint did not rotate the refresh token, so the original
			// secret must be carried forward.
			if tok.RefreshToken != "persisted_refresh" {
				t.Error("refresh token should survive a non-rotating exchange")
			}
		})

		t.Run("Empty Secret", func(t *testing.T) {
			p := newTestProvider(t, "", "")
			err := p.AuthenticateFromRefreshToken(context.Background(), "")
			if !errors.Is(err, shared.ErrNoRefreshToken) {
				t.Errorf("expected no refresh token error, got %v", err)
			}
			if p.Phase() != PhaseUnauthenticated {
				t.Errorf("provider should remain unauthenticated, got %v", p.Phase())
			}
		})
	})

	t.Run("Token", func(t *testing.T) {
		t.Run("Not Authenticated", func(t *testing.T) {
			p := newTestProvider(t, "", "")
			if _, err := p.Token(context.Background(), false); !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected not authenticated error, got %v", err)
			}
		})

		t.Run("Cached Read Is Idempotent", func(t *testing.T) {
			ts := fakeTokenEndpoint(t, 0)
			defer ts.Close()

			p := newTestProvider(t, ts.URL, "")
			if err := p.AuthenticateFromCode(context.Background(), "auth_code", p.csrfState); err != nil {
				t.Fatalf("exchange should succeed: %v", err)
			}

			first, err := p.Token(context.Background(), false)
			if err != nil {
				t.Fatalf("first read failed: %v", err)
			}
			second, err := p.Token(context.Background(), false)
			if err != nil {
				t.Fatalf("second read failed: %v", err)
			}
			if first != second {
				t.Error("cached reads should return the identical token pair")
			}
		})

		t.Run("Refresh Replaces Pair", func(t *testing.T) {
			ts := fakeTokenEndpoint(t, 0)
			defer ts.Close()

			p := newTestProvider(t, ts.URL, "")
			if err := p.AuthenticateFromCode(context.Background(), "auth_code", p.csrfState); err != nil {
				t.Fatalf("exchange should succeed: %v", err)
			}

			tok, err := p.Token(context.Background(), true)
			if err != nil {
				t.Fatalf("refresh should succeed: %v", err)
			}
			if tok.AccessToken != "access_2" {
				t.Errorf("expected refreshed access token, got %q", tok.AccessToken)
			}
			if tok.RefreshToken != "refresh_1" {
				t.Error("previous refresh token should be kept when the endpoint omits one")
			}

			cached, _ := p.Token(context.Background(), false)
			if cached != tok {
				t.Error("refresh should replace the stored pair")
			}
		})
	})

	t.Run("Logout", func(t *testing.T) {
		t.Run("Not Authenticated", func(t *testing.T) {
			p := newTestProvider(t, "", "")
			if next := p.Logout(); next != nil {
				t.Error("logout on an unauthenticated provider should be a no-op")
			}
		})

		t.Run("Returns Fresh Provider", func(t *testing.T) {
			ts := fakeTokenEndpoint(t, 0)
			defer ts.Close()

			p := newTestProvider(t, ts.URL, "")
			if err := p.AuthenticateFromCode(context.Background(), "auth_code", p.csrfState); err != nil {
				t.Fatalf("exchange should succeed: %v", err)
			}

			next := p.Logout()
			if next == nil {
				t.Fatal("logout on an authenticated provider should return a fresh instance")
			}
			if next == p {
				t.Fatal("logout must not return the same instance")
			}
			if next.Phase() != PhaseUnauthenticated {
				t.Errorf("fresh provider should be unauthenticated, got %v", next.Phase())
			}
			if next.AuthURL() == p.AuthURL() {
				t.Error("fresh provider should carry new PKCE challenge and state")
			}
			if next.RefreshToken() != "" {
				t.Error("fresh provider must not inherit the old refresh token")
			}
		})
	})
}
