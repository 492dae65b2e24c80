package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/spottyfi/internal/shared"
)

// freeLoopbackAddr reserves an ephemeral loopback port and releases it for
// the server under test.
func freeLoopbackAddr(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve port: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()
	return addr
}

// get retries until the server under test is accepting connections.
func get(t *testing.T, url string) *http.Response {
	t.Helper()

	var resp *http.Response
	var err error
	for i := 0; i < 50; i++ {
		resp, err = http.Get(url)
		if err == nil {
			return resp
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("server never became reachable: %v", err)
	return nil
}

type waitOutcome struct {
	code  string
	state string
	err   error
}

func startWait(ctx context.Context, s *Server) <-chan waitOutcome {
	done := make(chan waitOutcome, 1)
	go func() {
		code, state, err := s.WaitForCode(ctx)
		done <- waitOutcome{code, state, err}
	}()
	return done
}

func TestServer(t *testing.T) {
	t.Run("Happy Path", func(t *testing.T) {
		addr := freeLoopbackAddr(t)
		s := NewServer(addr, nil)
		done := startWait(context.Background(), s)

		resp := get(t, fmt.Sprintf("http://%s/login?code=abc&state=xyz", addr))
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected 200, got %d", resp.StatusCode)
		}
		body, _ := io.ReadAll(resp.Body)
		if !strings.Contains(string(body), "Successfully authenticated") {
			t.Error("confirmation page should contain a success phrase")
		}

		out := <-done
		if out.err != nil {
			t.Fatalf("expected captured code, got %v", out.err)
		}
		if out.code != "abc" || out.state != "xyz" {
			t.Errorf("expected (abc, xyz), got (%s, %s)", out.code, out.state)
		}
	})

	t.Run("Provider Error", func(t *testing.T) {
		addr := freeLoopbackAddr(t)
		s := NewServer(addr, nil)
		done := startWait(context.Background(), s)

		resp := get(t, fmt.Sprintf("http://%s/login?error=access_denied", addr))
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}

		out := <-done
		if !errors.Is(out.err, shared.ErrServerFailure) {
			t.Fatalf("expected server failure, got %v", out.err)
		}
		if !strings.Contains(out.err.Error(), "access_denied") {
			t.Errorf("error should carry the provider message, got %v", out.err)
		}
	})

	t.Run("Missing Code", func(t *testing.T) {
		addr := freeLoopbackAddr(t)
		s := NewServer(addr, nil)
		done := startWait(context.Background(), s)

		resp := get(t, fmt.Sprintf("http://%s/login?state=xyz", addr))
		resp.Body.Close()

		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}

		out := <-done
		if !errors.Is(out.err, shared.ErrServerFailure) {
			t.Errorf("expected server failure, got %v", out.err)
		}
	})

	t.Run("Other Paths Keep Waiting", func(t *testing.T) {
		addr := freeLoopbackAddr(t)
		s := NewServer(addr, nil)
		done := startWait(context.Background(), s)

		resp := get(t, fmt.Sprintf("http://%s/favicon.ico", addr))
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", resp.StatusCode)
		}

		select {
		case out := <-done:
			t.Fatalf("wait should continue past non-callback paths, got %+v", out)
		case <-time.After(100 * time.Millisecond):
		}

		resp = get(t, fmt.Sprintf("http://%s/login?code=abc&state=xyz", addr))
		resp.Body.Close()

		out := <-done
		if out.err != nil || out.code != "abc" {
			t.Errorf("expected success after 404, got %+v", out)
		}
	})

	t.Run("Cancellation", func(t *testing.T) {
		addr := freeLoopbackAddr(t)
		s := NewServer(addr, nil)

		ctx, cancel := context.WithCancel(context.Background())
		done := startWait(ctx, s)

		// Make sure the listener is up before cancelling.
		resp := get(t, fmt.Sprintf("http://%s/ping", addr))
		resp.Body.Close()

		cancel()
		out := <-done
		if !errors.Is(out.err, context.Canceled) {
			t.Errorf("expected context cancellation, got %v", out.err)
		}
	})

	t.Run("Bind Failure", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("failed to occupy port: %v", err)
		}
		defer ln.Close()

		s := NewServer(ln.Addr().String(), nil)
		_, _, err = s.WaitForCode(context.Background())
		if !errors.Is(err, shared.ErrServerBind) {
			t.Errorf("expected bind failure, got %v", err)
		}
	})
}
