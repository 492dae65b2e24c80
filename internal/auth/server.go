package auth

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spottyfi/internal/shared"
)

// callbackResult is the single terminal outcome of one wait.
type callbackResult struct {
	code  string
	state string
	err   error
}

// Server captures one authorization redirect on the loopback interface.
//
// A Server is single use: it delivers exactly one result per WaitForCode
// call and rejects further callbacks.
type Server struct {
	addr   string
	logger *log.Logger

	mu      sync.Mutex
	handled bool
	once    sync.Once
	results chan callbackResult
}

// NewServer creates a loopback callback server for the given address,
// typically [Provider.Addr].
func NewServer(addr string, logger *log.Logger) *Server {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Server{
		addr:    addr,
		logger:  logger,
		results: make(chan callbackResult, 1),
	}
}

// WaitForCode binds the loopback listener and blocks until a request to
// /login carries either a code+state pair or an error, or until ctx is
// cancelled.
//
// Requests to other paths receive a 404 and the wait continues. Bind
// failures are fatal to the login attempt; the caller should retry with a
// fresh provider, which picks a new port.
func (s *Server) WaitForCode(ctx context.Context) (string, string, error) {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", shared.ErrServerBind, err)
	}

	srv := &http.Server{Handler: http.HandlerFunc(s.handleCallback)}
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Warnf("callback server stopped: %v", err)
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	select {
	case <-ctx.Done():
		return "", "", ctx.Err()
	case res := <-s.results:
		return res.code, res.state, res.err
	}
}

// handleCallback serves the redirect endpoint. Only the first matching
// /login request produces a result.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/login" {
		s.logger.Debugf("ignoring request to %s", r.URL.Path)
		writePage(w, http.StatusNotFound, "404 Not Found")
		return
	}

	s.mu.Lock()
	if s.handled {
		s.mu.Unlock()
		writePage(w, http.StatusBadRequest, "Callback already processed.")
		return
	}
	s.handled = true
	s.mu.Unlock()

	q := r.URL.Query()
	code, state := q.Get("code"), q.Get("state")

	var message string
	switch {
	case q.Get("error") != "":
		message = fmt.Sprintf("Authorization failed: %s", q.Get("error"))
	case code == "":
		message = "No code parameter supplied with request."
	case state == "":
		message = "No state parameter supplied with request."
	default:
		s.logger.Infof("received authorization code (%d bytes)", len(code))
		writePage(w, http.StatusOK, "Successfully authenticated with Spotify.<br><br>You can now close this page.")
		s.send(callbackResult{code: code, state: state})
		return
	}

	s.logger.Warn("malformed authorization callback", "reason", message)
	writePage(w, http.StatusBadRequest, message+"<br><br>Please try logging in again from the app.")
	s.send(callbackResult{err: fmt.Errorf("%w: %s", shared.ErrServerFailure, message)})
}

func (s *Server) send(res callbackResult) {
	s.once.Do(func() {
		s.results <- res
		close(s.results)
	})
}

// writePage renders a minimal human-readable confirmation or error page.
func writePage(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head>
    <title>spottyfi</title>
    <style>html,body { font-family: system-ui, sans-serif; text-align: center; }</style>
</head>
<body>
    <h1>%d %s</h1>
    <p>%s</p>
    <hr>
    <small>spottyfi</small>
</body>
</html>
`, status, http.StatusText(status), body)
}
