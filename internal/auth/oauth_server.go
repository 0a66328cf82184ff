package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
)

// callbackTimeout is how long the server waits for the browser callback
// before the login attempt is abandoned.
const callbackTimeout = 3 * time.Minute

// CallbackResult holds the values delivered by a valid authorization callback.
type CallbackResult struct {
	// Code is the authorization code to exchange for a token.
	Code string
	// State is the state value echoed by the authorization server.
	State string
}

// OAuthServer is a single-use local HTTP server that receives exactly one
// OAuth authorization callback. It validates the callback itself and hands
// either a CallbackResult or a typed error to the waiting login flow.
type OAuthServer struct {
	// server is the underlying HTTP server.
	server *http.Server
	// listener is the bound TCP listener.
	listener net.Listener
	// port is the local port the server listens on.
	port int
	// expectedState is the anti-CSRF state value bound to this attempt.
	expectedState string
	// resultChan delivers the single successful callback result.
	resultChan chan *CallbackResult
	// errorChan delivers the single terminal callback error.
	errorChan chan error
	// timer enforces the callback deadline. Armed on Start, stopped on Stop.
	timer *time.Timer
	// timeout is the callback deadline duration.
	timeout time.Duration
	// mu protects running, done, and the fields above that Start and Stop touch.
	mu sync.Mutex
	// running reports whether the server has been started and not yet stopped.
	running bool
	// done is set once the attempt has a final outcome. Later callbacks must
	// not resolve the attempt again.
	done bool
}

// NewOAuthServer creates a callback server for one login attempt.
//
// Parameters:
//   - port: The local port to listen on
//   - expectedState: The state value the callback must echo exactly
//
// Returns:
//   - *OAuthServer: The callback server, not yet listening
func NewOAuthServer(port int, expectedState string) *OAuthServer {
	return &OAuthServer{
		port:          port,
		expectedState: expectedState,
		resultChan:    make(chan *CallbackResult, 1),
		errorChan:     make(chan error, 1),
		timeout:       callbackTimeout,
	}
}

// Start binds the callback port and begins serving. A bind failure caused by
// another process holding the port is reported distinctly so the caller can
// explain the conflict instead of surfacing a generic error.
//
// Returns:
//   - error: An error if the server cannot start
func (s *OAuthServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("callback server is already running")
	}

	ln, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", s.port))
	if err != nil {
		if isAddrInUse(err) {
			return fmt.Errorf("port %d is already in use", s.port)
		}
		return fmt.Errorf("failed to listen on port %d: %w", s.port, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", s.handleCallback)
	mux.HandleFunc("/", s.handleNotFound)

	s.listener = ln
	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	s.running = true
	s.timer = time.NewTimer(s.timeout)

	go func() {
		if serveErr := s.server.Serve(ln); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			s.sendError(NewAuthenticationError(ErrServerStartFailed, serveErr))
		}
	}()

	log.Debugf("OAuth callback server listening on port %d", s.port)
	return nil
}

// WaitForCallback blocks until the callback resolves the attempt, a server
// error occurs, or the deadline passes. It must be called after Start and
// before Stop.
//
// Returns:
//   - *CallbackResult: The authorization code and echoed state on success
//   - error: A typed error describing why the attempt failed
func (s *OAuthServer) WaitForCallback() (*CallbackResult, error) {
	s.mu.Lock()
	timer := s.timer
	s.mu.Unlock()
	if timer == nil {
		return nil, fmt.Errorf("callback server is not started")
	}

	select {
	case result := <-s.resultChan:
		s.finish()
		return result, nil
	case err := <-s.errorChan:
		s.finish()
		return nil, err
	case <-timer.C:
		// The timer can race a callback landing at the deadline. A delivered
		// outcome wins over the timeout.
		select {
		case result := <-s.resultChan:
			s.finish()
			return result, nil
		case err := <-s.errorChan:
			s.finish()
			return nil, err
		default:
		}
		s.finish()
		return nil, NewAuthenticationError(ErrCallbackTimeout, fmt.Errorf("no callback received within %s", s.timeout))
	}
}

// Stop shuts the server down and releases the port. It is safe to call from
// multiple cleanup paths; every call after the first is a no-op.
//
// Parameters:
//   - ctx: The context bounding the shutdown
//
// Returns:
//   - error: An error if shutdown fails
func (s *OAuthServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	if s.timer != nil {
		s.timer.Stop()
	}
	server := s.server
	s.mu.Unlock()

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop callback server: %w", err)
	}

	log.Debugf("OAuth callback server on port %d stopped", s.port)
	return nil
}

// IsRunning reports whether the server is currently listening.
func (s *OAuthServer) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// finish marks the attempt as having a final outcome. It reports whether this
// call was the one that finished it.
func (s *OAuthServer) finish() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return false
	}
	s.done = true
	return true
}

// isDone reports whether the attempt already has a final outcome.
func (s *OAuthServer) isDone() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// handleCallback validates one authorization callback. Checks run in a fixed
// order: a provider-reported error wins over everything else, then the state
// must match exactly, and only then is the code required. Every outcome is
// answered with a human-readable HTML page.
func (s *OAuthServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.isDone() {
		serveHTML(w, http.StatusGone, renderErrorPage(
			"Sign-in link expired",
			"This sign-in attempt is no longer active. Return to your terminal and start a new one.",
		))
		return
	}

	query := r.URL.Query()

	if errParam := query.Get("error"); errParam != "" {
		desc := query.Get("error_description")
		if s.finish() {
			s.sendError(NewOAuthError(errParam, desc, http.StatusBadRequest))
		}
		message := desc
		if message == "" {
			message = fmt.Sprintf("The authorization server reported: %s.", errParam)
		}
		serveHTML(w, http.StatusOK, renderErrorPage("Sign-in was not completed", message))
		return
	}

	state := query.Get("state")
	if state == "" || state != s.expectedState {
		if s.finish() {
			s.sendError(NewAuthenticationError(ErrInvalidState, fmt.Errorf("callback state did not match this login attempt")))
		}
		serveHTML(w, http.StatusOK, renderErrorPage(
			"Sign-in could not be verified",
			"This response does not match the sign-in attempt started in your terminal, so it was discarded.",
		))
		return
	}

	code := query.Get("code")
	if code == "" {
		if s.finish() {
			s.sendError(NewAuthenticationError(ErrMissingCode, fmt.Errorf("callback carried no authorization code")))
		}
		serveHTML(w, http.StatusOK, renderErrorPage(
			"Sign-in was not completed",
			"The authorization server did not return an authorization code.",
		))
		return
	}

	if s.finish() {
		s.sendResult(&CallbackResult{Code: code, State: state})
	}
	serveHTML(w, http.StatusOK, loginSuccessHtml)
}

// handleNotFound answers requests for any other path. Stray requests do not
// resolve the attempt; the server keeps listening for the real callback.
func (s *OAuthServer) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	serveHTML(w, http.StatusNotFound, notFoundHtml)
}

// sendResult delivers the callback result without blocking the handler.
func (s *OAuthServer) sendResult(result *CallbackResult) {
	select {
	case s.resultChan <- result:
	default:
		log.Debug("callback result channel already full, dropping result")
	}
}

// sendError delivers a terminal callback error without blocking the handler.
func (s *OAuthServer) sendError(err error) {
	select {
	case s.errorChan <- err:
	default:
		log.Debug("callback error channel already full, dropping error")
	}
}

// serveHTML writes an HTML page with the given status code.
func serveHTML(w http.ResponseWriter, status int, page string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(page)); err != nil {
		log.Debugf("failed to write callback response: %v", err)
	}
}

// isAddrInUse reports whether a listen error means another process already
// holds the port.
func isAddrInUse(err error) bool {
	if errors.Is(err, syscall.EADDRINUSE) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "address already in use")
}
