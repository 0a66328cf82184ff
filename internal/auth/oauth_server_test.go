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
)

// startCallbackServer starts a server on an ephemeral port and returns it
// together with its base URL.
func startCallbackServer(t *testing.T, expectedState string) (*OAuthServer, string) {
	t.Helper()

	srv := NewOAuthServer(0, expectedState)
	if err := srv.Start(); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	t.Cleanup(func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Stop(stopCtx)
	})

	port := srv.listener.Addr().(*net.TCPAddr).Port
	return srv, fmt.Sprintf("http://localhost:%d", port)
}

func httpGetPage(t *testing.T, rawURL string) (int, string) {
	t.Helper()

	resp, err := http.Get(rawURL)
	if err != nil {
		t.Fatalf("GET %s failed: %v", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return resp.StatusCode, string(body)
}

// assertNoOutcome fails if either channel already holds an outcome.
func assertNoOutcome(t *testing.T, srv *OAuthServer) {
	t.Helper()

	select {
	case result := <-srv.resultChan:
		t.Fatalf("unexpected result delivered: %+v", result)
	case err := <-srv.errorChan:
		t.Fatalf("unexpected error delivered: %v", err)
	default:
	}
}

func TestCallbackDeliversResult(t *testing.T) {
	t.Parallel()

	srv, base := startCallbackServer(t, "state-ok")

	status, body := httpGetPage(t, base+"/callback?code=auth-code-1&state=state-ok")
	if status != http.StatusOK {
		t.Errorf("callback status = %d, want %d", status, http.StatusOK)
	}
	if !strings.Contains(body, "Signed in") {
		t.Errorf("expected success page, got: %.120s", body)
	}

	result, err := srv.WaitForCallback()
	if err != nil {
		t.Fatalf("WaitForCallback returned error: %v", err)
	}
	if result.Code != "auth-code-1" {
		t.Errorf("result code = %q, want %q", result.Code, "auth-code-1")
	}
	if result.State != "state-ok" {
		t.Errorf("result state = %q, want %q", result.State, "state-ok")
	}
}

func TestCallbackProviderErrorWinsOverState(t *testing.T) {
	t.Parallel()

	srv, base := startCallbackServer(t, "state-ok")

	// The state here is forged, but a provider-reported error must still be
	// surfaced as the provider's denial, not as a state failure.
	_, body := httpGetPage(t, base+"/callback?error=access_denied&error_description=user+said+no&state=forged")
	if !strings.Contains(body, "user said no") {
		t.Errorf("expected provider description on the page, got: %.120s", body)
	}

	_, err := srv.WaitForCallback()
	var oauthErr *OAuthError
	if !errors.As(err, &oauthErr) {
		t.Fatalf("expected OAuthError, got %v", err)
	}
	if oauthErr.Code != "access_denied" {
		t.Errorf("OAuth code = %q, want %q", oauthErr.Code, "access_denied")
	}
	if oauthErr.Description != "user said no" {
		t.Errorf("OAuth description = %q, want %q", oauthErr.Description, "user said no")
	}
}

func TestCallbackStateValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
	}{
		{"mismatched state", "?code=auth-code&state=forged"},
		{"missing state", "?code=auth-code"},
		{"empty state", "?code=auth-code&state="},
		{"no parameters at all", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv, base := startCallbackServer(t, "state-ok")
			httpGetPage(t, base+"/callback"+tt.query)

			_, err := srv.WaitForCallback()
			var authErr *AuthenticationError
			if !errors.As(err, &authErr) {
				t.Fatalf("expected AuthenticationError, got %v", err)
			}
			// A state failure is always reported as such, even when the code
			// is also missing.
			if authErr.Type != "invalid_state" {
				t.Errorf("error type = %q, want %q", authErr.Type, "invalid_state")
			}
		})
	}
}

func TestCallbackMissingCode(t *testing.T) {
	t.Parallel()

	srv, base := startCallbackServer(t, "state-ok")
	httpGetPage(t, base+"/callback?state=state-ok")

	_, err := srv.WaitForCallback()
	var authErr *AuthenticationError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthenticationError, got %v", err)
	}
	if authErr.Type != "missing_code" {
		t.Errorf("error type = %q, want %q", authErr.Type, "missing_code")
	}
}

func TestStrayPathsKeepServerListening(t *testing.T) {
	t.Parallel()

	srv, base := startCallbackServer(t, "state-ok")

	status, _ := httpGetPage(t, base+"/favicon.ico")
	if status != http.StatusNotFound {
		t.Errorf("stray path status = %d, want %d", status, http.StatusNotFound)
	}
	status, body := httpGetPage(t, base+"/")
	if status != http.StatusNotFound {
		t.Errorf("root path status = %d, want %d", status, http.StatusNotFound)
	}
	if !strings.Contains(body, "callback") {
		t.Errorf("expected explanatory page, got: %.120s", body)
	}

	assertNoOutcome(t, srv)

	// The real callback must still be accepted after stray requests.
	httpGetPage(t, base+"/callback?code=auth-code-2&state=state-ok")
	result, err := srv.WaitForCallback()
	if err != nil {
		t.Fatalf("WaitForCallback returned error: %v", err)
	}
	if result.Code != "auth-code-2" {
		t.Errorf("result code = %q, want %q", result.Code, "auth-code-2")
	}
}

func TestCallbackRejectsNonGET(t *testing.T) {
	t.Parallel()

	srv, base := startCallbackServer(t, "state-ok")

	resp, err := http.Post(base+"/callback", "text/plain", nil)
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, want %d", resp.StatusCode, http.StatusMethodNotAllowed)
	}

	assertNoOutcome(t, srv)

	httpGetPage(t, base+"/callback?code=auth-code-3&state=state-ok")
	if _, err = srv.WaitForCallback(); err != nil {
		t.Fatalf("WaitForCallback returned error: %v", err)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	t.Parallel()

	srv, _ := startCallbackServer(t, "state-ok")
	ctx := context.Background()

	if err := srv.Stop(ctx); err != nil {
		t.Fatalf("first Stop returned error: %v", err)
	}
	if err := srv.Stop(ctx); err != nil {
		t.Fatalf("second Stop returned error: %v", err)
	}
	if srv.IsRunning() {
		t.Error("server still reports running after Stop")
	}
}

func TestLateCallbackAfterTimeoutDoesNotResolve(t *testing.T) {
	t.Parallel()

	srv := NewOAuthServer(0, "state-ok")
	srv.timeout = 50 * time.Millisecond
	if err := srv.Start(); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	t.Cleanup(func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Stop(stopCtx)
	})
	base := fmt.Sprintf("http://localhost:%d", srv.listener.Addr().(*net.TCPAddr).Port)

	_, err := srv.WaitForCallback()
	var authErr *AuthenticationError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthenticationError, got %v", err)
	}
	if authErr.Type != "callback_timeout" {
		t.Fatalf("error type = %q, want %q", authErr.Type, "callback_timeout")
	}

	// A callback arriving after the deadline is answered but must not
	// deliver a result.
	status, body := httpGetPage(t, base+"/callback?code=too-late&state=state-ok")
	if status != http.StatusGone {
		t.Errorf("late callback status = %d, want %d", status, http.StatusGone)
	}
	if !strings.Contains(body, "expired") {
		t.Errorf("expected expired page, got: %.120s", body)
	}

	assertNoOutcome(t, srv)
}

func TestStartReportsPortConflict(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		t.Fatalf("failed to occupy a port: %v", err)
	}
	defer func() { _ = ln.Close() }()
	port := ln.Addr().(*net.TCPAddr).Port

	srv := NewOAuthServer(port, "state-ok")
	err = srv.Start()
	if err == nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Stop(stopCtx)
		t.Fatal("expected Start to fail on an occupied port")
	}
	if !strings.Contains(err.Error(), "already in use") {
		t.Errorf("error = %v, want it to name the port conflict", err)
	}
	if srv.IsRunning() {
		t.Error("server reports running after failed Start")
	}
}

func TestWaitForCallbackRequiresStart(t *testing.T) {
	t.Parallel()

	srv := NewOAuthServer(0, "state-ok")
	if _, err := srv.WaitForCallback(); err == nil {
		t.Fatal("expected error when waiting before Start")
	}
}
