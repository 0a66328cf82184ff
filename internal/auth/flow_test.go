package auth

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// syncBuffer is a goroutine-safe writer capturing flow output.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// flowFixture wires an Authenticator to fake registration and token
// endpoints and records what reaches them.
type flowFixture struct {
	auth      *Authenticator
	out       *syncBuffer
	port      int
	browserCh chan string

	registrations    atomic.Int32
	exchanges        atomic.Int32
	failRegistration atomic.Bool

	mu                sync.Mutex
	exchangedCode     string
	exchangedVerifier string
	exchangeClientID  string
}

func pickFreePort(t *testing.T) int {
	t.Helper()

	ln, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		t.Fatalf("failed to pick a free port: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()
	return port
}

func newFlowFixture(t *testing.T) *flowFixture {
	t.Helper()

	fx := &flowFixture{
		out:       &syncBuffer{},
		port:      pickFreePort(t),
		browserCh: make(chan string, 4),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/register", func(w http.ResponseWriter, r *http.Request) {
		fx.registrations.Add(1)
		if fx.failRegistration.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, "registration unavailable")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"client_id":"cid-flow","client_secret":"sec-flow"}`)
	})
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		fx.exchanges.Add(1)
		if err := r.ParseForm(); err != nil {
			t.Errorf("failed to parse token form: %v", err)
		}
		clientID, _, _ := r.BasicAuth()
		fx.mu.Lock()
		fx.exchangedCode = r.PostFormValue("code")
		fx.exchangedVerifier = r.PostFormValue("code_verifier")
		fx.exchangeClientID = clientID
		fx.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"at-flow","token_type":"Bearer","scope":"users:read threads:read"}`)
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	fx.auth = &Authenticator{
		svc: &SkeinAuth{
			httpClient:      ts.Client(),
			registrationURL: ts.URL + "/oauth/register",
			authURL:         ts.URL + "/oauth/authorize",
			tokenURL:        ts.URL + "/oauth/token",
		},
		out:              fx.out,
		callbackPort:     fx.port,
		callbackDeadline: 5 * time.Second,
	}
	fx.auth.launchBrowser = func(authURL string) {
		select {
		case fx.browserCh <- authURL:
		default:
		}
	}
	return fx
}

func (fx *flowFixture) callbackURL(query string) string {
	return fmt.Sprintf("http://localhost:%d/callback?%s", fx.port, query)
}

// waitForAuthURL blocks until the flow prints the authorization URL. Once the
// URL is visible the callback server is guaranteed to be listening.
func (fx *flowFixture) waitForAuthURL(t *testing.T) string {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		text := fx.out.String()
		if idx := strings.Index(text, "http"); idx >= 0 {
			rest := text[idx:]
			if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
				return strings.TrimSpace(rest[:nl])
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("authorization URL was never printed")
	return ""
}

func queryParam(t *testing.T, rawURL, key string) string {
	t.Helper()

	parsed, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("failed to parse URL %q: %v", rawURL, err)
	}
	value := parsed.Query().Get(key)
	if value == "" {
		t.Fatalf("URL %q is missing the %s parameter", rawURL, key)
	}
	return value
}

type loginOutcome struct {
	token *TokenStorage
	err   error
}

func loginAsync(fx *flowFixture) chan loginOutcome {
	outcomeCh := make(chan loginOutcome, 1)
	go func() {
		token, err := fx.auth.Login(context.Background(), nil)
		outcomeCh <- loginOutcome{token: token, err: err}
	}()
	return outcomeCh
}

func awaitLogin(t *testing.T, outcomeCh chan loginOutcome) loginOutcome {
	t.Helper()

	select {
	case outcome := <-outcomeCh:
		return outcome
	case <-time.After(10 * time.Second):
		t.Fatal("login did not finish in time")
		return loginOutcome{}
	}
}

func TestLoginEndToEnd(t *testing.T) {
	t.Parallel()

	fx := newFlowFixture(t)
	outcomeCh := loginAsync(fx)

	authURL := fx.waitForAuthURL(t)
	state := queryParam(t, authURL, "state")
	challenge := queryParam(t, authURL, "code_challenge")
	if got := queryParam(t, authURL, "client_id"); got != "cid-flow" {
		t.Errorf("authorization client_id = %q, want %q", got, "cid-flow")
	}

	httpGetPage(t, fx.callbackURL("code=flow-code&state="+state))

	outcome := awaitLogin(t, outcomeCh)
	if outcome.err != nil {
		t.Fatalf("Login returned error: %v", outcome.err)
	}
	if outcome.token.AccessToken != "at-flow" {
		t.Errorf("access token = %q, want %q", outcome.token.AccessToken, "at-flow")
	}
	if outcome.token.Type != "skein" {
		t.Errorf("token type marker = %q, want %q", outcome.token.Type, "skein")
	}
	if outcome.token.ObtainedAt == "" {
		t.Error("token is missing its obtained timestamp")
	}

	if got := fx.registrations.Load(); got != 1 {
		t.Errorf("registration calls = %d, want 1", got)
	}
	if got := fx.exchanges.Load(); got != 1 {
		t.Errorf("exchange calls = %d, want 1", got)
	}

	fx.mu.Lock()
	code, verifier, clientID := fx.exchangedCode, fx.exchangedVerifier, fx.exchangeClientID
	fx.mu.Unlock()
	if code != "flow-code" {
		t.Errorf("exchanged code = %q, want %q", code, "flow-code")
	}
	if clientID != "cid-flow" {
		t.Errorf("exchange client ID = %q, want the registered client", clientID)
	}
	hash := sha256.Sum256([]byte(verifier))
	if got := base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(hash[:]); got != challenge {
		t.Errorf("exchanged verifier does not match the advertised challenge (S256 = %q, challenge = %q)", got, challenge)
	}

	select {
	case opened := <-fx.browserCh:
		if opened != authURL {
			t.Errorf("browser opened %q, want the printed URL", opened)
		}
	case <-time.After(2 * time.Second):
		t.Error("browser launch was never scheduled")
	}
}

func TestLoginRejectsForgedState(t *testing.T) {
	t.Parallel()

	fx := newFlowFixture(t)
	outcomeCh := loginAsync(fx)

	fx.waitForAuthURL(t)
	httpGetPage(t, fx.callbackURL("code=stolen-code&state=forged"))

	outcome := awaitLogin(t, outcomeCh)
	var authErr *AuthenticationError
	if !errors.As(outcome.err, &authErr) {
		t.Fatalf("expected AuthenticationError, got %v", outcome.err)
	}
	if authErr.Type != "invalid_state" {
		t.Errorf("error type = %q, want %q", authErr.Type, "invalid_state")
	}
	if got := fx.exchanges.Load(); got != 0 {
		t.Errorf("exchange calls = %d, want 0 when the state is rejected", got)
	}
}

func TestLoginReportsPortInUse(t *testing.T) {
	t.Parallel()

	fx := newFlowFixture(t)

	ln, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", fx.port))
	if err != nil {
		t.Fatalf("failed to occupy callback port: %v", err)
	}
	defer func() { _ = ln.Close() }()

	_, err = fx.auth.Login(context.Background(), nil)
	var authErr *AuthenticationError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthenticationError, got %v", err)
	}
	if authErr.Type != "port_in_use" {
		t.Errorf("error type = %q, want %q", authErr.Type, "port_in_use")
	}
	if authErr.Code != 13 {
		t.Errorf("error code = %d, want 13", authErr.Code)
	}
	if msg := GetUserFriendlyMessage(err); !strings.Contains(msg, "in use") {
		t.Errorf("friendly message = %q, want it to explain the conflict", msg)
	}

	select {
	case opened := <-fx.browserCh:
		t.Errorf("browser launch attempted (%q) despite failed server start", opened)
	default:
	}
	if got := fx.exchanges.Load(); got != 0 {
		t.Errorf("exchange calls = %d, want 0", got)
	}
}

func TestLoginTimesOutAndReleasesPort(t *testing.T) {
	t.Parallel()

	fx := newFlowFixture(t)
	fx.auth.callbackDeadline = 100 * time.Millisecond

	_, err := fx.auth.Login(context.Background(), nil)
	var authErr *AuthenticationError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthenticationError, got %v", err)
	}
	if authErr.Type != "callback_timeout" {
		t.Errorf("error type = %q, want %q", authErr.Type, "callback_timeout")
	}

	// Cleanup must have released the callback port even on the timeout path.
	ln, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", fx.port))
	if err != nil {
		t.Fatalf("callback port still bound after Login returned: %v", err)
	}
	_ = ln.Close()

	if got := fx.exchanges.Load(); got != 0 {
		t.Errorf("exchange calls = %d, want 0", got)
	}
}

func TestLoginProviderDenied(t *testing.T) {
	t.Parallel()

	fx := newFlowFixture(t)
	outcomeCh := loginAsync(fx)

	fx.waitForAuthURL(t)
	httpGetPage(t, fx.callbackURL("error=access_denied&error_description=denied+by+user"))

	outcome := awaitLogin(t, outcomeCh)
	if !IsOAuthError(outcome.err) {
		t.Fatalf("expected OAuthError, got %v", outcome.err)
	}
	var oauthErr *OAuthError
	errors.As(outcome.err, &oauthErr)
	if oauthErr.Code != "access_denied" {
		t.Errorf("OAuth code = %q, want %q", oauthErr.Code, "access_denied")
	}
	if got := fx.exchanges.Load(); got != 0 {
		t.Errorf("exchange calls = %d, want 0", got)
	}
}

func TestLoginRegistersFreshClientPerAttempt(t *testing.T) {
	t.Parallel()

	fx := newFlowFixture(t)
	fx.auth.callbackDeadline = 50 * time.Millisecond

	for i := 0; i < 2; i++ {
		if _, err := fx.auth.Login(context.Background(), nil); err == nil {
			t.Fatal("expected login attempt to time out")
		}
	}

	if got := fx.registrations.Load(); got != 2 {
		t.Errorf("registration calls = %d, want one per attempt", got)
	}
}

func TestLoginRegistrationFailureIsTerminal(t *testing.T) {
	t.Parallel()

	fx := newFlowFixture(t)
	fx.failRegistration.Store(true)

	_, err := fx.auth.Login(context.Background(), nil)
	var authErr *AuthenticationError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthenticationError, got %v", err)
	}
	if authErr.Type != "registration_failed" {
		t.Errorf("error type = %q, want %q", authErr.Type, "registration_failed")
	}

	// Registration happens before any URL is printed or server started.
	if out := fx.out.String(); strings.Contains(out, "Visit the following URL") {
		t.Errorf("authorization URL printed despite failed registration: %q", out)
	}
	select {
	case opened := <-fx.browserCh:
		t.Errorf("browser launch attempted (%q) despite failed registration", opened)
	default:
	}
}
