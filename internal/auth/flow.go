package auth

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/skeinhq/skein-cli/internal/browser"
	"github.com/skeinhq/skein-cli/internal/config"
	"github.com/skeinhq/skein-cli/internal/util"
)

// LoginOptions controls a single browser login attempt.
type LoginOptions struct {
	// NoBrowser skips the automatic browser launch and prints instructions
	// for completing the login from another machine.
	NoBrowser bool

	// CallbackPort overrides the local OAuth callback port when set (>0).
	CallbackPort int
}

// Authenticator drives the full browser login flow: client registration,
// PKCE generation, the local callback server, and the token exchange.
type Authenticator struct {
	svc *SkeinAuth
	// out receives user-facing flow output such as the authorization URL.
	out io.Writer
	// launchBrowser opens the authorization URL, fire and forget.
	launchBrowser func(authURL string)
	// callbackPort is the local port the authorization server redirects to.
	callbackPort int
	// callbackDeadline overrides the callback wait deadline when non-zero.
	callbackDeadline time.Duration
}

// NewAuthenticator creates an authenticator using the configured proxy and
// the standard callback port.
//
// Parameters:
//   - cfg: The CLI configuration
//
// Returns:
//   - *Authenticator: The authenticator
func NewAuthenticator(cfg *config.Config) *Authenticator {
	a := &Authenticator{
		svc:          NewSkeinAuth(cfg),
		out:          os.Stdout,
		callbackPort: DefaultCallbackPort,
	}
	a.launchBrowser = a.openBrowser
	return a
}

// Login runs one complete login attempt and returns the token to persist.
// Every attempt registers a fresh ephemeral client and mints fresh PKCE
// material; nothing is reused between attempts. All failures are terminal,
// and the callback server is always shut down before Login returns.
//
// Parameters:
//   - ctx: The context for the attempt
//   - opts: Options controlling browser behavior, may be nil
//
// Returns:
//   - *TokenStorage: The token to persist on success
//   - error: A typed error describing the failure
func (a *Authenticator) Login(ctx context.Context, opts *LoginOptions) (*TokenStorage, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts == nil {
		opts = &LoginOptions{}
	}
	if opts.CallbackPort > 0 {
		a.callbackPort = opts.CallbackPort
	}

	redirectURI := fmt.Sprintf("http://localhost:%d/callback", a.callbackPort)

	creds, err := a.svc.RegisterClient(ctx, redirectURI)
	if err != nil {
		return nil, NewAuthenticationError(ErrRegistrationFailed, err)
	}

	pkce, err := GeneratePKCECodes()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PKCE codes: %w", err)
	}

	state, err := GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state: %w", err)
	}

	server := NewOAuthServer(a.callbackPort, state)
	if a.callbackDeadline > 0 {
		server.timeout = a.callbackDeadline
	}

	if err = server.Start(); err != nil {
		if strings.Contains(err.Error(), "already in use") {
			return nil, NewAuthenticationError(ErrPortInUse, err)
		}
		return nil, NewAuthenticationError(ErrServerStartFailed, err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if stopErr := server.Stop(stopCtx); stopErr != nil {
			log.Debugf("failed to stop callback server: %v", stopErr)
		}
	}()

	authURL := a.svc.GenerateAuthURL(creds.ClientID, state, pkce, redirectURI)

	if opts.NoBrowser {
		util.PrintSSHTunnelInstructions(a.callbackPort)
	}
	fmt.Fprintf(a.out, "Visit the following URL to continue authentication:\n%s\n\n", authURL)
	if !opts.NoBrowser {
		go a.launchBrowser(authURL)
	}

	result, err := server.WaitForCallback()
	if err != nil {
		return nil, err
	}

	log.Debugf("received authorization code %s...", result.Code[:min(20, len(result.Code))])

	tokenData, err := a.svc.ExchangeCodeForToken(ctx, result.Code, pkce.CodeVerifier, redirectURI, creds)
	if err != nil {
		return nil, NewAuthenticationError(ErrTokenExchangeFailed, err)
	}

	return &TokenStorage{
		AccessToken: tokenData.AccessToken,
		TokenType:   tokenData.TokenType,
		Scope:       tokenData.Scope,
		ObtainedAt:  time.Now().Format(time.RFC3339),
		Type:        "skein",
	}, nil
}

// openBrowser tries to open the authorization URL in the user's browser. A
// failure never aborts the login; the URL is already printed and the flow is
// blocked on the callback either way.
func (a *Authenticator) openBrowser(authURL string) {
	if !browser.IsAvailable() {
		log.Info(GetUserFriendlyMessage(NewAuthenticationError(ErrBrowserOpenFailed, fmt.Errorf("no browser available on this system"))))
		util.PrintSSHTunnelInstructions(a.callbackPort)
		return
	}
	if err := browser.OpenURL(authURL); err != nil {
		log.Info(GetUserFriendlyMessage(NewAuthenticationError(ErrBrowserOpenFailed, err)))
		log.Debugf("browser platform info: %v", browser.GetPlatformInfo())
	}
}
