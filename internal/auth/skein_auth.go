package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/skeinhq/skein-cli/internal/config"
	"github.com/skeinhq/skein-cli/internal/util"
)

const (
	// registrationEndpoint is the dynamic client registration endpoint.
	registrationEndpoint = "https://skein.chat/oauth/register"
	// authorizationEndpoint is the user-facing authorization endpoint.
	authorizationEndpoint = "https://skein.chat/oauth/authorize"
	// tokenEndpoint is the code-for-token exchange endpoint.
	tokenEndpoint = "https://skein.chat/oauth/token"

	// clientName identifies this CLI during dynamic client registration.
	clientName = "Skein CLI"
	// clientURI points at the project homepage sent during registration.
	clientURI = "https://github.com/skeinhq/skein-cli"

	// codeChallengeMethod is the PKCE transformation advertised to the server.
	codeChallengeMethod = "S256"

	// DefaultCallbackPort is the fixed local port the authorization server
	// redirects back to. Registered redirect URIs must match it exactly.
	DefaultCallbackPort = 8766
)

// oauthScopes lists every scope the CLI requests. The set covers all surface
// the CLI exposes, so a token obtained here works for every subcommand.
var oauthScopes = []string{
	"users:read",
	"users:write",
	"workspaces:read",
	"workspaces:write",
	"channels:read",
	"channels:write",
	"threads:read",
	"threads:write",
	"comments:read",
	"comments:write",
	"messages:read",
	"messages:write",
	"reactions:read",
	"reactions:write",
	"search:read",
	"notifications:read",
	"notifications:write",
}

// TokenData holds the token material returned by the token endpoint.
type TokenData struct {
	// AccessToken is the bearer token for Skein API calls.
	AccessToken string `json:"access_token"`
	// TokenType is the token type reported by the server, normally "Bearer".
	TokenType string `json:"token_type"`
	// Scope is the space-separated scope list granted to the token.
	Scope string `json:"scope"`
}

// skeinTokenResponse mirrors the token endpoint's JSON body. Servers may
// report OAuth errors inside a 2xx response, so the error fields live here too.
type skeinTokenResponse struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	Scope            string `json:"scope"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// SkeinAuth talks to the Skein OAuth endpoints: dynamic client registration,
// authorization URL construction, and the code-for-token exchange.
type SkeinAuth struct {
	httpClient *http.Client

	// Endpoint URLs are fields rather than bare consts so tests can point a
	// SkeinAuth at a local server.
	registrationURL string
	authURL         string
	tokenURL        string
}

// NewSkeinAuth creates a new Skein OAuth client honoring the configured proxy.
//
// Parameters:
//   - cfg: The CLI configuration
//
// Returns:
//   - *SkeinAuth: The OAuth client
func NewSkeinAuth(cfg *config.Config) *SkeinAuth {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	if cfg != nil {
		httpClient = util.SetProxy(cfg, httpClient)
		httpClient.Timeout = 30 * time.Second
	}
	return &SkeinAuth{
		httpClient:      httpClient,
		registrationURL: registrationEndpoint,
		authURL:         authorizationEndpoint,
		tokenURL:        tokenEndpoint,
	}
}

// GenerateAuthURL builds the authorization URL the user opens in a browser.
//
// Parameters:
//   - clientID: The client ID obtained from dynamic registration
//   - state: The anti-CSRF state value bound to this attempt
//   - pkce: The PKCE codes for this attempt
//   - redirectURI: The local callback URI
//
// Returns:
//   - string: The authorization URL including all query parameters
func (sa *SkeinAuth) GenerateAuthURL(clientID, state string, pkce *PKCECodes, redirectURI string) string {
	params := url.Values{}
	params.Set("client_id", clientID)
	params.Set("response_type", "code")
	params.Set("redirect_uri", redirectURI)
	params.Set("scope", strings.Join(oauthScopes, " "))
	params.Set("state", state)
	params.Set("code_challenge", pkce.CodeChallenge)
	params.Set("code_challenge_method", codeChallengeMethod)

	return fmt.Sprintf("%s?%s", sa.authURL, params.Encode())
}

// ExchangeCodeForToken exchanges an authorization code for an access token.
// The request authenticates with HTTP Basic using the ephemeral client
// credentials and proves possession of the PKCE verifier. A failed exchange
// is terminal; the caller starts a fresh login attempt instead of retrying.
//
// Parameters:
//   - ctx: The context for the request
//   - code: The authorization code received on the callback
//   - codeVerifier: The PKCE code verifier generated for this attempt
//   - redirectURI: The redirect URI used in the authorization request
//   - creds: The ephemeral client credentials from dynamic registration
//
// Returns:
//   - *TokenData: The token material on success
//   - error: An error if the exchange fails
func (sa *SkeinAuth) ExchangeCodeForToken(ctx context.Context, code, codeVerifier, redirectURI string, creds *ClientCredentials) (*TokenData, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", redirectURI)
	form.Set("code_verifier", codeVerifier)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sa.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}

	basic := base64.StdEncoding.EncodeToString([]byte(creds.ClientID + ":" + creds.ClientSecret))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := sa.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Debugf("failed to close token response body: %v", closeErr)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Debugf("token endpoint returned status %d", resp.StatusCode)
		return nil, fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var tokenResp skeinTokenResponse
	if err = json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}

	if tokenResp.Error != "" {
		return nil, NewOAuthError(tokenResp.Error, tokenResp.ErrorDescription, resp.StatusCode)
	}

	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("token endpoint returned no access token")
	}

	return &TokenData{
		AccessToken: tokenResp.AccessToken,
		TokenType:   tokenResp.TokenType,
		Scope:       tokenResp.Scope,
	}, nil
}
