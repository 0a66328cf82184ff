package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
)

// clientRegistrationRequest is the dynamic client registration payload. The
// CLI registers as a native application using the authorization code grant
// with exactly one redirect URI.
type clientRegistrationRequest struct {
	ClientName              string   `json:"client_name"`
	ClientURI               string   `json:"client_uri"`
	RedirectURIs            []string `json:"redirect_uris"`
	GrantTypes              []string `json:"grant_types"`
	ResponseTypes           []string `json:"response_types"`
	TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method"`
	ApplicationType         string   `json:"application_type"`
}

// clientRegistrationResponse carries the fields the flow needs from the
// registration endpoint's JSON body.
type clientRegistrationResponse struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// ClientCredentials holds the ephemeral client identity minted for a single
// login attempt. Credentials are never persisted; every attempt registers a
// fresh client.
type ClientCredentials struct {
	// ClientID is the registered OAuth client identifier.
	ClientID string `json:"client_id"`
	// ClientSecret authenticates the token exchange via HTTP Basic.
	ClientSecret string `json:"client_secret"`
}

// RegisterClient registers a fresh ephemeral OAuth client for one login
// attempt. The registration is a single POST with no retries; any failure is
// terminal for the attempt.
//
// Parameters:
//   - ctx: The context for the request
//   - redirectURI: The local callback URI to register
//
// Returns:
//   - *ClientCredentials: The minted client credentials
//   - error: An error carrying the HTTP status and response body on failure
func (sa *SkeinAuth) RegisterClient(ctx context.Context, redirectURI string) (*ClientCredentials, error) {
	payload := clientRegistrationRequest{
		ClientName:              clientName,
		ClientURI:               clientURI,
		RedirectURIs:            []string{redirectURI},
		GrantTypes:              []string{"authorization_code"},
		ResponseTypes:           []string{"code"},
		TokenEndpointAuthMethod: "client_secret_basic",
		ApplicationType:         "native",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode registration request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sa.registrationURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create registration request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := sa.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("registration request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Debugf("failed to close registration response body: %v", closeErr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read registration response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("registration endpoint returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var regResp clientRegistrationResponse
	if err = json.Unmarshal(respBody, &regResp); err != nil {
		return nil, fmt.Errorf("failed to parse registration response: %w", err)
	}

	if regResp.ClientID == "" || regResp.ClientSecret == "" {
		return nil, fmt.Errorf("registration response missing client credentials: %s", strings.TrimSpace(string(respBody)))
	}

	log.Debugf("registered ephemeral OAuth client %s", regResp.ClientID)

	return &ClientCredentials{
		ClientID:     regResp.ClientID,
		ClientSecret: regResp.ClientSecret,
	}, nil
}
