package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// PKCECodes holds the PKCE code verifier and its derived challenge for the
// OAuth2 authorization code flow.
type PKCECodes struct {
	// CodeVerifier is the plaintext secret sent to the token endpoint.
	CodeVerifier string `json:"code_verifier"`
	// CodeChallenge is the S256 transformation of the verifier sent with the
	// authorization request.
	CodeChallenge string `json:"code_challenge"`
}

// GeneratePKCECodes generates PKCE codes for the OAuth authentication flow.
// The challenge is always derived from the verifier with SHA-256, so the pair
// is consistent by construction.
//
// Returns:
//   - *PKCECodes: The generated PKCE codes
//   - error: An error if code generation fails
func GeneratePKCECodes() (*PKCECodes, error) {
	verifier, err := generateCodeVerifier()
	if err != nil {
		return nil, fmt.Errorf("failed to generate code verifier: %w", err)
	}

	challenge := generateCodeChallenge(verifier)

	return &PKCECodes{
		CodeVerifier:  verifier,
		CodeChallenge: challenge,
	}, nil
}

// generateCodeVerifier generates a cryptographically random code verifier.
// 96 random bytes encode to a 128-character base64url string, the maximum
// verifier length the authorization server accepts.
//
// Returns:
//   - string: The generated code verifier
//   - error: An error if random generation fails
func generateCodeVerifier() (string, error) {
	bytes := make([]byte, 96)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(bytes), nil
}

// generateCodeChallenge generates a code challenge from the given verifier
// using the S256 method.
//
// Parameters:
//   - verifier: The code verifier string
//
// Returns:
//   - string: The generated code challenge
func generateCodeChallenge(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(hash[:])
}

// GenerateState generates a random state parameter used to bind the browser
// callback to this login attempt.
//
// Returns:
//   - string: The generated state value
//   - error: An error if random generation fails
func GenerateState() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random state: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}
