package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/skeinhq/skein-cli/internal/config"
	"github.com/skeinhq/skein-cli/internal/misc"
	"github.com/skeinhq/skein-cli/internal/util"
)

// tokenFileName is the token file stored inside the auth directory.
const tokenFileName = "skein.json"

// TokenStorage represents the stored token format for Skein credentials.
type TokenStorage struct {
	// AccessToken is the bearer token for Skein API calls.
	AccessToken string `json:"access_token"`
	// TokenType is the token type, normally "Bearer".
	TokenType string `json:"token_type"`
	// Scope is the space-separated scope list granted to the token.
	Scope string `json:"scope"`
	// Email is the account email, filled in after the first profile lookup.
	Email string `json:"email,omitempty"`
	// ObtainedAt records when the token was obtained, in RFC 3339 form.
	ObtainedAt string `json:"obtained_at"`
	// Type identifies the credential format.
	Type string `json:"type"`
}

// SaveTokenToFile saves the token storage to the given file path, creating
// the auth directory if needed.
//
// Parameters:
//   - tokenFilePath: The file path where the token will be written
//
// Returns:
//   - error: An error if the save fails
func (ts *TokenStorage) SaveTokenToFile(tokenFilePath string) error {
	misc.LogSavingCredentials(tokenFilePath)
	ts.Type = "skein"

	if err := os.MkdirAll(filepath.Dir(tokenFilePath), 0700); err != nil {
		return fmt.Errorf("failed to create auth directory: %w", err)
	}

	f, err := os.OpenFile(tokenFilePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Debugf("failed to close token file: %v", closeErr)
		}
	}()

	if err = json.NewEncoder(f).Encode(ts); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// LoadTokenStorage loads a stored token from the given file path.
//
// Parameters:
//   - tokenFilePath: The file path to read
//
// Returns:
//   - *TokenStorage: The stored token
//   - error: An error if the file is missing, unreadable, or has no token
func LoadTokenStorage(tokenFilePath string) (*TokenStorage, error) {
	data, err := os.ReadFile(tokenFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var ts TokenStorage
	if err = json.Unmarshal(data, &ts); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	if ts.AccessToken == "" {
		return nil, fmt.Errorf("token file %s contains no access token", tokenFilePath)
	}
	return &ts, nil
}

// TokenFilePath returns the token file location for the configured auth
// directory.
//
// Parameters:
//   - cfg: The CLI configuration
//
// Returns:
//   - string: The token file path
//   - error: An error if the auth directory cannot be resolved
func TokenFilePath(cfg *config.Config) (string, error) {
	authDir, err := util.ResolveAuthDir(cfg.AuthDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve auth directory: %w", err)
	}
	return filepath.Join(authDir, tokenFileName), nil
}

// RemoveTokenFile deletes the stored token. Removing a token that does not
// exist is not an error.
//
// Parameters:
//   - tokenFilePath: The file path to remove
//
// Returns:
//   - error: An error if the removal fails
func RemoveTokenFile(tokenFilePath string) error {
	if err := os.Remove(tokenFilePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}
