package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/skeinhq/skein-cli/internal/api"
	"github.com/skeinhq/skein-cli/internal/auth"
	"github.com/skeinhq/skein-cli/internal/config"
)

// newAPIClient loads the stored token and builds an API client around it.
func newAPIClient(cfg *config.Config) (*api.Client, error) {
	path, err := auth.TokenFilePath(cfg)
	if err != nil {
		return nil, err
	}
	token, err := auth.LoadTokenStorage(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.New("not signed in. Run 'skein -login' first")
		}
		return nil, err
	}
	return api.NewClient(cfg, token.AccessToken), nil
}

// reportAPIError prints a failed API call. A rejected token gets a pointer
// back to the login command instead of the raw status.
func reportAPIError(what string, err error) {
	if apiErr, ok := errors.AsType[*api.APIError](err); ok && apiErr.StatusCode == http.StatusUnauthorized {
		fmt.Println("Your session is no longer valid. Run 'skein -login' to sign in again.")
		return
	}
	fmt.Printf("%s failed: %v\n", what, err)
}
