// Package cmd implements the top-level operations of the skein CLI. Each
// command loads what it needs, talks to the Skein API, and prints results
// for the terminal.
package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/skeinhq/skein-cli/internal/api"
	"github.com/skeinhq/skein-cli/internal/auth"
	"github.com/skeinhq/skein-cli/internal/config"
)

// LoginOptions contains options for the login commands.
type LoginOptions struct {
	// NoBrowser indicates whether to skip opening the browser automatically.
	NoBrowser bool

	// CallbackPort overrides the local OAuth callback port when set (>0).
	CallbackPort int

	// Prompt allows the caller to provide interactive input when needed.
	Prompt func(prompt string) (string, error)
}

// DoLogin runs the browser sign-in flow and saves the resulting token to the
// configured auth directory. After the flow completes it verifies the token
// against the API and greets the signed-in user.
//
// Parameters:
//   - cfg: The application configuration
//   - options: Login options including browser behavior
func DoLogin(cfg *config.Config, options *LoginOptions) {
	if options == nil {
		options = &LoginOptions{}
	}

	authenticator := auth.NewAuthenticator(cfg)
	token, err := authenticator.Login(context.Background(), &auth.LoginOptions{
		NoBrowser:    options.NoBrowser,
		CallbackPort: options.CallbackPort,
	})
	if err != nil {
		if authErr, ok := errors.AsType[*auth.AuthenticationError](err); ok {
			log.Error(auth.GetUserFriendlyMessage(authErr))
			if authErr.Type == auth.ErrPortInUse.Type {
				os.Exit(auth.ErrPortInUse.Code)
			}
			return
		}
		fmt.Printf("Skein authentication failed: %v\n", err)
		return
	}

	// Confirm the token works and learn who signed in.
	if user, errMe := api.NewClient(cfg, token.AccessToken).Me(context.Background()); errMe == nil {
		token.Email = user.Email
		fmt.Printf("Signed in as @%s (%s)\n", user.Handle, user.DisplayName)
	} else {
		log.Debugf("profile lookup after login failed: %v", errMe)
	}

	savedPath, err := auth.TokenFilePath(cfg)
	if err != nil {
		fmt.Printf("Failed to resolve auth directory: %v\n", err)
		return
	}
	if err = token.SaveTokenToFile(savedPath); err != nil {
		fmt.Printf("Failed to save authentication: %v\n", err)
		return
	}

	fmt.Printf("Authentication saved to %s\n", savedPath)
	fmt.Println("Skein login successful!")
}

// DoLoginWithToken signs in with an access token entered by hand. This is
// the fallback when the browser flow cannot run, for example on a remote
// machine where no callback can be received. The token is verified against
// the API before it is saved.
//
// Parameters:
//   - cfg: The application configuration
//   - options: Login options including an optional prompt override
func DoLoginWithToken(cfg *config.Config, options *LoginOptions) {
	if options == nil {
		options = &LoginOptions{}
	}

	promptFn := options.Prompt
	if promptFn == nil {
		reader := bufio.NewReader(os.Stdin)
		promptFn = func(prompt string) (string, error) {
			fmt.Print(prompt)
			value, err := reader.ReadString('\n')
			if err != nil {
				return "", err
			}
			return strings.TrimSpace(value), nil
		}
	}

	accessToken, err := promptFn("Enter a Skein access token: ")
	if err != nil {
		fmt.Printf("Failed to read token: %v\n", err)
		return
	}
	if accessToken == "" {
		fmt.Println("No token entered.")
		return
	}

	user, err := api.NewClient(cfg, accessToken).Me(context.Background())
	if err != nil {
		fmt.Printf("Token verification failed: %v\n", err)
		return
	}

	token := &auth.TokenStorage{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		Email:       user.Email,
		ObtainedAt:  time.Now().Format(time.RFC3339),
	}

	savedPath, err := auth.TokenFilePath(cfg)
	if err != nil {
		fmt.Printf("Failed to resolve auth directory: %v\n", err)
		return
	}
	if err = token.SaveTokenToFile(savedPath); err != nil {
		fmt.Printf("Failed to save authentication: %v\n", err)
		return
	}

	fmt.Printf("Signed in as @%s\n", user.Handle)
	fmt.Printf("Authentication saved to %s\n", savedPath)
}

// DoLogout removes the stored token. Logging out while already logged out
// is not an error.
//
// Parameters:
//   - cfg: The application configuration
func DoLogout(cfg *config.Config) {
	path, err := auth.TokenFilePath(cfg)
	if err != nil {
		fmt.Printf("Failed to resolve auth directory: %v\n", err)
		return
	}
	if err = auth.RemoveTokenFile(path); err != nil {
		fmt.Printf("Failed to remove authentication: %v\n", err)
		return
	}
	fmt.Println("Signed out of Skein.")
}
