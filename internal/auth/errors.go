// Package auth implements the OAuth2 Authorization-Code-with-PKCE login flow
// for the Skein platform. It covers dynamic client registration, PKCE
// parameter generation, the local HTTP callback server, CSRF-safe state
// validation, the code-for-token exchange, and persistent token storage.
package auth

import (
	"errors"
	"fmt"
	"net/http"
)

// OAuthError represents an OAuth-specific error reported by the Skein
// authorization server, either via the callback's error parameter or inside
// a token endpoint response body.
type OAuthError struct {
	// Code is the OAuth error code.
	Code string `json:"error"`
	// Description is a human-readable description of the error.
	Description string `json:"error_description,omitempty"`
	// URI is a URI identifying a human-readable web page with information about the error.
	URI string `json:"error_uri,omitempty"`
	// StatusCode is the HTTP status code associated with the error.
	StatusCode int `json:"-"`
}

// Error returns a string representation of the OAuth error.
func (e *OAuthError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("OAuth error %s: %s", e.Code, e.Description)
	}
	return fmt.Sprintf("OAuth error: %s", e.Code)
}

// NewOAuthError creates a new OAuth error with the specified code, description, and status code.
func NewOAuthError(code, description string, statusCode int) *OAuthError {
	return &OAuthError{
		Code:        code,
		Description: description,
		StatusCode:  statusCode,
	}
}

// AuthenticationError represents authentication-related errors.
type AuthenticationError struct {
	// Type is the type of authentication error.
	Type string `json:"type"`
	// Message is a human-readable message describing the error.
	Message string `json:"message"`
	// Code is the HTTP status code associated with the error, or a process
	// exit code for errors that should terminate the CLI with a specific status.
	Code int `json:"code"`
	// Cause is the underlying error that caused this authentication error.
	Cause error `json:"-"`
}

// Error returns a string representation of the authentication error.
func (e *AuthenticationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is and errors.As.
func (e *AuthenticationError) Unwrap() error {
	return e.Cause
}

// Common authentication error types. Each value is a terminal failure of a
// single login attempt; none of them is retried automatically.
var (
	// ErrRegistrationFailed represents a failed dynamic client registration.
	ErrRegistrationFailed = &AuthenticationError{
		Type:    "registration_failed",
		Message: "Failed to register an ephemeral OAuth client",
		Code:    http.StatusBadGateway,
	}

	// ErrInvalidState represents an error for invalid OAuth state parameter.
	ErrInvalidState = &AuthenticationError{
		Type:    "invalid_state",
		Message: "OAuth state parameter is invalid",
		Code:    http.StatusBadRequest,
	}

	// ErrMissingCode represents a callback that carried no authorization code.
	ErrMissingCode = &AuthenticationError{
		Type:    "missing_code",
		Message: "No authorization code received in callback",
		Code:    http.StatusBadRequest,
	}

	// ErrTokenExchangeFailed represents an error when exchanging the authorization code for a token fails.
	ErrTokenExchangeFailed = &AuthenticationError{
		Type:    "token_exchange_failed",
		Message: "Failed to exchange authorization code for a token",
		Code:    http.StatusBadRequest,
	}

	// ErrServerStartFailed represents an error when starting the OAuth callback server fails.
	ErrServerStartFailed = &AuthenticationError{
		Type:    "server_start_failed",
		Message: "Failed to start OAuth callback server",
		Code:    http.StatusInternalServerError,
	}

	// ErrPortInUse represents an error when the OAuth callback port is already in use.
	ErrPortInUse = &AuthenticationError{
		Type:    "port_in_use",
		Message: fmt.Sprintf("OAuth callback port %d is already in use", DefaultCallbackPort),
		Code:    13, // Special exit code for port-in-use
	}

	// ErrCallbackTimeout represents an error when waiting for OAuth callback times out.
	ErrCallbackTimeout = &AuthenticationError{
		Type:    "callback_timeout",
		Message: "Timeout waiting for OAuth callback",
		Code:    http.StatusRequestTimeout,
	}

	// ErrBrowserOpenFailed marks a failed browser launch. It is informational
	// only and never aborts a login attempt.
	ErrBrowserOpenFailed = &AuthenticationError{
		Type:    "browser_open_failed",
		Message: "Failed to open the browser automatically",
		Code:    http.StatusInternalServerError,
	}
)

// NewAuthenticationError creates a new authentication error with a cause based on a base error.
func NewAuthenticationError(baseErr *AuthenticationError, cause error) *AuthenticationError {
	return &AuthenticationError{
		Type:    baseErr.Type,
		Message: baseErr.Message,
		Code:    baseErr.Code,
		Cause:   cause,
	}
}

// IsAuthenticationError checks if an error is an authentication error.
func IsAuthenticationError(err error) bool {
	var authenticationError *AuthenticationError
	ok := errors.As(err, &authenticationError)
	return ok
}

// IsOAuthError checks if an error is an OAuth error.
func IsOAuthError(err error) bool {
	var oAuthError *OAuthError
	ok := errors.As(err, &oAuthError)
	return ok
}

// GetUserFriendlyMessage returns a short human-readable message and remedy
// for an error produced by the login flow.
func GetUserFriendlyMessage(err error) string {
	switch {
	case IsAuthenticationError(err):
		var authErr *AuthenticationError
		errors.As(err, &authErr)
		switch authErr.Type {
		case "registration_failed":
			return "Could not register this CLI with Skein. Check your network connection and try again."
		case "port_in_use":
			return fmt.Sprintf("Port %d is already in use. Close the application using it and run 'skein -login' again.", DefaultCallbackPort)
		case "server_start_failed":
			return "Could not start the local login server. Run 'skein -login' again."
		case "invalid_state":
			return "The login response failed a security check. Run 'skein -login' again and complete the newest browser prompt."
		case "missing_code":
			return "Skein did not return an authorization code. Run 'skein -login' again."
		case "callback_timeout":
			return "Login timed out. Run 'skein -login' again, or paste a token manually with 'skein -login -with-token'."
		case "token_exchange_failed":
			return "Could not exchange the authorization code for a token. Run 'skein -login' again."
		case "browser_open_failed":
			return "Could not open your browser automatically. Copy and paste the URL manually."
		default:
			return "Authentication failed. Please try again."
		}
	case IsOAuthError(err):
		var oauthErr *OAuthError
		errors.As(err, &oauthErr)
		switch oauthErr.Code {
		case "access_denied":
			return "Authorization was cancelled or denied in the browser."
		case "invalid_request":
			return "Invalid authentication request. Please try again."
		case "server_error":
			return "Authentication server error. Please try again later."
		default:
			if oauthErr.Description != "" {
				return fmt.Sprintf("Authentication failed: %s", oauthErr.Description)
			}
			return fmt.Sprintf("Authentication failed: %s", oauthErr.Code)
		}
	default:
		return "An unexpected error occurred. Please try again."
	}
}
