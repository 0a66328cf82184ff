package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveAuthDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory available: %v", err)
	}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "absolute", in: "/var/lib/skein//auth", want: filepath.Clean("/var/lib/skein/auth")},
		{name: "bare tilde", in: "~", want: filepath.Clean(home)},
		{name: "tilde with path", in: "~/.skein", want: filepath.Join(home, ".skein")},
		{name: "tilde with nested path", in: "~/a/b", want: filepath.Join(home, "a", "b")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveAuthDir(tt.in)
			if err != nil {
				t.Fatalf("ResolveAuthDir(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ResolveAuthDir(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestHideAPIKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "sk-1234567890abcdef", want: "sk-1...cdef"},
		{in: "abcdef", want: "ab...ef"},
		{in: "abc", want: "a...c"},
		{in: "ab", want: "ab"},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		if got := HideAPIKey(tt.in); got != tt.want {
			t.Errorf("HideAPIKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMaskSensitiveHeaderValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		key   string
		value string
		want  string
	}{
		{name: "authorization bearer", key: "Authorization", value: "Bearer secret-token-value-12345", want: "Bearer secr...2345"},
		{name: "authorization bare", key: "Authorization", value: "secret-token-value-12345", want: "secr...2345"},
		{name: "api key header", key: "X-Api-Key", value: "0123456789", want: "0123...6789"},
		{name: "plain header untouched", key: "Accept", value: "application/json", want: "application/json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaskSensitiveHeaderValue(tt.key, tt.value); got != tt.want {
				t.Errorf("MaskSensitiveHeaderValue(%q, %q) = %q, want %q", tt.key, tt.value, got, tt.want)
			}
		})
	}
}
