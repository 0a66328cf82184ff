// Package config provides configuration management for the Skein CLI.
// It handles loading and parsing YAML configuration files, and provides structured
// access to application settings including the API base URL, authentication
// directory, proxy configuration, and logging behavior.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultAPIBaseURL is the production Skein REST endpoint.
const DefaultAPIBaseURL = "https://api.skein.chat/v1"

// DefaultAuthDir is where credentials are stored unless overridden.
const DefaultAuthDir = "~/.skein"

// Config represents the application's configuration, loaded from a YAML file.
type Config struct {
	// APIBaseURL is the base URL of the Skein REST API.
	APIBaseURL string `yaml:"api-base-url" json:"api-base-url"`

	// AuthDir is the directory where authentication tokens are stored.
	// A leading tilde expands to the user's home directory.
	AuthDir string `yaml:"auth-dir" json:"auth-dir"`

	// Workspace is the default workspace used by listing commands when no
	// explicit -workspace flag is given. Empty means the first workspace
	// returned by the API.
	Workspace string `yaml:"workspace" json:"workspace"`

	// PageSize is the default number of rows fetched by listing commands.
	PageSize int `yaml:"page-size" json:"page-size"`

	// Markdown enables terminal rendering of markdown in thread and comment
	// bodies. When disabled, bodies are printed verbatim.
	Markdown bool `yaml:"markdown" json:"markdown"`

	// ProxyURL is the URL of an optional proxy server to use for outbound
	// requests. Supports socks5://, http:// and https:// schemes.
	ProxyURL string `yaml:"proxy-url" json:"proxy-url"`

	// RequestLog enables or disables detailed request logging functionality.
	RequestLog bool `yaml:"request-log" json:"request-log"`

	// Debug enables debug-level logging and caller reporting.
	Debug bool `yaml:"debug" json:"debug"`

	// LoggingToFile redirects logs to rotating files instead of stdout.
	LoggingToFile bool `yaml:"logging-to-file" json:"logging-to-file"`

	// LogsMaxTotalSizeMB caps the total size of the log directory in
	// megabytes. <= 0 disables the cap.
	LogsMaxTotalSizeMB int `yaml:"logs-max-total-size-mb" json:"logs-max-total-size-mb"`
}

// DefaultConfig returns a Config populated with defaults for every field a
// missing configuration file would otherwise leave zero-valued.
func DefaultConfig() *Config {
	return &Config{
		APIBaseURL: DefaultAPIBaseURL,
		AuthDir:    DefaultAuthDir,
		PageSize:   25,
		Markdown:   true,
	}
}

// LoadConfig reads the YAML file at configFile and returns the parsed
// configuration. The file must exist.
//
// Parameters:
//   - configFile: Path to the YAML configuration file
//
// Returns:
//   - *Config: The parsed configuration
//   - error: An error if the file cannot be read or parsed
func LoadConfig(configFile string) (*Config, error) {
	return LoadConfigOptional(configFile, false)
}

// LoadConfigOptional behaves like LoadConfig, except that when optional is
// true a missing file yields the default configuration instead of an error.
// Keys absent from the file keep their default values.
func LoadConfigOptional(configFile string, optional bool) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(configFile)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", configFile, err)
	}

	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", configFile, err)
	}

	cfg.normalize()
	return cfg, nil
}

// normalize backfills empty fields so downstream code never has to re-check
// for zero values the defaults already cover.
func (c *Config) normalize() {
	if c.APIBaseURL == "" {
		c.APIBaseURL = DefaultAPIBaseURL
	}
	if c.AuthDir == "" {
		c.AuthDir = DefaultAuthDir
	}
	if c.PageSize <= 0 {
		c.PageSize = 25
	}
}

// DefaultConfigPath returns the canonical location of the configuration file,
// <home>/.skein/config.yaml. It falls back to a relative path when the home
// directory cannot be determined.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".skein", "config.yaml")
	}
	return filepath.Join(home, ".skein", "config.yaml")
}
