// Package main provides the entry point for the skein CLI, the terminal
// client for Skein team messaging. It parses command-line flags, loads the
// configuration, and dispatches to the requested command.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/skeinhq/skein-cli/internal/buildinfo"
	"github.com/skeinhq/skein-cli/internal/cmd"
	"github.com/skeinhq/skein-cli/internal/config"
	"github.com/skeinhq/skein-cli/internal/logging"
	"github.com/skeinhq/skein-cli/internal/util"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// init initializes the shared logger setup.
func init() {
	logging.SetupBaseLogger()
	buildinfo.Version = Version
	buildinfo.Commit = Commit
	buildinfo.BuildDate = BuildDate
}

// main parses flags, loads configuration, and runs the selected command.
func main() {
	// Command-line flags to control the application's behavior.
	var login bool
	var withToken bool
	var logout bool
	var noBrowser bool
	var whoami bool
	var workspaces bool
	var channels bool
	var threads bool
	var inbox bool
	var notifications bool
	var send bool
	var showVersion bool
	var workspaceID string
	var channelID string
	var threadID string
	var searchQuery string
	var message string
	var limit int
	var callbackPort int
	var configPath string

	// Define command-line flags for the different operation modes.
	flag.BoolVar(&login, "login", false, "Sign in to Skein through the browser")
	flag.BoolVar(&withToken, "with-token", false, "With -login, paste an access token instead of running the browser flow")
	flag.BoolVar(&noBrowser, "no-browser", false, "Don't open the browser automatically during sign-in")
	flag.BoolVar(&logout, "logout", false, "Sign out and remove the stored token")
	flag.BoolVar(&whoami, "whoami", false, "Show the signed-in user")
	flag.BoolVar(&workspaces, "workspaces", false, "List your workspaces")
	flag.BoolVar(&channels, "channels", false, "List channels of a workspace")
	flag.BoolVar(&threads, "threads", false, "List threads of a channel, or recent threads of a workspace")
	flag.BoolVar(&inbox, "inbox", false, "List threads with unread activity")
	flag.BoolVar(&notifications, "notifications", false, "List mentions and notifications")
	flag.BoolVar(&send, "send", false, "Post a comment to a thread (requires -thread and -m)")
	flag.BoolVar(&showVersion, "version", false, "Print version information and exit")
	flag.StringVar(&workspaceID, "workspace", "", "Workspace for -channels and -threads")
	flag.StringVar(&channelID, "channel", "", "Channel for -threads")
	flag.StringVar(&threadID, "thread", "", "Show one thread with its comments, or the target of -send")
	flag.StringVar(&searchQuery, "search", "", "Search threads and comments")
	flag.StringVar(&message, "message", "", "Message body for -send")
	flag.StringVar(&message, "m", "", "Shorthand for -message")
	flag.IntVar(&limit, "limit", 0, "Maximum number of rows for listings (defaults to the configured page size)")
	flag.IntVar(&callbackPort, "callback-port", 0, "Override the local OAuth callback port during sign-in")
	flag.StringVar(&configPath, "config", "", "Configuration file path")

	flag.CommandLine.Usage = func() {
		out := flag.CommandLine.Output()
		_, _ = fmt.Fprintf(out, "Usage of %s:\n", os.Args[0])
		flag.PrintDefaults()
		_, _ = fmt.Fprint(out, "\nExamples:\n")
		_, _ = fmt.Fprint(out, "  skein -login\n")
		_, _ = fmt.Fprint(out, "  skein -inbox\n")
		_, _ = fmt.Fprint(out, "  skein -threads -channel ch-42\n")
		_, _ = fmt.Fprint(out, "  skein -thread th-123\n")
		_, _ = fmt.Fprint(out, "  skein -send -thread th-123 -m \"on my way\"\n")
	}

	// Parse the command-line flags.
	flag.Parse()

	if showVersion {
		fmt.Printf("Skein CLI Version: %s, Commit: %s, BuiltAt: %s\n", buildinfo.Version, buildinfo.Commit, buildinfo.BuildDate)
		return
	}

	wd, err := os.Getwd()
	if err != nil {
		log.Errorf("failed to get working directory: %v", err)
		return
	}

	// Load environment variables from .env if present.
	if errLoad := godotenv.Load(filepath.Join(wd, ".env")); errLoad != nil {
		if !errors.Is(errLoad, os.ErrNotExist) {
			log.WithError(errLoad).Warn("failed to load .env file")
		}
	}

	// Determine and load the configuration file. An explicit -config must
	// exist; the default location may be absent.
	var cfg *config.Config
	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
	} else {
		cfg, err = config.LoadConfigOptional(config.DefaultConfigPath(), true)
	}
	if err != nil {
		log.Errorf("failed to load config: %v", err)
		return
	}

	if err = logging.ConfigureLogOutput(cfg); err != nil {
		log.Errorf("failed to configure log output: %v", err)
		return
	}

	// Set the log level based on the configuration.
	util.SetLogLevel(cfg)
	log.Debugf("Skein CLI Version: %s, Commit: %s, BuiltAt: %s", buildinfo.Version, buildinfo.Commit, buildinfo.BuildDate)

	// Create login options to be used in authentication flows.
	options := &cmd.LoginOptions{
		NoBrowser:    noBrowser,
		CallbackPort: callbackPort,
	}

	// Handle the different command modes based on the provided flags.
	if login && withToken {
		// Manual token entry for machines where the browser flow cannot run.
		cmd.DoLoginWithToken(cfg, options)
	} else if login {
		// Browser sign-in flow.
		cmd.DoLogin(cfg, options)
	} else if logout {
		cmd.DoLogout(cfg)
	} else if whoami {
		cmd.DoWhoami(cfg)
	} else if workspaces {
		cmd.DoWorkspaces(cfg)
	} else if channels {
		cmd.DoChannels(cfg, workspaceID)
	} else if threads {
		cmd.DoThreads(cfg, workspaceID, channelID, limit)
	} else if inbox {
		cmd.DoInbox(cfg, limit)
	} else if notifications {
		cmd.DoNotifications(cfg)
	} else if send {
		cmd.DoSend(cfg, threadID, message)
	} else if searchQuery != "" {
		cmd.DoSearch(cfg, searchQuery, limit)
	} else if threadID != "" {
		cmd.DoThread(cfg, threadID)
	} else {
		flag.Usage()
	}
}
