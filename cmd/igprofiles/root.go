package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"igprofiles/pkg/config"
	"igprofiles/pkg/logger"
	"igprofiles/pkg/server"
)

var (
	// Version information
	version   = server.Version
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "igprofiles",
	Short: "Instagram profile analytics service with a JSON API",
	Long: `igprofiles tracks a configurable list of Instagram accounts, caches
their public profile metadata and serves the results over a JSON API.

Features:
  - Cached profile snapshots reused across restarts while fresh
  - Rate limited fetching with automatic retry on connection errors
  - Filterable profile listing and aggregate statistics endpoints
  - Secure credential storage using the system keychain`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is $HOME/.igprofiles.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.SetVersionTemplate(`igprofiles {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig resolves configuration from flags, environment and file, then
// brings the global logger up to match it.
func loadConfig() (*config.Config, logger.Logger, error) {
	flags := make(map[string]interface{})
	if logLevel != "" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, nil, fmt.Errorf("loading configuration: %w", err)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, nil, fmt.Errorf("initializing logger: %w", err)
	}

	return cfg, logger.GetLogger(), nil
}
