package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"igprofiles/pkg/auth"
	"igprofiles/pkg/cache"
	"igprofiles/pkg/config"
	"igprofiles/pkg/fetcher"
	"igprofiles/pkg/instagram"
	"igprofiles/pkg/logger"
	"igprofiles/pkg/server"
	"igprofiles/pkg/tracker"
)

var (
	serveHost      string
	servePort      int
	serveCacheFile string
	serveUsernames []string
	serveAccount   string
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the profile analytics API server",
	Long: `Start the HTTP API server.

On startup the tracked profiles are loaded from the on-disk cache when it
is still fresh. Otherwise every tracked account is fetched before the
server starts accepting requests. The cache can be refreshed at any time
with a POST to /api/refresh.

Instagram session credentials are optional. When present (stored account,
environment variables or config file) the upstream endpoint returns richer
data and fewer login walls.`,
	Example: `  # Start with defaults (port 5000)
  igprofiles serve

  # Custom port and cache location
  igprofiles serve --port 8080 --cache-file /var/lib/igprofiles/cache.json

  # Track a custom set of accounts
  igprofiles serve --usernames nasa,natgeo,spotify`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "", "interface to bind (default 0.0.0.0)")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "port to listen on (default 5000)")
	serveCmd.Flags().StringVar(&serveCacheFile, "cache-file", "", "path of the JSON snapshot file")
	serveCmd.Flags().StringSliceVar(&serveUsernames, "usernames", nil, "comma separated accounts to track")
	serveCmd.Flags().StringVarP(&serveAccount, "account", "a", "", "use specific stored account")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	applyServeFlags(cfg)

	t := buildTracker(cfg, log)
	srv := server.New(t, &cfg.Server, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := t.RestoreOrRefresh(ctx); err != nil {
		return fmt.Errorf("priming profile cache: %w", err)
	}

	return srv.Run(ctx)
}

func applyServeFlags(cfg *config.Config) {
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}
	if servePort > 0 {
		cfg.Server.Port = servePort
	}
	if serveCacheFile != "" {
		cfg.Cache.File = serveCacheFile
	}
	if len(serveUsernames) > 0 {
		cfg.Tracking.Usernames = serveUsernames
	}
}

// buildTracker wires the fetch pipeline: Instagram client, fetcher with
// the politeness delay and retry policy, cache store and persistence.
func buildTracker(cfg *config.Config, log logger.Logger) *tracker.Tracker {
	resolveCredentials(cfg, log)

	client := instagram.NewClient(instagram.Options{
		Timeout:           cfg.Fetch.Timeout,
		UserAgent:         cfg.Instagram.UserAgent,
		SessionID:         cfg.Instagram.SessionID,
		CSRFToken:         cfg.Instagram.CSRFToken,
		RequestsPerMinute: cfg.Fetch.RequestsPerMinute,
		Logger:            log,
	})

	f := fetcher.New(client, fetcher.Options{
		RequestDelay: cfg.Fetch.RequestDelay,
		MaxRetries:   cfg.Fetch.MaxRetries,
		RetryDelay:   cfg.Fetch.RetryDelay,
		Logger:       log,
	})

	store := cache.NewStore()
	persistence := cache.NewPersistence(cfg.Cache.File, cfg.Cache.TTL, log)

	return tracker.New(cfg.Tracking.Usernames, f, store, persistence, log)
}

// resolveCredentials fills missing session credentials from the credential
// store. Public profiles work without them, so failures are non-fatal.
func resolveCredentials(cfg *config.Config, log logger.Logger) {
	if cfg.Instagram.SessionID != "" && cfg.Instagram.CSRFToken != "" {
		return
	}

	manager, err := auth.NewManager()
	if err != nil {
		log.WithError(err).Debug("credential manager unavailable")
		return
	}

	var account *auth.Account
	if serveAccount != "" {
		account, err = manager.Retrieve(serveAccount)
	} else {
		account, err = manager.RetrieveDefault()
	}
	if err != nil || account == nil {
		log.Debug("no stored credentials, fetching anonymously")
		return
	}

	cfg.Instagram.SessionID = account.SessionID
	cfg.Instagram.CSRFToken = account.CSRFToken
	if account.UserAgent != "" {
		cfg.Instagram.UserAgent = account.UserAgent
	}
	log.WithField("account", account.Username).Info("using stored credentials")
}
