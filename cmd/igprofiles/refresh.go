package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var refreshCacheFile string

// refreshCmd represents the refresh command
var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch all tracked profiles once and update the cache file",
	Long: `Fetch every tracked profile once, write the snapshot to the cache
file and exit. Useful for cron driven refreshes and for warming the cache
before starting the server.`,
	Example: `  # Refresh using the configured cache file
  igprofiles refresh

  # Refresh into a specific file
  igprofiles refresh --cache-file /var/lib/igprofiles/cache.json`,
	RunE: runRefresh,
}

func init() {
	rootCmd.AddCommand(refreshCmd)

	refreshCmd.Flags().StringVar(&refreshCacheFile, "cache-file", "", "path of the JSON snapshot file")
}

func runRefresh(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	if refreshCacheFile != "" {
		cfg.Cache.File = refreshCacheFile
	}

	t := buildTracker(cfg, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	records, fetchErrs, err := t.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("refreshing profiles: %w", err)
	}

	fmt.Printf("Refreshed %d of %d profiles (%d failed)\n",
		len(records), len(cfg.Tracking.Usernames), len(fetchErrs))
	for _, fe := range fetchErrs {
		fmt.Printf("  %s: %s\n", fe.Username, fe.Error)
	}
	return nil
}
