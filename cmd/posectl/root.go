package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"pose-browser/internal/logging"
	"pose-browser/internal/settings"

	"github.com/spf13/cobra"
)

const (
	// Default timeout for opening the settings database
	defaultTimeout = 30 * time.Second
	// Default database directory path
	defaultDatabaseDir = "/database"
	// Default cache directory path
	defaultCacheDir = "/cache"
)

// options are the persistent flags shared by every command.
type options struct {
	databaseDir string
	cacheDir    string
	logLevel    string
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "posectl",
		Short: "Inspect and manage a pose browser library offline",
		Long: `posectl works directly on the pose browser settings database and
library roots, without a running server. Use it to manage library roots,
run a one-off scan, list documents or clear the thumbnail cache.`,
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if opts.logLevel != "" {
				logging.SetLevel(logging.ParseLevel(opts.logLevel))
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.databaseDir, "database-dir", envOr("DATABASE_DIR", defaultDatabaseDir), "settings database directory")
	rootCmd.PersistentFlags().StringVar(&opts.cacheDir, "cache-dir", envOr("CACHE_DIR", defaultCacheDir), "cache directory for thumbnails and embedded previews")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (verbose, debug, info, warn, error)")

	rootCmd.AddCommand(NewLibrariesCmd(opts))
	rootCmd.AddCommand(NewScanCmd(opts))
	rootCmd.AddCommand(NewListCmd(opts))
	rootCmd.AddCommand(NewCacheCmd(opts))

	return rootCmd
}

// openStore opens the settings database named by the flags.
func (o *options) openStore(ctx context.Context) (*settings.Store, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	dbPath := filepath.Join(o.databaseDir, "settings.db")
	store, err := settings.Open(ctx, dbPath)
	if err != nil {
		return nil, fmt.Errorf("open settings (is --database-dir %s correct?): %w", o.databaseDir, err)
	}
	return store, nil
}

func closeStore(store *settings.Store) {
	if err := store.Close(); err != nil {
		logging.Warn("failed to close settings database: %v", err)
	}
}
