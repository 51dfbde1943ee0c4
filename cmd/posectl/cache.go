package main

import (
	"fmt"

	"pose-browser/internal/media"

	"github.com/spf13/cobra"
)

// NewCacheCmd creates the cache command group
func NewCacheCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the thumbnail cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete every cached thumbnail",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			removed, err := media.NewThumbnailGenerator(opts.cacheDir, true).ClearCache()
			if err != nil {
				return fmt.Errorf("clear thumbnail cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached thumbnails\n", removed)
			return nil
		},
	})

	return cmd
}
