package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"pose-browser/internal/library"
	"pose-browser/internal/media"
	"pose-browser/internal/settings"

	"github.com/spf13/cobra"
)

// syncLibrary runs a full sync against the stored roots and waits for the
// image sync it schedules.
func (o *options) syncLibrary(store *settings.Store) (*library.Library, error) {
	if err := os.MkdirAll(o.cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	if len(store.LibraryRoots()) == 0 {
		return nil, fmt.Errorf("no library roots configured; run 'posectl libraries add <path>'")
	}

	lib := library.New(store, media.NewResolver(o.cacheDir))
	if !lib.FullSync() {
		return nil, fmt.Errorf("none of the configured library roots exist")
	}
	lib.Wait()
	return lib, nil
}

// NewScanCmd creates the scan command
func NewScanCmd(opts *options) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Index the library roots and report what was found",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := opts.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore(store)

			lib, err := opts.syncLibrary(store)
			if err != nil {
				return err
			}
			stats := lib.GetStats()

			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(stats)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "Library roots:\t%d\n", stats.Roots)
			fmt.Fprintf(tw, "Documents:\t%d\n", stats.TotalDocuments)
			fmt.Fprintf(tw, "  Anamnesis poses:\t%d\n", stats.AnamnesisPoses)
			fmt.Fprintf(tw, "  Concept Matrix poses:\t%d\n", stats.CMToolPoses)
			fmt.Fprintf(tw, "With preview image:\t%d\n", stats.DocumentsWithImage)
			fmt.Fprintf(tw, "Scanned:\t%d files in %d folders\n", stats.FilesScanned, stats.FoldersScanned)
			if stats.WalkErrors > 0 {
				fmt.Fprintf(tw, "Unreadable entries:\t%d\n", stats.WalkErrors)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output results in JSON format")
	return cmd
}
