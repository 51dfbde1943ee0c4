package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"pose-browser/internal/library"

	"github.com/spf13/cobra"
)

type listedDocument struct {
	Path      string   `json:"path"`
	ShortPath string   `json:"shortPath"`
	Format    string   `json:"format"`
	ImagePath string   `json:"imagePath,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// NewListCmd creates the list command
func NewListCmd(opts *options) *cobra.Command {
	var (
		jsonOutput bool
		query      library.Query
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List indexed documents",
		Long: `List indexed documents, optionally filtered. --search matches the short
path, name and tags case-insensitively; it is treated as a glob when it
contains *, ? or [.`,
		Args: cobra.NoArgs,
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

			docs := lib.Filter(query)
			listed := make([]listedDocument, 0, len(docs))
			for _, doc := range docs {
				item := listedDocument{
					Path:      doc.Path,
					ShortPath: lib.ShortPath(doc.Path),
					Format:    doc.Format.Label(),
					Tags:      doc.Tags(),
				}
				item.ImagePath, _ = doc.ImagePath()
				listed = append(listed, item)
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(listed)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DOCUMENT\tFORMAT\tIMAGE")
			for _, item := range listed {
				image := "-"
				if item.ImagePath != "" {
					image = item.ImagePath
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", item.ShortPath, item.Format, image)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output results in JSON format")
	cmd.Flags().StringVarP(&query.Search, "search", "s", "", "filter by path, name or tag")
	cmd.Flags().BoolVar(&query.ImagesOnly, "images-only", false, "only documents with a preview image")
	return cmd
}
