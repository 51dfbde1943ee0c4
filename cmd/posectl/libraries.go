package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// NewLibrariesCmd creates the libraries command group
func NewLibrariesCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "libraries",
		Short: "Manage library roots",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List library roots in the order they were added",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := opts.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore(store)

			out := cmd.OutOrStdout()
			roots := store.LibraryRoots()
			if len(roots) == 0 {
				fmt.Fprintln(out, "No library roots configured")
				return nil
			}
			for i, root := range roots {
				fmt.Fprintf(out, "%d\t%s\n", i+1, root)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <path>",
		Short: "Add a library root",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := strings.TrimSpace(args[0])
			if path == "" {
				return fmt.Errorf("library root must not be empty")
			}
			if info, err := os.Stat(path); err != nil || !info.IsDir() {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s is not a directory yet; it will be skipped until it exists\n", path)
			}

			store, err := opts.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore(store)

			if err := store.AddLibraryRoot(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added library root %s\n", path)
			return nil
		},
	})

	var yes bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every library root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				if !term.IsTerminal(int(os.Stdin.Fd())) {
					return fmt.Errorf("refusing to clear library roots without --yes")
				}
				if !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "Remove all library roots?") {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
					return nil
				}
			}

			store, err := opts.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore(store)

			if err := store.ClearLibraryRoots(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All library roots removed")
			return nil
		},
	}
	clearCmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	cmd.AddCommand(clearCmd)

	return cmd
}

// confirm asks a yes/no question; anything but y/yes is no.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
