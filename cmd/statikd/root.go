package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Build-time variables set via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "statikd",
		Short: "A static site server with header and redirect rules",
		Long: `statikd serves a directory of static files over HTTP. Site authors attach
custom response headers and redirects to paths with two plain-text files at
the site root, _headers and _redirects, whose patterns support named captures
({name}) and trailing wildcards ({*name}).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newCheckCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the statikd version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "statikd %s (%s)\n", version, commit)
		},
	}
}
