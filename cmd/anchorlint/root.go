// Package main provides the entry point for the anchorlint CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for anchorlint.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "anchorlint",
		Short: "Link and anchor integrity checker for websites",
		Long: `anchorlint crawls a website and verifies its internal integrity:
every link must resolve, every href fragment must point to an element id
that exists on the target page, and page titles can be validated against
a configured pattern.

The exit code is non-zero when any check fails, so anchorlint can run as
a CI gate after each deploy.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCheckCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
