package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for gravelscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gravelscan",
		Short: "Gravel bicycle market scraper for OLX",
		Long: `gravelscan collects gravel bicycle listings from the OLX marketplace.

It walks the search result pages of one or more queries, fetches every
listing page with bounded concurrency, and saves the results as CSV and JSON
together with price statistics and a summary of listing parameters.

Saved listings can be enriched with a local Ollama model, served through an
HTTP API, and compared between runs.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON lines")

	cmd.AddCommand(NewScrapeCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewEnrichCmd())
	cmd.AddCommand(NewStatsCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewInitCmd())
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
