package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/gravelscan/internal/config"
	"github.com/nao1215/gravelscan/internal/model"
	"github.com/nao1215/gravelscan/internal/report"
	"github.com/nao1215/gravelscan/internal/stats"
	"github.com/nao1215/gravelscan/internal/storage"
	"github.com/spf13/cobra"
)

// NewCompareCmd creates the compare command.
// This command diffs two harvests, either from the run history or from files.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [query | old-file new-file]",
		Short: "Compare two harvests",
		Long: `Compare shows which listings appeared, which disappeared and whose price
changed between two harvests.

With one argument the two most recent completed runs of that query are taken
from the SQLite history written by 'gravelscan scrape'. With two arguments the
listings of two saved CSV or JSON files are compared.

Examples:
  # Compare the latest two runs of the default query
  gravelscan compare gravel

  # Compare two saved files
  gravelscan compare data/old.json data/all_gravel_bikes.json

  # List the recorded runs of a query
  gravelscan compare --list gravel

  # List every query in the history
  gravelscan compare --list-queries

  # Output the comparison as Markdown
  gravelscan compare -m gravel`,
		Args: cobra.MaximumNArgs(2),
		RunE: runCompareCmd,
	}

	cmd.Flags().BoolP("list", "l", false,
		"List the recorded runs of the query")
	cmd.Flags().BoolP("list-queries", "L", false,
		"List every query in the run history")
	cmd.Flags().String("db-dir", "",
		"Directory of the SQLite run history (default: XDG data directory)")
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	listQueries, err := cmd.Flags().GetBool("list-queries")
	if err != nil {
		return err
	}
	listRuns, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	// Validate arguments before opening the database.
	if !listQueries && len(args) == 0 {
		return errors.New("a query or two files are required (use --list-queries to see recorded queries)")
	}

	out := cmd.OutOrStdout()
	w := diffWriter(out, jsonOutput, markdownOutput)

	if len(args) == 2 {
		older, err := storage.LoadCollection(args[0])
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", args[0], err)
		}
		newer, err := storage.LoadCollection(args[1])
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", args[1], err)
		}
		_, err = w.WriteDiff(stats.Compare(older, newer))
		return err
	}

	history, err := storage.OpenHistory(dbDir, storage.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer history.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	switch {
	case listQueries:
		return listRecordedQueries(ctx, out, history)
	case listRuns:
		return listQueryRuns(ctx, out, history, args[0])
	}

	diff, err := compareLatestRuns(ctx, history, args[0])
	if err != nil {
		return err
	}
	_, err = w.WriteDiff(diff)
	return err
}

func diffWriter(out io.Writer, jsonOutput, markdownOutput bool) report.Writer {
	switch {
	case jsonOutput:
		return report.NewJSONWriter(out, report.WithPrettyPrint())
	case markdownOutput:
		return report.NewMarkdownWriter(out)
	default:
		return report.NewTextWriter(out)
	}
}

// compareLatestRuns diffs the two most recent completed runs of query.
func compareLatestRuns(ctx context.Context, history *storage.History, query string) (stats.Diff, error) {
	older, newer, err := history.LatestPair(ctx, query)
	if err != nil {
		if errors.Is(err, storage.ErrRunNotFound) {
			return stats.Diff{}, fmt.Errorf("%w (run 'gravelscan scrape -q %q' again)", err, query)
		}
		return stats.Diff{}, err
	}

	collections := make([]*model.Collection, 0, 2)
	for _, run := range []storage.Run{older, newer} {
		c, err := history.RunListings(ctx, run.ID)
		if err != nil {
			return stats.Diff{}, fmt.Errorf("failed to load run %s: %w", run.ID, err)
		}
		collections = append(collections, c)
	}
	return stats.Compare(collections[0], collections[1]), nil
}

// listRecordedQueries prints every query with recorded runs.
func listRecordedQueries(ctx context.Context, out io.Writer, history *storage.History) error {
	queries, err := history.Queries(ctx)
	if err != nil {
		return err
	}
	if len(queries) == 0 {
		fmt.Fprintln(out, "No runs found in the history.")
		fmt.Fprintln(out, "\nUse 'gravelscan scrape' to harvest listings.")
		return nil
	}

	fmt.Fprintf(out, "Recorded queries (%d):\n\n", len(queries))
	for _, q := range queries {
		fmt.Fprintf(out, "  • %s\n", q)
	}
	fmt.Fprintln(out, "\nUse 'gravelscan compare --list <query>' to see the runs of a query.")
	return nil
}

// listQueryRuns prints the recorded runs of query, newest first.
func listQueryRuns(ctx context.Context, out io.Writer, history *storage.History, query string) error {
	runs, err := history.Runs(ctx, query, 0)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintf(out, "No runs found for %q\n", query)
		return nil
	}

	fmt.Fprintf(out, "Runs of %q (%d):\n\n", query, len(runs))
	fmt.Fprintf(out, "  %-36s  %-19s  %-9s  %s\n", "ID", "Started", "Status", "Listings")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 80))
	for _, r := range runs {
		fmt.Fprintf(out, "  %-36s  %-19s  %-9s  %d\n",
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Status,
			r.ListingCount,
		)
	}
	return nil
}
