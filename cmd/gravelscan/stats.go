package main

import (
	"fmt"
	"path/filepath"

	"github.com/nao1215/gravelscan/internal/config"
	"github.com/nao1215/gravelscan/internal/pipeline"
	"github.com/nao1215/gravelscan/internal/report"
	"github.com/nao1215/gravelscan/internal/stats"
	"github.com/nao1215/gravelscan/internal/storage"
	"github.com/spf13/cobra"
)

// Report formats accepted by --format.
const (
	formatText     = "text"
	formatJSON     = "json"
	formatMarkdown = "markdown"
)

// NewStatsCmd creates the stats command.
func NewStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats [listings-file]",
		Short: "Print statistics of saved listings",
		Long: `Stats computes price, location, brand, year and attribute statistics
together with the parameters summary of a saved CSV or JSON file.

The file defaults to data/all_gravel_bikes.json.

Examples:
  # Print statistics of the last scrape
  gravelscan stats

  # Write a Markdown report of a query file
  gravelscan stats data/gravel.csv -f markdown -o gravel.md`,
		Args: cobra.MaximumNArgs(1),
		RunE: runStatsCmd,
	}

	cmd.Flags().StringP("format", "f", formatText,
		"Output format: text, json or markdown")
	cmd.Flags().StringP("output", "o", "",
		"Write the report to a file instead of stdout")

	return cmd
}

// runStatsCmd executes the stats command.
func runStatsCmd(cmd *cobra.Command, args []string) error {
	input := filepath.Join(config.DefaultOutputDir, pipeline.CombinedBase+".json")
	if len(args) > 0 {
		input = args[0]
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	listings, err := storage.LoadFile(input)
	if err != nil {
		return fmt.Errorf("failed to load listings: %w", err)
	}

	out, closeOut, err := openOutput(cmd.OutOrStdout(), outputPath)
	if err != nil {
		return err
	}

	statistics := stats.Compute(listings)
	parameters := stats.SummarizeParameters(listings)

	switch format {
	case formatJSON:
		w := report.NewJSONWriter(out, report.WithPrettyPrint())
		_, err = w.WriteValue(struct {
			Statistics stats.Statistics        `json:"statistics"`
			Parameters stats.ParametersSummary `json:"parameters"`
		}{statistics, parameters})
	case formatMarkdown, formatText:
		var w report.Writer
		if format == formatMarkdown {
			w = report.NewMarkdownWriter(out)
		} else {
			w = report.NewTextWriter(out,
				report.WithValueLimit(report.ConsoleValueLimit, report.ConsoleExampleCount))
		}
		if _, err = w.WriteStatistics(statistics); err == nil {
			_, err = w.WriteParameters(parameters)
		}
	default:
		err = fmt.Errorf("unknown format %q: use text, json or markdown", format)
	}

	if closeErr := closeOut(); err == nil {
		err = closeErr
	}
	return err
}
