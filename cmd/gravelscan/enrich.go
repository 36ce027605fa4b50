package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/nao1215/gravelscan/internal/config"
	"github.com/nao1215/gravelscan/internal/enrich"
	"github.com/nao1215/gravelscan/internal/model"
	"github.com/nao1215/gravelscan/internal/pipeline"
	"github.com/nao1215/gravelscan/internal/report"
	"github.com/nao1215/gravelscan/internal/stats"
	"github.com/nao1215/gravelscan/internal/storage"
	"github.com/spf13/cobra"
)

// NewEnrichCmd creates the enrich command.
func NewEnrichCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enrich [listings-file]",
		Short: "Analyze saved listings with a local Ollama model",
		Long: `Enrich runs every listing of a saved CSV or JSON file through three
model prompts: description parsing, categorization and value assessment.

The enriched listings are written as JSON with an "ai_analysis" object per
listing. Listings without a description, and stages whose model answer could
not be parsed, carry an "error" entry instead.

The input defaults to {output-dir}/all_gravel_bikes.json and the output to
{output-dir}/enriched_bikes.json.

Examples:
  # Enrich the combined results of the last scrape
  gravelscan enrich

  # Enrich a query file with another model and print enhanced statistics
  gravelscan enrich data/gravel.json --model llama3 --stats`,
		Args: cobra.MaximumNArgs(1),
		RunE: runEnrichCmd,
	}

	cmd.Flags().StringP("output", "o", "",
		"Output file for the enriched listings")
	cmd.Flags().StringP("output-dir", "d", config.DefaultOutputDir,
		"Directory used for the default input and output paths")
	cmd.Flags().Bool("stats", false,
		"Print statistics including the enrichment results as JSON")
	addOllamaFlags(cmd)
	addConfigFlags(cmd)

	return cmd
}

// runEnrichCmd executes the enrich command.
func runEnrichCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	logger := setupLogger(cmd.ErrOrStderr(), cfg.Verbose, cfg.LogJSON)

	input := filepath.Join(cfg.OutputDir, pipeline.CombinedBase+".json")
	if len(args) > 0 {
		input = args[0]
	}
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	if output == "" {
		output = filepath.Join(cfg.OutputDir, pipeline.EnrichedListingsFile)
	}
	printStats, err := cmd.Flags().GetBool("stats")
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runEnrich(ctx, cfg, logger, enrichJob{
		input:      input,
		output:     output,
		printStats: printStats,
		out:        cmd.OutOrStdout(),
		progress:   cmd.ErrOrStderr(),
	})
}

type enrichJob struct {
	input      string
	output     string
	printStats bool
	out        io.Writer
	progress   io.Writer
}

// runEnrich enriches the listings of job.input and saves them to
// job.output. On cancellation the listings analyzed so far are saved.
func runEnrich(ctx context.Context, cfg *config.Config, logger *slog.Logger, job enrichJob) error {
	listings, err := storage.LoadFile(job.input)
	if err != nil {
		return fmt.Errorf("failed to load listings: %w", err)
	}
	if len(listings) == 0 {
		fmt.Fprintf(job.out, "No listings in %s\n", job.input)
		return nil
	}

	enricher := newEnricher(ctx, cfg, logger)
	progress := model.ObserverFunc(func(e model.ProgressEvent) {
		fmt.Fprintf(job.progress, "[%d/%d] %s\n", e.Current, e.Total, e.Status)
	})

	enriched, runErr := enricher.EnrichAll(ctx, listings, progress)
	if err := storage.SaveJSONFile(job.output, enriched); err != nil {
		return fmt.Errorf("failed to save enriched listings: %w", err)
	}
	fmt.Fprintf(job.out, "Saved %d enriched listings: %s\n", len(enriched), job.output)
	if runErr != nil {
		return fmt.Errorf("enrichment stopped after %d of %d listings: %w", len(enriched), len(listings), runErr)
	}

	if job.printStats {
		merged := stats.ComputeEnhanced(enriched).Merge(stats.Compute(listings).Map())
		w := report.NewJSONWriter(job.out, report.WithPrettyPrint())
		if _, err := w.WriteValue(merged); err != nil {
			return err
		}
	}
	return nil
}

// newEnricher builds the Ollama client, the cached analyzer and the
// enricher for cfg. Model availability is checked once here.
func newEnricher(ctx context.Context, cfg *config.Config, logger *slog.Logger) *enrich.Enricher {
	client := enrich.NewClient(cfg.OllamaURL,
		enrich.WithModel(cfg.OllamaModel),
		enrich.WithTimeout(cfg.OllamaTimeout),
		enrich.WithClientLogger(logger),
	)
	analyzer := enrich.NewAnalyzer(ctx, client,
		enrich.WithCache(enrich.DefaultCacheSize, enrich.DefaultCacheTTL),
		enrich.WithAnalyzerLogger(logger),
	)
	if !analyzer.Available() {
		logger.Warn("model is not available, listings will carry error markers",
			"url", cfg.OllamaURL,
			"model", cfg.OllamaModel,
		)
	}
	return enrich.NewEnricher(analyzer, enrich.WithEnricherLogger(logger))
}
