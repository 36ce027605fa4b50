package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/gravelscan/internal/api"
	"github.com/nao1215/gravelscan/internal/config"
	"github.com/nao1215/gravelscan/internal/harvest"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the listings and analysis HTTP API",
		Long: `Serve starts the HTTP API and a small web page on top of it.

Endpoints:
  GET /                          web page
  GET /api/scrape?pages=N        harvest N (1-20) result pages and save them
  GET /api/data/bikes            saved listings
  GET /api/data/statistics       statistics, enhanced when enriched data exists
  GET /api/data/enriched-bikes   saved enriched listings
  GET /api/ai-analyze            start enriching the saved listings
  GET /api/ai-analyze/progress   enrichment progress as server-sent events

Examples:
  # Serve on the default address :8000
  gravelscan serve

  # Serve on localhost only with a different model
  gravelscan serve -a 127.0.0.1:9000 --model llama3`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().StringP("addr", "a", config.DefaultServerAddr,
		"Listen address")
	cmd.Flags().StringP("data-dir", "d", config.DefaultOutputDir,
		"Directory of the saved listings and statistics")
	cmd.Flags().StringArrayP("query", "q", nil,
		"Search phrase used by /api/scrape (default: gravel)")
	addFetchFlags(cmd)
	addOllamaFlags(cmd)
	addConfigFlags(cmd)

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	logger := setupLogger(cmd.ErrOrStderr(), cfg.Verbose, cfg.LogJSON)

	zapLogger, err := newZapLogger(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to create request logger: %w", err)
	}
	defer func() {
		_ = zapLogger.Sync() //nolint:errcheck // stderr sync fails on some terminals
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	f, cleanup, err := newFetcher(ctx, cfg, cmd.OutOrStdout(), logger)
	if err != nil {
		return err
	}
	defer cleanup()

	server := newAPIServer(cfg, f, logger, zapLogger)
	fmt.Fprintf(cmd.OutOrStdout(), "Serving on %s (data: %s)\n", cfg.ServerAddr, cfg.OutputDir)
	return server.Run(ctx, cfg.ServerAddr)
}

// newAPIServer wires the harvester and enricher factories into the API.
func newAPIServer(cfg *config.Config, f harvest.PageFetcher, logger *slog.Logger, zapLogger *zap.Logger, opts ...harvest.Option) *api.Server {
	scrapers := func(maxPages int) api.Scraper {
		hopts := append([]harvest.Option{
			harvest.WithMaxPages(maxPages),
			harvest.WithConcurrency(cfg.Concurrency),
			harvest.WithLogger(logger),
		}, opts...)
		return harvest.New(f, hopts...)
	}
	enrichers := func(ctx context.Context) (api.Enricher, error) {
		return newEnricher(ctx, cfg, logger), nil
	}

	return api.NewServer(cfg.OutputDir, scrapers, enrichers,
		api.WithLogger(zapLogger),
		api.WithQuery(cfg.Queries[0]),
	)
}

// newZapLogger creates the request logger of the API.
func newZapLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
