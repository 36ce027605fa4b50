package api

import (
	"context"
	"embed"
	"errors"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nao1215/gravelscan/internal/harvest"
	"github.com/nao1215/gravelscan/internal/model"
)

// Files kept in the data directory.
const (
	ListingsBase   = "gravel_bikes"
	StatisticsFile = "statistics.json"
	EnrichedFile   = "enriched_bikes.json"
)

// Limits of the pages query parameter of the scrape endpoint.
const (
	DefaultPages = 5
	MaxPages     = 20
)

const (
	shutdownTimeout  = 10 * time.Second
	defaultHeartbeat = 15 * time.Second
)

//go:embed static/index.html
var staticFiles embed.FS

// Scraper harvests the listings of one search query.
type Scraper interface {
	Harvest(ctx context.Context, query string) (*model.Collection, error)
}

// ScraperFactory creates a scraper reading at most maxPages result pages.
type ScraperFactory func(maxPages int) Scraper

// Enricher analyzes listings.
type Enricher interface {
	EnrichAll(ctx context.Context, listings []model.Listing, obs model.Observer) ([]model.EnrichedListing, error)
}

// EnricherFactory creates an enricher for one analysis job.
type EnricherFactory func(ctx context.Context) (Enricher, error)

// Server is the HTTP API.
type Server struct {
	dataDir     string
	query       string
	newScraper  ScraperFactory
	newEnricher EnricherFactory
	hub         *harvest.ProgressHub
	progress    *analysisProgress
	logger      *zap.Logger
	newJobID    func() string
	heartbeat   time.Duration

	scrapeMu sync.Mutex

	jobCtx    context.Context
	cancelJob context.CancelFunc
	jobs      sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and job logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithQuery sets the search query used by the scrape endpoint.
func WithQuery(query string) Option {
	return func(s *Server) {
		if query != "" {
			s.query = query
		}
	}
}

// WithProgressHub sets the hub analysis progress is published to.
func WithProgressHub(hub *harvest.ProgressHub) Option {
	return func(s *Server) {
		if hub != nil {
			s.hub = hub
		}
	}
}

// WithJobIDs sets the generator of analysis job identifiers.
func WithJobIDs(fn func() string) Option {
	return func(s *Server) {
		if fn != nil {
			s.newJobID = fn
		}
	}
}

// NewServer creates a server storing its files in dataDir.
func NewServer(dataDir string, scrapers ScraperFactory, enrichers EnricherFactory, opts ...Option) *Server {
	s := &Server{
		dataDir:     dataDir,
		query:       "gravel",
		newScraper:  scrapers,
		newEnricher: enrichers,
		hub:         harvest.NewProgressHub(),
		logger:      zap.NewNop(),
		newJobID:    newJobID,
		heartbeat:   defaultHeartbeat,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.progress = newAnalysisProgress(s.hub)
	s.jobCtx, s.cancelJob = context.WithCancel(context.Background())
	return s
}

// Router returns the gin engine serving every endpoint.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(requestLogger(s.logger), recovery(s.logger))
	_ = r.SetTrustedProxies(nil) //nolint:errcheck // nil never fails

	r.GET("/", s.index)
	r.GET("/api/scrape", s.scrape)
	r.GET("/api/data/bikes", s.listings)
	r.GET("/api/data/statistics", s.statistics)
	r.GET("/api/data/enriched-bikes", s.enrichedListings)
	r.GET("/api/ai-analyze", s.analyze)
	r.GET("/api/ai-analyze/progress", s.analysisProgress)
	return r
}

// Run serves on addr until ctx is done, then shuts down gracefully and
// cancels a running analysis.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("API server is running", zap.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.Close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down API server")
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	return err
}

// Close cancels a running analysis and waits for it to stop.
func (s *Server) Close() {
	s.cancelJob()
	s.jobs.Wait()
}

// Wait blocks until the running analysis, if any, has finished.
func (s *Server) Wait() {
	s.jobs.Wait()
}

func (s *Server) path(name string) string {
	return filepath.Join(s.dataDir, name)
}
