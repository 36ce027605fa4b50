package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nao1215/gravelscan/internal/harvest"
	"github.com/nao1215/gravelscan/internal/model"
	"github.com/nao1215/gravelscan/internal/pipeline"
	"github.com/nao1215/gravelscan/internal/stats"
	"github.com/nao1215/gravelscan/internal/storage"
)

func newJobID() string {
	return uuid.NewString()
}

func detail(c *gin.Context, code int, format string, args ...any) {
	c.JSON(code, gin.H{"detail": fmt.Sprintf(format, args...)})
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (s *Server) index(c *gin.Context) {
	page, err := fs.ReadFile(staticFiles, "static/index.html")
	if err != nil {
		detail(c, http.StatusInternalServerError, "index page is missing")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

// scrape harvests the configured query and replaces the saved data.
func (s *Server) scrape(c *gin.Context) {
	pages, err := strconv.Atoi(c.DefaultQuery("pages", strconv.Itoa(DefaultPages)))
	if err != nil || pages < 1 || pages > MaxPages {
		detail(c, http.StatusUnprocessableEntity, "pages must be an integer between 1 and %d", MaxPages)
		return
	}
	if s.newScraper == nil {
		detail(c, http.StatusServiceUnavailable, "scraping is not configured")
		return
	}
	if !s.scrapeMu.TryLock() {
		detail(c, http.StatusConflict, "a scrape is already running")
		return
	}
	defer s.scrapeMu.Unlock()

	collection, err := s.newScraper(pages).Harvest(c.Request.Context(), s.query)
	if err != nil {
		c.Error(err) //nolint:errcheck // recorded for the request log
		code := http.StatusInternalServerError
		if errors.Is(err, harvest.ErrIndexUnavailable) {
			code = http.StatusBadGateway
		}
		detail(c, code, "scrape failed: %v", err)
		return
	}

	if _, err := pipeline.WriteOutputs(s.dataDir, ListingsBase, collection); err != nil {
		c.Error(err) //nolint:errcheck // recorded for the request log
		detail(c, http.StatusInternalServerError, "failed to save listings: %v", err)
		return
	}
	s.logger.Info("scrape finished",
		zap.String("query", s.query),
		zap.Int("pages", pages),
		zap.Int("listings", collection.Len()),
	)
	c.JSON(http.StatusOK, nonNil(collection.Listings()))
}

func (s *Server) listings(c *gin.Context) {
	path := s.path(ListingsBase + ".json")
	if !exists(path) {
		c.JSON(http.StatusOK, []model.Listing{})
		return
	}
	listings, err := storage.LoadFile(path)
	if err != nil {
		c.Error(err) //nolint:errcheck // recorded for the request log
		detail(c, http.StatusInternalServerError, "failed to read listings: %v", err)
		return
	}
	c.JSON(http.StatusOK, nonNil(listings))
}

func (s *Server) enrichedListings(c *gin.Context) {
	path := s.path(EnrichedFile)
	if !exists(path) {
		c.JSON(http.StatusOK, []model.EnrichedListing{})
		return
	}
	listings, err := storage.LoadEnrichedFile(path)
	if err != nil {
		c.Error(err) //nolint:errcheck // recorded for the request log
		detail(c, http.StatusInternalServerError, "failed to read enriched listings: %v", err)
		return
	}
	if listings == nil {
		listings = []model.EnrichedListing{}
	}
	c.JSON(http.StatusOK, listings)
}

// statistics returns the saved statistics extended with the statistics of
// the enriched listings. Unreadable enriched data leaves the base
// statistics unchanged.
func (s *Server) statistics(c *gin.Context) {
	base := map[string]any{}
	if path := s.path(StatisticsFile); exists(path) {
		m, err := storage.LoadJSONObject(path)
		if err != nil {
			c.Error(err) //nolint:errcheck // recorded for the request log
			detail(c, http.StatusInternalServerError, "failed to read statistics: %v", err)
			return
		}
		base = m
	}

	path := s.path(EnrichedFile)
	if !exists(path) {
		c.JSON(http.StatusOK, base)
		return
	}
	enriched, err := storage.LoadEnrichedFile(path)
	if err != nil {
		s.logger.Warn("failed to extend statistics", zap.Error(err))
		c.JSON(http.StatusOK, base)
		return
	}
	if len(enriched) == 0 {
		c.JSON(http.StatusOK, base)
		return
	}
	c.JSON(http.StatusOK, stats.ComputeEnhanced(enriched).Merge(base))
}

// analyze starts a background analysis of the saved listings.
func (s *Server) analyze(c *gin.Context) {
	path := s.path(ListingsBase + ".json")
	if !exists(path) {
		detail(c, http.StatusNotFound, "no data to analyze, scrape listings first")
		return
	}
	if s.newEnricher == nil {
		detail(c, http.StatusServiceUnavailable, "analysis is not configured")
		return
	}

	jobID := s.newJobID()
	if !s.progress.begin(jobID) {
		c.JSON(http.StatusOK, gin.H{"status": "Analysis is already running", "job_id": s.progress.job()})
		return
	}

	s.jobs.Add(1)
	go func() {
		defer s.jobs.Done()
		s.runAnalysis(s.jobCtx, jobID, path)
	}()
	c.JSON(http.StatusOK, gin.H{"status": "Analysis started", "job_id": jobID})
}

func (s *Server) runAnalysis(ctx context.Context, jobID, path string) {
	logger := s.logger.With(zap.String("job_id", jobID))
	fail := func(err error) {
		logger.Error("analysis failed", zap.Error(err))
		s.progress.finish(fmt.Sprintf("Analysis failed: %v", err))
	}

	listings, err := storage.LoadFile(path)
	if err != nil {
		fail(err)
		return
	}
	s.progress.Observe(model.ProgressEvent{
		Stage:  model.StageAnalysis,
		Total:  len(listings),
		Status: "Preparing analysis",
	})

	enricher, err := s.newEnricher(ctx)
	if err != nil {
		fail(err)
		return
	}
	enriched, err := enricher.EnrichAll(ctx, listings, s.progress)
	if err != nil {
		fail(err)
		return
	}
	if err := storage.SaveJSONFile(s.path(EnrichedFile), enriched); err != nil {
		fail(err)
		return
	}
	logger.Info("analysis finished", zap.Int("listings", len(enriched)))
	s.progress.finish(statusFinished)
}

// analysisProgress streams progress events. The current state is sent
// first; the stream ends after the job finishes, or immediately when no
// job is running.
func (s *Server) analysisProgress(c *gin.Context) {
	events := make(chan model.ProgressEvent, 64)
	id := s.hub.Register(model.ObserverFunc(func(e model.ProgressEvent) {
		select {
		case events <- e:
		default:
		}
	}))
	defer s.hub.Unregister(id)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	current, running := s.progress.snapshot()
	c.SSEvent("message", current)
	c.Writer.Flush()
	if !running {
		return
	}

	ctx := c.Request.Context()
	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()
	c.Stream(func(io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case e := <-events:
			c.SSEvent("message", e)
			return e.Stage != model.StageDone
		case <-ticker.C:
			// Catches a final event dropped from a full channel.
			current, running := s.progress.snapshot()
			c.SSEvent("message", current)
			return running
		}
	})
}

func nonNil(listings []model.Listing) []model.Listing {
	if listings == nil {
		return []model.Listing{}
	}
	return listings
}
