package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/nao1215/gravelscan/internal/model"
)

// Error markers returned by the analysis stages.
const (
	ErrMsgModelUnavailable = "LLM model is unavailable"
	ErrMsgParseFailed      = "Failed to parse bike description"
	ErrMsgCategorizeFailed = "Failed to categorize bike"
	ErrMsgValueFailed      = "Failed to analyze bike value"
)

// Cache key input lengths of the description based stages.
const (
	parseKeyRunes      = 250
	categorizeKeyRunes = 100
)

// Generator produces JSON analysis results. *Client implements it.
type Generator interface {
	GenerateJSON(ctx context.Context, prompt string) (model.AnalysisResult, error)
	HasModel(ctx context.Context) (bool, error)
	Model() string
}

// Analyzer runs the analysis stages against a Generator and caches
// successful results.
type Analyzer struct {
	gen    Generator
	cache  *resultCache
	logger *slog.Logger

	mu        sync.RWMutex
	available bool
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*analyzerOptions)

type analyzerOptions struct {
	cacheSize int
	cacheTTL  time.Duration
	logger    *slog.Logger
}

// WithCache sets the capacity and entry lifetime of the result cache.
func WithCache(size int, ttl time.Duration) AnalyzerOption {
	return func(o *analyzerOptions) {
		if size > 0 {
			o.cacheSize = size
		}
		if ttl > 0 {
			o.cacheTTL = ttl
		}
	}
}

// WithAnalyzerLogger sets the logger.
func WithAnalyzerLogger(logger *slog.Logger) AnalyzerOption {
	return func(o *analyzerOptions) {
		o.logger = logger
	}
}

// NewAnalyzer creates an analyzer and checks whether the generator's model
// is installed. A server that cannot be reached marks the model unavailable;
// the stages then return the ErrMsgModelUnavailable marker.
func NewAnalyzer(ctx context.Context, gen Generator, opts ...AnalyzerOption) *Analyzer {
	o := analyzerOptions{
		cacheSize: DefaultCacheSize,
		cacheTTL:  DefaultCacheTTL,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	a := &Analyzer{
		gen:    gen,
		cache:  newResultCache(o.cacheSize, o.cacheTTL),
		logger: o.logger,
	}
	a.Refresh(ctx)
	return a
}

// Refresh re-checks model availability.
func (a *Analyzer) Refresh(ctx context.Context) bool {
	ok, err := a.gen.HasModel(ctx)
	if err != nil {
		a.logger.Error("failed to list models", "error", err)
	}
	if !ok {
		a.logger.Warn("model is not available, text analysis is disabled", "model", a.gen.Model())
	}
	a.mu.Lock()
	a.available = ok
	a.mu.Unlock()
	return ok
}

// Available reports whether the model was found on the server.
func (a *Analyzer) Available() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.available
}

// ParseDescription extracts structured details from a listing description.
func (a *Analyzer) ParseDescription(ctx context.Context, description string) model.AnalysisResult {
	key := cacheKey("parse", prefixRunes(description, parseKeyRunes))
	return a.run(ctx, "parse", key, parsePrompt(description), ErrMsgParseFailed)
}

// Categorize assigns a category to a listing.
func (a *Analyzer) Categorize(ctx context.Context, title, description string) model.AnalysisResult {
	key := cacheKey("categorize", title+prefixRunes(description, categorizeKeyRunes))
	return a.run(ctx, "categorize", key, categorizePrompt(title, description), ErrMsgCategorizeFailed)
}

// AssessValue estimates the market value of a listing described by data.
func (a *Analyzer) AssessValue(ctx context.Context, data model.AnalysisResult) model.AnalysisResult {
	flat, err := json.Marshal(data)
	if err != nil {
		a.logger.Error("failed to encode value input", "error", err)
		return model.ErrorResult(ErrMsgValueFailed)
	}
	key := cacheKey("value", string(flat))
	return a.run(ctx, "value", key, valuePrompt(string(flat)), ErrMsgValueFailed)
}

func (a *Analyzer) run(ctx context.Context, stage, key, prompt, failure string) model.AnalysisResult {
	if !a.Available() {
		return model.ErrorResult(ErrMsgModelUnavailable)
	}
	if r, ok := a.cache.get(key); ok {
		a.logger.Debug("using cached analysis", "stage", stage)
		return maps.Clone(r)
	}
	r, err := a.gen.GenerateJSON(ctx, prompt)
	if err != nil {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			a.logger.Error("analysis failed", "stage", stage, "error", err)
		}
		return model.ErrorResult(failure)
	}
	a.cache.put(key, r)
	return maps.Clone(r)
}

// CacheLen returns the number of cached results.
func (a *Analyzer) CacheLen() int {
	return a.cache.len()
}
