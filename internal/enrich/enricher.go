package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"maps"

	"github.com/nao1215/gravelscan/internal/model"
)

const statusTitleRunes = 30

// Stages is implemented by *Analyzer.
type Stages interface {
	ParseDescription(ctx context.Context, description string) model.AnalysisResult
	Categorize(ctx context.Context, title, description string) model.AnalysisResult
	AssessValue(ctx context.Context, data model.AnalysisResult) model.AnalysisResult
}

// Enricher attaches analyses to listings.
type Enricher struct {
	stages Stages
	logger *slog.Logger
}

// EnricherOption configures an Enricher.
type EnricherOption func(*Enricher)

// WithEnricherLogger sets the logger.
func WithEnricherLogger(logger *slog.Logger) EnricherOption {
	return func(e *Enricher) {
		e.logger = logger
	}
}

// NewEnricher creates an enricher running stages.
func NewEnricher(stages Stages, opts ...EnricherOption) *Enricher {
	e := &Enricher{stages: stages, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich analyzes one listing.
//
// Parsing runs first. Categorization runs only when parsing succeeded and
// value assessment only when both succeeded; skipped stages carry an error
// marker naming the stage that failed.
func (e *Enricher) Enrich(ctx context.Context, l *model.Listing) (out model.EnrichedListing) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("analysis panicked", "url", l.URL, "panic", r)
			out = model.NewEnrichedListing(l, model.Analysis{Error: fmt.Sprintf("Analysis error: %v", r)})
		}
	}()

	description := l.DescriptionText()
	if description == "" {
		e.logger.Warn("no description available", "title", prefixRunes(l.Title, 50))
		return model.NewEnrichedListing(l, model.Analysis{Error: model.ErrMsgNoDescription})
	}

	var a model.Analysis
	a.ParsedDetails = e.stages.ParseDescription(ctx, description)
	if a.ParsedDetails.Failed() {
		a.Category = model.ErrorResult(model.ErrMsgCategorizeAfterParse)
		a.Value = model.ErrorResult(model.ErrMsgValueAfterParse)
		return model.NewEnrichedListing(l, a)
	}

	a.Category = e.stages.Categorize(ctx, l.Title, description)
	if a.Category.Failed() {
		a.Value = model.ErrorResult(model.ErrMsgValueAfterCategorize)
		return model.NewEnrichedListing(l, a)
	}

	combined := maps.Clone(a.ParsedDetails)
	maps.Copy(combined, a.Category)
	a.Value = e.stages.AssessValue(ctx, combined)
	return model.NewEnrichedListing(l, a)
}

// EnrichAll analyzes listings in order and reports one StageAnalysis event
// before each listing and a StageDone event at the end. A nil observer is
// allowed. When ctx is cancelled the listings analyzed so far are returned
// with ctx.Err().
func (e *Enricher) EnrichAll(ctx context.Context, listings []model.Listing, obs model.Observer) ([]model.EnrichedListing, error) {
	if obs == nil {
		obs = model.NopObserver{}
	}
	total := len(listings)
	out := make([]model.EnrichedListing, 0, total)

	obs.Observe(model.ProgressEvent{
		Stage:  model.StageAnalysis,
		Total:  total,
		Status: "Starting listing analysis",
	})
	for i := range listings {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		l := &listings[i]
		obs.Observe(model.ProgressEvent{
			Stage:   model.StageAnalysis,
			Current: i,
			Total:   total,
			Status:  fmt.Sprintf("Analyzing listing %d/%d: %s", i+1, total, prefixRunes(l.Title, statusTitleRunes)),
			URL:     l.URL,
		})
		e.logger.Info("enriching listing", "title", prefixRunes(l.Title, 50))
		out = append(out, e.Enrich(ctx, l))
	}
	obs.Observe(model.ProgressEvent{
		Stage:   model.StageDone,
		Current: total,
		Total:   total,
		Status:  "Finished analyzing all listings",
	})
	return out, nil
}
