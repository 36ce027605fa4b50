package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/gravelscan/internal/model"
	"github.com/nao1215/gravelscan/internal/storage"
)

// Harvester collects the listings of a query.
type Harvester interface {
	Harvest(ctx context.Context, query string) (*model.Collection, error)
}

// Recorder stores a finished run.
type Recorder interface {
	RecordRun(ctx context.Context, run storage.Run, listings []model.Listing) (string, error)
}

// HarvestStep collects the listings of the run's query.
type HarvestStep struct {
	harvester Harvester
	logger    *slog.Logger
}

// NewHarvestStep creates a harvest step.
func NewHarvestStep(h Harvester, logger *slog.Logger) *HarvestStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &HarvestStep{harvester: h, logger: logger}
}

// Name returns the step name.
func (s *HarvestStep) Name() string {
	return "harvest"
}

// Do harvests the query. Listings gathered before a cancellation are kept
// in the run.
func (s *HarvestStep) Do(ctx context.Context, run *QueryRun) error {
	listings, err := s.harvester.Harvest(ctx, run.Query)
	if listings != nil {
		run.Listings = listings
	}
	if err != nil {
		return fmt.Errorf("harvest %q: %w", run.Query, err)
	}
	s.logger.Info("query harvested", "query", run.Query, "listings", run.Len())
	return nil
}

// SaveStep writes the run's listings to {dir}/{query}.csv and .json.
type SaveStep struct {
	dir string
}

// NewSaveStep creates a step that saves into dir.
func NewSaveStep(dir string) *SaveStep {
	return &SaveStep{dir: dir}
}

// Name returns the step name.
func (s *SaveStep) Name() string {
	return "save"
}

// Do saves the listings.
func (s *SaveStep) Do(_ context.Context, run *QueryRun) error {
	paths, err := storage.SaveBoth(s.dir, storage.QueryFileBase(run.Query), run.Listings.Listings())
	if err != nil {
		return err
	}
	run.Files = append(run.Files, paths...)
	return nil
}

// PartialSaveStep keeps a timestamped copy, partial_{query}_{timestamp},
// of the run's listings.
type PartialSaveStep struct {
	dir string
	now func() time.Time
}

// NewPartialSaveStep creates a step that saves into dir.
func NewPartialSaveStep(dir string, now func() time.Time) *PartialSaveStep {
	if now == nil {
		now = time.Now
	}
	return &PartialSaveStep{dir: dir, now: now}
}

// Name returns the step name.
func (s *PartialSaveStep) Name() string {
	return "partial_save"
}

// Do saves the listings. An empty run writes nothing.
func (s *PartialSaveStep) Do(_ context.Context, run *QueryRun) error {
	if run.Len() == 0 {
		return nil
	}
	base := storage.StampedBase("partial", run.Query, s.now())
	paths, err := storage.SaveBoth(s.dir, base, run.Listings.Listings())
	if err != nil {
		return err
	}
	run.Files = append(run.Files, paths...)
	return nil
}

// RecordStep stores the run in the history database.
type RecordStep struct {
	recorder Recorder
	now      func() time.Time
}

// NewRecordStep creates a step that records runs with r.
func NewRecordStep(r Recorder, now func() time.Time) *RecordStep {
	if now == nil {
		now = time.Now
	}
	return &RecordStep{recorder: r, now: now}
}

// Name returns the step name.
func (s *RecordStep) Name() string {
	return "record"
}

// Do records the run as completed.
func (s *RecordStep) Do(ctx context.Context, run *QueryRun) error {
	run.FinishedAt = s.now()
	id, err := s.recorder.RecordRun(ctx, storage.Run{
		Query:      run.Query,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Status:     storage.RunCompleted,
	}, run.Listings.Listings())
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	run.RunID = id
	return nil
}

// StepsConfig selects the steps of a query pipeline.
type StepsConfig struct {
	Harvester Harvester
	OutputDir string
	// Recorder is optional; without it runs are not recorded.
	Recorder Recorder
	Now      func() time.Time
	Logger   *slog.Logger
}

// DefaultPipeline builds the harvest, save, partial save and record
// pipeline of a scrape query.
func DefaultPipeline(cfg StepsConfig, opts ...Option) *Pipeline {
	p := New(opts...)
	p.AddSteps(
		NewHarvestStep(cfg.Harvester, cfg.Logger),
		NewSaveStep(cfg.OutputDir),
		NewPartialSaveStep(cfg.OutputDir, cfg.Now),
	)
	if cfg.Recorder != nil {
		p.AddStep(NewRecordStep(cfg.Recorder, cfg.Now))
	}
	return p
}
