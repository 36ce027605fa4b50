package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/gravelscan/internal/model"
	"github.com/nao1215/gravelscan/internal/storage"
)

// Runner executes one pipeline per query.
type Runner struct {
	pipelineFactory func() *Pipeline
	concurrency     int
	outputDir       string
	recorder        Recorder
	now             func() time.Time
	logger          *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRunnerLogger sets the logger.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithQueryConcurrency sets how many queries run at once. The default is
// one, so queries run one after another.
func WithQueryConcurrency(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithErrorDir sets where a failed query's listings are saved.
func WithErrorDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.outputDir = dir
	}
}

// WithFailureRecorder records failed runs in the history as well.
func WithFailureRecorder(rec Recorder) RunnerOption {
	return func(r *Runner) {
		r.recorder = rec
	}
}

// WithNow sets the time source used for timestamps.
func WithNow(now func() time.Time) RunnerOption {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRunner creates a Runner. pipelineFactory is called once per query.
func NewRunner(pipelineFactory func() *Pipeline, opts ...RunnerOption) *Runner {
	r := &Runner{
		pipelineFactory: pipelineFactory,
		concurrency:     1,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Run executes every query and returns their runs in query order.
//
// A failed query does not stop the others. When ctx is cancelled no further
// query starts; the runs started so far are returned with ctx.Err().
func (r *Runner) Run(ctx context.Context, queries []string) ([]*QueryRun, error) {
	r.logger.Info("starting queries",
		"queries", len(queries),
		"concurrency", r.concurrency,
	)
	start := r.now()

	var mu sync.Mutex
	runs := make([]*QueryRun, len(queries))

	g := new(errgroup.Group)
	g.SetLimit(r.concurrency)

	for i, query := range queries {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			r.logger.Info("running query", "query", query, "index", i+1, "total", len(queries))

			run := NewQueryRun(query, r.now())
			err := r.pipelineFactory().Execute(ctx, run)

			mu.Lock()
			runs[i] = run
			mu.Unlock()

			if err != nil && !run.Interrupted {
				r.handleFailure(ctx, run)
			}
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // tasks never return errors

	done := make([]*QueryRun, 0, len(runs))
	for _, run := range runs {
		if run != nil {
			done = append(done, run)
		}
	}

	r.logger.Info("queries finished",
		"started", len(done),
		"listings", Merge(done).Len(),
		"elapsed", r.now().Sub(start),
	)
	return done, ctx.Err()
}

// handleFailure saves the listings of a failed query as
// error_{query}_{timestamp} and records the failure.
func (r *Runner) handleFailure(ctx context.Context, run *QueryRun) {
	run.FinishedAt = r.now()

	if r.outputDir != "" && run.Len() > 0 {
		base := storage.StampedBase("error", run.Query, run.FinishedAt)
		paths, err := storage.SaveBoth(r.outputDir, base, run.Listings.Listings())
		if err != nil {
			r.logger.Error("failed to save listings of failed query", "query", run.Query, "error", err)
		} else {
			run.Files = append(run.Files, paths...)
			r.logger.Warn("saved listings of failed query", "query", run.Query, "listings", run.Len(), "files", paths)
		}
	}

	if r.recorder != nil {
		_, err := r.recorder.RecordRun(ctx, storage.Run{
			Query:      run.Query,
			StartedAt:  run.StartedAt,
			FinishedAt: run.FinishedAt,
			Status:     storage.RunFailed,
			Error:      run.ErrorMessage,
		}, run.Listings.Listings())
		if err != nil {
			r.logger.Error("failed to record failed query", "query", run.Query, "error", err)
		}
	}
}

// Merge combines the listings of runs in order. The first record of a URL
// wins.
func Merge(runs []*QueryRun) *model.Collection {
	merged := model.NewCollection()
	for _, run := range runs {
		if run.Listings != nil {
			merged.Merge(run.Listings)
		}
	}
	return merged
}
