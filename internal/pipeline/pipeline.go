package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nao1215/gravelscan/internal/model"
)

// QueryRun is the state of one query as it moves through a pipeline.
type QueryRun struct {
	Query      string
	StartedAt  time.Time
	FinishedAt time.Time

	// Listings is set by the harvest step, possibly partially when the
	// harvest was cancelled.
	Listings *model.Collection

	// Files lists every file written for this query.
	Files []string

	// RunID is the history identifier of the run, once recorded.
	RunID string

	Error        error
	ErrorMessage string
	Interrupted  bool

	PerformedSteps []string
}

// NewQueryRun creates the run state for query.
func NewQueryRun(query string, startedAt time.Time) *QueryRun {
	return &QueryRun{
		Query:     query,
		StartedAt: startedAt,
		Listings:  model.NewCollection(),
	}
}

// Len returns the number of listings gathered so far.
func (r *QueryRun) Len() int {
	if r.Listings == nil {
		return 0
	}
	return r.Listings.Len()
}

// Failed reports whether a step failed.
func (r *QueryRun) Failed() bool {
	return r.Error != nil
}

// Step is one stage of a query run.
type Step interface {
	// Do executes the step. A returned error is recorded in the run.
	Do(ctx context.Context, run *QueryRun) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline executes steps in order.
type Pipeline struct {
	steps           []Step
	logger          *slog.Logger
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError keeps executing steps after one fails.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps in sequence.
//
// Cancellation is checked before each step. A step that fails because the
// context was cancelled marks the run as interrupted and stops the
// pipeline regardless of WithContinueOnError.
func (p *Pipeline) Execute(ctx context.Context, run *QueryRun) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"query", run.Query,
				"reason", err,
			)
			run.Interrupted = true
			return err
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"query", run.Query,
		)

		if err := step.Do(ctx, run); err != nil {
			run.Error = err
			run.ErrorMessage = err.Error()

			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				run.Interrupted = true
				p.logger.Warn("step interrupted",
					"step", step.Name(),
					"query", run.Query,
					"listings", run.Len(),
				)
				return err
			}

			p.logger.Error("step failed",
				"step", step.Name(),
				"query", run.Query,
				"error", err,
			)
			if !p.continueOnError {
				return err
			}
		}

		run.PerformedSteps = append(run.PerformedSteps, step.Name())
	}
	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
