package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"
)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	doFunc    func(ctx context.Context, run *QueryRun) error
	callCount int
}

// Do implements Step.Do.
func (m *mockStep) Do(ctx context.Context, run *QueryRun) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, run)
	}
	return nil
}

// Name implements Step.Name.
func (m *mockStep) Name() string {
	return m.name
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRun() *QueryRun {
	return NewQueryRun("gravel", time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
}

// TestPipelineNew tests the Pipeline constructor.
func TestPipelineNew(t *testing.T) {
	t.Parallel()

	t.Run("creates pipeline with default settings", func(t *testing.T) {
		t.Parallel()

		p := New()
		if p == nil {
			t.Fatal("expected non-nil pipeline")
		}
		if p.StepCount() != 0 {
			t.Errorf("expected 0 steps, got %d", p.StepCount())
		}
	})

	t.Run("applies WithContinueOnError option", func(t *testing.T) {
		t.Parallel()

		p := New(WithContinueOnError(true))
		if !p.continueOnError {
			t.Error("expected continueOnError to be true")
		}
	})
}

// TestPipelineExecute tests step execution.
func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("executes all steps in order", func(t *testing.T) {
		t.Parallel()

		var order []string
		p := New(WithLogger(discardLogger()))
		for _, name := range []string{"step-1", "step-2"} {
			p.AddStep(&mockStep{
				name: name,
				doFunc: func(_ context.Context, _ *QueryRun) error {
					order = append(order, name)
					return nil
				},
			})
		}

		run := newTestRun()
		if err := p.Execute(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(order) != 2 || order[0] != "step-1" || order[1] != "step-2" {
			t.Errorf("wrong execution order: %v", order)
		}
		if len(run.PerformedSteps) != 2 {
			t.Errorf("expected 2 performed steps, got %d", len(run.PerformedSteps))
		}
	})

	t.Run("stops on first error by default", func(t *testing.T) {
		t.Parallel()

		expectedErr := errors.New("step failed")
		second := &mockStep{name: "should-not-run"}
		p := New(WithLogger(discardLogger()))
		p.AddSteps(
			&mockStep{name: "failing-step", doFunc: func(context.Context, *QueryRun) error { return expectedErr }},
			second,
		)

		run := newTestRun()
		err := p.Execute(context.Background(), run)
		if !errors.Is(err, expectedErr) {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if second.callCount != 0 {
			t.Error("second step should not have been called")
		}
		if !run.Failed() || run.ErrorMessage != expectedErr.Error() {
			t.Errorf("expected error to be recorded in run, got %q", run.ErrorMessage)
		}
		if run.Interrupted {
			t.Error("a plain failure is not an interruption")
		}
	})

	t.Run("continues on error when configured", func(t *testing.T) {
		t.Parallel()

		second := &mockStep{name: "should-run"}
		p := New(WithContinueOnError(true), WithLogger(discardLogger()))
		p.AddSteps(
			&mockStep{name: "failing-step", doFunc: func(context.Context, *QueryRun) error { return errors.New("boom") }},
			second,
		)

		if err := p.Execute(context.Background(), newTestRun()); err != nil {
			t.Errorf("expected nil error with continueOnError, got %v", err)
		}
		if second.callCount != 1 {
			t.Error("second step should have been called")
		}
	})

	t.Run("a cancelled step stops even with continue on error", func(t *testing.T) {
		t.Parallel()

		second := &mockStep{name: "should-not-run"}
		p := New(WithContinueOnError(true), WithLogger(discardLogger()))
		p.AddSteps(
			&mockStep{name: "harvest", doFunc: func(context.Context, *QueryRun) error {
				return fmt.Errorf("harvest: %w", context.Canceled)
			}},
			second,
		)

		run := newTestRun()
		err := p.Execute(context.Background(), run)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if !run.Interrupted {
			t.Error("expected the run to be interrupted")
		}
		if second.callCount != 0 {
			t.Error("second step should not have been called")
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		step := &mockStep{name: "should-not-run"}
		p := New(WithLogger(discardLogger()))
		p.AddStep(step)

		run := newTestRun()
		if err := p.Execute(ctx, run); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if step.callCount != 0 {
			t.Error("step should not have been called")
		}
		if !run.Interrupted {
			t.Error("run.Interrupted should be true")
		}
	})
}

// TestPipelineStepNames tests the StepNames method.
func TestPipelineStepNames(t *testing.T) {
	t.Parallel()

	p := New()
	if len(p.StepNames()) != 0 {
		t.Error("expected no names for an empty pipeline")
	}
	p.AddSteps(&mockStep{name: "a"}, &mockStep{name: "b"})
	names := p.StepNames()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("unexpected names %v", names)
	}
}

func TestQueryRun_Len(t *testing.T) {
	t.Parallel()

	run := &QueryRun{}
	if run.Len() != 0 {
		t.Errorf("expected 0 for a run without listings, got %d", run.Len())
	}
}
