package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/nao1215/gravelscan/internal/model"
)

// Sink receives every collected listing at the end of a run.
type Sink interface {
	// Name identifies the sink in logs.
	Name() string

	// Push stores listings. Listings already present are updated.
	Push(ctx context.Context, listings []model.Listing) (int, error)

	// Close releases the sink's connections.
	Close(ctx context.Context) error
}

// MultiSink pushes to several sinks. Unlike a report writer it does not
// stop at the first failure: every sink is tried and the errors are joined.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink creates a Sink that pushes to all provided sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Name implements Sink.
func (m *MultiSink) Name() string {
	return "multi"
}

// Len returns the number of wrapped sinks.
func (m *MultiSink) Len() int {
	return len(m.sinks)
}

// Push pushes listings to every sink and returns the total stored count.
func (m *MultiSink) Push(ctx context.Context, listings []model.Listing) (int, error) {
	var (
		total int
		errs  []error
	)
	for _, s := range m.sinks {
		n, err := s.Push(ctx, listings)
		total += n
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return total, errors.Join(errs...)
}

// Close closes every sink.
func (m *MultiSink) Close(ctx context.Context) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
