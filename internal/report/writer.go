package report

import (
	"io"

	"github.com/nao1215/gravelscan/internal/stats"
)

// Writer renders collection summaries.
type Writer interface {
	// WriteStatistics outputs collection statistics.
	WriteStatistics(s stats.Statistics) (int, error)

	// WriteParameters outputs the attribute-block parameter summary.
	WriteParameters(p stats.ParametersSummary) (int, error)

	// WriteDiff outputs the differences between two collections.
	WriteDiff(d stats.Diff) (int, error)
}

// MultiWriter writes to multiple Writers. It stops at the first error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// WriteStatistics implements Writer.
func (m *MultiWriter) WriteStatistics(s stats.Statistics) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteStatistics(s) })
}

// WriteParameters implements Writer.
func (m *MultiWriter) WriteParameters(p stats.ParametersSummary) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteParameters(p) })
}

// WriteDiff implements Writer.
func (m *MultiWriter) WriteDiff(d stats.Diff) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteDiff(d) })
}

func (m *MultiWriter) each(write func(Writer) (int, error)) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := write(w)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
