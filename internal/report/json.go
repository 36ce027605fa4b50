package report

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/nao1215/gravelscan/internal/stats"
)

// JSONWriter outputs summaries in JSON format. HTML characters are not
// escaped.
type JSONWriter struct {
	baseWriter

	indent       bool
	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables indented output with the given prefix and indent.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint is WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteStatistics implements Writer.
func (w *JSONWriter) WriteStatistics(s stats.Statistics) (int, error) {
	return w.writeJSON(s)
}

// WriteParameters implements Writer.
func (w *JSONWriter) WriteParameters(p stats.ParametersSummary) (int, error) {
	return w.writeJSON(p)
}

// WriteDiff implements Writer.
func (w *JSONWriter) WriteDiff(d stats.Diff) (int, error) {
	return w.writeJSON(d)
}

// WriteValue outputs any JSON-encodable value, such as enhanced
// statistics.
func (w *JSONWriter) WriteValue(v any) (int, error) {
	return w.writeJSON(v)
}

func (w *JSONWriter) writeJSON(v any) (int, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if w.indent {
		enc.SetIndent(w.indentPrefix, w.indentString)
	}
	if err := enc.Encode(v); err != nil {
		return 0, err
	}
	return w.output.Write(buf.Bytes())
}
