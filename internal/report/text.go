package report

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/nao1215/gravelscan/internal/stats"
)

// Value limits of the parameters summary.
const (
	// ConsoleValueLimit and ConsoleExampleCount apply to terminal output.
	ConsoleValueLimit   = 10
	ConsoleExampleCount = 5
	// FileValueLimit and FileExampleCount apply to the summary file.
	FileValueLimit   = 20
	FileExampleCount = 10
)

const (
	ruleWidth  = 70
	labelWidth = 28
	valueWidth = 40
	// topEntries is the number of rows shown per count table.
	topEntries = 5
)

// TextWriter outputs aligned plain text. Column widths account for
// double-width and combining characters.
type TextWriter struct {
	baseWriter

	valueLimit   int
	exampleCount int
}

// TextWriterOption configures a TextWriter.
type TextWriterOption func(*TextWriter)

// WithValueLimit sets how many distinct values of a parameter are listed
// before only the count and the first examples are shown.
func WithValueLimit(limit, examples int) TextWriterOption {
	return func(w *TextWriter) {
		if limit > 0 {
			w.valueLimit = limit
		}
		if examples > 0 {
			w.exampleCount = examples
		}
	}
}

// NewTextWriter creates a TextWriter with the console value limits.
func NewTextWriter(output io.Writer, opts ...TextWriterOption) *TextWriter {
	w := &TextWriter{
		baseWriter:   newBaseWriter(output),
		valueLimit:   ConsoleValueLimit,
		exampleCount: ConsoleExampleCount,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteStatistics implements Writer.
func (w *TextWriter) WriteStatistics(s stats.Statistics) (int, error) {
	var sb strings.Builder
	writeBanner(&sb, "GRAVEL BIKE STATISTICS")

	if s.TotalCount == 0 {
		sb.WriteString("No listings.\n")
		return w.output.Write([]byte(sb.String()))
	}

	writeRow(&sb, "Listings", fmt.Sprintf("%d", s.TotalCount))
	writeRow(&sb, "Average price", formatPrice(s.AvgPrice))
	writeRow(&sb, "Median price", formatPrice(s.MedianPrice))
	writeRow(&sb, "Price range", formatPrice(s.MinPrice)+" - "+formatPrice(s.MaxPrice))
	if s.AvgYear != nil {
		writeRow(&sb, "Average year", fmt.Sprintf("%.1f", *s.AvgYear))
	}
	if s.YearPriceCorrelation != nil {
		writeRow(&sb, "Year/price correlation", fmt.Sprintf("%.2f", *s.YearPriceCorrelation))
	}
	sb.WriteString("\n")

	writeCounts(&sb, "TOP BRANDS", s.BrandCounts)
	writeCounts(&sb, "TOP LOCATIONS", s.TopLocations)
	for _, field := range []string{"frame_material", "brake_type", "condition", "wheel_size"} {
		if counts, ok := s.FieldCounts[field]; ok {
			writeCounts(&sb, strings.ToUpper(strings.ReplaceAll(field, "_", " ")), counts)
		}
	}
	writeAverages(&sb, "AVERAGE PRICE BY FRAME MATERIAL", s.AvgPriceByFrameMaterial)
	writeAverages(&sb, "AVERAGE PRICE BY BRAKE TYPE", s.AvgPriceByBrakeType)

	return w.output.Write([]byte(sb.String()))
}

// WriteParameters implements Writer.
func (w *TextWriter) WriteParameters(p stats.ParametersSummary) (int, error) {
	var sb strings.Builder
	writeBanner(&sb, "TECHNICAL PARAMETERS SUMMARY")

	if p.TotalListings == 0 {
		sb.WriteString("No listings.\n")
		return w.output.Write([]byte(sb.String()))
	}

	fmt.Fprintf(&sb, "Found %d distinct parameters in %d listings:\n\n", len(p.Parameters), p.TotalListings)
	for _, param := range p.Parameters {
		fmt.Fprintf(&sb, "* %s:\n", param.Label)
		if len(param.Values) <= w.valueLimit {
			for _, v := range param.Values {
				fmt.Fprintf(&sb, "  - %s\n", v)
			}
		} else {
			examples := param.Values[:w.exampleCount]
			fmt.Fprintf(&sb, "  - %d distinct values\n", len(param.Values))
			fmt.Fprintf(&sb, "  - Examples: %s...\n", strings.Join(examples, ", "))
		}
		sb.WriteString("\n")
	}

	writeSection(&sb, "DATA COMPLETENESS")
	for _, param := range p.ByCompleteness() {
		writeRow(&sb, param.Label, fmt.Sprintf("%d/%d (%.1f%%)", param.Count, p.TotalListings, param.Percentage))
	}
	return w.output.Write([]byte(sb.String()))
}

// WriteDiff implements Writer.
func (w *TextWriter) WriteDiff(d stats.Diff) (int, error) {
	var sb strings.Builder
	writeBanner(&sb, "COLLECTION CHANGES")

	writeRow(&sb, "New listings", fmt.Sprintf("%d", len(d.Added)))
	writeRow(&sb, "Removed listings", fmt.Sprintf("%d", len(d.Removed)))
	writeRow(&sb, "Price changes", fmt.Sprintf("%d", len(d.PriceChanges)))
	writeRow(&sb, "Unchanged", fmt.Sprintf("%d", d.Unchanged))
	sb.WriteString("\n")

	if len(d.Added) > 0 {
		writeSection(&sb, "NEW")
		for _, l := range d.Added {
			writeRow(&sb, l.Title, formatPrice(l.Price))
		}
		sb.WriteString("\n")
	}
	if len(d.Removed) > 0 {
		writeSection(&sb, "REMOVED")
		for _, l := range d.Removed {
			writeRow(&sb, l.Title, formatPrice(l.Price))
		}
		sb.WriteString("\n")
	}
	if len(d.PriceChanges) > 0 {
		writeSection(&sb, "PRICE CHANGES")
		for _, c := range d.PriceChanges {
			writeRow(&sb, c.Title, fmt.Sprintf("%s -> %s (%+.2f)", formatPrice(c.OldPrice), formatPrice(c.NewPrice), c.Delta()))
		}
		sb.WriteString("\n")
	}
	return w.output.Write([]byte(sb.String()))
}

func writeBanner(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	pad := max(0, (ruleWidth-runewidth.StringWidth(title))/2)
	sb.WriteString(strings.Repeat(" ", pad))
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n\n")
}

func writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")
}

// writeRow writes "label  value" with the label padded to labelWidth cells.
func writeRow(sb *strings.Builder, label, value string) {
	sb.WriteString("  ")
	sb.WriteString(cell(label, labelWidth))
	sb.WriteString("  ")
	sb.WriteString(runewidth.Truncate(value, valueWidth, "..."))
	sb.WriteString("\n")
}

// cell truncates s to width cells and pads it on the right.
func cell(s string, width int) string {
	return runewidth.FillRight(runewidth.Truncate(s, width, "..."), width)
}

func writeCounts(sb *strings.Builder, title string, counts stats.Counts) {
	if len(counts) == 0 {
		return
	}
	writeSection(sb, title)
	for i, c := range counts.Sorted() {
		if i == topEntries {
			break
		}
		writeRow(sb, c.Value, fmt.Sprintf("%d", c.N))
	}
	sb.WriteString("\n")
}

func writeAverages(sb *strings.Builder, title string, avgs map[string]float64) {
	if len(avgs) == 0 {
		return
	}
	writeSection(sb, title)
	for _, k := range keysByAverage(avgs) {
		writeRow(sb, k, formatPrice(avgs[k]))
	}
	sb.WriteString("\n")
}

// keysByAverage returns the keys by descending average, ties by key.
func keysByAverage(avgs map[string]float64) []string {
	keys := make([]string, 0, len(avgs))
	for k := range avgs {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		if c := cmp.Compare(avgs[b], avgs[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return keys
}

func formatPrice(p float64) string {
	return fmt.Sprintf("%.2f zł", p)
}
