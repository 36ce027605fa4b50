package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/gravelscan/internal/stats"
)

// chartSlices is the number of brands shown in the pie chart.
const chartSlices = 8

// MarkdownWriter outputs summaries in Markdown format using
// github.com/nao1215/markdown, with mermaid pie charts for distributions.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// WriteStatistics implements Writer.
func (w *MarkdownWriter) WriteStatistics(s stats.Statistics) (int, error) {
	md := markdown.NewMarkdown(w.output)
	md.H1("Gravel Bike Statistics")
	md.PlainText("")

	if s.TotalCount == 0 {
		md.Note("No listings were collected.")
		w.writeFooter(md)
		return len(md.String()), md.Build()
	}

	rows := [][]string{
		{"Listings", strconv.Itoa(s.TotalCount)},
		{"Average price", formatPrice(s.AvgPrice)},
		{"Median price", formatPrice(s.MedianPrice)},
		{"Minimum price", formatPrice(s.MinPrice)},
		{"Maximum price", formatPrice(s.MaxPrice)},
	}
	if s.AvgYear != nil {
		rows = append(rows, []string{"Average year", fmt.Sprintf("%.1f", *s.AvgYear)})
	}
	if s.YearPriceCorrelation != nil {
		rows = append(rows, []string{"Year/price correlation", fmt.Sprintf("%.2f", *s.YearPriceCorrelation)})
	}
	md.Table(markdown.TableSet{Header: []string{"Metric", "Value"}, Rows: rows})
	md.PlainText("")

	if len(s.BrandCounts) > 0 {
		md.H2("Brands")
		md.PlainText("")
		w.writePieChart(md, "Brand Distribution", s.BrandCounts)
		w.writeCountsTable(md, "Brand", s.BrandCounts)
	}

	md.H2("Locations")
	md.PlainText("")
	w.writeCountsTable(md, "Location", s.TopLocations)

	for _, field := range []string{"frame_material", "brake_type", "condition", "wheel_size", "seller_type"} {
		counts, ok := s.FieldCounts[field]
		if !ok {
			continue
		}
		md.H3(fieldTitle(field))
		md.PlainText("")
		w.writeCountsTable(md, "Value", counts)
	}

	w.writeAveragesTable(md, "Average Price by Frame Material", s.AvgPriceByFrameMaterial)
	w.writeAveragesTable(md, "Average Price by Brake Type", s.AvgPriceByBrakeType)

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// WriteParameters implements Writer.
func (w *MarkdownWriter) WriteParameters(p stats.ParametersSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)
	md.H1("Technical Parameters")
	md.PlainText("")
	md.PlainTextf("%d distinct parameters in %d listings.", len(p.Parameters), p.TotalListings)
	md.PlainText("")

	rows := make([][]string, 0, len(p.Parameters))
	for _, param := range p.ByCompleteness() {
		rows = append(rows, []string{
			param.Label,
			fmt.Sprintf("%d/%d", param.Count, p.TotalListings),
			fmt.Sprintf("%.1f%%", param.Percentage),
			strconv.Itoa(len(param.Values)),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Parameter", "Listings", "Completeness", "Distinct values"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, param := range p.Parameters {
		if len(param.Values) == 0 {
			continue
		}
		values := param.Values
		if len(values) > FileValueLimit {
			values = values[:FileExampleCount]
		}
		md.Details(param.Label, joinValues(values, len(param.Values)))
	}

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// WriteDiff implements Writer.
func (w *MarkdownWriter) WriteDiff(d stats.Diff) (int, error) {
	md := markdown.NewMarkdown(w.output)
	md.H1("Collection Changes")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Change", "Count"},
		Rows: [][]string{
			{"New listings", strconv.Itoa(len(d.Added))},
			{"Removed listings", strconv.Itoa(len(d.Removed))},
			{"Price changes", strconv.Itoa(len(d.PriceChanges))},
			{"Unchanged", strconv.Itoa(d.Unchanged)},
		},
	})
	md.PlainText("")

	if d.Empty() {
		md.Tip("No changes between the two collections.")
		md.PlainText("")
		w.writeFooter(md)
		return len(md.String()), md.Build()
	}

	drops := 0
	for _, c := range d.PriceChanges {
		if c.Delta() < 0 {
			drops++
		}
	}
	if drops > 0 {
		md.Importantf("%d listing(s) dropped in price.", drops)
		md.PlainText("")
	}

	if len(d.Added) > 0 {
		md.H2("New Listings")
		md.PlainText("")
		rows := make([][]string, 0, len(d.Added))
		for _, l := range d.Added {
			rows = append(rows, []string{link(l.Title, l.URL), formatPrice(l.Price), l.Location})
		}
		md.Table(markdown.TableSet{Header: []string{"Title", "Price", "Location"}, Rows: rows})
		md.PlainText("")
	}
	if len(d.Removed) > 0 {
		md.H2("Removed Listings")
		md.PlainText("")
		rows := make([][]string, 0, len(d.Removed))
		for _, l := range d.Removed {
			rows = append(rows, []string{link(l.Title, l.URL), formatPrice(l.Price), l.Location})
		}
		md.Table(markdown.TableSet{Header: []string{"Title", "Price", "Location"}, Rows: rows})
		md.PlainText("")
	}
	if len(d.PriceChanges) > 0 {
		md.H2("Price Changes")
		md.PlainText("")
		rows := make([][]string, 0, len(d.PriceChanges))
		for _, c := range d.PriceChanges {
			rows = append(rows, []string{
				link(c.Title, c.URL),
				formatPrice(c.OldPrice),
				formatPrice(c.NewPrice),
				fmt.Sprintf("%+.2f", c.Delta()),
			})
		}
		md.Table(markdown.TableSet{Header: []string{"Title", "Old", "New", "Change"}, Rows: rows})
		md.PlainText("")
	}

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, title string, counts stats.Counts) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle(title),
		piechart.WithShowData(true),
	)
	for i, c := range counts.Sorted() {
		if i == chartSlices {
			break
		}
		chart.LabelAndIntValue(c.Value, uint64(c.N)) //nolint:gosec // counts are positive
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeCountsTable(md *markdown.Markdown, header string, counts stats.Counts) {
	sorted := counts.Sorted()
	rows := make([][]string, 0, len(sorted))
	for _, c := range sorted {
		rows = append(rows, []string{truncateString(c.Value, 50), strconv.Itoa(c.N)})
	}
	md.Table(markdown.TableSet{Header: []string{header, "Count"}, Rows: rows})
	md.PlainText("")
}

func (w *MarkdownWriter) writeAveragesTable(md *markdown.Markdown, title string, avgs map[string]float64) {
	if len(avgs) == 0 {
		return
	}
	md.H3(title)
	md.PlainText("")
	rows := make([][]string, 0, len(avgs))
	for _, k := range keysByAverage(avgs) {
		rows = append(rows, []string{k, formatPrice(avgs[k])})
	}
	md.Table(markdown.TableSet{Header: []string{"Value", "Average price"}, Rows: rows})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [gravelscan](https://github.com/nao1215/gravelscan)*")
}

func link(title, url string) string {
	return "[" + truncateString(title, 60) + "](" + url + ")"
}

func fieldTitle(field string) string {
	switch field {
	case "frame_material":
		return "Frame Material"
	case "brake_type":
		return "Brake Type"
	case "wheel_size":
		return "Wheel Size"
	case "seller_type":
		return "Seller Type"
	case "condition":
		return "Condition"
	default:
		return field
	}
}

func joinValues(values []string, total int) string {
	s := strings.Join(values, ", ")
	if total > len(values) {
		s += fmt.Sprintf(" ... (%d distinct values)", total)
	}
	return s
}

// truncateString shortens s to maxWidth terminal cells with an ellipsis.
func truncateString(s string, maxWidth int) string {
	return runewidth.Truncate(s, maxWidth, "...")
}
