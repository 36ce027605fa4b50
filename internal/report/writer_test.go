package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"

	"github.com/nao1215/gravelscan/internal/model"
	"github.com/nao1215/gravelscan/internal/stats"
)

func testListing(t *testing.T, slug string, price float64, brand, material string) model.Listing {
	t.Helper()

	in := model.ListingInput{
		Title:     "Rower gravel " + slug,
		Price:     price,
		Location:  "Łódź",
		DateAdded: "01.02.2024",
		URL:       "https://www.olx.pl/d/oferta/" + slug + ".html",
	}
	if brand != "" {
		in.Details.Brand = model.StringPtr(brand)
	}
	if material != "" {
		in.Details.FrameMaterial = model.StringPtr(material)
	}
	l, err := model.NewListing(in)
	if err != nil {
		t.Fatalf("failed to build listing: %v", err)
	}
	return *l
}

func createTestStatistics(t *testing.T) stats.Statistics {
	t.Helper()

	var listings []model.Listing
	for i := range 6 {
		brand := "Kross"
		if i%3 == 0 {
			brand = "Ridley"
		}
		listings = append(listings, testListing(t, fmt.Sprintf("bike-%d", i), float64(1000+500*i), brand, "Aluminium"))
	}
	return stats.Compute(listings)
}

func createTestParameters(n int) stats.ParametersSummary {
	values := make([]string, n)
	for i := range values {
		values[i] = fmt.Sprintf("%02d cm", 40+i)
	}
	return stats.ParametersSummary{
		TotalListings: 4,
		Parameters: []stats.ParameterSummary{
			{Label: "Marka", Values: []string{"Cube", "Kross"}, Count: 3, Percentage: 75},
			{Label: "Rozmiar ramy", Values: values, Count: 4, Percentage: 100},
		},
	}
}

func createTestDiff(t *testing.T) stats.Diff {
	t.Helper()

	older := model.NewCollection(
		testListing(t, "a", 1000, "", ""),
		testListing(t, "b", 2000, "", ""),
	)
	newer := model.NewCollection(
		testListing(t, "b", 1500, "", ""),
		testListing(t, "c", 3000, "", ""),
	)
	return stats.Compare(older, newer)
}

func TestTextWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes statistics", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewTextWriter(&buf).WriteStatistics(createTestStatistics(t)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		for _, want := range []string{"GRAVEL BIKE STATISTICS", "Listings", "2250.00 zł", "TOP BRANDS", "Kross", "AVERAGE PRICE BY FRAME MATERIAL"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("writes empty statistics", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewTextWriter(&buf).WriteStatistics(stats.Compute(nil)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "No listings.") {
			t.Errorf("expected a no listings notice, got %q", buf.String())
		}
	})

	t.Run("console limit shows examples for many values", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewTextWriter(&buf).WriteParameters(createTestParameters(12)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "12 distinct values") {
			t.Error("expected the value count for a long list")
		}
		if !strings.Contains(output, "Examples: 40 cm, 41 cm, 42 cm, 43 cm, 44 cm...") {
			t.Errorf("expected five examples, got %q", output)
		}
		if !strings.Contains(output, "  - Cube\n  - Kross\n") {
			t.Error("expected short value lists to be printed in full")
		}
		if !strings.Contains(output, "4/4 (100.0%)") {
			t.Error("expected completeness line")
		}
		if strings.Index(output, "Rozmiar ramy  ") > strings.Index(output, "Marka  ") {
			t.Error("expected completeness sorted by count")
		}
	})

	t.Run("file limit lists up to twenty values", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewTextWriter(&buf, WithValueLimit(FileValueLimit, FileExampleCount))
		if _, err := w.WriteParameters(createTestParameters(12)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(buf.String(), "distinct values") {
			t.Error("expected all twelve values to be listed")
		}
	})

	t.Run("writes diff", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewTextWriter(&buf).WriteDiff(createTestDiff(t)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		for _, want := range []string{"COLLECTION CHANGES", "NEW", "REMOVED", "PRICE CHANGES", "(-500.00)"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})
}

func TestCell_AlignsWideCharacters(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"Łódź", "Kraków, Podgórze", "自転車", strings.Repeat("ż", 40)} {
		got := cell(s, labelWidth)
		if w := runewidth.StringWidth(got); w != labelWidth {
			t.Errorf("cell(%q) has width %d, want %d", s, w, labelWidth)
		}
	}
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("statistics use flat keys", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).WriteStatistics(createTestStatistics(t)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var got map[string]any
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if got["total_count"] != float64(6) {
			t.Errorf("expected total_count 6, got %v", got["total_count"])
		}
		if _, ok := got["avg_price_by_frame_material"]; !ok {
			t.Error("expected avg_price_by_frame_material")
		}
	})

	t.Run("pretty print indents and keeps diacritics", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).WriteDiff(createTestDiff(t)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "\n  \"added\"") {
			t.Errorf("expected indented output, got %q", output)
		}
		if !strings.Contains(output, "Łódź") {
			t.Error("expected unescaped Polish characters")
		}
	})

	t.Run("compact output is a single line", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).WriteParameters(createTestParameters(2)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Count(buf.String(), "\n") != 1 {
			t.Errorf("expected one line, got %q", buf.String())
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("statistics include a brand pie chart", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteStatistics(createTestStatistics(t)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		for _, want := range []string{"# Gravel Bike Statistics", "```mermaid", "pie", "Brand Distribution", "Frame Material", "Average price"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("parameters list completeness", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteParameters(createTestParameters(25)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "75.0%") {
			t.Error("expected completeness percentage")
		}
		if !strings.Contains(output, "(25 distinct values)") {
			t.Error("expected long value lists to be shortened")
		}
	})

	t.Run("diff with a price drop", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteDiff(createTestDiff(t)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		for _, want := range []string{"## New Listings", "## Removed Listings", "## Price Changes", "dropped in price", "-500.00"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("empty diff", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteDiff(stats.Diff{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "No changes") {
			t.Error("expected a no changes tip")
		}
	})
}

type failingWriter struct{}

func (failingWriter) WriteStatistics(stats.Statistics) (int, error) {
	return 0, errors.New("disk full")
}

func (failingWriter) WriteParameters(stats.ParametersSummary) (int, error) {
	return 0, errors.New("disk full")
}

func (failingWriter) WriteDiff(stats.Diff) (int, error) {
	return 0, errors.New("disk full")
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to every writer", func(t *testing.T) {
		t.Parallel()

		var text, js bytes.Buffer
		m := NewMultiWriter(NewTextWriter(&text), NewJSONWriter(&js))
		n, err := m.WriteStatistics(createTestStatistics(t))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != text.Len()+js.Len() {
			t.Errorf("expected %d bytes, got %d", text.Len()+js.Len(), n)
		}
	})

	t.Run("stops at the first error", func(t *testing.T) {
		t.Parallel()

		var after bytes.Buffer
		m := NewMultiWriter(failingWriter{}, NewTextWriter(&after))
		if _, err := m.WriteDiff(stats.Diff{}); err == nil {
			t.Error("expected an error")
		}
		if after.Len() != 0 {
			t.Error("expected later writers to be skipped")
		}
	})
}
