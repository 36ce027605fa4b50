package model

import "testing"

// TestAnalysisResult tests lookups on decoded analysis objects.
func TestAnalysisResult(t *testing.T) {
	t.Parallel()

	r := AnalysisResult{
		"primary_category": "gravel",
		"confidence":       float64(8),
		"value_analysis": map[string]any{
			"value_assessment": "fair",
		},
	}

	if got := r.String("primary_category"); got != "gravel" {
		t.Errorf("expected gravel, got %q", got)
	}
	if got := r.String("value_analysis", "value_assessment"); got != "fair" {
		t.Errorf("expected fair, got %q", got)
	}
	if got, ok := r.Float("confidence"); !ok || got != 8 {
		t.Errorf("expected 8, got %v (%v)", got, ok)
	}
	if got := r.String("missing", "path"); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
	if r.Failed() {
		t.Error("expected result without error marker to succeed")
	}

	e := ErrorResult("LLM model is unavailable")
	if msg, ok := e.ErrorMessage(); !ok || msg != "LLM model is unavailable" {
		t.Errorf("unexpected error marker %q (%v)", msg, ok)
	}
	if !e.Failed() {
		t.Error("expected error marker to count as failed")
	}
	if !AnalysisResult(nil).Failed() {
		t.Error("expected nil result to count as failed")
	}
}

// TestNewEnrichedListing tests that enrichment derives a copy.
func TestNewEnrichedListing(t *testing.T) {
	t.Parallel()

	l := listingFor("u1", "t")
	l.Parameters = map[string]string{"Kolor": "Czarny"}

	e := NewEnrichedListing(&l, Analysis{Error: ErrMsgNoDescription})
	e.Parameters["Kolor"] = "Biały"

	if l.Parameters["Kolor"] != "Czarny" {
		t.Error("enriched listing shares parameters with the original")
	}
	if e.AIAnalysis.Error != ErrMsgNoDescription {
		t.Errorf("unexpected analysis error %q", e.AIAnalysis.Error)
	}
}
