package enrich

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/gravelscan/internal/model"
)

// fakeGenerator answers prompts by their first line.
type fakeGenerator struct {
	mu        sync.Mutex
	available bool
	listErr   error
	results   map[string]model.AnalysisResult
	failures  map[string]error
	prompts   []string
}

func (g *fakeGenerator) GenerateJSON(_ context.Context, prompt string) (model.AnalysisResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	kind := promptKind(prompt)
	if err := g.failures[kind]; err != nil {
		return nil, err
	}
	return g.results[kind], nil
}

func (g *fakeGenerator) HasModel(context.Context) (bool, error) {
	return g.available, g.listErr
}

func (g *fakeGenerator) Model() string {
	return "test-model"
}

func (g *fakeGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

func promptKind(prompt string) string {
	switch {
	case strings.HasPrefix(prompt, "=== BICYCLE LISTING PARSING"):
		return "parse"
	case strings.HasPrefix(prompt, "=== BICYCLE CATEGORIZATION"):
		return "categorize"
	case strings.HasPrefix(prompt, "=== BICYCLE VALUE"):
		return "value"
	default:
		return ""
	}
}

func newFakeGenerator() *fakeGenerator {
	return &fakeGenerator{
		available: true,
		results: map[string]model.AnalysisResult{
			"parse":      {"brand": "Kross", "frame_material": "aluminium"},
			"categorize": {"primary_category": "gravel", "price_category": "mid-range"},
			"value": {
				"value_analysis": map[string]any{"value_assessment": "fair"},
				"confidence":     float64(7),
			},
		},
		failures: map[string]error{},
	}
}

func TestPrompts(t *testing.T) {
	t.Parallel()

	if p := parsePrompt("Kross Esker 4.0"); !strings.Contains(p, "Kross Esker 4.0") || promptKind(p) != "parse" {
		t.Errorf("unexpected parse prompt %q", p)
	}
	p := categorizePrompt("Gravel Kross", "rama 54")
	if !strings.Contains(p, "Title: Gravel Kross") || !strings.Contains(p, "Description: rama 54") {
		t.Errorf("unexpected categorize prompt %q", p)
	}
	if p := valuePrompt(`{"brand":"Kross"}`); !strings.Contains(p, `{"brand":"Kross"}`) {
		t.Errorf("unexpected value prompt %q", p)
	}
}

func TestAnalyzer_ModelUnavailable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		gen  *fakeGenerator
	}{
		{name: "model not installed", gen: &fakeGenerator{}},
		{name: "server unreachable", gen: &fakeGenerator{listErr: errors.New("connection refused")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a := NewAnalyzer(context.Background(), tt.gen, WithAnalyzerLogger(discardLogger()))
			if a.Available() {
				t.Fatal("expected analyzer to be unavailable")
			}
			results := []model.AnalysisResult{
				a.ParseDescription(context.Background(), "opis"),
				a.Categorize(context.Background(), "tytuł", "opis"),
				a.AssessValue(context.Background(), model.AnalysisResult{"brand": "Kross"}),
			}
			for i, r := range results {
				if msg, _ := r.ErrorMessage(); msg != ErrMsgModelUnavailable {
					t.Errorf("result %d: expected %q, got %v", i, ErrMsgModelUnavailable, r)
				}
			}
			if tt.gen.calls() != 0 {
				t.Errorf("expected no generation calls, got %d", tt.gen.calls())
			}
		})
	}
}

func TestAnalyzer_Stages(t *testing.T) {
	t.Parallel()

	t.Run("results are cached", func(t *testing.T) {
		t.Parallel()
		gen := newFakeGenerator()
		a := NewAnalyzer(context.Background(), gen, WithAnalyzerLogger(discardLogger()))

		first := a.ParseDescription(context.Background(), "Kross Esker, rama 54")
		second := a.ParseDescription(context.Background(), "Kross Esker, rama 54")
		if first.String("brand") != "Kross" || second.String("brand") != "Kross" {
			t.Errorf("unexpected results %v / %v", first, second)
		}
		if gen.calls() != 1 {
			t.Errorf("expected 1 generation call, got %d", gen.calls())
		}
		if a.CacheLen() != 1 {
			t.Errorf("expected 1 cached result, got %d", a.CacheLen())
		}
	})

	t.Run("cached results are copies", func(t *testing.T) {
		t.Parallel()
		gen := newFakeGenerator()
		a := NewAnalyzer(context.Background(), gen, WithAnalyzerLogger(discardLogger()))

		r := a.Categorize(context.Background(), "Gravel", "opis")
		r["primary_category"] = "road"
		again := a.Categorize(context.Background(), "Gravel", "opis")
		if again.String("primary_category") != "gravel" {
			t.Errorf("cache was mutated through a returned result: %v", again)
		}
	})

	t.Run("parse key uses the first 250 characters", func(t *testing.T) {
		t.Parallel()
		gen := newFakeGenerator()
		a := NewAnalyzer(context.Background(), gen, WithAnalyzerLogger(discardLogger()))
		prefix := strings.Repeat("ż", 250)

		a.ParseDescription(context.Background(), prefix+" wersja A")
		a.ParseDescription(context.Background(), prefix+" wersja B")
		if gen.calls() != 1 {
			t.Errorf("expected descriptions sharing a prefix to share a cache entry, got %d calls", gen.calls())
		}
	})

	t.Run("failures are not cached", func(t *testing.T) {
		t.Parallel()
		gen := newFakeGenerator()
		gen.failures["value"] = ErrUnparsableResponse
		a := NewAnalyzer(context.Background(), gen, WithAnalyzerLogger(discardLogger()))

		for range 2 {
			r := a.AssessValue(context.Background(), model.AnalysisResult{"brand": "Kross"})
			if msg, _ := r.ErrorMessage(); msg != ErrMsgValueFailed {
				t.Errorf("expected %q, got %v", ErrMsgValueFailed, r)
			}
		}
		if gen.calls() != 2 {
			t.Errorf("expected 2 generation calls, got %d", gen.calls())
		}
	})

	t.Run("expired entries are generated again", func(t *testing.T) {
		t.Parallel()
		gen := newFakeGenerator()
		a := NewAnalyzer(context.Background(), gen,
			WithAnalyzerLogger(discardLogger()),
			WithCache(10, 20*time.Millisecond),
		)

		a.Categorize(context.Background(), "Gravel", "opis")
		time.Sleep(100 * time.Millisecond)
		a.Categorize(context.Background(), "Gravel", "opis")
		if gen.calls() != 2 {
			t.Errorf("expected 2 generation calls after expiry, got %d", gen.calls())
		}
	})
}

func TestAnalyzer_WithClient(t *testing.T) {
	t.Parallel()

	s, srv := newOllamaServer(t, []string{DefaultModel},
		generateReply{status: http.StatusOK, text: "```json\n{\"brand\":\"Kross\",\"year\":2022}\n```"},
	)
	a := NewAnalyzer(context.Background(), newTestClient(srv.URL, &fakeClock{}), WithAnalyzerLogger(discardLogger()))
	if !a.Available() {
		t.Fatal("expected model to be available")
	}

	r := a.ParseDescription(context.Background(), "Kross Esker 2022")
	if r.String("brand") != "Kross" {
		t.Errorf("unexpected result %v", r)
	}
	if y, ok := r.Float("year"); !ok || y != 2022 {
		t.Errorf("expected year 2022, got %v", y)
	}
	if !strings.Contains(s.prompts[0], "Kross Esker 2022") {
		t.Errorf("prompt does not contain the description: %q", s.prompts[0])
	}
}

func TestCacheKey(t *testing.T) {
	t.Parallel()

	if cacheKey("parse", "a") == cacheKey("categorize", "a") {
		t.Error("expected keys of different stages to differ")
	}
	if cacheKey("parse", "a") != cacheKey("parse", "a") {
		t.Error("expected equal inputs to produce equal keys")
	}
	if got := prefixRunes("zażółć", 3); got != "zaż" {
		t.Errorf("expected %q, got %q", "zaż", got)
	}
	if got := prefixRunes("abc", 10); got != "abc" {
		t.Errorf("expected %q, got %q", "abc", got)
	}
}
