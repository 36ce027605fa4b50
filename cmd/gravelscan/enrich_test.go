package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/gravelscan/internal/config"
	"github.com/nao1215/gravelscan/internal/model"
	"github.com/nao1215/gravelscan/internal/storage"
)

// newOllama serves /api/tags with models and answers /api/generate by
// prompt heading.
func newOllama(t *testing.T, models ...string) *httptest.Server {
	t.Helper()
	replies := map[string]string{
		"=== BICYCLE LISTING PARSING REQUEST ===": `{"brand": "Kross", "model": "Esker 4.0", "frame_material": "aluminium"}`,
		"=== BICYCLE CATEGORIZATION REQUEST ===":  `{"bicycle_type": "gravel", "condition": "używany"}`,
		"=== BICYCLE VALUE ANALYSIS REQUEST ===":  `{"value_assessment": "fair", "estimated_value": 4200}`,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, _ *http.Request) {
		type tag struct {
			Name string `json:"name"`
		}
		resp := struct {
			Models []tag `json:"models"`
		}{}
		for _, m := range models {
			resp.Models = append(resp.Models, tag{Name: m})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp) //nolint:errcheck
	})
	mux.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Prompt string `json:"prompt"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		text := "{}"
		for heading, reply := range replies {
			if strings.HasPrefix(strings.TrimSpace(body.Prompt), heading) {
				text = reply
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"response": text, "done": true}) //nolint:errcheck
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func enrichConfig(url string) *config.Config {
	cfg := config.NewConfig()
	cfg.OllamaURL = url
	return cfg
}

func TestRunEnrich(t *testing.T) {
	t.Parallel()

	t.Run("enriches and saves listings", func(t *testing.T) {
		t.Parallel()
		srv := newOllama(t, config.DefaultOllamaModel)
		dir := t.TempDir()
		input := writeListings(t, dir, "bikes.json",
			testListing(t, "https://www.olx.pl/d/oferta/a.html", "Kross Esker 4.0", 4500),
		)
		output := filepath.Join(dir, "enriched.json")
		var out, progress bytes.Buffer

		err := runEnrich(context.Background(), enrichConfig(srv.URL), discardLogger(), enrichJob{
			input:      input,
			output:     output,
			printStats: true,
			out:        &out,
			progress:   &progress,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		enriched, err := storage.LoadEnrichedFile(output)
		if err != nil {
			t.Fatalf("failed to load enriched listings: %v", err)
		}
		if len(enriched) != 1 {
			t.Fatalf("expected 1 enriched listing, got %d", len(enriched))
		}
		a := enriched[0].AIAnalysis
		if a.Error != "" {
			t.Fatalf("expected no analysis error, got %q", a.Error)
		}
		if got := a.ParsedDetails.String("brand"); got != "Kross" {
			t.Errorf("expected parsed brand 'Kross', got %q", got)
		}
		if got := a.Category.String("bicycle_type"); got != "gravel" {
			t.Errorf("expected bicycle type 'gravel', got %q", got)
		}
		if got := a.Value.String("value_assessment"); got != "fair" {
			t.Errorf("expected value assessment 'fair', got %q", got)
		}

		if !strings.Contains(out.String(), "bicycle_type_counts") {
			t.Errorf("expected enhanced statistics in output, got:\n%s", out.String())
		}
		if !strings.Contains(progress.String(), "Analyzing listing 1/1") {
			t.Errorf("expected progress lines, got:\n%s", progress.String())
		}
	})

	t.Run("unavailable model yields error markers", func(t *testing.T) {
		t.Parallel()
		srv := newOllama(t, "llama3:latest")
		dir := t.TempDir()
		input := writeListings(t, dir, "bikes.json",
			testListing(t, "https://www.olx.pl/d/oferta/a.html", "Kross Esker 4.0", 4500),
		)
		output := filepath.Join(dir, "enriched.json")

		err := runEnrich(context.Background(), enrichConfig(srv.URL), discardLogger(), enrichJob{
			input:    input,
			output:   output,
			out:      &bytes.Buffer{},
			progress: &bytes.Buffer{},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		enriched, err := storage.LoadEnrichedFile(output)
		if err != nil {
			t.Fatalf("failed to load enriched listings: %v", err)
		}
		msg, ok := enriched[0].AIAnalysis.ParsedDetails.ErrorMessage()
		if !ok || msg != "LLM model is unavailable" {
			t.Errorf("expected unavailable marker, got %v", enriched[0].AIAnalysis.ParsedDetails)
		}
		if !enriched[0].AIAnalysis.Value.Failed() {
			t.Error("expected value stage to carry an error marker")
		}
	})

	t.Run("listing without description", func(t *testing.T) {
		t.Parallel()
		srv := newOllama(t, config.DefaultOllamaModel)
		dir := t.TempDir()
		l := testListing(t, "https://www.olx.pl/d/oferta/a.html", "Kross Esker 4.0", 4500)
		l.Description = nil
		input := writeListings(t, dir, "bikes.json", l)
		output := filepath.Join(dir, "enriched.json")

		err := runEnrich(context.Background(), enrichConfig(srv.URL), discardLogger(), enrichJob{
			input:    input,
			output:   output,
			out:      &bytes.Buffer{},
			progress: &bytes.Buffer{},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		enriched, err := storage.LoadEnrichedFile(output)
		if err != nil {
			t.Fatalf("failed to load enriched listings: %v", err)
		}
		if enriched[0].AIAnalysis.Error != model.ErrMsgNoDescription {
			t.Errorf("expected %q, got %q", model.ErrMsgNoDescription, enriched[0].AIAnalysis.Error)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		input := writeListings(t, dir, "bikes.json")
		var out bytes.Buffer

		err := runEnrich(context.Background(), enrichConfig("http://127.0.0.1:1"), discardLogger(), enrichJob{
			input:    input,
			output:   filepath.Join(dir, "enriched.json"),
			out:      &out,
			progress: &bytes.Buffer{},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out.String(), "No listings") {
			t.Errorf("expected empty input message, got %q", out.String())
		}
	})
}

// TestNewEnrichCmd tests the enrich command creation.
func TestNewEnrichCmd(t *testing.T) {
	t.Parallel()

	cmd := NewEnrichCmd()
	for _, name := range []string{"output", "output-dir", "stats", "ollama-url", "model", "ollama-timeout", "config"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("expected %s flag", name)
		}
	}
	if cmd.Args == nil {
		t.Error("expected Args validator")
	}
}
