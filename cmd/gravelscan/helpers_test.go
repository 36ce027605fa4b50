package main

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/nao1215/gravelscan/internal/model"
	"github.com/nao1215/gravelscan/internal/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testListing(t *testing.T, url, title string, price float64) model.Listing {
	t.Helper()
	l, err := model.NewListing(model.ListingInput{
		Title:     title,
		Price:     price,
		Location:  "Kraków",
		DateAdded: "12.03.2024",
		URL:       url,
		Details: model.Details{
			Brand:       model.StringPtr("Kross"),
			Description: model.StringPtr("Rower gravel Kross Esker 4.0, rozmiar M, stan bardzo dobry."),
			Parameters:  map[string]string{"Stan": "Używane"},
		},
	})
	if err != nil {
		t.Fatalf("failed to build listing: %v", err)
	}
	return *l
}

// writeListings saves listings to dir/name and returns the path.
func writeListings(t *testing.T, dir, name string, listings ...model.Listing) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := storage.SaveFile(path, listings); err != nil {
		t.Fatalf("failed to save listings: %v", err)
	}
	return path
}
