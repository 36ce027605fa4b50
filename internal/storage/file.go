package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nao1215/gravelscan/internal/model"
)

// Format is an on-disk listing format.
type Format string

// Supported formats.
const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// TimestampLayout is used in the names of partial, error and interrupted
// result files.
const TimestampLayout = "20060102_150405"

// FormatFromPath returns the format implied by the extension of path.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// SaveFile writes listings to path in the format implied by its extension.
// Missing parent directories are created.
func SaveFile(path string, listings []model.Listing) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	return writeFile(path, func(f *os.File) error {
		if format == FormatCSV {
			return WriteCSV(f, listings)
		}
		return WriteJSON(f, listings)
	})
}

// SaveJSONFile writes any value as indented JSON to path.
func SaveJSONFile(path string, v any) error {
	return writeFile(path, func(f *os.File) error {
		return WriteJSON(f, v)
	})
}

// LoadFile reads listings from a CSV or JSON file.
func LoadFile(path string) ([]model.Listing, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if format == FormatCSV {
		return ReadCSV(f)
	}
	return ReadJSON(f)
}

// LoadCollection reads a file into a Collection, keeping the first record
// of every URL.
func LoadCollection(path string) (*model.Collection, error) {
	listings, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return model.NewCollection(listings...), nil
}

// SaveBoth writes listings to dir/base.csv and dir/base.json and returns
// the paths written.
func SaveBoth(dir, base string, listings []model.Listing) ([]string, error) {
	paths := []string{
		filepath.Join(dir, base+".csv"),
		filepath.Join(dir, base+".json"),
	}
	for _, p := range paths {
		if err := SaveFile(p, listings); err != nil {
			return nil, err
		}
	}
	return paths, nil
}

// QueryFileBase turns a search query into a file name stem, replacing
// spaces with underscores.
func QueryFileBase(query string) string {
	return strings.ReplaceAll(strings.TrimSpace(query), " ", "_")
}

// StampedBase returns prefix_query_timestamp, or prefix_timestamp when query
// is empty.
func StampedBase(prefix, query string, t time.Time) string {
	stamp := t.Format(TimestampLayout)
	if query == "" {
		return prefix + "_" + stamp
	}
	return prefix + "_" + QueryFileBase(query) + "_" + stamp
}

func writeFile(path string, write func(f *os.File) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

// LoadEnrichedFile reads enriched listings from a JSON file.
func LoadEnrichedFile(path string) ([]model.EnrichedListing, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return ReadEnrichedJSON(f)
}

// LoadJSONObject reads a JSON object such as a saved statistics file.
func LoadJSONObject(path string) (map[string]any, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}
