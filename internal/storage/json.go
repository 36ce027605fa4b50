package storage

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/nao1215/gravelscan/internal/model"
)

// WriteJSON writes v as indented JSON without escaping HTML characters, so
// Polish text stays readable in the file.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// ReadJSON reads a JSON array of listings. Every record is validated.
func ReadJSON(r io.Reader) ([]model.Listing, error) {
	var raw []model.Listing
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode listings: %w", err)
	}
	listings := make([]model.Listing, 0, len(raw))
	for i := range raw {
		if err := raw[i].Validate(); err != nil {
			return nil, fmt.Errorf("listing %d: %w", i, err)
		}
		listings = append(listings, raw[i])
	}
	return listings, nil
}

// ReadEnrichedJSON reads a JSON array of enriched listings.
func ReadEnrichedJSON(r io.Reader) ([]model.EnrichedListing, error) {
	var out []model.EnrichedListing
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode enriched listings: %w", err)
	}
	for i := range out {
		if err := out[i].Validate(); err != nil {
			return nil, fmt.Errorf("enriched listing %d: %w", i, err)
		}
	}
	return out, nil
}
