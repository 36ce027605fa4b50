package stats

import (
	"cmp"
	"slices"

	"github.com/nao1215/gravelscan/internal/model"
)

// ParameterSummary describes one attribute-block label.
type ParameterSummary struct {
	Label string `json:"label"`
	// Values are the distinct values seen for the label, sorted.
	Values []string `json:"values"`
	// Count is the number of listings carrying the label.
	Count int `json:"count"`
	// Percentage is Count relative to all listings.
	Percentage float64 `json:"percentage"`
}

// ParametersSummary covers every attribute-block label of a collection.
type ParametersSummary struct {
	TotalListings int `json:"total_listings"`
	// Parameters are sorted by label.
	Parameters []ParameterSummary `json:"parameters"`
}

// SummarizeParameters collects the distinct labels and values of the
// listings' attribute blocks.
func SummarizeParameters(listings []model.Listing) ParametersSummary {
	values := map[string]map[string]struct{}{}
	counts := map[string]int{}
	for i := range listings {
		for label, value := range listings[i].Parameters {
			if values[label] == nil {
				values[label] = map[string]struct{}{}
			}
			values[label][value] = struct{}{}
			counts[label]++
		}
	}

	summary := ParametersSummary{
		TotalListings: len(listings),
		Parameters:    make([]ParameterSummary, 0, len(values)),
	}
	for label, set := range values {
		p := ParameterSummary{
			Label:  label,
			Values: make([]string, 0, len(set)),
			Count:  counts[label],
		}
		for v := range set {
			p.Values = append(p.Values, v)
		}
		slices.Sort(p.Values)
		if len(listings) > 0 {
			p.Percentage = float64(p.Count) / float64(len(listings)) * 100
		}
		summary.Parameters = append(summary.Parameters, p)
	}
	slices.SortFunc(summary.Parameters, func(a, b ParameterSummary) int {
		return cmp.Compare(a.Label, b.Label)
	})
	return summary
}

// ByCompleteness returns the parameters by descending count, ties by label.
func (s ParametersSummary) ByCompleteness() []ParameterSummary {
	out := slices.Clone(s.Parameters)
	slices.SortStableFunc(out, func(a, b ParameterSummary) int {
		return cmp.Compare(b.Count, a.Count)
	})
	return out
}
