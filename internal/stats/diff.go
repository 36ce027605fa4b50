package stats

import (
	"cmp"
	"slices"

	"github.com/nao1215/gravelscan/internal/model"
)

// PriceChange is a listing whose price differs between two collections.
type PriceChange struct {
	URL      string  `json:"url"`
	Title    string  `json:"title"`
	OldPrice float64 `json:"old_price"`
	NewPrice float64 `json:"new_price"`
}

// Delta returns NewPrice - OldPrice.
func (p PriceChange) Delta() float64 {
	return p.NewPrice - p.OldPrice
}

// Diff lists the differences between an older and a newer collection.
type Diff struct {
	Added        []model.Listing `json:"added"`
	Removed      []model.Listing `json:"removed"`
	PriceChanges []PriceChange   `json:"price_changes"`
	Unchanged    int             `json:"unchanged"`
}

// Empty reports whether the collections hold the same listings at the
// same prices.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.PriceChanges) == 0
}

// Compare diffs two collections by URL. Every list is sorted by URL.
func Compare(older, newer *model.Collection) Diff {
	d := Diff{
		Added:        []model.Listing{},
		Removed:      []model.Listing{},
		PriceChanges: []PriceChange{},
	}

	newer.Each(func(l *model.Listing) bool {
		prev, ok := older.Get(l.URL)
		switch {
		case !ok:
			d.Added = append(d.Added, l.Clone())
		case prev.Price != l.Price:
			d.PriceChanges = append(d.PriceChanges, PriceChange{
				URL:      l.URL,
				Title:    l.Title,
				OldPrice: prev.Price,
				NewPrice: l.Price,
			})
		default:
			d.Unchanged++
		}
		return true
	})
	older.Each(func(l *model.Listing) bool {
		if !newer.Contains(l.URL) {
			d.Removed = append(d.Removed, l.Clone())
		}
		return true
	})

	byURL := func(a, b model.Listing) int { return cmp.Compare(a.URL, b.URL) }
	slices.SortFunc(d.Added, byURL)
	slices.SortFunc(d.Removed, byURL)
	slices.SortFunc(d.PriceChanges, func(a, b PriceChange) int { return cmp.Compare(a.URL, b.URL) })
	return d
}
