package stats

import (
	"math"
	"slices"
	"strconv"

	"github.com/nao1215/gravelscan/internal/model"
)

// TopLocationCount is the number of locations kept in TopLocations.
const TopLocationCount = 5

// correlationThreshold is the collection size above which price
// correlations are computed.
const correlationThreshold = 5

// countedFields are the attributes reported as "<field>_counts".
var countedFields = []string{
	"condition",
	"color",
	"derailleur_type",
	"brake_type",
	"frame_material",
	"wheel_size",
	"seller_type",
	"bike_type",
	"frame_size_desc",
	"gears",
	"weight",
	"suspension",
}

// Statistics describes a collection of listings.
type Statistics struct {
	TotalCount   int
	AvgPrice     float64
	MinPrice     float64
	MaxPrice     float64
	MedianPrice  float64
	BrandCounts  Counts
	TopLocations Counts

	// FieldCounts holds the value counts of every attribute in
	// countedFields that at least one listing carries.
	FieldCounts map[string]Counts

	YearCounts Counts
	AvgYear    *float64
	SizeCounts Counts

	// Only computed for collections larger than five listings.
	YearPriceCorrelation    *float64
	AvgPriceByFrameMaterial map[string]float64
	AvgPriceByBrakeType     map[string]float64
}

// Compute returns the statistics of listings. An empty input yields a zero
// Statistics.
func Compute(listings []model.Listing) Statistics {
	s := Statistics{
		BrandCounts:  Counts{},
		TopLocations: Counts{},
		FieldCounts:  map[string]Counts{},
	}
	if len(listings) == 0 {
		return s
	}

	prices := make([]float64, 0, len(listings))
	locations := Counts{}
	years := Counts{}
	sizes := Counts{}
	var yearSum float64
	var yearXs, yearYs []float64
	byMaterial := meanBy{}
	byBrake := meanBy{}

	for i := range listings {
		l := &listings[i]
		prices = append(prices, l.Price)
		locations[l.Location]++

		if l.Brand != nil {
			s.BrandCounts[*l.Brand]++
		}
		if l.Size != nil {
			sizes[*l.Size]++
		}
		if l.Year != nil {
			years[strconv.Itoa(*l.Year)]++
			yearSum += float64(*l.Year)
			yearXs = append(yearXs, float64(*l.Year))
			yearYs = append(yearYs, l.Price)
		}
		for _, field := range countedFields {
			v, ok := l.Attribute(field)
			if !ok {
				continue
			}
			if s.FieldCounts[field] == nil {
				s.FieldCounts[field] = Counts{}
			}
			s.FieldCounts[field][v]++
		}
		if l.FrameMaterial != nil {
			byMaterial.add(*l.FrameMaterial, l.Price)
		}
		if l.BrakeType != nil {
			byBrake.add(*l.BrakeType, l.Price)
		}
	}

	s.TotalCount = len(listings)
	s.AvgPrice = mean(prices)
	s.MinPrice = slices.Min(prices)
	s.MaxPrice = slices.Max(prices)
	s.MedianPrice = median(prices)
	s.TopLocations = locations.Top(TopLocationCount)

	if len(years) > 0 {
		s.YearCounts = years
		avg := yearSum / float64(len(yearXs))
		s.AvgYear = &avg
	}
	if len(sizes) > 0 {
		s.SizeCounts = sizes
	}

	if len(listings) > correlationThreshold {
		if len(yearXs) > 0 {
			if r, ok := pearson(yearXs, yearYs); ok {
				s.YearPriceCorrelation = &r
			}
		}
		if len(byMaterial) > 0 {
			s.AvgPriceByFrameMaterial = byMaterial.means()
		}
		if len(byBrake) > 0 {
			s.AvgPriceByBrakeType = byBrake.means()
		}
	}
	return s
}

// Map returns the statistics as a flat JSON object with the
// "<field>_counts" keys. Absent sections are omitted; an empty collection
// yields an empty map.
func (s Statistics) Map() map[string]any {
	m := map[string]any{}
	if s.TotalCount == 0 {
		return m
	}
	m["total_count"] = s.TotalCount
	m["avg_price"] = s.AvgPrice
	m["min_price"] = s.MinPrice
	m["max_price"] = s.MaxPrice
	m["median_price"] = s.MedianPrice
	m["brand_counts"] = s.BrandCounts
	m["top_locations"] = s.TopLocations

	for field, counts := range s.FieldCounts {
		m[field+"_counts"] = counts
	}
	if s.YearCounts != nil {
		m["year_counts"] = s.YearCounts
	}
	if s.AvgYear != nil {
		m["avg_year"] = *s.AvgYear
	}
	if s.SizeCounts != nil {
		m["size_counts"] = s.SizeCounts
	}
	if s.YearPriceCorrelation != nil {
		m["year_price_correlation"] = *s.YearPriceCorrelation
	}
	if s.AvgPriceByFrameMaterial != nil {
		m["avg_price_by_frame_material"] = s.AvgPriceByFrameMaterial
	}
	if s.AvgPriceByBrakeType != nil {
		m["avg_price_by_brake_type"] = s.AvgPriceByBrakeType
	}
	return m
}

// MarshalJSON encodes the statistics in their flat form.
func (s Statistics) MarshalJSON() ([]byte, error) {
	return marshalMap(s.Map())
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func median(xs []float64) float64 {
	sorted := slices.Clone(xs)
	slices.Sort(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// pearson returns the correlation coefficient of xs and ys. It reports
// false when either series has no variance.
func pearson(xs, ys []float64) (float64, bool) {
	if len(xs) < 2 {
		return 0, false
	}
	mx, my := mean(xs), mean(ys)
	var cov, vx, vy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return 0, false
	}
	return cov / math.Sqrt(vx*vy), true
}
