package stats

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/nao1215/gravelscan/internal/model"
)

type listingOpt func(*model.ListingInput)

func withBrand(b string) listingOpt {
	return func(in *model.ListingInput) { in.Details.Brand = model.StringPtr(b) }
}

func withYear(y int) listingOpt {
	return func(in *model.ListingInput) { in.Details.Year = model.IntPtr(y) }
}

func withMaterial(m string) listingOpt {
	return func(in *model.ListingInput) { in.Details.FrameMaterial = model.StringPtr(m) }
}

func withParams(p map[string]string) listingOpt {
	return func(in *model.ListingInput) { in.Details.Parameters = p }
}

func withDate(d string) listingOpt {
	return func(in *model.ListingInput) { in.DateAdded = d }
}

func newListing(t *testing.T, url string, price float64, location string, opts ...listingOpt) model.Listing {
	t.Helper()

	in := model.ListingInput{
		Title:     "Rower " + url,
		Price:     price,
		Location:  location,
		DateAdded: "01.02.2024",
		URL:       "https://www.olx.pl/d/oferta/" + url,
	}
	for _, opt := range opts {
		opt(&in)
	}
	l, err := model.NewListing(in)
	if err != nil {
		t.Fatalf("failed to build listing: %v", err)
	}
	return *l
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCompute(t *testing.T) {
	t.Parallel()

	t.Run("empty collection", func(t *testing.T) {
		t.Parallel()

		s := Compute(nil)
		if s.TotalCount != 0 {
			t.Errorf("expected 0 listings, got %d", s.TotalCount)
		}
		if len(s.Map()) != 0 {
			t.Errorf("expected an empty map, got %v", s.Map())
		}
	})

	t.Run("small collection has no correlations", func(t *testing.T) {
		t.Parallel()

		listings := []model.Listing{
			newListing(t, "a", 1000, "Kraków", withBrand("Kross"), withYear(2020), withMaterial("Aluminium")),
			newListing(t, "b", 3000, "Kraków", withBrand("Kross")),
			newListing(t, "c", 2000, "Gdańsk", withBrand("Merida"), withYear(2022)),
		}
		s := Compute(listings)

		if s.TotalCount != 3 {
			t.Errorf("expected 3 listings, got %d", s.TotalCount)
		}
		if !almostEqual(s.AvgPrice, 2000) || s.MinPrice != 1000 || s.MaxPrice != 3000 || s.MedianPrice != 2000 {
			t.Errorf("unexpected prices %+v", s)
		}
		if s.BrandCounts["Kross"] != 2 || s.BrandCounts["Merida"] != 1 {
			t.Errorf("unexpected brand counts %v", s.BrandCounts)
		}
		if s.TopLocations["Kraków"] != 2 {
			t.Errorf("unexpected locations %v", s.TopLocations)
		}
		if s.AvgYear == nil || *s.AvgYear != 2021 {
			t.Errorf("expected average year 2021, got %v", s.AvgYear)
		}
		if s.YearCounts["2020"] != 1 {
			t.Errorf("unexpected year counts %v", s.YearCounts)
		}
		if s.FieldCounts["frame_material"]["Aluminium"] != 1 {
			t.Errorf("unexpected field counts %v", s.FieldCounts)
		}
		if _, ok := s.FieldCounts["color"]; ok {
			t.Error("expected attributes nobody carries to be omitted")
		}
		if s.SizeCounts != nil {
			t.Errorf("expected no size counts, got %v", s.SizeCounts)
		}
		if s.YearPriceCorrelation != nil || s.AvgPriceByFrameMaterial != nil {
			t.Error("expected no correlations for five or fewer listings")
		}
	})

	t.Run("larger collection computes correlations", func(t *testing.T) {
		t.Parallel()

		var listings []model.Listing
		for i, year := range []int{2015, 2017, 2019, 2021, 2023, 2024} {
			material := "Aluminium"
			if i%2 == 0 {
				material = "Karbon"
			}
			listings = append(listings, newListing(t, string(rune('a'+i)), float64(1000*(i+1)), "Poznań",
				withYear(year), withMaterial(material)))
		}
		s := Compute(listings)

		if s.YearPriceCorrelation == nil || *s.YearPriceCorrelation < 0.9 {
			t.Errorf("expected a strong positive correlation, got %v", s.YearPriceCorrelation)
		}
		if !almostEqual(s.AvgPriceByFrameMaterial["Karbon"], 3000) || !almostEqual(s.AvgPriceByFrameMaterial["Aluminium"], 4000) {
			t.Errorf("unexpected material averages %v", s.AvgPriceByFrameMaterial)
		}
		if s.AvgPriceByBrakeType != nil {
			t.Errorf("expected no brake averages, got %v", s.AvgPriceByBrakeType)
		}
		if !almostEqual(s.MedianPrice, 3500) {
			t.Errorf("expected median 3500, got %v", s.MedianPrice)
		}
	})

	t.Run("top locations keeps five", func(t *testing.T) {
		t.Parallel()

		var listings []model.Listing
		for i, city := range []string{"A", "B", "C", "D", "E", "F", "A"} {
			listings = append(listings, newListing(t, string(rune('a'+i)), 100, city))
		}
		s := Compute(listings)
		if len(s.TopLocations) != TopLocationCount {
			t.Errorf("expected %d locations, got %v", TopLocationCount, s.TopLocations)
		}
		if s.TopLocations["A"] != 2 {
			t.Errorf("expected the most frequent location to be kept, got %v", s.TopLocations)
		}
	})
}

func TestStatistics_MarshalJSON(t *testing.T) {
	t.Parallel()

	s := Compute([]model.Listing{newListing(t, "a", 1500, "Łódź", withMaterial("Stal"))})
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if got["total_count"] != float64(1) {
		t.Errorf("expected total_count 1, got %v", got["total_count"])
	}
	if _, ok := got["frame_material_counts"]; !ok {
		t.Errorf("expected frame_material_counts key, got %v", got)
	}
	if _, ok := got["avg_year"]; ok {
		t.Error("expected avg_year to be omitted without years")
	}
}

func TestCounts_Sorted(t *testing.T) {
	t.Parallel()

	got := Counts{"b": 2, "a": 2, "c": 5}.Sorted()
	want := []string{"c", "a", "b"}
	for i, v := range want {
		if got[i].Value != v {
			t.Errorf("position %d: expected %s, got %s", i, v, got[i].Value)
		}
	}
}

func TestSummarizeParameters(t *testing.T) {
	t.Parallel()

	listings := []model.Listing{
		newListing(t, "a", 1, "X", withParams(map[string]string{"Marka": "Kross", "Stan": "Używane"})),
		newListing(t, "b", 1, "X", withParams(map[string]string{"Marka": "Cube"})),
		newListing(t, "c", 1, "X", withParams(map[string]string{"Marka": "Kross"})),
		newListing(t, "d", 1, "X"),
	}
	s := SummarizeParameters(listings)

	if s.TotalListings != 4 {
		t.Errorf("expected 4 listings, got %d", s.TotalListings)
	}
	if len(s.Parameters) != 2 || s.Parameters[0].Label != "Marka" || s.Parameters[1].Label != "Stan" {
		t.Fatalf("unexpected parameters %+v", s.Parameters)
	}
	marka := s.Parameters[0]
	if marka.Count != 3 || !almostEqual(marka.Percentage, 75) {
		t.Errorf("unexpected completeness %+v", marka)
	}
	if len(marka.Values) != 2 || marka.Values[0] != "Cube" || marka.Values[1] != "Kross" {
		t.Errorf("expected sorted distinct values, got %v", marka.Values)
	}

	byCount := s.ByCompleteness()
	if byCount[0].Label != "Marka" || byCount[1].Label != "Stan" {
		t.Errorf("unexpected order %+v", byCount)
	}
}

func enriched(l model.Listing, parsed, value map[string]any) model.EnrichedListing {
	return model.NewEnrichedListing(&l, model.Analysis{
		ParsedDetails: parsed,
		Value:         value,
	})
}

func TestComputeEnhanced(t *testing.T) {
	t.Parallel()

	listings := []model.EnrichedListing{
		enriched(newListing(t, "a", 4000, "X", withBrand("Kross"), withDate("05.03.2024")),
			map[string]any{"bicycle_type": "gravel", "condition": "Nowy", "frame_material": "karbon"},
			map[string]any{"value_analysis": map[string]any{"value_assessment": "fair"}}),
		enriched(newListing(t, "b", 2000, "X", withBrand("Kross"), withDate("2024-03-10")),
			map[string]any{"bicycle_type": "gravel", "condition": "używany", "wheel_size": "28"},
			map[string]any{"value_analysis": map[string]any{"value_assessment": "overpriced"}}),
		enriched(newListing(t, "c", 0, "X", withDate("12 marca 2024")),
			map[string]any{"error": "LLM model is unavailable"},
			nil),
	}
	e := ComputeEnhanced(listings)

	if e.IdentifiedBikeTypes != 2 || e.BicycleTypeCounts["gravel"] != 2 {
		t.Errorf("unexpected bike types %v (%d)", e.BicycleTypeCounts, e.IdentifiedBikeTypes)
	}
	if !almostEqual(e.AvgPriceByType["gravel"], 3000) {
		t.Errorf("unexpected type averages %v", e.AvgPriceByType)
	}
	if !almostEqual(e.AvgPriceByBrand["Kross"], 3000) {
		t.Errorf("unexpected brand averages %v", e.AvgPriceByBrand)
	}
	if e.UsedVsNew.New != 1 || e.UsedVsNew.Used != 1 || e.UsedVsNew.AvgPriceNew != 4000 || e.UsedVsNew.AvgPriceUsed != 2000 {
		t.Errorf("unexpected used vs new %+v", e.UsedVsNew)
	}
	if e.ValueAssessmentCounts["fair"] != 1 || e.ValueAssessmentCounts["underpriced"] != 0 {
		t.Errorf("unexpected value counts %v", e.ValueAssessmentCounts)
	}
	if _, ok := e.ValueAssessmentCounts["underpriced"]; !ok {
		t.Error("expected every assessment key to be present")
	}
	if e.MonthlyCounts["March"] != 2 {
		t.Errorf("expected 2 listings in March, got %v", e.MonthlyCounts)
	}
	if e.IdentifiedCondition != 2 || e.FrameMaterialCounts["karbon"] != 1 || e.WheelSizeCounts["28"] != 1 {
		t.Errorf("unexpected parsed counts %+v", e)
	}

	merged := e.Merge(map[string]any{"total_count": 3})
	if merged["total_count"] != 3 || merged["identified_bike_types"] != 2 {
		t.Errorf("unexpected merged statistics %v", merged)
	}
}

func TestMonthOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want time.Month
		ok   bool
	}{
		{"05-03-2024", time.March, true},
		{"2024-07-01", time.July, true},
		{"24.12.2023", time.December, true},
		{"2023.01.15", time.January, true},
		{"wczoraj", 0, false},
	}
	for _, tt := range tests {
		got, ok := MonthOf(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("MonthOf(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCompare(t *testing.T) {
	t.Parallel()

	older := model.NewCollection(
		newListing(t, "a", 1000, "X"),
		newListing(t, "b", 2000, "X"),
		newListing(t, "c", 3000, "X"),
	)
	newer := model.NewCollection(
		newListing(t, "b", 1800, "X"),
		newListing(t, "c", 3000, "X"),
		newListing(t, "d", 500, "X"),
	)

	d := Compare(older, newer)
	if len(d.Added) != 1 || d.Added[0].URL != "https://www.olx.pl/d/oferta/d" {
		t.Errorf("unexpected added %v", d.Added)
	}
	if len(d.Removed) != 1 || d.Removed[0].URL != "https://www.olx.pl/d/oferta/a" {
		t.Errorf("unexpected removed %v", d.Removed)
	}
	if len(d.PriceChanges) != 1 || d.PriceChanges[0].Delta() != -200 {
		t.Errorf("unexpected price changes %+v", d.PriceChanges)
	}
	if d.Unchanged != 1 {
		t.Errorf("expected 1 unchanged, got %d", d.Unchanged)
	}
	if d.Empty() {
		t.Error("expected a non-empty diff")
	}
	if !Compare(older, older).Empty() {
		t.Error("expected a collection to equal itself")
	}
}
