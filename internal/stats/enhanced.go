package stats

import (
	"strings"
	"time"

	"github.com/nao1215/gravelscan/internal/model"
)

// conditionNew is the parsed condition that counts as a new bicycle.
const conditionNew = "nowy"

// dateLayouts are tried in order when bucketing listings by month.
var dateLayouts = []string{
	"02-01-2006",
	"2006-01-02",
	"02.01.2006",
	"2006.01.02",
}

// UsedVsNew compares new and used bicycles.
type UsedVsNew struct {
	New          int     `json:"new"`
	Used         int     `json:"used"`
	AvgPriceNew  float64 `json:"avg_price_new"`
	AvgPriceUsed float64 `json:"avg_price_used"`
}

// Enhanced holds the statistics derived from enriched listings.
type Enhanced struct {
	BicycleTypeCounts     Counts             `json:"bicycle_type_counts"`
	AvgPriceByType        map[string]float64 `json:"avg_price_by_type"`
	AvgPriceByBrand       map[string]float64 `json:"avg_price_by_brand"`
	FrameMaterialCounts   Counts             `json:"frame_material_counts"`
	WheelSizeCounts       Counts             `json:"wheel_size_counts"`
	ConditionCounts       Counts             `json:"condition_counts"`
	UsedVsNew             UsedVsNew          `json:"used_vs_new"`
	ValueAssessmentCounts Counts             `json:"value_assessment_counts"`
	MonthlyCounts         Counts             `json:"monthly_counts"`
	IdentifiedBikeTypes   int                `json:"identified_bike_types"`
	IdentifiedCondition   int                `json:"identified_condition"`
}

// ComputeEnhanced derives statistics from the analyses of enriched
// listings. Averages only consider listings with a non-zero price.
func ComputeEnhanced(listings []model.EnrichedListing) Enhanced {
	e := Enhanced{
		BicycleTypeCounts:     Counts{},
		FrameMaterialCounts:   Counts{},
		WheelSizeCounts:       Counts{},
		ConditionCounts:       Counts{},
		ValueAssessmentCounts: Counts{"fair": 0, "overpriced": 0, "underpriced": 0},
		MonthlyCounts:         Counts{},
	}
	byType := meanBy{}
	byBrand := meanBy{}
	var newPrices, usedPrices []float64

	for i := range listings {
		l := &listings[i]
		priced := l.Price != 0

		if parsed := l.AIAnalysis.ParsedDetails; !parsed.Failed() {
			if bikeType := parsed.String("bicycle_type"); bikeType != "" {
				e.IdentifiedBikeTypes++
				e.BicycleTypeCounts[bikeType]++
				if priced {
					byType.add(bikeType, l.Price)
				}
			}
			if material := parsed.String("frame_material"); material != "" {
				e.FrameMaterialCounts[material]++
			}
			if wheel := parsed.String("wheel_size"); wheel != "" {
				e.WheelSizeCounts[wheel]++
			}
			if condition := parsed.String("condition"); condition != "" {
				e.IdentifiedCondition++
				e.ConditionCounts[condition]++
				if strings.EqualFold(condition, conditionNew) {
					e.UsedVsNew.New++
					if priced {
						newPrices = append(newPrices, l.Price)
					}
				} else {
					e.UsedVsNew.Used++
					if priced {
						usedPrices = append(usedPrices, l.Price)
					}
				}
			}
		}

		if l.Brand != nil && *l.Brand != "" && priced {
			byBrand.add(*l.Brand, l.Price)
		}

		if value := l.AIAnalysis.Value; !value.Failed() {
			if assessment := value.String("value_analysis", "value_assessment"); assessment != "" {
				e.ValueAssessmentCounts[assessment]++
			}
		}

		if month, ok := MonthOf(l.DateAdded); ok {
			e.MonthlyCounts[month.String()]++
		}
	}

	e.AvgPriceByType = byType.means()
	e.AvgPriceByBrand = byBrand.means()
	if len(newPrices) > 0 {
		e.UsedVsNew.AvgPriceNew = mean(newPrices)
	}
	if len(usedPrices) > 0 {
		e.UsedVsNew.AvgPriceUsed = mean(usedPrices)
	}
	return e
}

// MonthOf parses a date in one of the numeric layouts and returns its
// month.
func MonthOf(date string) (time.Month, bool) {
	date = strings.TrimSpace(date)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, date); err == nil {
			return t.Month(), true
		}
	}
	return 0, false
}

// Merge overlays the enhanced statistics on base and returns the result.
// base is not modified.
func (e Enhanced) Merge(base map[string]any) map[string]any {
	out := make(map[string]any, len(base)+11)
	for k, v := range base {
		out[k] = v
	}
	out["bicycle_type_counts"] = e.BicycleTypeCounts
	out["avg_price_by_type"] = e.AvgPriceByType
	out["avg_price_by_brand"] = e.AvgPriceByBrand
	out["frame_material_counts"] = e.FrameMaterialCounts
	out["wheel_size_counts"] = e.WheelSizeCounts
	out["condition_counts"] = e.ConditionCounts
	out["used_vs_new"] = e.UsedVsNew
	out["value_assessment_counts"] = e.ValueAssessmentCounts
	out["monthly_counts"] = e.MonthlyCounts
	out["identified_bike_types"] = e.IdentifiedBikeTypes
	out["identified_condition"] = e.IdentifiedCondition
	return out
}
