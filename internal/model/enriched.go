package model

import "strconv"

// Error markers attached to an analysis when a stage could not run.
const (
	ErrMsgNoDescription        = "No description available"
	ErrMsgCategorizeAfterParse = "Could not categorize due to parsing error"
	ErrMsgValueAfterParse      = "Could not analyze value due to parsing error"
	ErrMsgValueAfterCategorize = "Could not analyze value due to categorization error"
)

// AnalysisResult is one JSON object returned by the text-analysis service.
// It has one of three shapes (parsed details, category, value assessment)
// or carries a single "error" key.
type AnalysisResult map[string]any

// ErrorResult returns a result that only carries an error message.
func ErrorResult(msg string) AnalysisResult {
	return AnalysisResult{"error": msg}
}

// ErrorMessage returns the error marker of the result, if any.
func (r AnalysisResult) ErrorMessage() (string, bool) {
	if r == nil {
		return "", false
	}
	v, ok := r["error"]
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, true
}

// Failed reports whether the result is missing or is an error marker.
func (r AnalysisResult) Failed() bool {
	if r == nil {
		return true
	}
	_, ok := r.ErrorMessage()
	return ok
}

// Lookup walks nested objects along path and returns the value found.
func (r AnalysisResult) Lookup(path ...string) (any, bool) {
	var cur any = map[string]any(r)
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, cur != nil
}

// String returns the string found at path. Numbers are formatted.
func (r AnalysisResult) String(path ...string) string {
	v, ok := r.Lookup(path...)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// Float returns the number found at path.
func (r AnalysisResult) Float(path ...string) (float64, bool) {
	v, ok := r.Lookup(path...)
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Analysis is the combined output of the three analysis stages.
// Error is set instead of the stages when the whole analysis failed.
type Analysis struct {
	ParsedDetails AnalysisResult `json:"parsed_details,omitempty"`
	Category      AnalysisResult `json:"category,omitempty"`
	Value         AnalysisResult `json:"value,omitempty"`
	Error         string         `json:"error,omitempty"`
}

// EnrichedListing is a listing with an attached analysis.
// It is derived from a Listing and never shares memory with it.
type EnrichedListing struct {
	Listing

	AIAnalysis Analysis `json:"ai_analysis"`
}

// NewEnrichedListing derives an EnrichedListing from l.
func NewEnrichedListing(l *Listing, analysis Analysis) EnrichedListing {
	return EnrichedListing{
		Listing:    l.Clone(),
		AIAnalysis: analysis,
	}
}
