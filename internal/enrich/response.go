package enrich

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/nao1215/gravelscan/internal/model"
)

var (
	fencedJSON = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")
	thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)
)

// ParseResponse extracts a JSON object from generated text.
// The text is tried as a whole first, then the first fenced json block,
// then the span from the first '{' to the last '}'.
func ParseResponse(text string) (model.AnalysisResult, error) {
	text = strings.TrimSpace(thinkBlock.ReplaceAllString(text, ""))

	if r, ok := decodeObject(text); ok {
		return r, nil
	}
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		if r, ok := decodeObject(m[1]); ok {
			return r, nil
		}
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		if r, ok := decodeObject(text[start : end+1]); ok {
			return r, nil
		}
	}
	return nil, ErrUnparsableResponse
}

func decodeObject(s string) (model.AnalysisResult, bool) {
	var r map[string]any
	if err := json.Unmarshal([]byte(s), &r); err != nil || r == nil {
		return nil, false
	}
	return model.AnalysisResult(r), true
}
