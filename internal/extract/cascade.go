package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Selector reads one candidate value from a document. It reports false
// when it finds nothing usable.
type Selector func(doc *goquery.Document) (string, bool)

// Text returns a Selector yielding the trimmed text of the first element
// matching css. Empty text counts as not found.
func Text(css string) Selector {
	return func(doc *goquery.Document) (string, bool) {
		s := doc.Find(css).First()
		if s.Length() == 0 {
			return "", false
		}
		text := strings.TrimSpace(s.Text())
		return text, text != ""
	}
}

// First runs selectors in order and returns the first value found.
func First(doc *goquery.Document, selectors []Selector) (string, bool) {
	for _, sel := range selectors {
		if v, ok := sel(doc); ok {
			return v, true
		}
	}
	return "", false
}

// texts builds a cascade of Text selectors.
func texts(css ...string) []Selector {
	out := make([]Selector, len(css))
	for i, c := range css {
		out[i] = Text(c)
	}
	return out
}
