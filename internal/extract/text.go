package extract

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// foldLabel normalizes an attribute label for case-insensitive lookup.
// NFC composition makes "materiał" typed with a combining stroke equal to
// the precomposed form.
func foldLabel(s string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(s)))
}

// containsFold reports whether s contains substr ignoring case.
func containsFold(s, substr string) bool {
	return strings.Contains(foldLabel(s), foldLabel(substr))
}
