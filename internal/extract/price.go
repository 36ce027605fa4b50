package extract

import (
	"math"
	"strconv"
	"strings"
)

// ParsePrice converts a displayed price such as "3 500 zł" to a number.
//
// Only digits, '.' and ',' are kept. Every ',' becomes a '.', and of
// several dots only the last one is kept as the decimal separator. Text without a usable
// number ("Zapytaj", "Za darmo") gives 0.
func ParsePrice(text string) float64 {
	var b strings.Builder
	for _, r := range text {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}
	s := b.String()

	s = strings.ReplaceAll(s, ",", ".")

	if i := strings.LastIndex(s, "."); i >= 0 {
		s = strings.ReplaceAll(s[:i], ".", "") + s[i:]
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
