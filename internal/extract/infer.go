package extract

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/nao1215/gravelscan/internal/model"
)

// Brands is the bicycle brand vocabulary searched in titles and
// descriptions. Earlier entries win.
var Brands = []string{
	"specialized", "trek", "cannondale", "giant", "kross", "cube", "merida",
	"scott", "orbea", "canyon", "focus", "bombtrack", "ridley", "marin", "gt",
	"rondo", "diamant", "bmc", "triban", "decathlon", "btwin", "vitus",
	"cervelo", "cinelli", "fuji", "genesis", "gravelone", "pinnacle", "ribble",
	"salsa", "santa cruz", "surly", "norco", "topeak", "tern", "wilier",
	"ragley", "lauf", "diverge", "checkpoint", "topstone", "revolt", "grade",
	"aspero", "grizl", "niner", "poseidon", "state bicycle", "jamis", "felt",
	"polygon", "saracen", "nuroad", "trex", "romet", "fulcrum", "serious",
	"votec", "rose",
}

var (
	sizePattern     = regexp.MustCompile(`(?i)(?:rozmiar|rama)[:\s]*(\d{2,3}\s?cm|\d{1,2}"|\d+\.?\d*\s?cale?|XS|S|M|L|XL)`)
	yearPattern     = regexp.MustCompile(`(?i)(?:rok\s*produkcji|model\s*roku|rok)[:\s]*(\d{4})`)
	bareYearPattern = regexp.MustCompile(`\b(20[0-2]\d)\b`)
)

// InferBrand returns the first vocabulary brand contained in title or
// description, capitalized.
func InferBrand(title, description string) (string, bool) {
	t := strings.ToLower(title)
	d := strings.ToLower(description)
	for _, b := range Brands {
		if strings.Contains(t, b) || strings.Contains(d, b) {
			return capitalize(b), true
		}
	}
	return "", false
}

// InferSize returns the first frame size mentioned in the description.
func InferSize(description string) (string, bool) {
	m := sizePattern.FindStringSubmatch(description)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// InferYear returns the production year. An explicit label in the
// description ("rok produkcji: 2021") wins; otherwise the last bare year
// between model.MinYear and model.MaxYear in title and description is used.
func InferYear(title, description string) (int, bool) {
	if m := yearPattern.FindStringSubmatch(description); m != nil {
		if y, err := strconv.Atoi(m[1]); err == nil {
			return y, true
		}
	}

	all := bareYearPattern.FindAllStringSubmatch(title+" "+description, -1)
	if len(all) == 0 {
		return 0, false
	}
	y, err := strconv.Atoi(all[len(all)-1][1])
	if err != nil || y < model.MinYear || y > model.MaxYear {
		return 0, false
	}
	return y, true
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	r := []rune(strings.ToLower(s))
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
