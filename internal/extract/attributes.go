package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Attribute block selectors.
var (
	AttributeContainerSelectors = []string{
		`div[data-testid="ad-parameters-container"]`,
		`div.css-41yf00`,
	}
	AttributeRowSelector = `div.css-ae1s7g`
)

// Seller type values and the parameter label they are stored under.
const (
	SellerPrivate     = "Prywatne"
	SellerBusiness    = "Firmowe"
	SellerTypeLabel   = "Typ sprzedawcy"
	flagParameterText = "Tak"
)

// attributeFields maps folded attribute labels to listing attribute names.
// "marka" and "rozmiar ramy" are handled separately.
var attributeFields = map[string]string{
	"stan":              "condition",
	"kolor":             "color",
	"rodzaj przerzutki": "derailleur_type",
	"typ hamulca":       "brake_type",
	"materiał ramy":     "frame_material",
	"rozmiar koła":      "wheel_size",
	"waga":              "weight",
	"amortyzacja":       "suspension",
	"liczba biegów":     "gears",
	"przerzutki":        "gears",
	"typ roweru":        "bike_type",
}

const (
	brandLabel     = "marka"
	frameSizeLabel = "rozmiar ramy"
)

// attributeBlock is the parsed attribute block of a listing page.
type attributeBlock struct {
	// parameters holds every row verbatim under its label.
	parameters map[string]string
	// fields holds values for named listing attributes.
	fields map[string]string
	// brand is the "marka" value, which overrides the inferred brand.
	brand string
	// frameSize is the "rozmiar ramy" value.
	frameSize string
}

// extractAttributes reads the attribute block. It returns nil when the page
// has no block.
func extractAttributes(doc *goquery.Document) *attributeBlock {
	container := findContainer(doc)
	if container == nil {
		return nil
	}

	block := &attributeBlock{
		parameters: make(map[string]string),
		fields:     make(map[string]string),
	}
	for _, text := range rowTexts(container) {
		block.addRow(text)
	}
	return block
}

func findContainer(doc *goquery.Document) *goquery.Selection {
	for _, css := range AttributeContainerSelectors {
		if s := doc.Find(css).First(); s.Length() > 0 {
			return s
		}
	}
	return nil
}

// rowTexts returns the text of each attribute row. Rows are div.css-ae1s7g
// elements read through their first paragraph; containers without such
// rows fall back to direct paragraph children and then to list items.
func rowTexts(container *goquery.Selection) []string {
	var out []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}

	if rows := container.Find(AttributeRowSelector); rows.Length() > 0 {
		rows.Each(func(_ int, row *goquery.Selection) {
			if p := row.Find("p").First(); p.Length() > 0 {
				add(p.Text())
			}
		})
		return out
	}

	if ps := container.ChildrenFiltered("p"); ps.Length() > 0 {
		ps.Each(func(_ int, p *goquery.Selection) { add(p.Text()) })
		return out
	}

	container.Find("li").Each(func(_ int, li *goquery.Selection) {
		if p := li.Find("p").First(); p.Length() > 0 {
			add(p.Text())
			return
		}
		add(li.Text())
	})
	return out
}

func (b *attributeBlock) addRow(text string) {
	label, value, ok := strings.Cut(text, ":")
	if !ok {
		b.addFlag(text)
		return
	}

	label = strings.TrimSpace(label)
	value = strings.TrimSpace(value)
	b.parameters[label] = value

	switch key := foldLabel(label); key {
	case brandLabel:
		b.brand = value
	case frameSizeLabel:
		b.frameSize = value
		b.fields["frame_size_desc"] = value
	default:
		if field, known := attributeFields[key]; known {
			b.fields[field] = value
		}
	}
}

// addFlag handles rows without a label such as "Prywatne".
func (b *attributeBlock) addFlag(text string) {
	switch {
	case containsFold(text, SellerPrivate):
		b.fields["seller_type"] = SellerPrivate
		b.parameters[SellerTypeLabel] = SellerPrivate
	case containsFold(text, SellerBusiness):
		b.fields["seller_type"] = SellerBusiness
		b.parameters[SellerTypeLabel] = SellerBusiness
	default:
		b.parameters[text] = flagParameterText
	}
}
