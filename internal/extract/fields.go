package extract

import (
	"time"

	"github.com/nao1215/gravelscan/internal/model"
)

// Field selector cascades, most specific first.
var (
	TitleSelectors = texts(
		`h1[data-cy="ad_title"]`,
		`h1.css-1soizd2`,
		`h1[data-testid="ad-title"]`,
		`h1[data-testid="heading"]`,
		`h1.css-1gnqkte`,
		`title`,
	)

	PriceSelectors = texts(
		`div[data-testid="ad-price-container"] h3`,
		`h3[data-testid="ad-price-container"]`,
		`h3.css-okktvh-Text`,
	)

	LocationDateSelectors = texts(
		`p[data-testid="location-date"]`,
		`p.css-vbz67q`,
		`p.css-b5m1rv`,
		`p[data-cy="location-date"]`,
	)

	DescriptionSelectors = texts(
		`div[data-cy="ad_description"]`,
		`div.css-g5mtbi-Text`,
		`div[data-testid="description"]`,
	)
)

// Clock supplies the current time for the default date.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Extractor builds listing records from listing pages.
// It holds no mutable state and is safe for concurrent use.
type Extractor struct {
	clock Clock
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithClock sets the clock used for the default date_added.
func WithClock(c Clock) Option {
	return func(e *Extractor) {
		if c != nil {
			e.clock = c
		}
	}
}

// NewExtractor creates an Extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{clock: systemClock{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractFields extracts a listing with the system clock.
func ExtractFields(markup, sourceURL string) (*model.Listing, error) {
	return NewExtractor().ExtractFields(markup, sourceURL)
}

// ExtractFields builds a listing from a listing page.
//
// Missing fields take their defaults and never cause an error. The error is
// a *model.ParseError when the markup cannot be read at all, or a
// *model.ValidationError when the resulting record is invalid.
func (e *Extractor) ExtractFields(markup, sourceURL string) (*model.Listing, error) {
	doc, err := parseDocument(markup, sourceURL)
	if err != nil {
		return nil, err
	}

	title, ok := First(doc, TitleSelectors)
	if !ok {
		title = model.DefaultTitle
	}

	var price float64
	if text, ok := First(doc, PriceSelectors); ok {
		price = ParsePrice(text)
	}

	today := e.clock.Now().Format(model.DateLayout)
	location, date := model.DefaultLocation, today
	if text, ok := First(doc, LocationDateSelectors); ok {
		location, date = SplitLocationDate(text, today)
	}

	description, _ := First(doc, DescriptionSelectors)

	in := model.ListingInput{
		Title:     title,
		Price:     price,
		Location:  location,
		DateAdded: date,
		URL:       sourceURL,
		Details:   model.Details{Description: model.StringPtr(description)},
	}

	if brand, ok := InferBrand(title, description); ok {
		in.Details.Brand = model.StringPtr(brand)
	}
	if size, ok := InferSize(description); ok {
		in.Details.Size = model.StringPtr(size)
	}
	if year, ok := InferYear(title, description); ok {
		in.Details.Year = model.IntPtr(year)
	}

	if block := extractAttributes(doc); block != nil {
		applyAttributes(&in.Details, block)
	}

	return model.NewListing(in)
}

// applyAttributes copies the attribute block into details. The "marka" row
// replaces an inferred brand; "rozmiar ramy" only fills Size when the
// description did not mention one.
func applyAttributes(d *model.Details, block *attributeBlock) {
	d.Parameters = block.parameters

	tmp := model.Listing{Details: *d}
	for field, value := range block.fields {
		tmp.SetAttribute(field, value)
	}
	if block.brand != "" {
		tmp.Brand = model.StringPtr(block.brand)
	}
	if block.frameSize != "" && tmp.Size == nil {
		tmp.Size = model.StringPtr(block.frameSize)
	}
	*d = tmp.Details
}
