package model

import (
	"maps"
	"math"
	"strings"
)

// Default values used when a listing page does not expose a field.
const (
	// DefaultTitle is used when no title element is found.
	DefaultTitle = "Brak tytułu"

	// DefaultLocation is used when no location element is found.
	DefaultLocation = "Nieznana"

	// DateLayout is the marketplace-native display format of DateAdded.
	DateLayout = "02.01.2006"
)

// Range of the bare-year fallback used when a listing carries no explicit
// production year label.
const (
	MinYear = 2000
	MaxYear = 2029
)

// Details holds the optional attributes of a listing.
// A nil pointer means the attribute was not found on the page.
type Details struct {
	Brand          *string `json:"brand"`
	Size           *string `json:"size"`
	Year           *int    `json:"year"`
	Description    *string `json:"description"`
	Condition      *string `json:"condition"`
	Color          *string `json:"color"`
	DerailleurType *string `json:"derailleur_type"`
	BrakeType      *string `json:"brake_type"`
	FrameMaterial  *string `json:"frame_material"`
	WheelSize      *string `json:"wheel_size"`
	SellerType     *string `json:"seller_type"`
	BikeType       *string `json:"bike_type"`
	FrameSizeDesc  *string `json:"frame_size_desc"`
	Gears          *string `json:"gears"`
	Weight         *string `json:"weight"`
	Suspension     *string `json:"suspension"`

	// Parameters captures every label/value pair of the structured
	// attribute block, including labels that have no dedicated field.
	Parameters map[string]string `json:"parameters"`
}

// Listing is one bicycle advertisement.
// URL identifies the listing inside a Collection.
type Listing struct {
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	Location  string  `json:"location"`
	DateAdded string  `json:"date_added"`
	URL       string  `json:"url"`

	Details
}

// ListingInput carries the values for NewListing.
type ListingInput struct {
	Title     string
	Price     float64
	Location  string
	DateAdded string
	URL       string
	Details   Details
}

// NewListing builds a Listing and checks its mandatory attributes.
// It returns a *ValidationError when one of them is missing or out of range.
func NewListing(in ListingInput) (*Listing, error) {
	l := &Listing{
		Title:     strings.TrimSpace(in.Title),
		Price:     in.Price,
		Location:  strings.TrimSpace(in.Location),
		DateAdded: strings.TrimSpace(in.DateAdded),
		URL:       strings.TrimSpace(in.URL),
		Details:   in.Details.clone(),
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

// Validate checks the mandatory attributes of the listing.
func (l *Listing) Validate() error {
	switch {
	case l.URL == "":
		return &ValidationError{Field: "url", Reason: "is required"}
	case l.Title == "":
		return &ValidationError{Field: "title", Reason: "is required"}
	case l.Location == "":
		return &ValidationError{Field: "location", Reason: "is required"}
	case l.DateAdded == "":
		return &ValidationError{Field: "date_added", Reason: "is required"}
	case math.IsNaN(l.Price) || math.IsInf(l.Price, 0):
		return &ValidationError{Field: "price", Reason: "must be a finite number"}
	case l.Price < 0:
		return &ValidationError{Field: "price", Reason: "must not be negative"}
	}
	return nil
}

// Clone returns a deep copy of the listing.
func (l *Listing) Clone() Listing {
	c := *l
	c.Details = l.Details.clone()
	return c
}

// ParameterValue returns the attribute block value stored under label.
func (l *Listing) ParameterValue(label string) (string, bool) {
	v, ok := l.Parameters[label]
	return v, ok
}

// DescriptionText returns the description or an empty string.
func (l *Listing) DescriptionText() string {
	if l.Description == nil {
		return ""
	}
	return *l.Description
}

// CategoricalFields lists the JSON names of the optional text attributes
// in the order used by statistics and tabular output.
var CategoricalFields = []string{
	"brand",
	"size",
	"condition",
	"color",
	"derailleur_type",
	"brake_type",
	"frame_material",
	"wheel_size",
	"seller_type",
	"bike_type",
	"frame_size_desc",
	"gears",
	"weight",
	"suspension",
}

// Attribute returns an optional text attribute by its JSON name.
// The boolean is false when the attribute is absent or unknown.
func (l *Listing) Attribute(name string) (string, bool) {
	p := l.attributePtr(name)
	if p == nil || *p == nil {
		return "", false
	}
	return **p, true
}

// SetAttribute sets an optional text attribute by its JSON name.
// It reports false when the name is not a known attribute.
func (l *Listing) SetAttribute(name, value string) bool {
	p := l.attributePtr(name)
	if p == nil {
		return false
	}
	*p = StringPtr(value)
	return true
}

func (l *Listing) attributePtr(name string) **string {
	switch name {
	case "brand":
		return &l.Brand
	case "size":
		return &l.Size
	case "description":
		return &l.Description
	case "condition":
		return &l.Condition
	case "color":
		return &l.Color
	case "derailleur_type":
		return &l.DerailleurType
	case "brake_type":
		return &l.BrakeType
	case "frame_material":
		return &l.FrameMaterial
	case "wheel_size":
		return &l.WheelSize
	case "seller_type":
		return &l.SellerType
	case "bike_type":
		return &l.BikeType
	case "frame_size_desc":
		return &l.FrameSizeDesc
	case "gears":
		return &l.Gears
	case "weight":
		return &l.Weight
	case "suspension":
		return &l.Suspension
	default:
		return nil
	}
}

func (d Details) clone() Details {
	c := d
	c.Brand = copyString(d.Brand)
	c.Size = copyString(d.Size)
	c.Description = copyString(d.Description)
	c.Condition = copyString(d.Condition)
	c.Color = copyString(d.Color)
	c.DerailleurType = copyString(d.DerailleurType)
	c.BrakeType = copyString(d.BrakeType)
	c.FrameMaterial = copyString(d.FrameMaterial)
	c.WheelSize = copyString(d.WheelSize)
	c.SellerType = copyString(d.SellerType)
	c.BikeType = copyString(d.BikeType)
	c.FrameSizeDesc = copyString(d.FrameSizeDesc)
	c.Gears = copyString(d.Gears)
	c.Weight = copyString(d.Weight)
	c.Suspension = copyString(d.Suspension)
	if d.Year != nil {
		y := *d.Year
		c.Year = &y
	}
	if d.Parameters != nil {
		c.Parameters = maps.Clone(d.Parameters)
	}
	return c
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// IntPtr returns a pointer to i.
func IntPtr(i int) *int {
	return &i
}
