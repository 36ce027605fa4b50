package model

import (
	"errors"
	"math"
	"testing"
)

func validInput() ListingInput {
	return ListingInput{
		Title:     "Rower gravel Kross Esker 4.0",
		Price:     3500,
		Location:  "Kraków",
		DateAdded: "12.03.2024",
		URL:       "https://www.olx.pl/d/oferta/kross-esker-CID767-ID1.html",
		Details: Details{
			Brand:      StringPtr("Kross"),
			Year:       IntPtr(2021),
			Parameters: map[string]string{"Stan": "Używane"},
		},
	}
}

// TestNewListing tests the validating constructor.
func TestNewListing(t *testing.T) {
	t.Parallel()

	t.Run("valid input builds a listing", func(t *testing.T) {
		t.Parallel()

		l, err := NewListing(validInput())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if l.Title != "Rower gravel Kross Esker 4.0" {
			t.Errorf("unexpected title %q", l.Title)
		}
		if l.Brand == nil || *l.Brand != "Kross" {
			t.Errorf("expected brand Kross, got %v", l.Brand)
		}
	})

	t.Run("zero price is allowed", func(t *testing.T) {
		t.Parallel()

		in := validInput()
		in.Price = 0
		if _, err := NewListing(in); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	tests := []struct {
		name   string
		mutate func(in *ListingInput)
		field  string
	}{
		{"missing url", func(in *ListingInput) { in.URL = "  " }, "url"},
		{"missing title", func(in *ListingInput) { in.Title = "" }, "title"},
		{"missing location", func(in *ListingInput) { in.Location = "" }, "location"},
		{"missing date", func(in *ListingInput) { in.DateAdded = "" }, "date_added"},
		{"negative price", func(in *ListingInput) { in.Price = -1 }, "price"},
		{"NaN price", func(in *ListingInput) { in.Price = math.NaN() }, "price"},
	}

	for _, tt := range tests {
		t.Run(tt.name+" returns ValidationError", func(t *testing.T) {
			t.Parallel()

			in := validInput()
			tt.mutate(&in)

			_, err := NewListing(in)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if verr.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, verr.Field)
			}
		})
	}

	t.Run("input details are copied", func(t *testing.T) {
		t.Parallel()

		in := validInput()
		l, err := NewListing(in)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		in.Details.Parameters["Stan"] = "Nowe"
		*in.Details.Brand = "Trek"

		if l.Parameters["Stan"] != "Używane" {
			t.Errorf("parameters share memory with the input")
		}
		if *l.Brand != "Kross" {
			t.Errorf("brand shares memory with the input")
		}
	})
}

// TestListingClone tests that clones are independent.
func TestListingClone(t *testing.T) {
	t.Parallel()

	l, err := NewListing(validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c := l.Clone()
	c.Parameters["Kolor"] = "Czarny"
	*c.Year = 2010

	if _, ok := l.Parameters["Kolor"]; ok {
		t.Error("clone parameters leaked into original")
	}
	if *l.Year != 2021 {
		t.Errorf("clone year leaked into original: %d", *l.Year)
	}
}

// TestListingAttribute tests attribute access by JSON name.
func TestListingAttribute(t *testing.T) {
	t.Parallel()

	l, err := NewListing(validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if v, ok := l.Attribute("brand"); !ok || v != "Kross" {
		t.Errorf("expected brand Kross, got %q (%v)", v, ok)
	}
	if _, ok := l.Attribute("color"); ok {
		t.Error("expected color to be absent")
	}
	if _, ok := l.Attribute("unknown"); ok {
		t.Error("expected unknown attribute to be absent")
	}
	if !l.SetAttribute("color", "Zielony") {
		t.Fatal("expected color to be settable")
	}
	if v, _ := l.Attribute("color"); v != "Zielony" {
		t.Errorf("expected color Zielony, got %q", v)
	}
	if l.SetAttribute("unknown", "x") {
		t.Error("expected unknown attribute to be rejected")
	}
}

// TestParseError tests the error message and unwrapping.
func TestParseError(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	err := &ParseError{URL: "https://www.olx.pl/d/oferta/x", Err: cause}

	if !errors.Is(err, cause) {
		t.Error("expected ParseError to unwrap to its cause")
	}
	if err.Error() == "" {
		t.Error("expected non-empty message")
	}
}
