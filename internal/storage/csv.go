package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/gravelscan/internal/model"
)

// csvHeader is the column order of listing CSV files. Optional text
// attributes follow model.CategoricalFields.
var csvHeader = func() []string {
	h := []string{"title", "price", "location", "date_added", "url", "year", "description"}
	h = append(h, model.CategoricalFields...)
	return append(h, "parameters", emptyFieldsColumn)
}()

// emptyFieldsColumn holds a JSON array naming the optional text attributes
// that are present with an empty value. An empty cell of any other
// attribute means the attribute is absent.
const emptyFieldsColumn = "empty_fields"

// WriteCSV writes listings as CSV with a header row. Absent optional
// attributes are empty cells; parameters are stored as a JSON object.
func WriteCSV(w io.Writer, listings []model.Listing) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i := range listings {
		row, err := csvRow(&listings[i])
		if err != nil {
			return err
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRow(l *model.Listing) ([]string, error) {
	row := make([]string, 0, len(csvHeader))
	row = append(row,
		l.Title,
		strconv.FormatFloat(l.Price, 'f', -1, 64),
		l.Location,
		l.DateAdded,
		l.URL,
	)
	if l.Year != nil {
		row = append(row, strconv.Itoa(*l.Year))
	} else {
		row = append(row, "")
	}
	var empty []string
	if l.Description != nil && *l.Description == "" {
		empty = append(empty, "description")
	}
	row = append(row, l.DescriptionText())
	for _, field := range model.CategoricalFields {
		v, ok := l.Attribute(field)
		if ok && v == "" {
			empty = append(empty, field)
		}
		row = append(row, v)
	}

	params := ""
	if len(l.Parameters) > 0 {
		b, err := json.Marshal(l.Parameters)
		if err != nil {
			return nil, fmt.Errorf("failed to encode parameters of %s: %w", l.URL, err)
		}
		params = string(b)
	}
	row = append(row, params)

	if len(empty) == 0 {
		return append(row, ""), nil
	}
	b, err := json.Marshal(empty)
	if err != nil {
		return nil, fmt.Errorf("failed to encode empty fields of %s: %w", l.URL, err)
	}
	return append(row, string(b)), nil
}

// ReadCSV reads listings written by WriteCSV. Columns are matched by header
// name, so files with extra or reordered columns are accepted.
func ReadCSV(r io.Reader) ([]model.Listing, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []model.Listing{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}

	listings := []model.Listing{}
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}
		l, err := listingFromRow(rec, index)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedRow, line, err)
		}
		listings = append(listings, *l)
	}
	return listings, nil
}

func listingFromRow(rec []string, index map[string]int) (*model.Listing, error) {
	cell := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	in := model.ListingInput{
		Title:     cell("title"),
		Location:  cell("location"),
		DateAdded: cell("date_added"),
		URL:       cell("url"),
	}
	if p := cell("price"); p != "" {
		price, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("price %q: %w", p, err)
		}
		in.Price = price
	}
	if y := cell("year"); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			return nil, fmt.Errorf("year %q: %w", y, err)
		}
		in.Details.Year = model.IntPtr(year)
	}
	// Files without the empty fields column predate it; there an existing
	// description column always yields a description.
	_, strict := index[emptyFieldsColumn]
	empty := map[string]bool{}
	if e := cell(emptyFieldsColumn); e != "" {
		var names []string
		if err := json.Unmarshal([]byte(e), &names); err != nil {
			return nil, fmt.Errorf("%s: %w", emptyFieldsColumn, err)
		}
		for _, name := range names {
			empty[name] = true
		}
	}

	if _, ok := index["description"]; ok {
		if d := cell("description"); d != "" || empty["description"] || !strict {
			in.Details.Description = model.StringPtr(d)
		}
	}
	if p := cell("parameters"); p != "" {
		if err := json.Unmarshal([]byte(p), &in.Details.Parameters); err != nil {
			return nil, fmt.Errorf("parameters: %w", err)
		}
	}

	l, err := model.NewListing(in)
	if err != nil {
		return nil, err
	}
	for _, field := range model.CategoricalFields {
		if v := cell(field); v != "" || empty[field] {
			l.SetAttribute(field, v)
		}
	}
	return l, nil
}
