package model

import (
	"fmt"
	"testing"
)

func listingFor(url, title string) Listing {
	return Listing{
		Title:     title,
		Price:     1000,
		Location:  "Warszawa",
		DateAdded: "01.05.2024",
		URL:       url,
	}
}

// TestCollectionAdd tests URL deduplication on insert.
func TestCollectionAdd(t *testing.T) {
	t.Parallel()

	c := NewCollection()
	if !c.Add(listingFor("u1", "first")) {
		t.Fatal("expected first insert to succeed")
	}
	if c.Add(listingFor("u1", "second")) {
		t.Error("expected duplicate URL to be rejected")
	}

	got, ok := c.Get("u1")
	if !ok {
		t.Fatal("expected listing u1")
	}
	if got.Title != "first" {
		t.Errorf("expected first-seen listing to win, got %q", got.Title)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 listing, got %d", c.Len())
	}
}

// TestCollectionMerge tests merging with overlapping URLs.
func TestCollectionMerge(t *testing.T) {
	t.Parallel()

	a := NewCollection(listingFor("u1", "a1"), listingFor("u2", "a2"))
	b := NewCollection(listingFor("u2", "b2"), listingFor("u3", "b3"))

	added := a.Merge(b)
	if added != 1 {
		t.Errorf("expected 1 added, got %d", added)
	}

	urls := a.URLs()
	want := []string{"u1", "u2", "u3"}
	if fmt.Sprint(urls) != fmt.Sprint(want) {
		t.Errorf("expected %v, got %v", want, urls)
	}

	got, _ := a.Get("u2")
	if got.Title != "a2" {
		t.Errorf("expected record from the first collection, got %q", got.Title)
	}

	if a.Merge(nil) != 0 {
		t.Error("merging nil should add nothing")
	}
}

// TestCollectionListingsAreCopies tests that callers cannot mutate the collection.
func TestCollectionListingsAreCopies(t *testing.T) {
	t.Parallel()

	l := listingFor("u1", "t")
	l.Parameters = map[string]string{"Stan": "Nowe"}
	c := NewCollection(l)

	out := c.Listings()
	out[0].Parameters["Stan"] = "Używane"
	out[0].Title = "changed"

	got, _ := c.Get("u1")
	if got.Title != "t" || got.Parameters["Stan"] != "Nowe" {
		t.Errorf("collection was mutated through Listings(): %+v", got)
	}
}

// TestCollectionZeroValue tests that the zero value is usable.
func TestCollectionZeroValue(t *testing.T) {
	t.Parallel()

	var c Collection
	if !c.Add(listingFor("u1", "t")) {
		t.Fatal("expected insert into zero-value collection")
	}
	if !c.Contains("u1") {
		t.Error("expected u1 to be present")
	}
}
