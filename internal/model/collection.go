package model

// Collection is an ordered set of listings keyed by URL.
// The first listing added for a URL wins; later duplicates are ignored.
//
// A Collection is owned by a single run and is not safe for concurrent use.
type Collection struct {
	listings []Listing
	index    map[string]int
}

// NewCollection creates a Collection holding the given listings in order,
// dropping URL duplicates.
func NewCollection(listings ...Listing) *Collection {
	c := &Collection{
		listings: make([]Listing, 0, len(listings)),
		index:    make(map[string]int, len(listings)),
	}
	for i := range listings {
		c.Add(listings[i])
	}
	return c
}

// Add appends a copy of l unless a listing with the same URL is present.
// It reports whether the listing was added.
func (c *Collection) Add(l Listing) bool {
	if c.index == nil {
		c.index = make(map[string]int)
	}
	if _, ok := c.index[l.URL]; ok {
		return false
	}
	c.index[l.URL] = len(c.listings)
	c.listings = append(c.listings, l.Clone())
	return true
}

// Merge appends every listing of other whose URL is not yet present
// and returns the number of listings added.
func (c *Collection) Merge(other *Collection) int {
	if other == nil {
		return 0
	}
	added := 0
	for i := range other.listings {
		if c.Add(other.listings[i]) {
			added++
		}
	}
	return added
}

// Len returns the number of listings.
func (c *Collection) Len() int {
	return len(c.listings)
}

// Contains reports whether a listing with the given URL is present.
func (c *Collection) Contains(url string) bool {
	_, ok := c.index[url]
	return ok
}

// Get returns a copy of the listing stored under url.
func (c *Collection) Get(url string) (Listing, bool) {
	i, ok := c.index[url]
	if !ok {
		return Listing{}, false
	}
	return c.listings[i].Clone(), true
}

// Listings returns copies of the listings in insertion order.
func (c *Collection) Listings() []Listing {
	out := make([]Listing, len(c.listings))
	for i := range c.listings {
		out[i] = c.listings[i].Clone()
	}
	return out
}

// URLs returns the listing URLs in insertion order.
func (c *Collection) URLs() []string {
	out := make([]string, len(c.listings))
	for i := range c.listings {
		out[i] = c.listings[i].URL
	}
	return out
}

// Each calls fn for every listing in insertion order until fn returns false.
// The listing passed to fn must not be retained or modified.
func (c *Collection) Each(fn func(l *Listing) bool) {
	for i := range c.listings {
		if !fn(&c.listings[i]) {
			return
		}
	}
}
