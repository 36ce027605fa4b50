package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// BaseURL is prefixed to relative listing links.
const BaseURL = "https://www.olx.pl"

// listingPathMarker identifies links to individual listings.
const listingPathMarker = "/oferta/"

// IndexSelectors locate listing links on a search results page, most
// specific first.
var IndexSelectors = []string{
	`a[data-cy="listing-ad-title"]`,
	`a[data-testid="listing-ad-title"]`,
	`a.css-rc5s2u`,
	`div.css-1sw7q4x a`,
	`div[data-cy="l-card"] a`,
	`.css-1bbgabe a`,
	`a[href*="/oferta/"]`,
	`h6 a`,
	`[data-cy="l-card"] a`,
}

var baseURL, _ = url.Parse(BaseURL) //nolint:errcheck // constant URL

// ExtractListingURLs returns the listing URLs found on a search results page
// in document order without duplicates. The first selector in
// IndexSelectors that yields any listing link decides the result; when none
// does, every anchor on the page is considered. Unreadable markup yields an
// empty slice.
func ExtractListingURLs(markup string) []string {
	doc, err := parseDocument(markup, "")
	if err != nil {
		return []string{}
	}

	for _, css := range IndexSelectors {
		if urls := collectLinks(doc.Find(css)); len(urls) > 0 {
			return urls
		}
	}
	return collectLinks(doc.Find("a[href]"))
}

func collectLinks(sel *goquery.Selection) []string {
	urls := []string{}
	seen := make(map[string]struct{})

	sel.Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || !strings.Contains(href, listingPathMarker) {
			return
		}
		abs := absoluteURL(href)
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}
		urls = append(urls, abs)
	})
	return urls
}

// absoluteURL resolves href against BaseURL unless it is already absolute.
func absoluteURL(href string) string {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "http") {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return BaseURL + href
	}
	return baseURL.ResolveReference(ref).String()
}
