// Package model defines the data structures shared by the scraping pipeline,
// the persistence layer and the HTTP API.
//
// This package contains the following main types:
//   - Listing: one structured bicycle advertisement
//   - Collection: an ordered, URL-deduplicated set of listings
//   - EnrichedListing: a listing plus the text-analysis result attached to it
//   - ProgressEvent: a progress notification pushed to observers
//
// Listings are built once through NewListing and are treated as values
// afterwards. Code that needs a modified record works on a Clone.
package model
