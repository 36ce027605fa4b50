// Package harvest collects listings for a search query.
//
// A Harvester walks the search result pages of a query one after another,
// pools the listing URLs it finds, and then fetches and extracts the
// listings concurrently under a fixed limit. A listing that cannot be
// fetched or extracted is dropped and logged; it never aborts the batch.
package harvest
