// Package stats summarizes listing collections: price and attribute
// statistics, the attribute-block parameter summary, statistics over
// enriched listings, and differences between two collections.
package stats
