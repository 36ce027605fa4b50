// Package storage persists listing collections.
//
// Collections are written to CSV and JSON files, every scrape run is kept in
// a SQLite history database, and listings can additionally be pushed to
// PostgreSQL or MongoDB through the Sink interface.
package storage
