// Package api serves scraped and enriched listings over HTTP.
//
// The server keeps its data as files in one directory: gravel_bikes.csv
// and gravel_bikes.json hold the last scrape, statistics.json its
// statistics and enriched_bikes.json the last analysis. Enrichment runs
// in the background and its progress is streamed as server-sent events.
package api
