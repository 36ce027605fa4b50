// Package main provides the entry point for the gravelscan CLI.
//
// gravelscan harvests gravel bicycle listings from the OLX marketplace,
// stores them as CSV and JSON, computes market statistics and can enrich
// listings with a local language model.
//
// Usage:
//
//	gravelscan scrape
//	gravelscan scrape -q gravel -q "rower gravel" -p 3
//	gravelscan serve
//
// See --help for all available options.
package main

func main() {
	Execute()
}
