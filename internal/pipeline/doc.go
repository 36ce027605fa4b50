// Package pipeline runs scrape queries as a sequence of steps.
//
// Each query gets a QueryRun that flows through the steps of a Pipeline:
// harvesting the listings, saving them per query, keeping a timestamped
// partial copy, and recording the run in the history database. A Runner
// drives one pipeline per query, saves whatever a failed query gathered
// under an error_ prefix, and keeps going with the next query.
package pipeline
