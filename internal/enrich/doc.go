// Package enrich attaches model-generated analysis to listings.
//
// A Client talks to an Ollama server. An Analyzer wraps the client with a
// result cache and exposes the three analysis stages (description parsing,
// categorization and value assessment). An Enricher runs the stages over a
// set of listings and reports progress.
package enrich
