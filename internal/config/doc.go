// Package config provides configuration structures and utilities for gravelscan.
// It defines the options for harvesting listings, storing results, talking to
// the enrichment model and serving the HTTP API.
package config
