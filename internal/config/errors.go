package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoQuery is returned when no search query is configured.
	ErrNoQuery = errors.New("no query specified: provide a query argument or set queries in the config file")

	// ErrEmptyQuery is returned when one of the queries is an empty string.
	ErrEmptyQuery = errors.New("invalid query: must not be empty")

	// ErrInvalidMaxPages is returned when the page count is not positive.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be positive")

	// ErrInvalidConcurrency is returned when the concurrency limit is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidTimeout is returned when the fetch timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrConflictingTransports is returned when both --tor and --proxy are set.
	ErrConflictingTransports = errors.New("conflicting transports: --tor and --proxy cannot be used together")

	// ErrRenderWithProxy is returned when the headless renderer is combined
	// with a proxy transport.
	ErrRenderWithProxy = errors.New("conflicting transports: --render cannot be combined with --tor or --proxy")

	// ErrNoOutputDir is returned when the output directory is empty.
	ErrNoOutputDir = errors.New("no output directory specified")

	// ErrInvalidOllamaTimeout is returned when the enrichment timeout is not positive.
	ErrInvalidOllamaTimeout = errors.New("invalid ollama timeout: must be positive")
)

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")
