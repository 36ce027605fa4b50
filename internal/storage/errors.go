package storage

import "errors"

var (
	// ErrUnsupportedFormat is returned for a file extension other than
	// .csv or .json.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrMalformedRow is returned when a CSV row cannot be turned into a
	// listing.
	ErrMalformedRow = errors.New("malformed CSV row")

	// ErrRunNotFound is returned when the history has no matching run.
	ErrRunNotFound = errors.New("run not found")
)
