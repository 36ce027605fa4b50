package model

import "fmt"

// ValidationError reports a listing that is missing a mandatory attribute
// or carries a value outside its allowed range.
type ValidationError struct {
	// Field is the JSON name of the offending attribute.
	Field string

	// Reason describes what is wrong with the value.
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid listing: %s %s", e.Field, e.Reason)
}

// ParseError reports listing markup that could not be read as a document at all.
// Missing fields are never a ParseError.
type ParseError struct {
	// URL is the source address of the markup.
	URL string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("unreadable listing markup: %s", e.URL)
	}
	return fmt.Sprintf("unreadable listing markup: %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error {
	return e.Err
}
