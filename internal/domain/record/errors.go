package record

import "errors"

var (
	// ErrMalformedFilter indicates a filter payload that could not be parsed.
	ErrMalformedFilter = errors.New("malformed filter input")
	// ErrInvalidFieldName indicates a field identifier outside [A-Za-z_][A-Za-z0-9_]*.
	ErrInvalidFieldName = errors.New("invalid field name")
)
