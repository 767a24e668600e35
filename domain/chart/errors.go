package chart

import "errors"

// Domain errors for chart requests.
var (
	// ErrUnknownType indicates a chart type outside the supported set.
	ErrUnknownType = errors.New("unknown chart type")

	// ErrInvalidBinding indicates a role bound to something other than a
	// column name or list of names.
	ErrInvalidBinding = errors.New("invalid column binding")

	// ErrInvalidOptions indicates malformed style options.
	ErrInvalidOptions = errors.New("invalid chart options")

	// ErrOptionsMismatch indicates options built for a different chart type.
	ErrOptionsMismatch = errors.New("options do not match chart type")
)
