package config

import "errors"

// Errors returned while loading a config file. Loaders wrap them with the
// file path or the offending value.
var (
	ErrConfigNotFound    = errors.New("config file not found")
	ErrInvalidFormat     = errors.New("config file cannot be parsed")
	ErrUnsupportedFormat = errors.New("config format not supported, use .yaml, .yml or .json")
	ErrValidationFailed  = errors.New("config is invalid")
	ErrMissingEnvVar     = errors.New("environment variable not set")
)
