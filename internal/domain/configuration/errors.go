package configuration

import "errors"

var (
	// ErrConfigurationNotFound indicates no configuration has the requested key.
	ErrConfigurationNotFound = errors.New("timeline configuration not found")
	// ErrConfigurationInactive indicates the configuration exists but is disabled.
	ErrConfigurationInactive = errors.New("timeline configuration is not active")
	// ErrAmbiguousConfiguration indicates several active configurations target the same block collection.
	ErrAmbiguousConfiguration = errors.New("several active timeline configurations match")
	// ErrInvalidInput indicates an invalid configuration or seed.
	ErrInvalidInput = errors.New("invalid configuration input")
)
