package timeline

import (
	"errors"

	"github.com/rpggio/chronos/internal/domain/configuration"
	"github.com/rpggio/chronos/internal/domain/record"
)

var (
	// ErrConfigurationNotFound indicates no configuration has the requested key.
	ErrConfigurationNotFound = configuration.ErrConfigurationNotFound
	// ErrConfigurationInactive indicates the configuration is disabled.
	ErrConfigurationInactive = configuration.ErrConfigurationInactive
	// ErrMalformedFilter indicates a filter payload that could not be parsed.
	ErrMalformedFilter = record.ErrMalformedFilter

	// ErrInvalidDateFormat indicates a value that is not a recognizable date or timestamp.
	ErrInvalidDateFormat = errors.New("invalid date format")
	// ErrNotFound indicates the target block does not exist.
	ErrNotFound = errors.New("block not found")
	// ErrReferentialIntegrity indicates a referenced row does not exist.
	ErrReferentialIntegrity = errors.New("referenced row does not exist")
	// ErrPersistence indicates the record store rejected a write.
	ErrPersistence = errors.New("failed to save block")
	// ErrInvertedRange indicates a mutation that would leave the end before the start.
	ErrInvertedRange = errors.New("end is before start")
	// ErrInvalidInput indicates a request missing required values.
	ErrInvalidInput = errors.New("invalid timeline input")
)
