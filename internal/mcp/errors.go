package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/chronos/internal/domain/activity"
	"github.com/rpggio/chronos/internal/domain/configuration"
	"github.com/rpggio/chronos/internal/domain/record"
	"github.com/rpggio/chronos/internal/domain/timeline"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) CodeValue() string {
	return e.Code
}

func (e *APIError) MessageValue() string {
	return e.Message
}

func (e *APIError) RecoveryHintValue() string {
	return e.RecoveryHint
}

// Codes that are not tied to a domain error.
const (
	CodeMethodNotFound = "METHOD_NOT_FOUND"
	CodeInvalidParams  = "INVALID_PARAMS"
	CodeInternal       = "INTERNAL_ERROR"
)

// MapError maps domain errors to API error codes. The message keeps the
// full error text so callers see which field or record failed.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	mk := func(code, hint string) *APIError {
		return &APIError{Code: code, Message: err.Error(), RecoveryHint: hint}
	}
	switch {
	case errors.Is(err, timeline.ErrConfigurationNotFound):
		return mk("CONFIGURATION_NOT_FOUND", "Call get_timeline_configurations for valid names")
	case errors.Is(err, timeline.ErrConfigurationInactive):
		return mk("CONFIGURATION_INACTIVE", "Activate the configuration or pick another")
	case errors.Is(err, configuration.ErrAmbiguousConfiguration):
		return mk("AMBIGUOUS_CONFIGURATION", "Pass config_name explicitly")
	case errors.Is(err, timeline.ErrInvalidDateFormat):
		return mk("INVALID_DATE_FORMAT", "Use YYYY-MM-DD or YYYY-MM-DD HH:MM:SS")
	case errors.Is(err, timeline.ErrNotFound):
		return mk("NOT_FOUND", "Check the block id and collection")
	case errors.Is(err, timeline.ErrReferentialIntegrity):
		return mk("REFERENTIAL_INTEGRITY", "Reference an existing row")
	case errors.Is(err, timeline.ErrPersistence):
		return mk("PERSISTENCE_ERROR", "")
	case errors.Is(err, timeline.ErrMalformedFilter):
		return mk("MALFORMED_FILTER", "Pass filters as {field: value} or {field: [operator, value]}")
	case errors.Is(err, timeline.ErrInvertedRange):
		return mk("INVERTED_RANGE", "The end must not precede the start")
	case errors.Is(err, timeline.ErrInvalidInput),
		errors.Is(err, configuration.ErrInvalidInput),
		errors.Is(err, activity.ErrInvalidInput),
		errors.Is(err, record.ErrInvalidFieldName):
		return mk("INVALID_INPUT", "")
	default:
		return nil
	}
}

// failure builds the error envelope for err.
func failure(err error) Envelope {
	apiErr := MapError(err)
	if apiErr == nil {
		apiErr = &APIError{Code: CodeInternal, Message: err.Error()}
	}
	return Envelope{
		Success:      false,
		Error:        apiErr.Message,
		Code:         apiErr.Code,
		RecoveryHint: apiErr.RecoveryHint,
	}
}

func invalidParams(err error) Envelope {
	return Envelope{Success: false, Error: fmt.Sprintf("invalid params: %v", err), Code: CodeInvalidParams}
}
