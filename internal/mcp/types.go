package mcp

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/rpggio/chronos/internal/domain/activity"
	"github.com/rpggio/chronos/internal/domain/configuration"
	"github.com/rpggio/chronos/internal/domain/record"
	"github.com/rpggio/chronos/internal/domain/timeline"
)

type GetTimelineDataParams struct {
	ConfigurationName string          `json:"configuration_name"`
	StartDate         string          `json:"start_date,omitempty"`
	EndDate           string          `json:"end_date,omitempty"`
	Filters           json.RawMessage `json:"filters,omitempty"`
}

type UpdateBlockAssignmentParams struct {
	BlockCollection string `json:"block_collection"`
	BlockID         string `json:"block_id"`
	NewRowID        string `json:"new_row_id,omitempty"`
	NewDate         string `json:"new_date,omitempty"`
	NewDatetime     string `json:"new_datetime,omitempty"`
	ConfigName      string `json:"config_name,omitempty"`
}

type UpdateBlockDateRangeParams struct {
	BlockCollection string     `json:"block_collection"`
	BlockID         string     `json:"block_id"`
	NewStartDate    string     `json:"new_start_date,omitempty"`
	NewEndDate      string     `json:"new_end_date,omitempty"`
	NewDuration     *flexFloat `json:"new_duration,omitempty"`
	ConfigName      string     `json:"config_name,omitempty"`
	Direction       string     `json:"direction,omitempty"`
}

type CreateDynamicBlockParams struct {
	ConfigurationName string          `json:"configuration_name"`
	BlockData         json.RawMessage `json:"block_data"`
}

type GetFieldMetadataParams struct {
	ConfigurationName string `json:"configuration_name"`
}

type ExportTimelineParams struct {
	ConfigurationName string          `json:"configuration_name"`
	StartDate         string          `json:"start_date,omitempty"`
	EndDate           string          `json:"end_date,omitempty"`
	Filters           json.RawMessage `json:"filters,omitempty"`
}

type GetRecentActivityParams struct {
	ConfigurationName string `json:"configuration_name,omitempty"`
	BlockCollection   string `json:"block_collection,omitempty"`
	RecordID          string `json:"record_id,omitempty"`
	Type              string `json:"type,omitempty"`
	Limit             int    `json:"limit,omitempty"`
	Offset            int    `json:"offset,omitempty"`
}

// flexFloat accepts a JSON number or a numeric string.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexFloat(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("expected a number: %s", data)
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("expected a number: %q", s)
	}
	*f = flexFloat(n)
	return nil
}

// Envelope carries the outcome of every operation. Success false is the
// only failure signal callers need to check.
type Envelope struct {
	Success      bool   `json:"success"`
	Error        string `json:"error,omitempty"`
	Code         string `json:"code,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e Envelope) succeeded() bool { return e.Success }

type outcome interface {
	succeeded() bool
}

// ConfigResponse echoes a configuration with its role assignments.
type ConfigResponse struct {
	*configuration.Configuration
	FieldMappings map[string]string `json:"field_mappings"`
}

func newConfigResponse(cfg *configuration.Configuration) *ConfigResponse {
	if cfg == nil {
		return nil
	}
	return &ConfigResponse{Configuration: cfg, FieldMappings: cfg.FieldMappings()}
}

type DateRange struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type TimelineDataResponse struct {
	Envelope
	Config    *ConfigResponse      `json:"config"`
	Rows      []timeline.RowView   `json:"rows"`
	Blocks    []timeline.BlockView `json:"blocks"`
	DateRange *DateRange           `json:"date_range,omitempty"`
	Warnings  []string             `json:"warnings,omitempty"`
}

type UpdateBlockAssignmentResponse struct {
	Envelope
	Message          string         `json:"message"`
	Block            *record.Record `json:"block"`
	OldRowAssignment *string        `json:"old_row_assignment"`
	NewRowAssignment *string        `json:"new_row_assignment"`
	OldDate          *string        `json:"old_date"`
	NewDate          *string        `json:"new_date"`
	OldEndDate       *string        `json:"old_end_date,omitempty"`
	NewEndDate       *string        `json:"new_end_date,omitempty"`
}

type UpdateBlockDateRangeResponse struct {
	Envelope
	Message      string         `json:"message"`
	Block        *record.Record `json:"block"`
	OldStartDate *string        `json:"old_start_date"`
	NewStartDate *string        `json:"new_start_date"`
	OldEndDate   *string        `json:"old_end_date"`
	NewEndDate   *string        `json:"new_end_date"`
	OldDuration  any            `json:"old_duration"`
	NewDuration  any            `json:"new_duration"`
}

type ConfigurationsResponse struct {
	Envelope
	Configurations []configuration.Summary `json:"configurations"`
}

type CreateDynamicBlockResponse struct {
	Envelope
	Message string         `json:"message"`
	Block   *record.Record `json:"block"`
}

type FieldMetadataResponse struct {
	Envelope
	Config        *ConfigResponse                `json:"config"`
	FieldMetadata map[string]timeline.FieldInfo `json:"field_metadata"`
	RowFields     map[string]timeline.FieldInfo `json:"row_fields"`
	BlockFields   map[string]timeline.FieldInfo `json:"block_fields"`
}

type SampleConfigurationResponse struct {
	Envelope
	Message string          `json:"message"`
	Created bool            `json:"created"`
	Config  *ConfigResponse `json:"config"`
}

type ExportTimelineResponse struct {
	Envelope
	ContentType string `json:"content_type"`
	Calendar    string `json:"calendar"`
}

type RecentActivityResponse struct {
	Envelope
	Activity []activity.ActivityEntry `json:"activity"`
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
