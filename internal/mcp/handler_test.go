package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rpggio/chronos/internal/domain/activity"
	"github.com/rpggio/chronos/internal/domain/configuration"
	"github.com/rpggio/chronos/internal/domain/record"
	"github.com/rpggio/chronos/internal/domain/timeline"
	"github.com/stretchr/testify/require"
)

type timelineStub struct {
	queryFn    func(context.Context, timeline.QueryRequest) (*timeline.QueryResult, error)
	assignFn   func(context.Context, string, timeline.BlockRef, timeline.AssignmentInput) (*timeline.AssignmentResult, error)
	resizeFn   func(context.Context, string, timeline.BlockRef, timeline.ResizeInput) (*timeline.ResizeResult, error)
	listFn     func(context.Context) ([]configuration.Summary, error)
	createFn   func(context.Context, string, string, map[string]any) (*record.Record, error)
	metadataFn func(context.Context, string) (*timeline.FieldMetadata, error)
}

func (s timelineStub) GetTimelineData(ctx context.Context, req timeline.QueryRequest) (*timeline.QueryResult, error) {
	return s.queryFn(ctx, req)
}
func (s timelineStub) UpdateBlockAssignment(ctx context.Context, actor string, ref timeline.BlockRef, in timeline.AssignmentInput) (*timeline.AssignmentResult, error) {
	return s.assignFn(ctx, actor, ref, in)
}
func (s timelineStub) UpdateBlockDateRange(ctx context.Context, actor string, ref timeline.BlockRef, in timeline.ResizeInput) (*timeline.ResizeResult, error) {
	return s.resizeFn(ctx, actor, ref, in)
}
func (s timelineStub) ListConfigurations(ctx context.Context) ([]configuration.Summary, error) {
	return s.listFn(ctx)
}
func (s timelineStub) CreateBlock(ctx context.Context, actor, name string, data map[string]any) (*record.Record, error) {
	return s.createFn(ctx, actor, name, data)
}
func (s timelineStub) FieldMetadata(ctx context.Context, name string) (*timeline.FieldMetadata, error) {
	return s.metadataFn(ctx, name)
}

type configStub struct {
	installFn func(context.Context) (*configuration.Configuration, bool, error)
}

func (c configStub) InstallSample(ctx context.Context) (*configuration.Configuration, bool, error) {
	return c.installFn(ctx)
}

type activityStub struct {
	listFn func(context.Context, activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

func (a activityStub) GetRecentActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	return a.listFn(ctx, opts)
}

var sampleConfig = &configuration.Configuration{
	Name:              "wo",
	ConfigurationName: "Work Orders",
	IsActive:          true,
	RowCollection:     "Workstation",
	BlockCollection:   "Work Order",
	RowToBlockField:   "workstation",
	BlockToDateField:  "planned_start_date",
	DateRangeEndField: "planned_end_date",
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

// roundTrip renders a handler result as the generic JSON a client sees.
func roundTrip(t *testing.T, v any) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(mustJSON(t, v), &out))
	return out
}

func TestHandler_GetTimelineData(t *testing.T) {
	ctx := context.Background()
	var got timeline.QueryRequest
	handler := NewHandler(timelineStub{
		queryFn: func(_ context.Context, req timeline.QueryRequest) (*timeline.QueryResult, error) {
			got = req
			return &timeline.QueryResult{
				Config: sampleConfig,
				Window: timeline.Window{
					Start: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
					End:   time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
				},
				Rows:      []timeline.RowView{{ID: "WS-1", Name: "WS-1", Label: "Lathe"}},
				BlocksErr: errors.New("bad date in WO-9"),
			}, nil
		},
	}, nil, nil, nil)

	result, err := handler.Handle(ctx, "planner", "get_timeline_data", json.RawMessage(`{
		"configuration_name": "wo",
		"start_date": "2024-06-01",
		"end_date": "2024-06-30",
		"filters": "{\"block_filters\": {\"status\": [\"!=\", \"Cancelled\"]}}"
	}`))
	require.NoError(t, err)

	require.Equal(t, "wo", got.ConfigurationName)
	require.Len(t, got.Filters.Block, 1)
	require.Equal(t, record.OpNotEq, got.Filters.Block[0].Op)

	out := roundTrip(t, result)
	require.Equal(t, true, out["success"])
	require.Equal(t, map[string]any{"start_date": "2024-06-01", "end_date": "2024-06-30"}, out["date_range"])
	require.Len(t, out["rows"], 1)
	require.Equal(t, []any{}, out["blocks"])
	require.Len(t, out["warnings"], 1)

	cfg := out["config"].(map[string]any)
	require.Equal(t, "Work Order", cfg["block_doctype"])
	require.Equal(t, "planned_end_date", cfg["field_mappings"].(map[string]any)["date_range_end"])
}

func TestHandler_GetTimelineData_Failure(t *testing.T) {
	ctx := context.Background()
	handler := NewHandler(timelineStub{
		queryFn: func(context.Context, timeline.QueryRequest) (*timeline.QueryResult, error) {
			return nil, fmt.Errorf("loading wo: %w", timeline.ErrConfigurationInactive)
		},
	}, nil, nil, nil)

	result, err := handler.Handle(ctx, "", "get_timeline_data", mustJSON(t, GetTimelineDataParams{ConfigurationName: "wo"}))
	require.NoError(t, err)

	out := roundTrip(t, result)
	require.Equal(t, false, out["success"])
	require.Equal(t, "CONFIGURATION_INACTIVE", out["code"])
	require.Contains(t, out["error"], "not active")
	require.Nil(t, out["config"])
	require.Contains(t, out, "config")
	require.Equal(t, []any{}, out["rows"])
	require.Equal(t, []any{}, out["blocks"])

	t.Run("malformed filters", func(t *testing.T) {
		result, err := handler.Handle(ctx, "", "get_timeline_data", json.RawMessage(`{"configuration_name":"wo","filters":"{not json"}`))
		require.NoError(t, err)
		out := roundTrip(t, result)
		require.Equal(t, false, out["success"])
		require.Equal(t, "MALFORMED_FILTER", out["code"])
	})
}

func TestHandler_UpdateBlockAssignment(t *testing.T) {
	ctx := context.Background()
	block := record.New("Work Order", "WO-1")
	block.Set("workstation", "WS-2")

	var gotActor string
	var gotRef timeline.BlockRef
	var gotIn timeline.AssignmentInput
	handler := NewHandler(timelineStub{
		assignFn: func(_ context.Context, actor string, ref timeline.BlockRef, in timeline.AssignmentInput) (*timeline.AssignmentResult, error) {
			gotActor, gotRef, gotIn = actor, ref, in
			return &timeline.AssignmentResult{Block: block, OldRowID: "WS-1", NewRowID: "WS-2"}, nil
		},
	}, nil, nil, nil)

	result, err := handler.Handle(ctx, "planner", "update_block_assignment", mustJSON(t, UpdateBlockAssignmentParams{
		BlockCollection: "Work Order",
		BlockID:         "WO-1",
		NewRowID:        "WS-2",
		ConfigName:      "wo",
	}))
	require.NoError(t, err)
	require.Equal(t, "planner", gotActor)
	require.Equal(t, timeline.BlockRef{Collection: "Work Order", ID: "WO-1", ConfigurationName: "wo"}, gotRef)
	require.Equal(t, "WS-2", gotIn.NewRowID)

	out := roundTrip(t, result)
	require.Equal(t, true, out["success"])
	require.Equal(t, "WS-1", out["old_row_assignment"])
	require.Equal(t, "WS-2", out["new_row_assignment"])
	require.Nil(t, out["old_date"])
	require.Contains(t, out, "new_date")
	require.Equal(t, "WS-2", out["block"].(map[string]any)["workstation"])

	t.Run("missing block id", func(t *testing.T) {
		result, err := handler.Handle(ctx, "", "update_block_assignment", json.RawMessage(`{"block_collection":"Work Order"}`))
		require.NoError(t, err)
		require.Equal(t, "INVALID_INPUT", roundTrip(t, result)["code"])
	})
}

func TestHandler_UpdateBlockDateRange(t *testing.T) {
	ctx := context.Background()
	var gotIn timeline.ResizeInput
	handler := NewHandler(timelineStub{
		resizeFn: func(_ context.Context, _ string, _ timeline.BlockRef, in timeline.ResizeInput) (*timeline.ResizeResult, error) {
			gotIn = in
			if in.NewEndDate == "2024-01-01" {
				return nil, timeline.ErrInvertedRange
			}
			return &timeline.ResizeResult{
				Block:       record.New("Work Order", "WO-1"),
				NewEndDate:  in.NewEndDate,
				OldEndDate:  "2024-06-05 00:00:00",
				OldDuration: 8.0,
				NewDuration: 6.5,
			}, nil
		},
	}, nil, nil, nil)

	result, err := handler.Handle(ctx, "", "update_block_date_range", json.RawMessage(`{
		"block_collection": "Work Order", "block_id": "WO-1",
		"new_end_date": "2024-06-07 00:00:00", "new_duration": "6.5", "direction": "right"
	}`))
	require.NoError(t, err)
	require.NotNil(t, gotIn.NewDuration)
	require.Equal(t, 6.5, *gotIn.NewDuration)
	require.Equal(t, "right", gotIn.Direction)

	out := roundTrip(t, result)
	require.Equal(t, true, out["success"])
	require.Equal(t, "2024-06-07 00:00:00", out["new_end_date"])
	require.Nil(t, out["new_start_date"])
	require.Equal(t, 6.5, out["new_duration"])

	result, err = handler.Handle(ctx, "", "update_block_date_range", mustJSON(t, map[string]any{
		"block_collection": "Work Order", "block_id": "WO-1", "new_end_date": "2024-01-01",
	}))
	require.NoError(t, err)
	require.Equal(t, "INVERTED_RANGE", roundTrip(t, result)["code"])

	result, err = handler.Handle(ctx, "", "update_block_date_range", json.RawMessage(`{"block_id":"WO-1","new_duration":"long"}`))
	require.NoError(t, err)
	require.Equal(t, CodeInvalidParams, roundTrip(t, result)["code"])
}

func TestHandler_CreateDynamicBlock(t *testing.T) {
	ctx := context.Background()
	var gotData map[string]any
	handler := NewHandler(timelineStub{
		createFn: func(_ context.Context, actor, name string, data map[string]any) (*record.Record, error) {
			gotData = data
			if data["workstation"] == "WS-404" {
				return nil, fmt.Errorf("%w: Workstation WS-404", timeline.ErrReferentialIntegrity)
			}
			rec := record.New("Work Order", "WO-9")
			rec.Owner = actor
			return rec, nil
		},
	}, nil, nil, nil)

	for _, raw := range []string{
		`{"configuration_name":"wo","block_data":{"workstation":"WS-1","planned_start_date":"2024-06-03"}}`,
		`{"configuration_name":"wo","block_data":"{\"workstation\":\"WS-1\",\"planned_start_date\":\"2024-06-03\"}"}`,
	} {
		result, err := handler.Handle(ctx, "planner", "create_dynamic_block", json.RawMessage(raw))
		require.NoError(t, err)
		out := roundTrip(t, result)
		require.Equal(t, true, out["success"])
		require.Equal(t, "WO-9", out["block"].(map[string]any)["name"])
		require.Equal(t, "2024-06-03", gotData["planned_start_date"])
	}

	result, err := handler.Handle(ctx, "", "create_dynamic_block", json.RawMessage(`{"configuration_name":"wo","block_data":{"workstation":"WS-404"}}`))
	require.NoError(t, err)
	out := roundTrip(t, result)
	require.Equal(t, false, out["success"])
	require.Equal(t, "REFERENTIAL_INTEGRITY", out["code"])

	result, err = handler.Handle(ctx, "", "create_dynamic_block", json.RawMessage(`{"configuration_name":"wo"}`))
	require.NoError(t, err)
	require.Equal(t, "INVALID_INPUT", roundTrip(t, result)["code"])
}

func TestHandler_ConfigurationCommands(t *testing.T) {
	ctx := context.Background()
	installs := 0
	handler := NewHandler(
		timelineStub{
			listFn: func(context.Context) ([]configuration.Summary, error) {
				return []configuration.Summary{sampleConfig.Summarize()}, nil
			},
			metadataFn: func(_ context.Context, name string) (*timeline.FieldMetadata, error) {
				if name != "wo" {
					return nil, timeline.ErrConfigurationNotFound
				}
				info := timeline.FieldInfo{FieldType: record.FieldTypeDatetime, Label: "Planned Start", Required: true}
				return &timeline.FieldMetadata{
					Config:      sampleConfig,
					Mapped:      map[string]timeline.FieldInfo{"planned_start_date": info},
					BlockFields: map[string]timeline.FieldInfo{"planned_start_date": info},
				}, nil
			},
		},
		configStub{installFn: func(context.Context) (*configuration.Configuration, bool, error) {
			installs++
			return sampleConfig, installs == 1, nil
		}},
		nil, nil,
	)

	result, err := handler.Handle(ctx, "", "get_timeline_configurations", nil)
	require.NoError(t, err)
	out := roundTrip(t, result)
	configs := out["configurations"].([]any)
	require.Len(t, configs, 1)
	require.Equal(t, "Work Orders", configs[0].(map[string]any)["configuration_name"])

	result, err = handler.Handle(ctx, "", "get_configuration_field_metadata", mustJSON(t, GetFieldMetadataParams{ConfigurationName: "wo"}))
	require.NoError(t, err)
	out = roundTrip(t, result)
	field := out["field_metadata"].(map[string]any)["planned_start_date"].(map[string]any)
	require.Equal(t, "Datetime", field["fieldtype"])
	require.Equal(t, true, field["required"])

	result, err = handler.Handle(ctx, "", "get_configuration_field_metadata", mustJSON(t, GetFieldMetadataParams{ConfigurationName: "nope"}))
	require.NoError(t, err)
	require.Equal(t, "CONFIGURATION_NOT_FOUND", roundTrip(t, result)["code"])

	result, err = handler.Handle(ctx, "", "create_sample_configuration", nil)
	require.NoError(t, err)
	require.Equal(t, true, roundTrip(t, result)["created"])
	result, err = handler.Handle(ctx, "", "create_sample_configuration", nil)
	require.NoError(t, err)
	require.Equal(t, false, roundTrip(t, result)["created"])
}

func TestHandler_ExportAndActivity(t *testing.T) {
	ctx := context.Background()
	var gotOpts activity.ListActivityOptions
	handler := NewHandler(
		timelineStub{
			queryFn: func(context.Context, timeline.QueryRequest) (*timeline.QueryResult, error) {
				return &timeline.QueryResult{
					Config: sampleConfig,
					Blocks: []timeline.BlockView{{
						ID: "WO-1", Collection: "Work Order", Label: "Drill",
						Date: "2024-06-03 08:00:00", EndDate: "2024-06-03 12:00:00",
					}},
				}, nil
			},
		},
		nil,
		activityStub{listFn: func(_ context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
			gotOpts = opts
			return nil, nil
		}},
		nil,
	)

	result, err := handler.Handle(ctx, "", "export_timeline_ics", mustJSON(t, ExportTimelineParams{ConfigurationName: "wo"}))
	require.NoError(t, err)
	out := roundTrip(t, result)
	require.Equal(t, true, out["success"])
	require.True(t, strings.Contains(out["calendar"].(string), "BEGIN:VEVENT"))

	result, err = handler.Handle(ctx, "", "get_recent_activity", mustJSON(t, GetRecentActivityParams{RecordID: "WO-1", Type: "block_created", Limit: 5}))
	require.NoError(t, err)
	require.Equal(t, "WO-1", gotOpts.RecordID)
	require.Equal(t, activity.TypeBlockCreated, *gotOpts.ActivityType)
	require.Equal(t, []any{}, roundTrip(t, result)["activity"])
}

func TestHandler_UnknownMethod(t *testing.T) {
	handler := NewHandler(timelineStub{}, nil, nil, nil)
	_, err := handler.Handle(context.Background(), "", "drop_tables", nil)
	require.ErrorIs(t, err, ErrMethodNotFound)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, CodeMethodNotFound, apiErr.CodeValue())
}

func TestMapError(t *testing.T) {
	require.Nil(t, MapError(nil))
	require.Nil(t, MapError(errors.New("boom")))
	require.Equal(t, "PERSISTENCE_ERROR", MapError(fmt.Errorf("%w: disk full", timeline.ErrPersistence)).Code)
	require.Equal(t, "AMBIGUOUS_CONFIGURATION", MapError(configuration.ErrAmbiguousConfiguration).Code)
	require.Equal(t, "INVALID_INPUT", MapError(record.ErrInvalidFieldName).Code)

	env := failure(errors.New("boom"))
	require.Equal(t, CodeInternal, env.Code)
	require.False(t, env.Success)
}
