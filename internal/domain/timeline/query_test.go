package timeline_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/rpggio/chronos/internal/domain/record"
	"github.com/rpggio/chronos/internal/domain/timeline"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestParseFilters(t *testing.T) {
	f, err := timeline.ParseFilters(json.RawMessage(`"{\"row_filters\":{\"disabled\":0},\"block_filters\":{\"status\":[\"!=\",\"Cancelled\"]}}"`))
	require.NoError(t, err)
	require.Equal(t, []record.Condition{{Field: "disabled", Op: record.OpEq, Value: float64(0)}}, f.Row)
	require.Equal(t, []record.Condition{{Field: "status", Op: record.OpNotEq, Value: "Cancelled"}}, f.Block)

	f, err = timeline.ParseFilters(nil)
	require.NoError(t, err)
	require.Empty(t, f.Row)

	_, err = timeline.ParseFilters(json.RawMessage(`"{oops"`))
	require.ErrorIs(t, err, timeline.ErrMalformedFilter)

	_, err = timeline.ParseFilters(json.RawMessage(`{"row_filters":"status"}`))
	require.ErrorIs(t, err, timeline.ErrMalformedFilter)
}

func TestGetTimelineData_MergesFiltersAndWindow(t *testing.T) {
	f := newFixture(t, rangedConfig())
	f.withFields("Workstation", []record.FieldMeta{{Name: "status", Type: record.FieldTypeSelect}})
	f.withFields("Work Order", datetimeFields)

	rowFilter := record.Condition{Field: "disabled", Op: record.OpEq, Value: float64(0)}
	blockFilter := record.Condition{Field: "planned_start_date", Op: record.OpGTE, Value: "2024-05-01"}

	f.records.On("Find", f.ctx, "Workstation", record.Query{
		Conditions: []record.Condition{rowFilter},
		OrderBy:    "workstation_name",
	}).Return([]record.Record{
		newRecord("Workstation", "WS-1", map[string]any{"workstation_name": "Lathe", "status": "Production"}),
	}, nil)
	f.records.On("Find", f.ctx, "Work Order", record.Query{
		Conditions: []record.Condition{
			blockFilter,
			{Field: "planned_start_date", Op: record.OpLTE, Value: "2024-06-30", DateOnly: true},
			{Field: "planned_end_date", Op: record.OpGTE, Value: "2024-06-01", DateOnly: true},
		},
		OrderBy: "planned_start_date",
	}).Return([]record.Record{
		newRecord("Work Order", "WO-1", map[string]any{
			"workstation":        "WS-1",
			"planned_start_date": "2024-05-28 08:00:00",
			"planned_end_date":   "2024-06-02 17:00:00",
		}),
	}, nil)

	res, err := f.svc.GetTimelineData(f.ctx, timeline.QueryRequest{
		ConfigurationName: "wo",
		StartDate:         "2024-06-01",
		EndDate:           "2024-06-30",
		Filters:           timeline.Filters{Row: []record.Condition{rowFilter}, Block: []record.Condition{blockFilter}},
	})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	require.Equal(t, "Production", res.Rows[0].Extra["status"])
	require.Len(t, res.Blocks, 1)
	require.Equal(t, "WS-1", res.Blocks[0].RowID)
	require.NoError(t, res.RowsErr)
	require.NoError(t, res.BlocksErr)
}

func TestGetTimelineData_DefaultWindowFromClock(t *testing.T) {
	f := newFixture(t, pointConfig())
	f.withFields("Employee", nil)
	f.withFields("Shift", nil)
	f.records.On("Find", f.ctx, "Employee", mock.Anything).Return([]record.Record{}, nil)
	f.records.On("Find", f.ctx, "Shift", record.Query{
		Conditions: []record.Condition{
			{Field: "shift_date", Op: record.OpBetween, Value: []any{"2024-06-01", "2024-07-01"}, DateOnly: true},
		},
		OrderBy: "shift_date",
	}).Return([]record.Record{}, nil)

	res, err := f.svc.GetTimelineData(f.ctx, timeline.QueryRequest{ConfigurationName: "shifts"})
	require.NoError(t, err)
	require.Equal(t, "2024-06-01", res.Window.StartDate())
	require.Equal(t, "2024-07-01", res.Window.EndDate())
	f.records.AssertExpectations(t)
}

func TestGetTimelineData_SubFetchFailureDegrades(t *testing.T) {
	f := newFixture(t, pointConfig())
	f.withFields("Employee", nil)
	f.withFields("Shift", nil)
	f.records.On("Find", f.ctx, "Employee", mock.Anything).Return([]record.Record{newRecord("Employee", "EMP-1", nil)}, nil)
	f.records.On("Find", f.ctx, "Shift", mock.Anything).Return(nil, errors.New("connection reset"))

	res, err := f.svc.GetTimelineData(f.ctx, timeline.QueryRequest{ConfigurationName: "shifts"})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	require.NotNil(t, res.Blocks)
	require.Empty(t, res.Blocks)
	require.Error(t, res.BlocksErr)
}

func TestGetTimelineData_BadStoredDateDegradesBlocks(t *testing.T) {
	f := newFixture(t, pointConfig())
	f.withFields("Employee", nil)
	f.withFields("Shift", nil)
	f.records.On("Find", f.ctx, "Employee", mock.Anything).Return([]record.Record{}, nil)
	f.records.On("Find", f.ctx, "Shift", mock.Anything).Return([]record.Record{
		newRecord("Shift", "SH-1", map[string]any{"shift_date": "garbage"}),
	}, nil)

	res, err := f.svc.GetTimelineData(f.ctx, timeline.QueryRequest{ConfigurationName: "shifts"})
	require.NoError(t, err)
	require.Empty(t, res.Blocks)
	require.ErrorIs(t, res.BlocksErr, timeline.ErrInvalidDateFormat)
}

func TestGetTimelineData_ConfigurationErrorsNeverReachStore(t *testing.T) {
	cfg := pointConfig()
	cfg.IsActive = false
	f := newFixture(t, cfg)

	_, err := f.svc.GetTimelineData(f.ctx, timeline.QueryRequest{ConfigurationName: "shifts"})
	require.ErrorIs(t, err, timeline.ErrConfigurationInactive)

	_, err = f.svc.GetTimelineData(f.ctx, timeline.QueryRequest{ConfigurationName: "missing"})
	require.ErrorIs(t, err, timeline.ErrConfigurationNotFound)

	require.Empty(t, f.records.Calls)
	require.Empty(t, f.fields.Calls)
}
