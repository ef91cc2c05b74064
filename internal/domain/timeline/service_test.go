package timeline_test

import (
	"errors"
	"testing"

	"github.com/rpggio/chronos/internal/domain/activity"
	"github.com/rpggio/chronos/internal/domain/record"
	"github.com/rpggio/chronos/internal/domain/timeline"
	"github.com/rpggio/chronos/internal/repository"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreateBlock_NormalizesDatesAndChecksRow(t *testing.T) {
	f := newFixture(t, rangedConfig())
	f.withFields("Work Order", datetimeFields)
	f.records.On("Exists", f.ctx, "Workstation", "WS-1").Return(true, nil)
	f.records.On("Create", f.ctx, mock.Anything).Return(nil).Once()

	rec, err := f.svc.CreateBlock(f.ctx, "planner", "wo", map[string]any{
		"doctype":            "Work Order",
		"workstation":        "WS-1",
		"production_item":    "Widget",
		"planned_start_date": "2024-06-03",
		"planned_end_date":   "2024-06-04T12:00",
	})
	require.NoError(t, err)
	require.Equal(t, "generated-id", rec.Name)
	require.Equal(t, "Work Order", rec.Collection)
	require.Equal(t, "planner", rec.Owner)

	start, _ := rec.Get("planned_start_date")
	end, _ := rec.Get("planned_end_date")
	require.Equal(t, "2024-06-03 00:00:00", start)
	require.Equal(t, "2024-06-04 12:00:00", end)
	_, hasDoctype := rec.Get("doctype")
	require.False(t, hasDoctype)

	f.activity.AssertCalled(t, "Log", f.ctx, mock.MatchedBy(func(e *activity.ActivityEntry) bool {
		return e.ActivityType == activity.TypeBlockCreated && e.RecordID == "generated-id"
	}))
}

func TestCreateBlock_MissingRowNeverInserts(t *testing.T) {
	f := newFixture(t, rangedConfig())
	f.withFields("Work Order", datetimeFields)
	f.records.On("Exists", f.ctx, "Workstation", "WS-404").Return(false, nil)

	_, err := f.svc.CreateBlock(f.ctx, "planner", "wo", map[string]any{
		"workstation":        "WS-404",
		"planned_start_date": "2024-06-03",
	})
	require.ErrorIs(t, err, timeline.ErrReferentialIntegrity)
	require.Zero(t, f.callCount("Create"))
}

func TestCreateBlock_LinkTargetFromMetadata(t *testing.T) {
	cfg := pointConfig()
	f := newFixture(t, cfg)
	f.withFields("Shift", []record.FieldMeta{
		{Name: "employee", Type: record.FieldTypeLink, Options: "Staff"},
		{Name: "shift_date", Type: record.FieldTypeDate, Required: true},
	})
	f.records.On("Exists", f.ctx, "Staff", "EMP-1").Return(true, nil)
	f.records.On("Create", f.ctx, mock.Anything).Return(nil)

	rec, err := f.svc.CreateBlock(f.ctx, "", "shifts", map[string]any{
		"name":       "SH-7",
		"employee":   "EMP-1",
		"shift_date": "2024-06-10 22:00:00",
	})
	require.NoError(t, err)
	require.Equal(t, "SH-7", rec.Name)
	date, _ := rec.Get("shift_date")
	require.Equal(t, "2024-06-10", date)
}

func TestCreateBlock_Rejects(t *testing.T) {
	t.Run("missing required", func(t *testing.T) {
		f := newFixture(t, pointConfig())
		f.withFields("Shift", []record.FieldMeta{{Name: "shift_date", Type: record.FieldTypeDate, Required: true}})
		_, err := f.svc.CreateBlock(f.ctx, "", "shifts", map[string]any{"note": "x"})
		require.ErrorIs(t, err, timeline.ErrInvalidInput)
	})
	t.Run("bad field name", func(t *testing.T) {
		f := newFixture(t, pointConfig())
		f.withFields("Shift", nil)
		_, err := f.svc.CreateBlock(f.ctx, "", "shifts", map[string]any{"bad name": "x"})
		require.ErrorIs(t, err, timeline.ErrInvalidInput)
	})
	t.Run("bad date", func(t *testing.T) {
		f := newFixture(t, pointConfig())
		f.withFields("Shift", nil)
		_, err := f.svc.CreateBlock(f.ctx, "", "shifts", map[string]any{"shift_date": "someday"})
		require.ErrorIs(t, err, timeline.ErrInvalidDateFormat)
	})
	t.Run("inverted", func(t *testing.T) {
		f := newFixture(t, rangedConfig())
		f.withFields("Work Order", dateFields)
		_, err := f.svc.CreateBlock(f.ctx, "", "wo", map[string]any{
			"planned_start_date": "2024-06-05",
			"planned_end_date":   "2024-06-01",
		})
		require.ErrorIs(t, err, timeline.ErrInvertedRange)
	})
	t.Run("store failure", func(t *testing.T) {
		f := newFixture(t, pointConfig())
		f.withFields("Shift", nil)
		f.records.On("Create", f.ctx, mock.Anything).Return(errors.New("locked"))
		_, err := f.svc.CreateBlock(f.ctx, "", "shifts", map[string]any{"shift_date": "2024-06-01"})
		require.ErrorIs(t, err, timeline.ErrPersistence)
	})
	t.Run("duplicate name", func(t *testing.T) {
		f := newFixture(t, pointConfig())
		f.withFields("Shift", nil)
		f.records.On("Create", f.ctx, mock.Anything).Return(repository.ErrConflict)
		_, err := f.svc.CreateBlock(f.ctx, "", "shifts", map[string]any{"name": "SH-1", "shift_date": "2024-06-01"})
		require.ErrorIs(t, err, timeline.ErrPersistence)
		require.ErrorIs(t, err, repository.ErrConflict)
	})
	t.Run("inactive", func(t *testing.T) {
		cfg := pointConfig()
		cfg.IsActive = false
		f := newFixture(t, cfg)
		_, err := f.svc.CreateBlock(f.ctx, "", "shifts", map[string]any{"shift_date": "2024-06-01"})
		require.ErrorIs(t, err, timeline.ErrConfigurationInactive)
		require.Empty(t, f.records.Calls)
	})
}

func TestFieldMetadata(t *testing.T) {
	f := newFixture(t, rangedConfig())
	f.withFields("Workstation", []record.FieldMeta{{Name: "workstation_name", Type: record.FieldTypeData, Label: "Name", Required: true}})
	f.withFields("Work Order", datetimeFields)

	md, err := f.svc.FieldMetadata(f.ctx, "wo")
	require.NoError(t, err)
	require.Equal(t, "wo", md.Config.Name)
	require.Equal(t, timeline.FieldInfo{FieldType: record.FieldTypeData, Label: "Name", Required: true}, md.RowFields["workstation_name"])
	require.Equal(t, "Workstation", md.BlockFields["workstation"].Options)

	require.Len(t, md.Mapped, 3)
	require.Equal(t, "planned_end_date", md.Mapped["planned_end_date"].Label)
	require.Equal(t, record.FieldTypeFloat, md.Mapped["expected_time"].FieldType)
	require.NotContains(t, md.Mapped, "workstation")
}

func TestListConfigurations(t *testing.T) {
	other := pointConfig()
	f := newFixture(t, rangedConfig(), other)

	list, err := f.svc.ListConfigurations(f.ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "wo", list[0].Name)
	require.Equal(t, "Work Order", list[0].BlockCollection)
}

func TestAuditFailureDoesNotFailMutation(t *testing.T) {
	f := newFixture(t, pointConfig())
	f.activity.ExpectedCalls = nil
	f.activity.On("Log", f.ctx, mock.Anything).Return(errors.New("audit down"))
	f.withFields("Shift", nil)
	f.records.On("Create", f.ctx, mock.Anything).Return(nil)

	_, err := f.svc.CreateBlock(f.ctx, "", "shifts", map[string]any{"shift_date": "2024-06-01"})
	require.NoError(t, err)
}
