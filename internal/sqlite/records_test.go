package sqlite

import (
	"context"
	"testing"

	"github.com/rpggio/chronos/internal/domain/record"
	"github.com/rpggio/chronos/internal/repository"
	"github.com/stretchr/testify/require"
)

func insertRecord(t *testing.T, store *RecordStore, collection, name string, fields map[string]any) {
	t.Helper()
	rec := record.New(collection, name)
	for k, v := range fields {
		rec.Set(k, v)
	}
	require.NoError(t, store.Create(context.Background(), rec))
}

func names(recs []record.Record) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Name)
	}
	return out
}

func TestRecordStore_CRUD(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	store := NewRecordStore(db)

	rec := record.New("Work Order", "WO-1")
	rec.Owner = "planner"
	rec.Set("planned_start_date", "2024-06-01 08:00:00")
	rec.Set("expected_time", 4.5)
	require.NoError(t, store.Create(ctx, rec))
	require.False(t, rec.CreatedAt.IsZero())

	require.ErrorIs(t, store.Create(ctx, record.New("Work Order", "WO-1")), repository.ErrConflict)

	got, err := store.Get(ctx, "Work Order", "WO-1")
	require.NoError(t, err)
	require.Equal(t, "planner", got.Owner)
	v, _ := got.Get("expected_time")
	require.Equal(t, 4.5, v)

	got.Set("planned_start_date", "2024-06-02 08:00:00")
	require.NoError(t, store.Update(ctx, got))

	again, err := store.Get(ctx, "Work Order", "WO-1")
	require.NoError(t, err)
	v, _ = again.Get("planned_start_date")
	require.Equal(t, "2024-06-02 08:00:00", v)

	exists, err := store.Exists(ctx, "Work Order", "WO-1")
	require.NoError(t, err)
	require.True(t, exists)
	exists, err = store.Exists(ctx, "Workstation", "WO-1")
	require.NoError(t, err)
	require.False(t, exists)

	require.ErrorIs(t, store.Update(ctx, record.New("Work Order", "missing")), repository.ErrNotFound)
	require.NoError(t, store.Delete(ctx, "Work Order", "WO-1"))
	_, err = store.Get(ctx, "Work Order", "WO-1")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRecordStore_FindOverlapWindow(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	store := NewRecordStore(db)

	insertRecord(t, store, "Work Order", "spans-start", map[string]any{"start": "2024-05-28 08:00:00", "end": "2024-06-02 17:00:00"})
	insertRecord(t, store, "Work Order", "inside", map[string]any{"start": "2024-06-10", "end": "2024-06-12"})
	insertRecord(t, store, "Work Order", "ends-on-first", map[string]any{"start": "2024-05-20", "end": "2024-06-01 09:00:00"})
	insertRecord(t, store, "Work Order", "after", map[string]any{"start": "2024-07-01", "end": "2024-07-05"})
	insertRecord(t, store, "Work Order", "before", map[string]any{"start": "2024-05-01", "end": "2024-05-31"})
	insertRecord(t, store, "Workstation", "other-collection", map[string]any{"start": "2024-06-10", "end": "2024-06-12"})

	recs, err := store.Find(ctx, "Work Order", record.Query{
		Conditions: []record.Condition{
			{Field: "start", Op: record.OpLTE, Value: "2024-06-30", DateOnly: true},
			{Field: "end", Op: record.OpGTE, Value: "2024-06-01", DateOnly: true},
		},
		OrderBy: "start",
	})
	require.NoError(t, err)
	require.Equal(t, []string{"ends-on-first", "spans-start", "inside"}, names(recs))
}

func TestRecordStore_FindOperators(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	store := NewRecordStore(db)

	insertRecord(t, store, "Workstation", "WS-1", map[string]any{"workstation_name": "Lathe", "disabled": false, "capacity": 3})
	insertRecord(t, store, "Workstation", "WS-2", map[string]any{"workstation_name": "Mill", "disabled": true, "capacity": 10})
	insertRecord(t, store, "Workstation", "WS-3", map[string]any{"workstation_name": "Drill", "disabled": false})

	find := func(conds ...record.Condition) []string {
		t.Helper()
		recs, err := store.Find(ctx, "Workstation", record.Query{Conditions: conds, OrderBy: "workstation_name"})
		require.NoError(t, err)
		return names(recs)
	}

	require.Equal(t, []string{"WS-3", "WS-1"}, find(record.Condition{Field: "disabled", Op: record.OpEq, Value: false}))
	require.Equal(t, []string{"WS-2"}, find(record.Condition{Field: "capacity", Op: record.OpGT, Value: float64(5)}))
	require.Equal(t, []string{"WS-1", "WS-2"}, find(record.Condition{Field: "workstation_name", Op: record.OpIn, Value: []any{"Lathe", "Mill"}}))
	require.Equal(t, []string{"WS-3"}, find(record.Condition{Field: "capacity", Op: record.OpIs, Value: record.IsNotSet}))
	require.Equal(t, []string{"WS-3", "WS-2"}, find(record.Condition{Field: "workstation_name", Op: record.OpLike, Value: "%ill"}))
	require.Equal(t, []string{"WS-2"}, find(record.Condition{Field: "name", Op: record.OpEq, Value: "WS-2"}))

	recs, err := store.Find(ctx, "Workstation", record.Query{OrderBy: "workstation_name", Descending: true, Limit: 1})
	require.NoError(t, err)
	require.Equal(t, []string{"WS-2"}, names(recs))

	_, err = store.Find(ctx, "Workstation", record.Query{OrderBy: "bad name"})
	require.ErrorIs(t, err, record.ErrInvalidFieldName)
}
