package record_test

import (
	"encoding/json"
	"testing"

	"github.com/rpggio/chronos/internal/domain/record"
	"github.com/stretchr/testify/require"
)

func TestDecodeObject_AcceptsObjectAndEncodedString(t *testing.T) {
	obj, err := record.DecodeObject(json.RawMessage(`{"status":"Open"}`))
	require.NoError(t, err)
	require.Equal(t, "Open", obj["status"])

	obj, err = record.DecodeObject(json.RawMessage(`"{\"status\":\"Open\"}"`))
	require.NoError(t, err)
	require.Equal(t, "Open", obj["status"])

	obj, err = record.DecodeObject(nil)
	require.NoError(t, err)
	require.Nil(t, obj)

	obj, err = record.DecodeObject(json.RawMessage(`""`))
	require.NoError(t, err)
	require.Nil(t, obj)
}

func TestDecodeObject_Malformed(t *testing.T) {
	_, err := record.DecodeObject(json.RawMessage(`"{not json"`))
	require.ErrorIs(t, err, record.ErrMalformedFilter)

	_, err = record.DecodeObject(json.RawMessage(`[1,2]`))
	require.ErrorIs(t, err, record.ErrMalformedFilter)
}

func TestParseConditions(t *testing.T) {
	conds, err := record.ParseConditions(map[string]any{
		"status":   "Open",
		"priority": []any{"in", []any{"High", "Urgent"}},
		"progress": []any{">=", float64(50)},
		"owner":    []any{"IS", "set"},
	})
	require.NoError(t, err)
	require.Equal(t, []record.Condition{
		{Field: "owner", Op: record.OpIs, Value: "set"},
		{Field: "priority", Op: record.OpIn, Value: []any{"High", "Urgent"}},
		{Field: "progress", Op: record.OpGTE, Value: float64(50)},
		{Field: "status", Op: record.OpEq, Value: "Open"},
	}, conds)
}

func TestParseConditions_InAcceptsCommaList(t *testing.T) {
	conds, err := record.ParseConditions(map[string]any{"status": []any{"not in", "Closed, Cancelled"}})
	require.NoError(t, err)
	require.Equal(t, []any{"Closed", "Cancelled"}, conds[0].Value)
}

func TestParseConditions_Rejects(t *testing.T) {
	cases := map[string]map[string]any{
		"bad field":        {"status; drop": "x"},
		"unknown operator": {"status": []any{"~", "x"}},
		"short list":       {"status": []any{"="}},
		"between arity":    {"planned_start_date": []any{"between", []any{"2024-01-01"}}},
		"is value":         {"owner": []any{"is", "maybe"}},
		"nested object":    {"status": map[string]any{"a": 1}},
	}
	for name, filters := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := record.ParseConditions(filters)
			require.ErrorIs(t, err, record.ErrMalformedFilter)
		})
	}
}
