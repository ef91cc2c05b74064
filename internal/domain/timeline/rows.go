package timeline

import (
	"encoding/json"
	"fmt"

	"github.com/rpggio/chronos/internal/domain/configuration"
	"github.com/rpggio/chronos/internal/domain/record"
)

// rowPassthroughFields are copied onto row views when the row collection declares them.
var rowPassthroughFields = []string{"status", "department", "company", "disabled"}

// RowView is the uniform projection of one row record.
type RowView struct {
	ID         string
	Name       string
	Label      string
	Collection string
	Extra      map[string]any
}

// MarshalJSON flattens Extra next to the fixed keys.
func (v RowView) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(v.Extra)+4)
	for k, val := range v.Extra {
		out[k] = val
	}
	out["id"] = v.ID
	out["name"] = v.Name
	out["label"] = v.Label
	out["collection"] = v.Collection
	return json.Marshal(out)
}

// ProjectRows maps row records to views. The label falls back to the record
// id when no label field is configured or the record lacks a value.
func ProjectRows(mapping *configuration.Configuration, records []record.Record, extraFields []string) []RowView {
	views := make([]RowView, 0, len(records))
	for i := range records {
		rec := &records[i]
		view := RowView{
			ID:         rec.Name,
			Name:       rec.Name,
			Label:      rec.Name,
			Collection: mapping.RowCollection,
		}
		if mapping.RowLabelField != "" {
			if v, ok := rec.Get(mapping.RowLabelField); ok && !record.Blank(v) {
				view.Label = stringValue(v)
			}
		}
		if len(extraFields) > 0 {
			view.Extra = make(map[string]any, len(extraFields))
			for _, f := range extraFields {
				v, _ := rec.Get(f)
				view.Extra[f] = v
			}
		}
		views = append(views, view)
	}
	return views
}

// rowExtraFields lists the passthrough fields declared by the row collection.
func rowExtraFields(mapping *configuration.Configuration, meta *record.Meta) []string {
	var fields []string
	for _, f := range rowPassthroughFields {
		if f == mapping.RowLabelField || !meta.Has(f) {
			continue
		}
		fields = append(fields, f)
	}
	return fields
}

func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
	}
	return fmt.Sprint(v)
}
