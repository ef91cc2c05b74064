package timeline

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rpggio/chronos/internal/domain/configuration"
	"github.com/rpggio/chronos/internal/domain/record"
)

// blockPassthroughFields are copied onto block views when declared, or always
// for the standard fields.
var blockPassthroughFields = []string{"progress", "description", record.FieldOwner, record.FieldCreation, record.FieldModified}

// Window is an inclusive range of calendar dates.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow parses the requested bounds. A missing start defaults to today's
// date and a missing end to start plus defaultDays.
func NewWindow(start, end string, today time.Time, defaultDays int) (Window, error) {
	var w Window
	if start == "" {
		w.Start = Instant{Time: today.UTC()}.DateOnly().Time
	} else {
		inst, err := Coerce(start, record.FieldTypeDate)
		if err != nil {
			return Window{}, fmt.Errorf("start_date: %w", err)
		}
		w.Start = inst.Time
	}
	if end == "" {
		w.End = w.Start.AddDate(0, 0, defaultDays)
	} else {
		inst, err := Coerce(end, record.FieldTypeDate)
		if err != nil {
			return Window{}, fmt.Errorf("end_date: %w", err)
		}
		w.End = inst.Time
	}
	if w.End.Before(w.Start) {
		return Window{}, fmt.Errorf("%w: end_date %s is before start_date %s", ErrInvalidInput, w.EndDate(), w.StartDate())
	}
	return w, nil
}

// StartDate renders the first day of the window.
func (w Window) StartDate() string { return w.Start.Format(record.DateLayout) }

// EndDate renders the last day of the window.
func (w Window) EndDate() string { return w.End.Format(record.DateLayout) }

// BuildOverlapFilter returns the conditions selecting blocks that touch the
// window. Ranged blocks overlap when start <= window end and end >= window
// start; single-point blocks match when their start lies inside the window.
func BuildOverlapFilter(mapping *configuration.Configuration, w Window) []record.Condition {
	if mapping.Ranged() {
		return []record.Condition{
			{Field: mapping.BlockToDateField, Op: record.OpLTE, Value: w.EndDate(), DateOnly: true},
			{Field: mapping.DateRangeEndField, Op: record.OpGTE, Value: w.StartDate(), DateOnly: true},
		}
	}
	return []record.Condition{
		{Field: mapping.BlockToDateField, Op: record.OpBetween, Value: []any{w.StartDate(), w.EndDate()}, DateOnly: true},
	}
}

// BlockView is the uniform projection of one block record.
type BlockView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Label       string `json:"label"`
	Collection  string `json:"collection"`
	RowID       string `json:"row_id"`
	Date        string `json:"date"`
	AllDay      bool   `json:"all_day"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	Duration    any    `json:"duration,omitempty"`
	Status      any    `json:"status,omitempty"`
	Priority    any    `json:"priority,omitempty"`
	Color       any    `json:"color,omitempty"`
	Description any    `json:"description,omitempty"`

	Extra map[string]any `json:"-"`
}

// MarshalJSON flattens Extra next to the fixed keys.
func (v BlockView) MarshalJSON() ([]byte, error) {
	type fixed BlockView
	base, err := json.Marshal(fixed(v))
	if err != nil || len(v.Extra) == 0 {
		return base, err
	}
	out := make(map[string]any, len(v.Extra)+16)
	for k, val := range v.Extra {
		out[k] = val
	}
	var known map[string]any
	if err := json.Unmarshal(base, &known); err != nil {
		return nil, err
	}
	for k, val := range known {
		out[k] = val
	}
	return json.Marshal(out)
}

// ProjectBlocks maps block records to views. Date-like role values are
// normalized through Coerce using the declared field types in meta; a value
// that cannot be coerced fails the whole projection.
func ProjectBlocks(mapping *configuration.Configuration, meta *record.Meta, records []record.Record, extraFields []string) ([]BlockView, error) {
	views := make([]BlockView, 0, len(records))
	for i := range records {
		view, err := projectBlock(mapping, meta, &records[i], extraFields)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func projectBlock(mapping *configuration.Configuration, meta *record.Meta, rec *record.Record, extraFields []string) (BlockView, error) {
	view := BlockView{
		ID:         rec.Name,
		Name:       rec.Name,
		Label:      rec.Name,
		Collection: mapping.BlockCollection,
	}
	get := func(field string) (any, bool) {
		if field == "" {
			return nil, false
		}
		v, ok := rec.Get(field)
		return v, ok && !record.Blank(v)
	}

	if v, ok := get(mapping.RowToBlockField); ok {
		view.RowID = stringValue(v)
	}
	if v, ok := get(mapping.BlockLabelField); ok {
		view.Label = stringValue(v)
	}

	if v, ok := get(mapping.BlockToDateField); ok {
		start, err := Coerce(v, meta.TypeOf(mapping.BlockToDateField))
		if err != nil {
			return BlockView{}, fmt.Errorf("block %s %s: %w", rec.Name, mapping.BlockToDateField, err)
		}
		view.Date = Format(start)
		view.AllDay = !start.HasTime
		if mapping.Ranged() {
			view.StartDate = view.Date
		}
	}
	if mapping.Ranged() {
		if v, ok := get(mapping.DateRangeEndField); ok {
			end, err := Coerce(v, meta.TypeOf(mapping.DateRangeEndField))
			if err != nil {
				return BlockView{}, fmt.Errorf("block %s %s: %w", rec.Name, mapping.DateRangeEndField, err)
			}
			view.EndDate = Format(end)
		}
	}

	if mapping.BlockDurationField != "" {
		if v, ok := get(mapping.BlockDurationField); ok {
			view.Duration = v
		} else {
			view.Duration = 0
		}
	}
	if v, ok := get(mapping.BlockStatusField); ok {
		view.Status = v
	}
	if v, ok := get(mapping.BlockPriorityField); ok {
		view.Priority = v
	}
	if v, ok := get(mapping.BlockColorField); ok {
		view.Color = v
	}
	if v, ok := get(mapping.BlockDescriptionField); ok {
		view.Description = v
	}

	if len(extraFields) > 0 {
		view.Extra = make(map[string]any, len(extraFields))
		for _, f := range extraFields {
			v, _ := rec.Get(f)
			view.Extra[f] = v
		}
	}
	return view, nil
}

// blockExtraFields lists passthrough fields not already bound to a role.
func blockExtraFields(mapping *configuration.Configuration, meta *record.Meta) []string {
	mapped := map[string]bool{}
	for _, f := range mapping.FieldMappings() {
		mapped[f] = true
	}
	var fields []string
	for _, f := range blockPassthroughFields {
		if mapped[f] {
			continue
		}
		switch f {
		case record.FieldOwner, record.FieldCreation, record.FieldModified:
		default:
			if !meta.Has(f) {
				continue
			}
		}
		fields = append(fields, f)
	}
	return fields
}
