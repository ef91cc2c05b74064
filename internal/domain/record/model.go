package record

import (
	"encoding/json"
	"time"
)

// Storage layouts for date-like values and record timestamps.
const (
	DateLayout     = "2006-01-02"
	DatetimeLayout = "2006-01-02 15:04:05"
)

// Standard fields carried by every record regardless of its collection.
const (
	FieldName     = "name"
	FieldOwner    = "owner"
	FieldCreation = "creation"
	FieldModified = "modified"
)

// Record is one row of an arbitrary collection. Apart from the standard
// fields, values are addressed by field name at runtime.
type Record struct {
	Collection string
	Name       string
	Owner      string
	CreatedAt  time.Time
	ModifiedAt time.Time
	Fields     map[string]any
}

// New returns an empty record of collection identified by name.
func New(collection, name string) *Record {
	return &Record{Collection: collection, Name: name, Fields: map[string]any{}}
}

// Get returns the value stored under field and whether it is present.
func (r *Record) Get(field string) (any, bool) {
	switch field {
	case FieldName:
		return r.Name, r.Name != ""
	case FieldOwner:
		return r.Owner, r.Owner != ""
	case FieldCreation:
		return timestampValue(r.CreatedAt)
	case FieldModified:
		return timestampValue(r.ModifiedAt)
	}
	v, ok := r.Fields[field]
	return v, ok
}

// Set stores value under field.
func (r *Record) Set(field string, value any) {
	switch field {
	case FieldName:
		r.Name, _ = value.(string)
		return
	case FieldOwner:
		r.Owner, _ = value.(string)
		return
	}
	if r.Fields == nil {
		r.Fields = map[string]any{}
	}
	r.Fields[field] = value
}

// Clone returns a copy whose field map can be mutated independently.
func (r *Record) Clone() *Record {
	c := *r
	c.Fields = make(map[string]any, len(r.Fields))
	for k, v := range r.Fields {
		c.Fields[k] = v
	}
	return &c
}

// AsMap flattens the record into a single map including standard fields.
func (r *Record) AsMap() map[string]any {
	out := make(map[string]any, len(r.Fields)+5)
	for k, v := range r.Fields {
		out[k] = v
	}
	out[FieldName] = r.Name
	out["collection"] = r.Collection
	out[FieldOwner] = r.Owner
	if v, ok := timestampValue(r.CreatedAt); ok {
		out[FieldCreation] = v
	}
	if v, ok := timestampValue(r.ModifiedAt); ok {
		out[FieldModified] = v
	}
	return out
}

// MarshalJSON encodes the flattened record.
func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.AsMap())
}

// Blank reports whether v holds no usable value.
func Blank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	}
	return false
}

func timestampValue(t time.Time) (any, bool) {
	if t.IsZero() {
		return nil, false
	}
	return t.UTC().Format(DatetimeLayout), true
}
