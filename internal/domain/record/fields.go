package record

import "regexp"

// FieldType is the declared type of a collection field.
type FieldType string

const (
	FieldTypeUnknown  FieldType = ""
	FieldTypeData     FieldType = "Data"
	FieldTypeText     FieldType = "Text"
	FieldTypeDate     FieldType = "Date"
	FieldTypeDatetime FieldType = "Datetime"
	FieldTypeLink     FieldType = "Link"
	FieldTypeInt      FieldType = "Int"
	FieldTypeFloat    FieldType = "Float"
	FieldTypeCheck    FieldType = "Check"
	FieldTypeSelect   FieldType = "Select"
	FieldTypeColor    FieldType = "Color"
)

// IsDateLike reports whether values of the type are calendar dates or timestamps.
func (t FieldType) IsDateLike() bool {
	return t == FieldTypeDate || t == FieldTypeDatetime
}

// FieldMeta describes one declared field of a collection. For Link fields
// Options names the target collection; for Select fields it holds the
// newline separated choices.
type FieldMeta struct {
	Name     string    `json:"fieldname" yaml:"name"`
	Type     FieldType `json:"fieldtype" yaml:"type"`
	Label    string    `json:"label" yaml:"label"`
	Options  string    `json:"options" yaml:"options"`
	Required bool      `json:"required" yaml:"required"`
}

// Collection is a named record collection and its declared fields.
type Collection struct {
	Name   string      `json:"name" yaml:"name"`
	Fields []FieldMeta `json:"fields" yaml:"fields"`
}

// Meta indexes the declared fields of one collection. A nil Meta knows no fields.
type Meta struct {
	Collection string
	fields     map[string]FieldMeta
	order      []string
}

// NewMeta builds a lookup over fields.
func NewMeta(collection string, fields []FieldMeta) *Meta {
	m := &Meta{Collection: collection, fields: make(map[string]FieldMeta, len(fields))}
	for _, f := range fields {
		if _, dup := m.fields[f.Name]; !dup {
			m.order = append(m.order, f.Name)
		}
		m.fields[f.Name] = f
	}
	return m
}

// Field returns the declaration of name.
func (m *Meta) Field(name string) (FieldMeta, bool) {
	if m == nil {
		return FieldMeta{}, false
	}
	f, ok := m.fields[name]
	return f, ok
}

// Has reports whether name is declared.
func (m *Meta) Has(name string) bool {
	_, ok := m.Field(name)
	return ok
}

// TypeOf returns the declared type of name, or FieldTypeUnknown.
func (m *Meta) TypeOf(name string) FieldType {
	f, _ := m.Field(name)
	return f.Type
}

var fieldNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidFieldName reports whether name can be used as a field identifier.
func ValidFieldName(name string) bool {
	return fieldNamePattern.MatchString(name)
}

// Required returns the names of required fields in declaration order.
func (m *Meta) Required() []string {
	if m == nil {
		return nil
	}
	var out []string
	for _, name := range m.order {
		if m.fields[name].Required {
			out = append(out, name)
		}
	}
	return out
}
