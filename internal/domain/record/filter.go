package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Operator is a comparison applied by a Condition.
type Operator string

const (
	OpEq      Operator = "="
	OpNotEq   Operator = "!="
	OpLT      Operator = "<"
	OpLTE     Operator = "<="
	OpGT      Operator = ">"
	OpGTE     Operator = ">="
	OpIn      Operator = "in"
	OpNotIn   Operator = "not in"
	OpLike    Operator = "like"
	OpNotLike Operator = "not like"
	OpBetween Operator = "between"
	OpIs      Operator = "is"
)

// Values accepted by OpIs.
const (
	IsSet    = "set"
	IsNotSet = "not set"
)

var operators = map[Operator]bool{
	OpEq: true, OpNotEq: true, OpLT: true, OpLTE: true, OpGT: true, OpGTE: true,
	OpIn: true, OpNotIn: true, OpLike: true, OpNotLike: true, OpBetween: true, OpIs: true,
}

// Condition restricts a single field of a record.
type Condition struct {
	Field string
	Op    Operator
	Value any
	// DateOnly compares the field and the value as calendar dates.
	DateOnly bool
}

// Query selects records of one collection. All conditions must hold.
type Query struct {
	Conditions []Condition
	OrderBy    string
	Descending bool
	Limit      int
}

// DecodeObject decodes raw as a JSON object, or as a JSON string that itself
// holds an encoded object. Empty input and null decode to nil.
func DecodeObject(raw json.RawMessage) (map[string]any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedFilter, err)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, nil
		}
		trimmed = []byte(s)
	}
	var out map[string]any
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFilter, err)
	}
	return out, nil
}

// ParseConditions converts a filter map into conditions. Each entry is either
// field: value (equality) or field: [operator, value].
func ParseConditions(filters map[string]any) ([]Condition, error) {
	fields := make([]string, 0, len(filters))
	for f := range filters {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	conds := make([]Condition, 0, len(fields))
	for _, field := range fields {
		if !ValidFieldName(field) {
			return nil, fmt.Errorf("%w: %w: %q", ErrMalformedFilter, ErrInvalidFieldName, field)
		}
		cond, err := parseCondition(field, filters[field])
		if err != nil {
			return nil, err
		}
		conds = append(conds, cond)
	}
	return conds, nil
}

func parseCondition(field string, raw any) (Condition, error) {
	list, ok := raw.([]any)
	if !ok {
		if !scalar(raw) {
			return Condition{}, fmt.Errorf("%w: unsupported value for %q", ErrMalformedFilter, field)
		}
		return Condition{Field: field, Op: OpEq, Value: raw}, nil
	}
	if len(list) != 2 {
		return Condition{}, fmt.Errorf("%w: %q expects [operator, value]", ErrMalformedFilter, field)
	}
	opName, ok := list[0].(string)
	if !ok {
		return Condition{}, fmt.Errorf("%w: %q operator must be a string", ErrMalformedFilter, field)
	}
	op := Operator(strings.ToLower(strings.TrimSpace(opName)))
	if !operators[op] {
		return Condition{}, fmt.Errorf("%w: unknown operator %q", ErrMalformedFilter, opName)
	}
	value := list[1]

	switch op {
	case OpIn, OpNotIn:
		values, err := listValue(value)
		if err != nil {
			return Condition{}, fmt.Errorf("%w: %q: %v", ErrMalformedFilter, field, err)
		}
		value = values
	case OpBetween:
		values, ok := value.([]any)
		if !ok || len(values) != 2 || !scalar(values[0]) || !scalar(values[1]) {
			return Condition{}, fmt.Errorf("%w: %q between expects two values", ErrMalformedFilter, field)
		}
	case OpIs:
		s, _ := value.(string)
		s = strings.ToLower(strings.TrimSpace(s))
		if s != IsSet && s != IsNotSet {
			return Condition{}, fmt.Errorf("%w: %q is expects %q or %q", ErrMalformedFilter, field, IsSet, IsNotSet)
		}
		value = s
	case OpLike, OpNotLike:
		if _, ok := value.(string); !ok {
			return Condition{}, fmt.Errorf("%w: %q like expects a string", ErrMalformedFilter, field)
		}
	default:
		if !scalar(value) {
			return Condition{}, fmt.Errorf("%w: unsupported value for %q", ErrMalformedFilter, field)
		}
	}
	return Condition{Field: field, Op: op, Value: value}, nil
}

func listValue(v any) ([]any, error) {
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if !scalar(item) || item == nil {
				return nil, fmt.Errorf("list items must be scalars")
			}
		}
		return t, nil
	case string:
		parts := strings.Split(t, ",")
		out := make([]any, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected a list")
}

func scalar(v any) bool {
	switch v.(type) {
	case nil, string, bool, float64, float32, int, int32, int64, json.Number:
		return true
	}
	return false
}
