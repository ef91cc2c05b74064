// Package sqlbuild renders record conditions into SQL for the JSON record
// stores. Field names are validated before they reach a dialect, values are
// always bound as arguments.
package sqlbuild

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rpggio/chronos/internal/domain/record"
)

// Dialect renders the store-specific pieces of a condition.
type Dialect interface {
	// Placeholder returns the n-th (1-based) bind parameter.
	Placeholder(n int) string
	// Column returns a text-valued expression reading field.
	Column(field string) string
	Numeric(expr string) string
	Boolean(expr string) string
	Date(expr string) string
}

// ErrUnsupportedCondition indicates a condition the builder cannot render.
var ErrUnsupportedCondition = fmt.Errorf("%w: unsupported condition", record.ErrMalformedFilter)

type builder struct {
	d    Dialect
	args []any
	next int
}

// Where renders conds joined with AND, numbering parameters from start.
// It returns an empty clause when conds is empty.
func Where(d Dialect, conds []record.Condition, start int) (string, []any, error) {
	b := &builder{d: d, next: start}
	parts := make([]string, 0, len(conds))
	for _, c := range conds {
		sql, err := b.condition(c)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
	}
	return strings.Join(parts, " AND "), b.args, nil
}

// OrderBy renders an ORDER BY clause for field, or "" when field is empty.
func OrderBy(d Dialect, field string, desc bool) (string, error) {
	if field == "" {
		return "", nil
	}
	if !record.ValidFieldName(field) {
		return "", fmt.Errorf("%w: %q", record.ErrInvalidFieldName, field)
	}
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s", d.Column(field), dir), nil
}

func (b *builder) bind(v any) string {
	if n, ok := v.(json.Number); ok {
		if f, err := n.Float64(); err == nil {
			v = f
		}
	}
	b.args = append(b.args, v)
	ph := b.d.Placeholder(b.next)
	b.next++
	return ph
}

func (b *builder) condition(c record.Condition) (string, error) {
	if !record.ValidFieldName(c.Field) {
		return "", fmt.Errorf("%w: %q", record.ErrInvalidFieldName, c.Field)
	}
	col := b.d.Column(c.Field)

	switch c.Op {
	case record.OpEq, record.OpNotEq, record.OpLT, record.OpLTE, record.OpGT, record.OpGTE:
		if c.Value == nil {
			switch c.Op {
			case record.OpEq:
				return fmt.Sprintf("(%s IS NULL)", col), nil
			case record.OpNotEq:
				return fmt.Sprintf("(%s IS NOT NULL)", col), nil
			}
			return "", fmt.Errorf("%w: %s %s null", ErrUnsupportedCondition, c.Field, c.Op)
		}
		op := string(c.Op)
		if c.Op == record.OpNotEq {
			op = "<>"
		}
		lhs := b.operand(col, c.Value, c.DateOnly)
		return fmt.Sprintf("%s %s %s", lhs, op, b.value(c.Value, c.DateOnly)), nil

	case record.OpLike, record.OpNotLike:
		s, ok := c.Value.(string)
		if !ok {
			return "", fmt.Errorf("%w: %s like needs a string", ErrUnsupportedCondition, c.Field)
		}
		op := "LIKE"
		if c.Op == record.OpNotLike {
			op = "NOT LIKE"
		}
		return fmt.Sprintf("%s %s %s", col, op, b.bind(s)), nil

	case record.OpIn, record.OpNotIn:
		values, ok := c.Value.([]any)
		if !ok {
			return "", fmt.Errorf("%w: %s in needs a list", ErrUnsupportedCondition, c.Field)
		}
		if len(values) == 0 {
			if c.Op == record.OpIn {
				return "1 = 0", nil
			}
			return "1 = 1", nil
		}
		lhs := b.operand(col, values[0], c.DateOnly)
		phs := make([]string, len(values))
		for i, v := range values {
			phs[i] = b.value(v, c.DateOnly)
		}
		op := "IN"
		if c.Op == record.OpNotIn {
			op = "NOT IN"
		}
		return fmt.Sprintf("%s %s (%s)", lhs, op, strings.Join(phs, ", ")), nil

	case record.OpBetween:
		values, ok := c.Value.([]any)
		if !ok || len(values) != 2 {
			return "", fmt.Errorf("%w: %s between needs two values", ErrUnsupportedCondition, c.Field)
		}
		lhs := b.operand(col, values[0], c.DateOnly)
		return fmt.Sprintf("%s BETWEEN %s AND %s", lhs, b.value(values[0], c.DateOnly), b.value(values[1], c.DateOnly)), nil

	case record.OpIs:
		switch c.Value {
		case record.IsSet:
			return fmt.Sprintf("(%s IS NOT NULL AND %s <> '')", col, col), nil
		case record.IsNotSet:
			return fmt.Sprintf("(%s IS NULL OR %s = '')", col, col), nil
		}
	}
	return "", fmt.Errorf("%w: %s %s", ErrUnsupportedCondition, c.Field, c.Op)
}

// operand picks the comparison form of col from the kind of v.
func (b *builder) operand(col string, v any, dateOnly bool) string {
	if dateOnly {
		return b.d.Date(col)
	}
	switch v.(type) {
	case float64, float32, int, int32, int64, json.Number:
		return b.d.Numeric(col)
	case bool:
		return b.d.Boolean(col)
	}
	return col
}

func (b *builder) value(v any, dateOnly bool) string {
	if dateOnly {
		return b.d.Date(b.bind(fmt.Sprint(v)))
	}
	return b.bind(v)
}
