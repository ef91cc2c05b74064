package timeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/rpggio/chronos/internal/domain/record"
)

// CanonicalLayout is the output form of every date-like value.
const CanonicalLayout = record.DatetimeLayout

// Instant is a wall-clock value in UTC. Date-only instants have HasTime
// false and a zero time of day.
type Instant struct {
	Time    time.Time
	HasTime bool
}

var dateLayouts = []struct {
	layout  string
	hasTime bool
}{
	{"2006-01-02", false},
	{"2006-01-02 15:04:05", true},
	{"2006-01-02T15:04:05", true},
	{"2006-01-02 15:04", true},
	{"2006-01-02T15:04", true},
	{time.RFC3339, true},
	{"2006-01-02 15:04:05Z07:00", true},
	{"2006-01-02T15:04Z07:00", true},
	{"2006-01-02 15:04Z07:00", true},
}

// Coerce converts a raw value into an Instant. Strings are parsed in the
// accepted shapes; offsets are converted to UTC. A declared Date type drops
// the time of day, a declared Datetime type always carries one, and any
// other type keeps what the value itself expresses.
func Coerce(value any, declared record.FieldType) (Instant, error) {
	var inst Instant
	switch v := value.(type) {
	case Instant:
		inst = v
	case time.Time:
		if v.IsZero() {
			return Instant{}, fmt.Errorf("%w: zero time", ErrInvalidDateFormat)
		}
		inst = Instant{Time: v.UTC(), HasTime: true}
	case string:
		parsed, err := parseInstant(v)
		if err != nil {
			return Instant{}, err
		}
		inst = parsed
	default:
		return Instant{}, fmt.Errorf("%w: unsupported value %T", ErrInvalidDateFormat, value)
	}
	if !inst.HasTime {
		inst = inst.DateOnly()
	}
	switch declared {
	case record.FieldTypeDate:
		inst = inst.DateOnly()
	case record.FieldTypeDatetime:
		inst.HasTime = true
	}
	return inst, nil
}

func parseInstant(s string) (Instant, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Instant{}, fmt.Errorf("%w: empty value", ErrInvalidDateFormat)
	}
	for _, l := range dateLayouts {
		if t, err := time.Parse(l.layout, s); err == nil {
			return Instant{Time: t.UTC(), HasTime: l.hasTime}, nil
		}
	}
	return Instant{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, s)
}

// DateOnly returns the calendar date of i.
func (i Instant) DateOnly() Instant {
	y, m, d := i.Time.Date()
	return Instant{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// Before reports whether i is earlier than o. When either side is date-only
// the comparison is by calendar date.
func (i Instant) Before(o Instant) bool {
	if !i.HasTime || !o.HasTime {
		return i.DateOnly().Time.Before(o.DateOnly().Time)
	}
	return i.Time.Before(o.Time)
}

// Format renders i in CanonicalLayout. Date-only instants render at midnight.
func Format(i Instant) string {
	if !i.HasTime {
		i = i.DateOnly()
	}
	return i.Time.Format(CanonicalLayout)
}

// StorageValue renders i for a field of the declared type.
func StorageValue(i Instant, declared record.FieldType) string {
	switch declared {
	case record.FieldTypeDate:
		return i.DateOnly().Time.Format(record.DateLayout)
	case record.FieldTypeDatetime:
		return Format(i)
	}
	if !i.HasTime {
		return i.Time.Format(record.DateLayout)
	}
	return Format(i)
}

// FormatValue coerces value and renders it canonically.
func FormatValue(value any, declared record.FieldType) (string, error) {
	inst, err := Coerce(value, declared)
	if err != nil {
		return "", err
	}
	return Format(inst), nil
}

// ShiftPreservingSpan returns the end that keeps the oldStart..oldEnd span
// when the start moves to newStart. If any of the three lacks a time of day
// the span is counted in whole days and the result is date-only.
func ShiftPreservingSpan(oldStart, oldEnd, newStart Instant) Instant {
	if !oldStart.HasTime || !oldEnd.HasTime || !newStart.HasTime {
		days := daysBetween(oldStart, oldEnd)
		start := newStart.DateOnly()
		return Instant{Time: start.Time.AddDate(0, 0, days)}
	}
	return Instant{Time: newStart.Time.Add(oldEnd.Time.Sub(oldStart.Time)), HasTime: true}
}

func daysBetween(a, b Instant) int {
	return int(b.DateOnly().Time.Sub(a.DateOnly().Time).Hours() / 24)
}
