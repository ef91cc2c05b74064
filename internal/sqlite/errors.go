package sqlite

import (
	"strings"
	"time"

	"github.com/rpggio/chronos/internal/domain/record"
)

func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Timestamps are stored as UTC text so date() and lexical ordering apply.
func formatTime(t time.Time) string {
	return t.UTC().Format(record.DatetimeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(record.DatetimeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
