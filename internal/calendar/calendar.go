// Package calendar renders timeline blocks as an iCalendar feed.
package calendar

import (
	"fmt"
	"strconv"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/rpggio/chronos/internal/domain/record"
	"github.com/rpggio/chronos/internal/domain/timeline"
)

const productID = "-//chronos//timeline//EN"

// Render builds a VCALENDAR with one VEVENT per dated block. Date-only
// blocks become all-day events whose DTEND is the day after their last day.
// Timed blocks without an end last for their duration in hours, or one hour.
func Render(blocks []timeline.BlockView, now time.Time) (string, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)

	for _, b := range blocks {
		if b.Date == "" {
			continue
		}
		start, err := time.Parse(record.DatetimeLayout, b.Date)
		if err != nil {
			return "", fmt.Errorf("block %s: %w", b.ID, err)
		}
		var end time.Time
		if b.EndDate != "" {
			if end, err = time.Parse(record.DatetimeLayout, b.EndDate); err != nil {
				return "", fmt.Errorf("block %s: %w", b.ID, err)
			}
		}

		event := cal.AddEvent(fmt.Sprintf("%s/%s@chronos", b.Collection, b.ID))
		event.SetDtStampTime(now.UTC())
		event.SetSummary(b.Label)
		if s, ok := b.Description.(string); ok && s != "" {
			event.SetDescription(s)
		}
		if b.Status != nil {
			event.AddProperty(ics.ComponentPropertyCategories, fmt.Sprint(b.Status))
		}

		if b.AllDay {
			if end.IsZero() || end.Before(start) {
				end = start
			}
			event.SetAllDayStartAt(start)
			event.SetAllDayEndAt(end.AddDate(0, 0, 1))
			continue
		}
		if end.IsZero() {
			end = start.Add(durationOf(b.Duration))
		}
		event.SetStartAt(start)
		event.SetEndAt(end)
	}
	return cal.Serialize(), nil
}

func durationOf(v any) time.Duration {
	var hours float64
	switch d := v.(type) {
	case float64:
		hours = d
	case int:
		hours = float64(d)
	case int64:
		hours = float64(d)
	case string:
		hours, _ = strconv.ParseFloat(d, 64)
	}
	if hours <= 0 {
		return time.Hour
	}
	return time.Duration(hours * float64(time.Hour))
}
