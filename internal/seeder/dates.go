package seeder

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// DateID formats a date as a document id.
func DateID(t time.Time) string {
	return t.Format(dateLayout)
}

// ParseDate parses a YYYY-MM-DD date in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD: %w", s, err)
	}
	return t, nil
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Range returns every day from from to to inclusive.
func Range(from, to time.Time) ([]time.Time, error) {
	from, to = day(from), day(to)
	if to.Before(from) {
		return nil, fmt.Errorf("range end %s is before start %s", DateID(to), DateID(from))
	}

	var dates []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates, nil
}

// Month returns every day of the given month.
func Month(year int, month time.Month, loc *time.Location) []time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	dates, _ := Range(first, first.AddDate(0, 1, -1))
	return dates
}

// NextMonth returns every day of the month after now.
func NextMonth(now time.Time) []time.Time {
	next := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, 1, 0)
	return Month(next.Year(), next.Month(), now.Location())
}

// TodayAndTomorrow returns today's and tomorrow's dates.
func TodayAndTomorrow(now time.Time) []time.Time {
	today := day(now)
	return []time.Time{today, today.AddDate(0, 0, 1)}
}
