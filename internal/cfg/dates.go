package cfg

import (
	"fmt"
	"time"

	"daily-scripture/internal/seeder"
)

// Dates selects the dates a command works on.
type Dates struct {
	Date  string `long:"date" description:"A single date (YYYY-MM-DD)"`
	From  string `long:"from" description:"First date of a range (YYYY-MM-DD)"`
	To    string `long:"to" description:"Last date of a range (YYYY-MM-DD)"`
	Month string `long:"month" description:"Every day of a month (YYYY-MM)"`
	Today bool   `long:"today" description:"Today and tomorrow"`
}

// Resolve returns the selected dates, or fallback(now) when none was given.
func (d Dates) Resolve(now time.Time, loc *time.Location, fallback func(time.Time) []time.Time) ([]time.Time, error) {
	now = now.In(loc)

	switch {
	case d.Date != "":
		date, err := seeder.ParseDate(d.Date, loc)
		if err != nil {
			return nil, err
		}
		return []time.Time{date}, nil

	case d.From != "" || d.To != "":
		if d.From == "" || d.To == "" {
			return nil, fmt.Errorf("--from and --to must be given together")
		}
		from, err := seeder.ParseDate(d.From, loc)
		if err != nil {
			return nil, err
		}
		to, err := seeder.ParseDate(d.To, loc)
		if err != nil {
			return nil, err
		}
		return seeder.Range(from, to)

	case d.Month != "":
		m, err := time.ParseInLocation("2006-01", d.Month, loc)
		if err != nil {
			return nil, fmt.Errorf("invalid month %q, want YYYY-MM: %w", d.Month, err)
		}
		return seeder.Month(m.Year(), m.Month(), loc), nil

	case d.Today:
		return seeder.TodayAndTomorrow(now), nil

	default:
		return fallback(now), nil
	}
}
