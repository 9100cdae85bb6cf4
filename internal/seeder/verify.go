package seeder

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"daily-scripture/internal/model"
)

// IssueKind names a problem found in a stored reading.
type IssueKind string

const (
	IssueMissingDocument  IssueKind = "missing_document"
	IssueDefaultGospel    IssueKind = "default_gospel"
	IssueMissingGospel    IssueKind = "missing_gospel_verse"
	IssueMissingPsalm     IssueKind = "missing_responsorial_psalm_verse"
	IssueBodyTooLong      IssueKind = "body_too_long"
	IssueMissingUSCCBLink IssueKind = "missing_usccb_link"
)

const (
	defaultGospelReference = "John 3:16"
	maxBodyLength          = 100
)

// Issue is a problem found for one date.
type Issue struct {
	Date string    `json:"date"`
	Kind IssueKind `json:"kind"`
}

// RecordReader reads stored readings back.
type RecordReader interface {
	GetReading(ctx context.Context, date string) (model.StoredReading, bool, error)
}

// RecordDeleter removes stored readings.
type RecordDeleter interface {
	DeleteReadings(ctx context.Context, dates []string) error
}

// Inspect returns the problems found in a stored reading. Records written
// before reading texts were stored carry the gospel text in body, which is
// reported as too long.
func Inspect(r model.StoredReading) []IssueKind {
	var issues []IssueKind
	if r.Reference == defaultGospelReference {
		issues = append(issues, IssueDefaultGospel)
	}
	if r.Verse(model.Gospel) == "" {
		issues = append(issues, IssueMissingGospel)
	}
	if r.Verse(model.ResponsorialPsalm) == "" {
		issues = append(issues, IssueMissingPsalm)
	}
	if len(r.Body) > maxBodyLength {
		issues = append(issues, IssueBodyTooLong)
	}
	if r.USCCBLink == "" {
		issues = append(issues, IssueMissingUSCCBLink)
	}
	return issues
}

// Verify checks the stored reading for each date.
func Verify(ctx context.Context, reader RecordReader, dates []time.Time) ([]Issue, error) {
	var issues []Issue
	for _, date := range dates {
		id := DateID(date)
		r, found, err := reader.GetReading(ctx, id)
		if err != nil {
			return issues, fmt.Errorf("verifying %s: %w", id, err)
		}
		if !found {
			issues = append(issues, Issue{Date: id, Kind: IssueMissingDocument})
			continue
		}
		for _, kind := range Inspect(r) {
			issues = append(issues, Issue{Date: id, Kind: kind})
		}
	}
	return issues, nil
}

// FlaggedDates returns the distinct dates that have at least one issue, in
// the order they first appear.
func FlaggedDates(issues []Issue, loc *time.Location) ([]time.Time, error) {
	seen := make(map[string]bool)
	var dates []time.Time
	for _, is := range issues {
		if seen[is.Date] {
			continue
		}
		seen[is.Date] = true
		d, err := ParseDate(is.Date, loc)
		if err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, nil
}

// Reseed deletes the stored readings for dates and seeds them again.
func (s *Seeder) Reseed(ctx context.Context, deleter RecordDeleter, dates []time.Time) ([]Outcome, error) {
	if len(dates) == 0 {
		return nil, nil
	}

	ids := make([]string, len(dates))
	for i, d := range dates {
		ids[i] = DateID(d)
	}

	if s.dryRun {
		s.logger.Info("dry run, not deleting", zap.Strings("dates", ids))
	} else if err := deleter.DeleteReadings(ctx, ids); err != nil {
		return nil, fmt.Errorf("deleting readings: %w", err)
	}

	return s.SeedDates(ctx, dates), nil
}
