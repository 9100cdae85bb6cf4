package seeder

import "fmt"

// Summary is the JSON report returned by the seeding entry points.
type Summary struct {
	Status         string           `json:"status"`
	ProcessedDates []string         `json:"processed_dates"`
	Successful     int              `json:"successful"`
	Partial        int              `json:"partial"`
	Failed         int              `json:"failed"`
	DryRun         bool             `json:"dry_run,omitempty"`
	Dates          []OutcomeSummary `json:"dates"`
	Errors         []string         `json:"errors"`
}

// OutcomeSummary is one date's entry in a Summary.
type OutcomeSummary struct {
	Date       string   `json:"date"`
	Status     Status   `json:"status"`
	Strategy   string   `json:"strategy,omitempty"`
	URL        string   `json:"url,omitempty"`
	Missing    []string `json:"missing,omitempty"`
	Unresolved []string `json:"unresolved,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// Summarize builds the report for a batch of outcomes. The batch status is
// "success" when no date failed, "error" when every date failed and
// "partial" otherwise.
func Summarize(outcomes []Outcome) Summary {
	sum := Summary{
		ProcessedDates: []string{},
		Dates:          []OutcomeSummary{},
		Errors:         []string{},
	}

	for _, o := range outcomes {
		id := DateID(o.Date)
		sum.ProcessedDates = append(sum.ProcessedDates, id)

		entry := OutcomeSummary{
			Date:     id,
			Status:   o.Status,
			Strategy: string(o.Strategy),
			URL:      o.URL,
		}
		for _, k := range o.Missing {
			entry.Missing = append(entry.Missing, string(k))
		}
		for _, k := range o.Unresolved {
			entry.Unresolved = append(entry.Unresolved, string(k))
		}
		if o.Err != nil {
			entry.Error = o.Err.Error()
			sum.Errors = append(sum.Errors, fmt.Sprintf("%s: %v", id, o.Err))
		}
		sum.Dates = append(sum.Dates, entry)

		switch o.Status {
		case StatusSuccess:
			sum.Successful++
		case StatusPartial:
			sum.Partial++
		case StatusFailed:
			sum.Failed++
		case StatusDryRun:
			sum.DryRun = true
		}
	}

	switch {
	case sum.Failed == 0:
		sum.Status = "success"
	case sum.Failed == len(outcomes):
		sum.Status = "error"
	default:
		sum.Status = "partial"
	}
	return sum
}
