package scraper

import (
	"fmt"
	"strings"
	"time"
)

// DefaultBaseURL is the root of the USCCB daily readings pages.
const DefaultBaseURL = "https://bible.usccb.org/bible/readings"

// ReadingsURLs returns the candidate readings page URLs for a date, most
// specific first. Civil holidays that share a liturgical date have their own
// page variant; the plain date page is always the last candidate.
func ReadingsURLs(baseURL string, date time.Time) []string {
	baseURL = strings.TrimRight(baseURL, "/")
	prefix := fmt.Sprintf("%s/%02d/%02d/%04d", baseURL, int(date.Month()), date.Day(), date.Year())

	plain := prefix + ".cfm"
	if suffix := holidaySuffix(date); suffix != "" {
		return []string{prefix + "-" + suffix + ".cfm", plain}
	}
	return []string{plain}
}

// ReadingsURL returns the preferred readings page URL for a date.
func ReadingsURL(baseURL string, date time.Time) string {
	return ReadingsURLs(baseURL, date)[0]
}

func holidaySuffix(date time.Time) string {
	if IsThanksgiving(date) {
		return "Thanksgiving"
	}
	return ""
}

// IsThanksgiving reports whether date is the fourth Thursday of November.
func IsThanksgiving(date time.Time) bool {
	return date.Month() == time.November &&
		date.Weekday() == time.Thursday &&
		date.Day() >= 22 && date.Day() <= 28
}
