package video

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed channels.yaml
var defaultChannels []byte

// Kind selects the query and title matching rules for a channel.
type Kind string

const (
	WordToday   Kind = "word_today"
	OnlyByGrace Kind = "only_by_grace"
	FullTank    Kind = "fulltank"
)

// Channel is a YouTube channel whose daily video is linked from readings.
type Channel struct {
	Name  string `yaml:"name"`
	ID    string `yaml:"id"`
	Field string `yaml:"field"` // document field receiving the video URL
	Kind  Kind   `yaml:"kind"`
}

type channelFile struct {
	Channels []Channel `yaml:"channels"`
}

// LoadChannels reads channel definitions from path, or the built-in
// definitions when path is empty.
func LoadChannels(path string) ([]Channel, error) {
	data := defaultChannels
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("reading channels file: %w", err)
		}
	}
	return ParseChannels(data)
}

// ParseChannels decodes and validates a channels document.
func ParseChannels(data []byte) ([]Channel, error) {
	var file channelFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing channels: %w", err)
	}
	if len(file.Channels) == 0 {
		return nil, fmt.Errorf("no channels defined")
	}

	for i, ch := range file.Channels {
		if ch.ID == "" || ch.Field == "" {
			return nil, fmt.Errorf("channel %d (%s): id and field are required", i, ch.Name)
		}
		switch ch.Kind {
		case WordToday, OnlyByGrace, FullTank:
		default:
			return nil, fmt.Errorf("channel %d (%s): unknown kind %q", i, ch.Name, ch.Kind)
		}
	}
	return file.Channels, nil
}

const onlyByGrace = "Only By Grace"

// longDate formats "Wednesday, November 5, 2025".
func longDate(d time.Time) string {
	return d.Format("Monday, January 2, 2006")
}

// Query returns the search query for the channel's video on date.
func (c Channel) Query(date time.Time) string {
	switch c.Kind {
	case WordToday:
		return "Today's Catholic Mass Readings & Gospel Reflection " + longDate(date)
	case OnlyByGrace:
		return date.Format("02 January 2006") + " - Only By Grace Reflections"
	case FullTank:
		return "FULLTANK " + strings.ToUpper(date.Weekday().String())
	default:
		return c.Name
	}
}

// Match picks the video for date from search results, which arrive newest
// first.
func (c Channel) Match(date time.Time, videos []Video) (Video, bool) {
	switch c.Kind {
	case WordToday:
		want := longDate(date)
		return first(videos, func(v Video) bool { return strings.Contains(v.Title, want) })

	case OnlyByGrace:
		formats := []string{
			date.Format("02 January 2006"),
			date.Format("02 Jan 2006"),
			date.Format("2 January 2006"),
			date.Format("02-01-2006"),
			date.Format("2006-01-02"),
		}
		if v, ok := first(videos, func(v Video) bool {
			if !strings.Contains(v.Title, onlyByGrace) {
				return false
			}
			for _, f := range formats {
				if strings.Contains(v.Title, f) {
					return true
				}
			}
			return false
		}); ok {
			return v, true
		}
		// Titles are not always dated; take the most recent reflection.
		return first(videos, func(v Video) bool { return strings.Contains(v.Title, onlyByGrace) })

	case FullTank:
		want := "FULLTANK " + strings.ToUpper(date.Weekday().String())
		return first(videos, func(v Video) bool { return strings.Contains(strings.ToUpper(v.Title), want) })
	}
	return Video{}, false
}

func first(videos []Video, pred func(Video) bool) (Video, bool) {
	for _, v := range videos {
		if pred(v) {
			return v, true
		}
	}
	return Video{}, false
}
