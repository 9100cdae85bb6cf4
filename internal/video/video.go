// Package video finds the daily reflection videos published by a few
// YouTube channels and links them from the reading documents.
package video

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const maxResults = 5

// Video is a search result.
type Video struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// URL returns the watch page URL.
func (v Video) URL() string {
	return "https://www.youtube.com/watch?v=" + v.ID
}

// Searcher searches a channel's videos, newest first.
type Searcher interface {
	Search(ctx context.Context, channelID, query string) ([]Video, error)
}

// YouTubeSearcher is a Searcher backed by the YouTube Data API.
type YouTubeSearcher struct {
	svc *youtube.Service
}

// NewYouTubeSearcher creates a searcher authenticated with an API key.
func NewYouTubeSearcher(ctx context.Context, apiKey string, opts ...option.ClientOption) (*YouTubeSearcher, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("youtube API key is required")
	}
	svc, err := youtube.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("creating youtube service: %w", err)
	}
	return &YouTubeSearcher{svc: svc}, nil
}

func (s *YouTubeSearcher) Search(ctx context.Context, channelID, query string) ([]Video, error) {
	resp, err := s.svc.Search.List([]string{"snippet"}).
		ChannelId(channelID).
		Q(query).
		MaxResults(maxResults).
		Type("video").
		Order("date").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("searching channel %s: %w", channelID, err)
	}

	var videos []Video
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
			continue
		}
		videos = append(videos, Video{ID: item.Id.VideoId, Title: item.Snippet.Title})
	}
	return videos, nil
}

// VideoStore records video links on reading documents.
type VideoStore interface {
	SetVideoURL(ctx context.Context, date, field, url string) error
}

// Result is the JSON report of a video run.
type Result struct {
	Status          string   `json:"status"`
	ProcessedDates  []string `json:"processed_dates"`
	ProcessedVideos []string `json:"processed_videos"`
	Errors          []string `json:"errors"`
}

// Finder looks up each channel's video per date.
type Finder struct {
	searcher Searcher
	channels []Channel
	logger   *zap.Logger
}

// NewFinder creates a Finder.
func NewFinder(searcher Searcher, channels []Channel, logger *zap.Logger) *Finder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Finder{searcher: searcher, channels: channels, logger: logger}
}

// Find returns the channel's video for date. ok is false when no search
// result matched.
func (f *Finder) Find(ctx context.Context, ch Channel, date time.Time) (Video, bool, error) {
	videos, err := f.searcher.Search(ctx, ch.ID, ch.Query(date))
	if err != nil {
		return Video{}, false, err
	}
	v, ok := ch.Match(date, videos)
	return v, ok, nil
}

// Run finds every channel's video for each date and stores the links. A
// failure for one channel or date is recorded and the run continues.
func (f *Finder) Run(ctx context.Context, dates []time.Time, stores []VideoStore, dryRun bool) Result {
	res := Result{
		ProcessedDates:  []string{},
		ProcessedVideos: []string{},
		Errors:          []string{},
	}

	for _, date := range dates {
		id := date.Format("2006-01-02")
		res.ProcessedDates = append(res.ProcessedDates, id)

		for _, ch := range f.channels {
			log := f.logger.With(zap.String("date", id), zap.String("channel", ch.Name))

			v, ok, err := f.Find(ctx, ch, date)
			if err != nil {
				log.Error("video search failed", zap.Error(err))
				res.Errors = append(res.Errors, fmt.Sprintf("%s error for %s: %v", ch.Name, id, err))
				continue
			}
			if !ok {
				log.Warn("no matching video", zap.String("query", ch.Query(date)))
				res.Errors = append(res.Errors, fmt.Sprintf("No %s video for %s", ch.Name, id))
				continue
			}

			if dryRun {
				log.Info("dry run, not saving", zap.String("field", ch.Field), zap.String("url", v.URL()))
				res.ProcessedVideos = append(res.ProcessedVideos, ch.Name+" - "+id)
				continue
			}

			saved := true
			for _, st := range stores {
				if err := st.SetVideoURL(ctx, id, ch.Field, v.URL()); err != nil {
					log.Error("saving video failed", zap.Error(err))
					res.Errors = append(res.Errors, fmt.Sprintf("%s error for %s: %v", ch.Name, id, err))
					saved = false
				}
			}
			if saved {
				log.Info("saved video", zap.String("title", v.Title), zap.String("url", v.URL()))
				res.ProcessedVideos = append(res.ProcessedVideos, ch.Name+" - "+id)
			}
		}
	}

	res.Status = "success"
	if len(res.ProcessedVideos) == 0 && len(res.Errors) > 0 {
		res.Status = "error"
	}
	return res
}
