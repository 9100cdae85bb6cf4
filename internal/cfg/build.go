package cfg

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"daily-scripture/internal/bibleapi"
	"daily-scripture/internal/browser"
	"daily-scripture/internal/cache"
	"daily-scripture/internal/firestore"
	"daily-scripture/internal/scraper"
	"daily-scripture/internal/seeder"
	"daily-scripture/internal/store"
	"daily-scripture/internal/video"
)

// Fetcher builds the page fetcher, cached when a cache directory is set.
func (s Sources) Fetcher() (scraper.PageFetcher, error) {
	var f scraper.PageFetcher = scraper.NewHTTPFetcher(s.FetchTimeout, s.UserAgent)
	if s.CacheDir == "" {
		return f, nil
	}

	c, err := cache.New(s.CacheDir, s.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("creating page cache: %w", err)
	}
	if s.RefreshCache {
		if err := c.InvalidateAll(); err != nil {
			return nil, fmt.Errorf("emptying page cache: %w", err)
		}
	}
	return scraper.NewCachingFetcher(f, c), nil
}

// Rendered builds the browser fetcher, or nil when rendering is disabled.
func (s Sources) Rendered() scraper.PageFetcher {
	if !s.BrowserFallback {
		return nil
	}
	return browser.New(s.ChromePath, s.UserAgent, 0)
}

// Resolver builds the passage text client, or nil when text is skipped.
func (s Sources) Resolver(logger *zap.Logger) seeder.TextResolver {
	if s.SkipText {
		return nil
	}
	return bibleapi.New(logger,
		bibleapi.WithBaseURL(s.BibleAPIBaseURL),
		bibleapi.WithTimeout(s.LookupTimeout),
		bibleapi.WithUserAgent(s.UserAgent),
	)
}

// Open opens the page archive. It returns a nil store when neither a
// bucket nor a directory is configured.
func (a Archive) Open(ctx context.Context) (store.Store, func() error, error) {
	noop := func() error { return nil }

	switch {
	case a.Bucket != "":
		s, err := store.NewGCS(ctx, a.Bucket)
		if err != nil {
			return nil, noop, fmt.Errorf("opening GCS store: %w", err)
		}
		return s, s.Close, nil
	case a.Dir != "":
		s, err := store.NewLocal(a.Dir)
		if err != nil {
			return nil, noop, fmt.Errorf("opening local store: %w", err)
		}
		return s, noop, nil
	default:
		return nil, noop, nil
	}
}

// Open creates a client per configured project. The returned function
// closes all of them. It fails with ErrNoProject when no primary project is
// set.
func (f Firestore) Open(ctx context.Context) ([]*firestore.Client, func(), error) {
	var clients []*firestore.Client
	closeAll := func() {
		for _, c := range clients {
			c.Close()
		}
	}

	if f.ProjectID == "" {
		return nil, func() {}, ErrNoProject
	}

	for _, project := range f.Projects() {
		c, err := firestore.New(ctx, project, f.Collection)
		if err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("project %s: %w", project, err)
		}
		clients = append(clients, c)
	}
	return clients, closeAll, nil
}

// ReadingStores adapts clients to the seeder's store interface.
func ReadingStores(clients []*firestore.Client) []seeder.ReadingStore {
	stores := make([]seeder.ReadingStore, len(clients))
	for i, c := range clients {
		stores[i] = c
	}
	return stores
}

// VideoStores adapts clients to the video store interface.
func VideoStores(clients []*firestore.Client) []video.VideoStore {
	stores := make([]video.VideoStore, len(clients))
	for i, c := range clients {
		stores[i] = c
	}
	return stores
}

// NewSeeder assembles the seeding pipeline. The returned function releases
// the page archive.
func NewSeeder(ctx context.Context, common Common, src Sources, arc Archive, stores []seeder.ReadingStore, logger *zap.Logger) (*seeder.Seeder, func() error, error) {
	fetcher, err := src.Fetcher()
	if err != nil {
		return nil, nil, err
	}

	archive, closeArchive, err := arc.Open(ctx)
	if err != nil {
		return nil, nil, err
	}

	s := seeder.New(seeder.Config{
		Fetcher:  fetcher,
		Rendered: src.Rendered(),
		Resolver: src.Resolver(logger),
		Stores:   stores,
		Archive:  archive,
		BaseURL:  src.USCCBBaseURL,
		DryRun:   common.DryRun,
		Logger:   logger,
	})
	return s, closeArchive, nil
}

// NewFinder builds the reflection video finder.
func (y YouTube) NewFinder(ctx context.Context, logger *zap.Logger) (*video.Finder, error) {
	channels, err := video.LoadChannels(y.ChannelsFile)
	if err != nil {
		return nil, err
	}
	searcher, err := video.NewYouTubeSearcher(ctx, y.APIKey)
	if err != nil {
		return nil, err
	}
	return video.NewFinder(searcher, channels, logger), nil
}
