// Package seeder runs the per-date pipeline: fetch the readings page,
// extract and normalize its citations, resolve passage text and upsert the
// resulting record.
package seeder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"daily-scripture/internal/model"
	"daily-scripture/internal/scraper"
	"daily-scripture/internal/scripture"
	"daily-scripture/internal/store"
)

// Status summarizes how a date's pipeline ended.
type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
	StatusDryRun  Status = "dry_run"
)

// Outcome is the result of seeding one date.
type Outcome struct {
	Date       time.Time
	URL        string
	Status     Status
	Strategy   scraper.Strategy
	Missing    []model.SectionKind // required sections not found on the page
	Unresolved []model.SectionKind // sections found but without passage text
	Record     *model.DailyReadingRecord
	Err        error
}

// ReadingStore receives the records produced by the seeder.
type ReadingStore interface {
	UpsertReading(ctx context.Context, rec model.DailyReadingRecord) error
}

// TextResolver looks up passage text. ok is false when none is available.
type TextResolver interface {
	Resolve(ctx context.Context, key scripture.LookupKey) (text string, ok bool)
}

// Config holds the seeder's collaborators. Fetcher is required; the rest
// are optional.
type Config struct {
	Fetcher  scraper.PageFetcher
	Rendered scraper.PageFetcher // retried when a fetched page yields no citations
	Resolver TextResolver
	Stores   []ReadingStore
	Archive  store.Store
	BaseURL  string
	DryRun   bool
	Logger   *zap.Logger
}

// Seeder runs the pipeline for one date at a time.
type Seeder struct {
	fetcher  scraper.PageFetcher
	rendered scraper.PageFetcher
	resolver TextResolver
	stores   []ReadingStore
	archive  store.Store
	baseURL  string
	dryRun   bool
	logger   *zap.Logger
	now      func() time.Time
}

// New creates a Seeder.
func New(cfg Config) *Seeder {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = scraper.DefaultBaseURL
	}
	return &Seeder{
		fetcher:  cfg.Fetcher,
		rendered: cfg.Rendered,
		resolver: cfg.Resolver,
		stores:   cfg.Stores,
		archive:  cfg.Archive,
		baseURL:  baseURL,
		dryRun:   cfg.DryRun,
		logger:   logger,
		now:      time.Now,
	}
}

// SeedDates seeds each date in order. A failing date does not stop the
// batch; a cancelled context marks the remaining dates failed.
func (s *Seeder) SeedDates(ctx context.Context, dates []time.Time) []Outcome {
	outcomes := make([]Outcome, 0, len(dates))
	for _, date := range dates {
		if err := ctx.Err(); err != nil {
			outcomes = append(outcomes, Outcome{Date: date, Status: StatusFailed, Err: err})
			continue
		}
		outcomes = append(outcomes, s.SeedDate(ctx, date))
	}
	return outcomes
}

// SeedDate runs the full pipeline for a single date.
func (s *Seeder) SeedDate(ctx context.Context, date time.Time) Outcome {
	id := DateID(date)
	log := s.logger.With(zap.String("date", id))
	out := Outcome{Date: date}

	ext, page, err := s.extract(ctx, date)
	out.URL = ext.URL
	if err != nil {
		log.Error("extraction failed", zap.String("url", ext.URL), zap.Error(err))
		out.Status = StatusFailed
		out.Err = err
		return out
	}
	out.Strategy = ext.Strategy
	out.Missing = ext.Missing()

	log.Info("extracted citations",
		zap.String("url", ext.URL),
		zap.String("strategy", string(ext.Strategy)),
		zap.Int("citations", len(ext.Citations)),
	)
	if ext.Strategy == scraper.PositionalFallback {
		log.Warn("structural match found nothing, used positional fallback")
	}

	s.archivePage(log, id, page, ext)

	rec := model.DailyReadingRecord{
		Date:      id,
		SourceURL: ext.URL,
		FetchedAt: s.now().UTC(),
		Strategy:  string(ext.Strategy),
		Sections:  make(map[model.SectionKind]model.SectionRecord, len(ext.Citations)),
	}
	for _, c := range ext.Citations {
		sec, resolved := s.resolveSection(ctx, log, c)
		rec.Sections[c.Section] = sec
		if !resolved {
			out.Unresolved = append(out.Unresolved, c.Section)
		}
	}
	out.Record = &rec

	switch {
	case s.dryRun:
		out.Status = StatusDryRun
		log.Info("dry run, not writing", zap.Any("record", rec))
		return out
	case len(out.Missing) > 0 || len(out.Unresolved) > 0:
		out.Status = StatusPartial
	default:
		out.Status = StatusSuccess
	}

	var errs []error
	for _, st := range s.stores {
		if err := st.UpsertReading(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		log.Error("upsert failed", zap.Error(err))
		out.Status = StatusFailed
		out.Err = err
		return out
	}

	log.Info("seeded reading",
		zap.String("status", string(out.Status)),
		zap.Any("missing", out.Missing),
		zap.Any("unresolved", out.Unresolved),
	)
	return out
}

// pageInvalidator is implemented by fetchers that cache pages.
type pageInvalidator interface {
	Invalidate(url string) error
}

// extract tries each candidate URL for date in order and returns the first
// page that yields citations. A static page without citations is dropped
// from the page cache and retried through the rendering fetcher before the
// next candidate is tried.
func (s *Seeder) extract(ctx context.Context, date time.Time) (scraper.Extraction, []byte, error) {
	urls := scraper.ReadingsURLs(s.baseURL, date)

	var fetchErrs []error
	var lastExt scraper.Extraction
	var lastErr error
	for _, url := range urls {
		page, err := s.fetcher.Fetch(ctx, url)
		if err != nil {
			s.logger.Debug("candidate page unavailable", zap.String("url", url), zap.Error(err))
			fetchErrs = append(fetchErrs, err)
			continue
		}

		ext, err := scraper.ExtractPage(string(page), date, url)
		var failed *scraper.ExtractionFailed
		if err == nil || !errors.As(err, &failed) {
			return ext, page, err
		}
		lastExt, lastErr = ext, err

		if inv, ok := s.fetcher.(pageInvalidator); ok {
			if ierr := inv.Invalidate(url); ierr != nil {
				s.logger.Warn("dropping cached page failed", zap.String("url", url), zap.Error(ierr))
			}
		}

		if s.rendered == nil {
			continue
		}
		s.logger.Info("no citations in static page, rendering in browser",
			zap.String("date", DateID(date)), zap.String("url", url))

		rendered, rerr := s.rendered.Fetch(ctx, url)
		if rerr != nil {
			s.logger.Warn("browser fetch failed", zap.String("url", url), zap.Error(rerr))
			continue
		}
		ext, err = scraper.ExtractPage(string(rendered), date, url)
		if err == nil {
			return ext, rendered, nil
		}
		lastExt, lastErr = ext, err
	}

	if lastErr != nil {
		return lastExt, nil, lastErr
	}
	return scraper.Extraction{Date: date, URL: urls[len(urls)-1]}, nil,
		fmt.Errorf("fetching readings page: %w", errors.Join(fetchErrs...))
}

func (s *Seeder) resolveSection(ctx context.Context, log *zap.Logger, c model.Citation) (model.SectionRecord, bool) {
	sec := model.SectionRecord{Reference: c.RawReference}
	if c.Section == model.ResponsorialPsalm && c.Response != "" {
		response := c.Response
		sec.Response = &response
	}

	ref := scripture.Parse(c.RawReference)
	key, err := scripture.ToLookupKey(ref)
	if err != nil {
		log.Warn("citation could not be normalized",
			zap.String("section", string(c.Section)),
			zap.String("reference", c.RawReference),
			zap.Error(err),
		)
		return sec, false
	}

	if s.resolver == nil {
		return sec, false
	}
	text, ok := s.resolver.Resolve(ctx, key)
	if !ok {
		if scripture.IsDeuterocanonical(ref.Book) {
			log.Info("no text for deuterocanonical book",
				zap.String("section", string(c.Section)),
				zap.String("book", ref.Book),
			)
		}
		return sec, false
	}
	sec.Text = &text
	return sec, true
}

type archivedExtraction struct {
	URL       string           `json:"url"`
	Strategy  scraper.Strategy `json:"strategy"`
	Citations []model.Citation `json:"citations"`
}

func (s *Seeder) archivePage(log *zap.Logger, id string, page []byte, ext scraper.Extraction) {
	if s.archive == nil || s.dryRun {
		return
	}

	key := "usccb/" + id
	if err := s.archive.SetWithExtension(key, ".html", page); err != nil {
		log.Warn("archiving page failed", zap.String("key", key), zap.Error(err))
		return
	}
	meta := archivedExtraction{URL: ext.URL, Strategy: ext.Strategy, Citations: ext.Citations}
	if err := s.archive.SetJSON(key, meta); err != nil {
		log.Warn("archiving extraction failed", zap.String("key", key), zap.Error(err))
	}
}
