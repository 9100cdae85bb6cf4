// Command extract fetches the readings page for a date and prints the
// citations found, how they parse and the lookup keys they map to. Nothing
// is written to Firestore.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"daily-scripture/internal/cfg"
	"daily-scripture/internal/logging"
	"daily-scripture/internal/model"
	"daily-scripture/internal/scraper"
	"daily-scripture/internal/scripture"
	"daily-scripture/internal/seeder"
	"daily-scripture/internal/store"
)

type options struct {
	cfg.Common  `group:"Common Options"`
	cfg.Dates   `group:"Date Selection"`
	cfg.Sources `group:"Source Options"`
	cfg.Archive `group:"Archive Options"`

	FromArchive bool `long:"from-archive" description:"Read pages from the archive instead of fetching them"`
}

type section struct {
	Section    model.SectionKind     `json:"section"`
	Title      string                `json:"title"`
	Raw        string                `json:"raw_reference"`
	Response   string                `json:"response,omitempty"`
	Parsed     model.ParsedReference `json:"parsed"`
	LookupKey  string                `json:"lookup_key,omitempty"`
	Error      string                `json:"error,omitempty"`
	TextLength int                   `json:"text_length,omitempty"`
}

type report struct {
	Date     string           `json:"date"`
	URL      string           `json:"url,omitempty"`
	Strategy scraper.Strategy `json:"strategy,omitempty"`
	Missing  []string         `json:"missing,omitempty"`
	Sections []section        `json:"sections"`
	Error    string           `json:"error,omitempty"`
}

func main() {
	var opts options
	ok, err := cfg.Parse(&opts, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if !ok {
		return
	}

	logger, err := logging.New(opts.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, logger); err != nil {
		logger.Error("extraction failed", zap.Error(err))
		os.Exit(1)
	}
}

func today(now time.Time) []time.Time {
	return seeder.TodayAndTomorrow(now)[:1]
}

func run(ctx context.Context, opts options, logger *zap.Logger) error {
	loc, err := opts.Location()
	if err != nil {
		return err
	}
	dates, err := opts.Resolve(time.Now(), loc, today)
	if err != nil {
		return err
	}

	var archive store.Store
	if opts.FromArchive {
		var closeArchive func() error
		archive, closeArchive, err = opts.Archive.Open(ctx)
		if err != nil {
			return err
		}
		defer closeArchive()
		if archive == nil {
			return fmt.Errorf("--from-archive needs --gcs-bucket or --store-dir")
		}
	}

	fetcher, err := opts.Fetcher()
	if err != nil {
		return err
	}
	resolver := opts.Resolver(logger)

	reports := make([]report, 0, len(dates))
	for _, date := range dates {
		reports = append(reports, inspect(ctx, date, opts.USCCBBaseURL, fetcher, archive, resolver))
	}

	out, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func inspect(ctx context.Context, date time.Time, baseURL string, fetcher scraper.PageFetcher, archive store.Store, resolver seeder.TextResolver) report {
	rep := report{Date: seeder.DateID(date), Sections: []section{}}

	page, url, err := loadPage(ctx, date, baseURL, fetcher, archive)
	if err != nil {
		rep.Error = err.Error()
		return rep
	}
	rep.URL = url

	ext, err := scraper.ExtractPage(string(page), date, url)
	if err != nil {
		rep.Error = err.Error()
		return rep
	}
	rep.Strategy = ext.Strategy
	for _, k := range ext.Missing() {
		rep.Missing = append(rep.Missing, string(k))
	}

	for _, c := range ext.Citations {
		sec := section{
			Section:  c.Section,
			Title:    c.Section.Title(),
			Raw:      c.RawReference,
			Response: c.Response,
			Parsed:   scripture.Parse(c.RawReference),
		}
		key, err := scripture.ToLookupKey(sec.Parsed)
		if err != nil {
			sec.Error = err.Error()
		} else {
			sec.LookupKey = key.String()
			if resolver != nil {
				if text, ok := resolver.Resolve(ctx, key); ok {
					sec.TextLength = len(text)
				}
			}
		}
		rep.Sections = append(rep.Sections, sec)
	}
	return rep
}

func loadPage(ctx context.Context, date time.Time, baseURL string, fetcher scraper.PageFetcher, archive store.Store) ([]byte, string, error) {
	if archive != nil {
		key := "usccb/" + seeder.DateID(date)
		page, ok := archive.GetWithExtension(key, ".html")
		if !ok {
			return nil, "", fmt.Errorf("no archived page under %s", key)
		}
		var meta struct {
			URL string `json:"url"`
		}
		if archive.GetJSON(key, &meta) && meta.URL != "" {
			return page, meta.URL, nil
		}
		return page, scraper.ReadingsURL(baseURL, date), nil
	}

	var lastErr error
	for _, url := range scraper.ReadingsURLs(baseURL, date) {
		page, err := fetcher.Fetch(ctx, url)
		if err == nil {
			return page, url, nil
		}
		lastErr = err
	}
	return nil, "", lastErr
}
