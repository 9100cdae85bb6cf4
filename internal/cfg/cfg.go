// Package cfg declares the option groups shared by the commands. Every
// option can be given as a flag or through its environment variable.
package cfg

import (
	"errors"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Common options present in every command.
type Common struct {
	DryRun   bool   `long:"dry-run" env:"DRY_RUN" description:"Log what would be written without writing"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
	Timezone string `long:"timezone" env:"TIMEZONE" default:"America/New_York" description:"Timezone used to determine today's date"`
}

// Location resolves the configured timezone.
func (c Common) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ErrNoProject is returned when Firestore is opened without a project.
var ErrNoProject = errors.New("no Firestore project configured: set GCP_PROJECT_ID or --project")

// Firestore selects the projects and collection records are written to.
type Firestore struct {
	ProjectID          string `long:"project" env:"GCP_PROJECT_ID" description:"Primary Firestore project (required unless --dry-run)"`
	SecondaryProjectID string `long:"secondary-project" env:"SECONDARY_GCP_PROJECT_ID" description:"Optional second project that receives the same writes"`
	Collection         string `long:"collection" env:"FIRESTORE_COLLECTION" default:"daily_scripture" description:"Firestore collection"`
}

// Projects returns the configured project ids, primary first.
func (f Firestore) Projects() []string {
	projects := []string{f.ProjectID}
	if f.SecondaryProjectID != "" && f.SecondaryProjectID != f.ProjectID {
		projects = append(projects, f.SecondaryProjectID)
	}
	return projects
}

// Sources configures the readings site and the scripture text API.
type Sources struct {
	USCCBBaseURL    string        `long:"usccb-base-url" env:"USCCB_BASE_URL" default:"https://bible.usccb.org/bible/readings" description:"Root of the daily readings pages"`
	BibleAPIBaseURL string        `long:"bible-api-base-url" env:"BIBLE_API_BASE_URL" default:"https://bible-api.com" description:"Root of the scripture text API"`
	UserAgent       string        `long:"user-agent" env:"USER_AGENT" default:"Mozilla/5.0 (compatible; Daily Readings Seeder/1.0)" description:"User agent for HTTP requests"`
	FetchTimeout    time.Duration `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"30s" description:"Timeout for fetching a readings page"`
	LookupTimeout   time.Duration `long:"lookup-timeout" env:"LOOKUP_TIMEOUT" default:"8s" description:"Timeout for a passage text lookup"`
	SkipText        bool          `long:"skip-text" env:"SKIP_TEXT" description:"Store references only, without passage text"`
	CacheDir        string        `long:"cache-dir" env:"CACHE_DIR" description:"Directory for cached readings pages (disabled when empty)"`
	CacheTTL        time.Duration `long:"cache-ttl" env:"CACHE_TTL" default:"6h" description:"How long cached pages stay valid"`
	RefreshCache    bool          `long:"refresh-cache" env:"REFRESH_CACHE" description:"Empty the page cache before fetching"`
	BrowserFallback bool          `long:"browser-fallback" env:"BROWSER_FALLBACK" description:"Render pages in headless Chrome when the static page has no citations"`
	ChromePath      string        `long:"chrome-path" env:"CHROME_PATH" description:"Chrome or Chromium binary used for rendering"`
}

// Archive selects where fetched pages are kept.
type Archive struct {
	Bucket string `long:"gcs-bucket" env:"GCS_BUCKET" description:"Cloud Storage bucket for fetched pages"`
	Dir    string `long:"store-dir" env:"STORE_DIR" description:"Local directory for fetched pages, used when no bucket is set"`
}

// YouTube configures the reflection video lookup.
type YouTube struct {
	APIKey       string `long:"youtube-api-key" env:"YOUTUBE_API_KEY" description:"YouTube Data API key"`
	ChannelsFile string `long:"channels-file" env:"CHANNELS_FILE" description:"YAML channel definitions replacing the built-in ones"`
}

// Parse fills opts from args and the environment. It returns false without
// an error when help was requested.
func Parse(opts any, args []string) (bool, error) {
	parser := flags.NewParser(opts, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return false, nil
		}
		return false, fmt.Errorf("failed to parse configuration: %w", err)
	}
	return true, nil
}
