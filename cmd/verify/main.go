// Command verify checks the stored readings of each configured project and
// optionally reseeds the dates that have problems.
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
	"daily-scripture/internal/firestore"
	"daily-scripture/internal/logging"
	"daily-scripture/internal/seeder"
)

type options struct {
	cfg.Common    `group:"Common Options"`
	cfg.Dates     `group:"Date Selection"`
	cfg.Firestore `group:"Firestore Options"`
	cfg.Sources   `group:"Source Options"`
	cfg.Archive   `group:"Archive Options"`

	Fix bool `long:"fix" description:"Delete and reseed every date with a problem"`
}

type projectReport struct {
	Target  string          `json:"target"`
	Checked int             `json:"checked"`
	Issues  []seeder.Issue  `json:"issues"`
	Reseed  *seeder.Summary `json:"reseed,omitempty"`
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
		logger.Error("verification failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, logger *zap.Logger) error {
	loc, err := opts.Location()
	if err != nil {
		return err
	}
	dates, err := opts.Resolve(time.Now(), loc, seeder.NextMonth)
	if err != nil {
		return err
	}

	clients, closeAll, err := opts.Firestore.Open(ctx)
	if err != nil {
		return err
	}
	defer closeAll()

	var reports []projectReport
	failed := false
	for _, c := range clients {
		report, err := verifyProject(ctx, opts, c, dates, loc, logger)
		if err != nil {
			return fmt.Errorf("%s: %w", c.Name(), err)
		}
		if report.Reseed != nil && report.Reseed.Failed > 0 {
			failed = true
		}
		reports = append(reports, report)
	}

	out, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	if failed {
		return fmt.Errorf("reseeding left failed dates")
	}
	return nil
}

func verifyProject(ctx context.Context, opts options, c *firestore.Client, dates []time.Time, loc *time.Location, logger *zap.Logger) (projectReport, error) {
	log := logger.With(zap.String("target", c.Name()))

	issues, err := seeder.Verify(ctx, c, dates)
	if err != nil {
		return projectReport{}, err
	}
	if issues == nil {
		issues = []seeder.Issue{}
	}
	log.Info("verified readings", zap.Int("checked", len(dates)), zap.Int("issues", len(issues)))

	report := projectReport{Target: c.Name(), Checked: len(dates), Issues: issues}
	if !opts.Fix || len(issues) == 0 {
		return report, nil
	}

	flagged, err := seeder.FlaggedDates(issues, loc)
	if err != nil {
		return projectReport{}, err
	}

	s, closeArchive, err := cfg.NewSeeder(ctx, opts.Common, opts.Sources, opts.Archive, []seeder.ReadingStore{c}, log)
	if err != nil {
		return projectReport{}, err
	}
	defer closeArchive()

	outcomes, err := s.Reseed(ctx, c, flagged)
	if err != nil {
		return projectReport{}, err
	}
	summary := seeder.Summarize(outcomes)
	report.Reseed = &summary
	return report, nil
}
