// Command ingest seeds the daily readings for a set of dates into Firestore.
// Without a date selection it seeds every day of next month.
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
	"daily-scripture/internal/seeder"
)

type options struct {
	cfg.Common    `group:"Common Options"`
	cfg.Dates     `group:"Date Selection"`
	cfg.Firestore `group:"Firestore Options"`
	cfg.Sources   `group:"Source Options"`
	cfg.Archive   `group:"Archive Options"`
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
		logger.Error("ingestion failed", zap.Error(err))
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

	var stores []seeder.ReadingStore
	if opts.DryRun {
		logger.Info("dry run, records will not be written")
	} else {
		clients, closeAll, err := opts.Firestore.Open(ctx)
		if err != nil {
			return err
		}
		defer closeAll()
		for _, c := range clients {
			logger.Info("writing to Firestore", zap.String("target", c.Name()))
		}
		stores = cfg.ReadingStores(clients)
	}

	s, closeArchive, err := cfg.NewSeeder(ctx, opts.Common, opts.Sources, opts.Archive, stores, logger)
	if err != nil {
		return err
	}
	defer closeArchive()

	logger.Info("starting ingestion",
		zap.String("from", seeder.DateID(dates[0])),
		zap.String("to", seeder.DateID(dates[len(dates)-1])),
		zap.Int("dates", len(dates)),
	)

	summary := seeder.Summarize(s.SeedDates(ctx, dates))

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	logger.Info("ingestion complete",
		zap.String("status", summary.Status),
		zap.Int("successful", summary.Successful),
		zap.Int("partial", summary.Partial),
		zap.Int("failed", summary.Failed),
	)
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d dates failed", summary.Failed, len(dates))
	}
	return nil
}
