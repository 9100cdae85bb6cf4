// Command videos links the day's reflection videos to today's and
// tomorrow's readings.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"daily-scripture/internal/cfg"
	"daily-scripture/internal/logging"
	"daily-scripture/internal/seeder"
	"daily-scripture/internal/video"
)

type options struct {
	cfg.Common    `group:"Common Options"`
	cfg.Dates     `group:"Date Selection"`
	cfg.Firestore `group:"Firestore Options"`
	cfg.YouTube   `group:"YouTube Options"`
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
		logger.Error("video run failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, logger *zap.Logger) error {
	if opts.APIKey == "" {
		return errors.New("YOUTUBE_API_KEY is required")
	}

	loc, err := opts.Location()
	if err != nil {
		return err
	}
	dates, err := opts.Resolve(time.Now(), loc, seeder.TodayAndTomorrow)
	if err != nil {
		return err
	}

	finder, err := opts.NewFinder(ctx, logger)
	if err != nil {
		return err
	}

	var stores []video.VideoStore
	if !opts.DryRun {
		clients, closeAll, err := opts.Firestore.Open(ctx)
		if err != nil {
			return err
		}
		defer closeAll()
		stores = cfg.VideoStores(clients)
	}

	res := finder.Run(ctx, dates, stores, opts.DryRun)

	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	if res.Status == "error" {
		return fmt.Errorf("no videos processed: %d errors", len(res.Errors))
	}
	return nil
}
