// Command server exposes the seeding and video jobs over HTTP for a
// scheduler to trigger.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"go.uber.org/zap"

	"daily-scripture/internal/cfg"
	"daily-scripture/internal/logging"
	"daily-scripture/internal/web"
)

type options struct {
	cfg.Common    `group:"Common Options"`
	cfg.Firestore `group:"Firestore Options"`
	cfg.Sources   `group:"Source Options"`
	cfg.Archive   `group:"Archive Options"`
	cfg.YouTube   `group:"YouTube Options"`

	Port string `long:"port" env:"PORT" default:"8080" description:"Port to listen on"`
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

	if err := run(context.Background(), opts, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, opts options, logger *zap.Logger) error {
	loc, err := opts.Location()
	if err != nil {
		return err
	}

	clients, closeAll, err := opts.Firestore.Open(ctx)
	if err != nil {
		return err
	}
	defer closeAll()
	for _, c := range clients {
		logger.Info("Firestore target", zap.String("target", c.Name()))
	}

	s, closeArchive, err := cfg.NewSeeder(ctx, opts.Common, opts.Sources, opts.Archive, cfg.ReadingStores(clients), logger)
	if err != nil {
		return err
	}
	defer closeArchive()

	var videos web.VideoRunner
	if opts.APIKey != "" {
		finder, err := opts.NewFinder(ctx, logger)
		if err != nil {
			return err
		}
		videos = finder
	} else {
		logger.Info("YouTube not configured, /videos disabled")
	}

	handler := web.New(s, videos, cfg.VideoStores(clients), opts.DryRun, loc, logger)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	logger.Info("server starting",
		zap.String("port", opts.Port),
		zap.String("timezone", loc.String()),
		zap.Bool("dry_run", opts.DryRun),
	)
	return http.ListenAndServe(":"+opts.Port, mux)
}
