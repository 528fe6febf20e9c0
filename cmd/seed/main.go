// Command seed fills a development database with demo channels and engagement.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"videotube/internal/config"
	"videotube/internal/database"
	"videotube/internal/observability"
	"videotube/internal/seed"
)

func main() {
	opts := seed.DefaultOptions()
	flag.IntVar(&opts.Users, "users", opts.Users, "number of channels to create")
	flag.IntVar(&opts.VideosPerUser, "videos", opts.VideosPerUser, "videos per channel")
	flag.IntVar(&opts.TweetsPerUser, "tweets", opts.TweetsPerUser, "tweets per channel")
	flag.IntVar(&opts.CommentsPerVideo, "comments", opts.CommentsPerVideo, "comments per published video")
	flag.IntVar(&opts.ReactionsPerUser, "reactions", opts.ReactionsPerUser, "reaction toggles per channel")
	flag.IntVar(&opts.SubscriptionsPerUser, "subscriptions", opts.SubscriptionsPerUser, "subscription toggles per channel")
	flag.IntVar(&opts.WatchesPerUser, "watches", opts.WatchesPerUser, "watches per channel")
	flag.BoolVar(&opts.Clean, "clean", opts.Clean, "clear the graph before seeding")
	flag.Int64Var(&opts.Seed, "seed", opts.Seed, "random seed")
	flag.Parse()

	log := observability.Logger

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.IsProduction() {
		log.Error("refusing to seed a production database")
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = database.Close(db) }()

	if _, err := seed.NewSeeder(db).Run(ctx, opts); err != nil {
		log.Error("seeding failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
