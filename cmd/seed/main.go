// Command main runs the database seeder for VidTube.
package main

import (
	"context"
	"flag"
	"log"

	"vidtube/internal/config"
	"vidtube/internal/database"
	"vidtube/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()
	numUsers := flag.Int("users", defaults.Users, "Number of users (channels) to create")
	videosPerUser := flag.Int("videos", defaults.VideosPerUser, "Videos per user")
	commentsPerVideo := flag.Int("comments", defaults.CommentsPerVideo, "Comments per video")
	tweetsPerUser := flag.Int("tweets", defaults.TweetsPerUser, "Tweets per user")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	preset := flag.String("preset", "", "Apply a seeder preset (overrides the count flags)")
	presetFile := flag.String("preset-file", "", "YAML file with extra presets")
	randSeed := flag.Int64("rand-seed", 0, "Deterministic random seed (0 uses the clock)")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	opts := defaults
	opts.Users = *numUsers
	opts.VideosPerUser = *videosPerUser
	opts.CommentsPerVideo = *commentsPerVideo
	opts.TweetsPerUser = *tweetsPerUser
	opts.RandSeed = *randSeed

	if *preset != "" {
		presets, err := seed.LoadPresets(*presetFile)
		if err != nil {
			log.Fatalf("Failed to load presets: %v", err)
		}
		opts, err = seed.ApplyPreset(presets, *preset, opts)
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		log.Printf("Applying preset: %s", *preset)
	}
	log.Printf("Target: %d users, %d videos each, clean=%v", opts.Users, opts.VideosPerUser, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	opts.BcryptCost = cfg.BcryptCost

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx := context.Background()
	s := seed.NewSeeder(db)

	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	summary, err := s.Run(ctx, opts)
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ All done! %d users, %d videos, %d comments, %d tweets, %d likes, %d subscriptions.",
		summary.Users, summary.Videos, summary.Comments, summary.Tweets, summary.Likes, summary.Subscriptions)
	log.Printf("📧 All seeded users have the password: %s", seed.DefaultPassword)
}
