// Command main runs the database seeder for newsdesk.
package main

import (
	"context"
	"flag"
	"log"

	"newsdesk/internal/bootstrap"
	"newsdesk/internal/config"
	"newsdesk/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 25, "Number of reader identities to create")
	numArticles := flag.Int("articles", 40, "Number of articles to create")
	maxComments := flag.Int("comments", 12, "Maximum comments per article")
	shouldClean := flag.Bool("clean", false, "Clean database before seeding")
	fixture := flag.String("fixture", "", "YAML fixture to load instead of random content ('demo' for the bundled one)")
	randSeed := flag.Int64("seed", 0, "Random seed for reproducible output")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	db, _, err := bootstrap.InitRuntime(context.Background(), cfg, bootstrap.Options{ApplySchema: true})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	s := seed.NewSeeder(db, seed.Options{
		NumUsers:    *numUsers,
		NumArticles: *numArticles,
		MaxComments: *maxComments,
		ShouldClean: *shouldClean,
		RandSeed:    *randSeed,
	})

	if *fixture != "" {
		var fx *seed.Fixture
		if *fixture == "demo" {
			fx, err = seed.DemoFixture()
		} else {
			fx, err = seed.LoadFixture(*fixture)
		}
		if err != nil {
			log.Fatalf("❌ Fixture load failed: %v", err)
		}
		if *shouldClean {
			if err := s.ClearAll(); err != nil {
				log.Fatalf("❌ Cleanup failed: %v", err)
			}
		}
		created, err := s.ApplyFixture(fx)
		if err != nil {
			log.Fatalf("❌ Fixture seeding failed: %v", err)
		}
		log.Printf("✨ Loaded %d fixture articles", len(created))
		return
	}

	if _, err := s.Run(); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}
	log.Println("✨ All done! Your database is now populated with demo content.")
}
