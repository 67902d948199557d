// Command seed fills the database with demo players, friendships and battles.
package main

import (
	"flag"
	"log"

	"grapes/internal/config"
	"grapes/internal/database"
	"grapes/internal/seed"
)

func main() {
	fixturesPath := flag.String("fixtures", "", "YAML fixtures file (defaults to the bundled demo set)")
	numPlayers := flag.Int("players", 20, "Number of generated players on top of the fixtures")
	numBattles := flag.Int("battles", 60, "Number of generated battles")
	shouldClean := flag.Bool("clean", false, "Delete all existing data before seeding")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	fx, err := seed.DefaultFixtures()
	if *fixturesPath != "" {
		fx, err = seed.LoadFixturesFile(*fixturesPath)
	}
	if err != nil {
		log.Fatalf("Failed to load fixtures: %v", err)
	}

	s := seed.NewSeeder(db, seed.Options{})

	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	if _, err := s.ApplyFixtures(fx); err != nil {
		log.Fatalf("Fixture seeding failed: %v", err)
	}

	if _, err := s.SeedRandom(*numPlayers, *numBattles); err != nil {
		log.Fatalf("Random seeding failed: %v", err)
	}

	log.Printf("Seeding complete. Fixture users log in with %q, generated users with %q.", fx.Password, seed.DefaultPassword)
}
