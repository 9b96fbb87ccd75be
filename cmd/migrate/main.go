package main

import (
	"os"

	"github.com/stitts-dev/tournament-sim/internal/models"
	"github.com/stitts-dev/tournament-sim/pkg/config"
	"github.com/stitts-dev/tournament-sim/pkg/database"
	"github.com/stitts-dev/tournament-sim/pkg/logger"
)

func main() {
	log := logger.InitLogger("", false)

	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate [up|down]")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	switch command := os.Args[1]; command {
	case "up":
		if err := models.Migrate(db); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		log.Info("Migrations completed successfully")

	case "down":
		if err := models.DropAll(db); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Info("Tables dropped successfully")

	default:
		log.Fatalf("Unknown command: %s", command)
	}
}
