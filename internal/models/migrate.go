package models

import (
	"fmt"

	"github.com/stitts-dev/tournament-sim/pkg/database"
)

// Migrate creates or updates every table and its indexes.
func Migrate(db *database.DB) error {
	postgres := db.Dialector.Name() == "postgres"

	if postgres {
		if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
			return fmt.Errorf("failed to create UUID extension: %w", err)
		}
	}

	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("failed to migrate models: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_simulation_runs_created ON simulation_runs(created_at DESC)",
	}
	if postgres {
		indexes = append(indexes, "CREATE INDEX IF NOT EXISTS idx_simulation_runs_probabilities ON simulation_runs USING gin(probabilities jsonb_path_ops)")
	}
	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// DropAll removes every table, dependents first.
func DropAll(db *database.DB) error {
	models := AllModels()
	for i := len(models) - 1; i >= 0; i-- {
		if err := db.Migrator().DropTable(models[i]); err != nil {
			return fmt.Errorf("failed to drop table: %w", err)
		}
	}
	return nil
}
