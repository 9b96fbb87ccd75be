package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/stitts-dev/tournament-sim/pkg/database"
)

// TeamStrength is a strength derived from market prices.
type TeamStrength struct {
	Name        string  `json:"name"`
	Strength    float64 `json:"strength"`
	ImpliedProb float64 `json:"implied_prob"`
}

// StrengthSnapshot stores one set of strengths and where it came from.
type StrengthSnapshot struct {
	ID         uuid.UUID                          `gorm:"type:uuid;primaryKey" json:"id"`
	Source     string                             `gorm:"size:100;not null;index" json:"source"`
	Bookmakers int                                `json:"bookmakers"`
	Teams      datatypes.JSONType[[]TeamStrength] `json:"teams"`
	FetchedAt  time.Time                          `gorm:"index" json:"fetched_at"`
	CreatedAt  time.Time                          `json:"created_at"`
}

func (StrengthSnapshot) TableName() string {
	return "strength_snapshots"
}

func (s *StrengthSnapshot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func CreateStrengthSnapshot(db *database.DB, snapshot *StrengthSnapshot) error {
	if err := db.Create(snapshot).Error; err != nil {
		return fmt.Errorf("failed to save strength snapshot: %w", err)
	}
	return nil
}

// LatestStrengthSnapshot returns the most recently fetched snapshot
func LatestStrengthSnapshot(db *database.DB) (*StrengthSnapshot, error) {
	var snapshot StrengthSnapshot
	err := db.Order("fetched_at DESC").First(&snapshot).Error
	return &snapshot, err
}

// AllModels lists every table the service owns, in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&StrengthSnapshot{},
		&SimulationRun{},
	}
}
