package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/stitts-dev/tournament-sim/pkg/database"
)

// Team is one entrant as submitted for a simulation.
type Team struct {
	Name     string  `json:"name"`
	Strength float64 `json:"strength"`
}

// RunParameters records how a batch was driven.
type RunParameters struct {
	Seed     uint64 `json:"seed"`
	Runs     int    `json:"runs"`
	Workers  int    `json:"workers"`
	DrawMode string `json:"draw_mode"`
}

// SimulationRun is a completed Monte-Carlo batch.
type SimulationRun struct {
	ID            uuid.UUID                              `gorm:"type:uuid;primaryKey" json:"id"`
	RequestHash   string                                 `gorm:"size:64;index" json:"request_hash"`
	Parameters    datatypes.JSONType[RunParameters]      `json:"parameters"`
	Teams         datatypes.JSONType[[]Team]             `json:"teams"`
	Probabilities datatypes.JSONType[map[string]float64] `json:"probabilities"`
	Counts        datatypes.JSONType[map[string]int]     `json:"counts"`
	CompletedRuns int                                    `gorm:"not null" json:"completed_runs"`
	DurationMS    int64                                  `json:"duration_ms"`
	SnapshotID    *uuid.UUID                             `gorm:"type:uuid;index" json:"snapshot_id,omitempty"`
	CreatedAt     time.Time                              `json:"created_at"`
}

// TableName specifies the table name for GORM
func (SimulationRun) TableName() string {
	return "simulation_runs"
}

func (r *SimulationRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// CreateSimulationRun persists a finished batch
func CreateSimulationRun(db *database.DB, run *SimulationRun) error {
	if err := db.Create(run).Error; err != nil {
		return fmt.Errorf("failed to save simulation run: %w", err)
	}
	return nil
}

// GetSimulationRun fetches one run by id
func GetSimulationRun(db *database.DB, id uuid.UUID) (*SimulationRun, error) {
	var run SimulationRun
	err := db.Where("id = ?", id).First(&run).Error
	return &run, err
}

// ListSimulationRuns returns the most recent runs first
func ListSimulationRuns(db *database.DB, limit int) ([]SimulationRun, error) {
	var runs []SimulationRun
	err := db.Order("created_at DESC").Limit(limit).Find(&runs).Error
	return runs, err
}
