package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/stitts-dev/tournament-sim/internal/models"
	"github.com/stitts-dev/tournament-sim/internal/simulator"
	"github.com/stitts-dev/tournament-sim/pkg/config"
	"github.com/stitts-dev/tournament-sim/pkg/database"
	"github.com/stitts-dev/tournament-sim/pkg/logger"
)

// SimulationRequest is one batch as submitted by a client.
type SimulationRequest struct {
	Teams      []models.Team `json:"teams"`
	Runs       int           `json:"runs,omitempty"`
	Seed       *uint64       `json:"seed,omitempty"`
	Workers    int           `json:"workers,omitempty"`
	DrawMode   string        `json:"draw_mode,omitempty"`
	SnapshotID *uuid.UUID    `json:"snapshot_id,omitempty"`
}

// SimulationOutcome is what the service returns and caches.
type SimulationOutcome struct {
	Run    *models.SimulationRun       `json:"run"`
	Ranked []simulator.TeamProbability `json:"ranked"`
	Cached bool                        `json:"cached"`
}

// ProgressUpdate is the payload of a simulation_progress event.
type ProgressUpdate struct {
	Done  int `json:"done"`
	Total int `json:"total"`
}

type SimulationService struct {
	db     *database.DB
	cache  *CacheService
	hub    *WebSocketHub
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSimulationService wires the batch runner. cache and hub are optional.
func NewSimulationService(db *database.DB, cache *CacheService, hub *WebSocketHub, cfg *config.Config, logger *logrus.Logger) *SimulationService {
	return &SimulationService{
		db:     db,
		cache:  cache,
		hub:    hub,
		cfg:    cfg,
		logger: logger,
	}
}

// normalize fills defaults and applies the service limits. It reports
// whether the caller pinned the seed.
func (s *SimulationService) normalize(req *SimulationRequest) (bool, error) {
	if req.Runs == 0 {
		req.Runs = s.cfg.DefaultRuns
	}
	if req.Runs > s.cfg.MaxRuns {
		return false, fmt.Errorf("%w: runs %d exceeds limit %d", simulator.ErrInvalidArgument, req.Runs, s.cfg.MaxRuns)
	}
	if req.Workers == 0 {
		req.Workers = s.cfg.SimulationWorkers
	}
	if req.Workers > s.cfg.MaxWorkers {
		return false, fmt.Errorf("%w: workers %d exceeds limit %d", simulator.ErrInvalidArgument, req.Workers, s.cfg.MaxWorkers)
	}
	mode, err := simulator.ParseDrawMode(req.DrawMode)
	if err != nil {
		return false, err
	}
	req.DrawMode = string(mode)

	pinned := req.Seed != nil
	if !pinned {
		seed := rand.Uint64()
		req.Seed = &seed
	}
	return pinned, nil
}

// RequestHash identifies a batch by everything that determines its result.
func RequestHash(req SimulationRequest) (string, error) {
	canonical := struct {
		Teams    []models.Team `json:"teams"`
		Runs     int           `json:"runs"`
		Seed     uint64        `json:"seed"`
		Workers  int           `json:"workers"`
		DrawMode string        `json:"draw_mode"`
	}{
		Teams:    req.Teams,
		Runs:     req.Runs,
		Workers:  req.Workers,
		DrawMode: req.DrawMode,
	}
	if req.Seed != nil {
		canonical.Seed = *req.Seed
	}
	data, err := json.Marshal(canonical)
	if err != nil {
		return "", fmt.Errorf("failed to hash request: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Run executes a batch, persists it and publishes progress. Requests with
// an explicit seed are answered from the cache when an identical one was
// already run.
func (s *SimulationService) Run(ctx context.Context, req SimulationRequest) (*SimulationOutcome, error) {
	pinned, err := s.normalize(&req)
	if err != nil {
		return nil, err
	}

	hash, err := RequestHash(req)
	if err != nil {
		return nil, err
	}
	cacheKey := SimulationCacheKey(hash)

	if pinned && s.cache != nil {
		var cached SimulationOutcome
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			cached.Cached = true
			return &cached, nil
		} else if !errors.Is(err, ErrCacheMiss) {
			s.logger.WithError(err).Warn("Simulation cache lookup failed")
		}
	}

	in := simulator.Input{
		Names:     make([]string, len(req.Teams)),
		Strengths: make([]float64, len(req.Teams)),
	}
	for i, t := range req.Teams {
		in.Names[i] = t.Name
		in.Strengths[i] = t.Strength
	}

	runID := uuid.New()
	log := logger.WithSimulationContext(runID.String(), *req.Seed, req.Runs)
	log.WithFields(logrus.Fields{
		"workers":   req.Workers,
		"draw_mode": req.DrawMode,
	}).Info("Starting tournament simulation")

	opts := simulator.Options{
		Runs:    req.Runs,
		Seed:    *req.Seed,
		Workers: req.Workers,
		Draw:    simulator.DrawMode(req.DrawMode),
		Logger:  s.logger,
	}
	if s.hub != nil {
		opts.Progress = func(done, total int) {
			s.hub.Publish(EventSimulationProgress, runID.String(), ProgressUpdate{Done: done, Total: total})
		}
	}

	result, err := simulator.Simulate(ctx, in, opts)
	if err != nil {
		if result != nil {
			log.WithError(err).WithField("completed", result.Runs).Warn("Simulation interrupted")
		}
		return nil, err
	}

	run := &models.SimulationRun{
		ID:          runID,
		RequestHash: hash,
		Parameters: datatypes.NewJSONType(models.RunParameters{
			Seed:     result.Seed,
			Runs:     result.Requested,
			Workers:  result.Workers,
			DrawMode: string(result.Draw),
		}),
		Teams:         datatypes.NewJSONType(req.Teams),
		Probabilities: datatypes.NewJSONType(result.Probabilities),
		Counts:        datatypes.NewJSONType(result.Counts),
		CompletedRuns: result.Runs,
		DurationMS:    result.Duration.Milliseconds(),
		SnapshotID:    req.SnapshotID,
	}
	if err := models.CreateSimulationRun(s.db, run); err != nil {
		return nil, err
	}

	outcome := &SimulationOutcome{Run: run, Ranked: result.Ranked()}

	if pinned && s.cache != nil {
		if err := s.cache.SetWithRetry(ctx, cacheKey, outcome, s.cfg.ResultCacheTTL, 3); err != nil {
			log.WithError(err).Warn("Failed to cache simulation result")
		}
	}
	if s.hub != nil {
		s.hub.Publish(EventSimulationComplete, runID.String(), outcome)
	}

	log.WithField("duration_ms", run.DurationMS).Info("Tournament simulation completed")
	return outcome, nil
}

// Get loads a stored run by id.
func (s *SimulationService) Get(id uuid.UUID) (*SimulationOutcome, error) {
	run, err := models.GetSimulationRun(s.db, id)
	if err != nil {
		return nil, err
	}
	return &SimulationOutcome{Run: run, Ranked: rankRun(run)}, nil
}

// List returns the most recent runs.
func (s *SimulationService) List(limit int) ([]models.SimulationRun, error) {
	return models.ListSimulationRuns(s.db, limit)
}

func rankRun(run *models.SimulationRun) []simulator.TeamProbability {
	res := simulator.Result{
		Probabilities: run.Probabilities.Data(),
		Counts:        run.Counts.Data(),
		Runs:          run.CompletedRuns,
	}
	return res.Ranked()
}
