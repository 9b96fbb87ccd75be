package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/tournament-sim/internal/models"
	"github.com/stitts-dev/tournament-sim/internal/simulator"
)

// OddsRefresher periodically refreshes strengths and, when the snapshot
// covers a full field, re-runs the tournament on it.
type OddsRefresher struct {
	strengths   *StrengthService
	simulations *SimulationService
	schedule    string
	timeout     time.Duration
	cron        *cron.Cron
	logger      *logrus.Logger

	mu        sync.Mutex
	isRunning bool
	lastRun   time.Time
	lastError error
}

func NewOddsRefresher(strengths *StrengthService, simulations *SimulationService, schedule string, logger *logrus.Logger) *OddsRefresher {
	return &OddsRefresher{
		strengths:   strengths,
		simulations: simulations,
		schedule:    schedule,
		timeout:     5 * time.Minute,
		cron:        cron.New(cron.WithLogger(cron.VerbosePrintfLogger(logger))),
		logger:      logger,
	}
}

// Start schedules the refresh job
func (r *OddsRefresher) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.isRunning {
		return fmt.Errorf("odds refresher is already running")
	}

	if _, err := r.cron.AddFunc(r.schedule, r.refresh); err != nil {
		return fmt.Errorf("failed to schedule odds refresh: %w", err)
	}

	r.cron.Start()
	r.isRunning = true

	r.logger.WithField("schedule", r.schedule).Info("Odds refresher started")
	return nil
}

// Stop halts the scheduler and waits for a running job
func (r *OddsRefresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.isRunning {
		return
	}

	ctx := r.cron.Stop()
	<-ctx.Done()

	r.isRunning = false
	r.logger.Info("Odds refresher stopped")
}

func (r *OddsRefresher) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	err := r.RefreshOnce(ctx)

	r.mu.Lock()
	r.lastRun = time.Now()
	r.lastError = err
	r.mu.Unlock()

	if err != nil {
		r.logger.WithError(err).Error("Scheduled odds refresh failed")
	}
}

// RefreshOnce fetches strengths and simulates the field when it is complete.
func (r *OddsRefresher) RefreshOnce(ctx context.Context) error {
	snapshot, err := r.strengths.Refresh(ctx)
	if err != nil {
		return err
	}

	teams := snapshot.Teams.Data()
	if len(teams) != simulator.Entrants {
		r.logger.WithFields(logrus.Fields{
			"snapshot_id": snapshot.ID,
			"teams":       len(teams),
		}).Info("Snapshot does not cover a full field, skipping simulation")
		return nil
	}

	req := SimulationRequest{
		Teams:      make([]models.Team, len(teams)),
		SnapshotID: &snapshot.ID,
	}
	for i, t := range teams {
		req.Teams[i] = models.Team{Name: t.Name, Strength: t.Strength}
	}
	_, err = r.simulations.Run(ctx, req)
	return err
}

// GetStatus reports scheduler state for the health endpoint
func (r *OddsRefresher) GetStatus() map[string]interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.cron.Entries()
	nextRuns := make([]time.Time, 0, len(entries))
	for _, entry := range entries {
		nextRuns = append(nextRuns, entry.Next)
	}

	status := map[string]interface{}{
		"is_running": r.isRunning,
		"schedule":   r.schedule,
		"next_runs":  nextRuns,
		"last_run":   r.lastRun,
	}
	if r.lastError != nil {
		status["last_error"] = r.lastError.Error()
	}
	return status
}
