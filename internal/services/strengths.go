package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/stitts-dev/tournament-sim/internal/models"
	"github.com/stitts-dev/tournament-sim/internal/odds"
	"github.com/stitts-dev/tournament-sim/pkg/database"
)

// Snapshot sources
const (
	SourceManual  = "manual"
	SourceOddsAPI = "the-odds-api"
)

// StrengthService turns outright prices into stored strength snapshots.
type StrengthService struct {
	db     *database.DB
	client *odds.Client
	cache  *CacheService
	hub    *WebSocketHub
	ttl    time.Duration
	logger *logrus.Logger
}

// NewStrengthService creates the service. client, cache and hub may be nil.
func NewStrengthService(db *database.DB, client *odds.Client, cache *CacheService, hub *WebSocketHub, ttl time.Duration, logger *logrus.Logger) *StrengthService {
	return &StrengthService{
		db:     db,
		client: client,
		cache:  cache,
		hub:    hub,
		ttl:    ttl,
		logger: logger,
	}
}

// FromOutcomes strips each bookmaker's overround, derives strengths and
// stores them as a snapshot.
func (s *StrengthService) FromOutcomes(ctx context.Context, source string, outcomes []odds.Outcome) (*models.StrengthSnapshot, error) {
	fair, err := odds.StripVigOutrights(outcomes)
	if err != nil {
		return nil, err
	}
	rows, err := odds.Strengths(fair)
	if err != nil {
		return nil, err
	}

	teams := make([]models.TeamStrength, len(rows))
	for i, r := range rows {
		teams[i] = models.TeamStrength{Name: r.Name, Strength: r.Strength, ImpliedProb: r.ImpliedProb}
	}

	snapshot := &models.StrengthSnapshot{
		Source:     source,
		Bookmakers: odds.Bookmakers(outcomes),
		Teams:      datatypes.NewJSONType(teams),
		FetchedAt:  time.Now().UTC(),
	}
	if err := models.CreateStrengthSnapshot(s.db, snapshot); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, StrengthsCacheKey(), snapshot, s.ttl); err != nil {
			s.logger.WithError(err).Warn("Failed to cache strength snapshot")
		}
	}
	if s.hub != nil {
		s.hub.Publish(EventStrengthsUpdated, "", snapshot)
	}

	s.logger.WithFields(logrus.Fields{
		"snapshot_id": snapshot.ID,
		"source":      source,
		"teams":       len(teams),
		"bookmakers":  snapshot.Bookmakers,
	}).Info("Stored strength snapshot")
	return snapshot, nil
}

// Refresh pulls current outright prices and stores a new snapshot.
func (s *StrengthService) Refresh(ctx context.Context) (*models.StrengthSnapshot, error) {
	if s.client == nil {
		return nil, odds.ErrMissingAPIKey
	}
	outcomes, err := s.client.FetchOutrights(ctx)
	if err != nil {
		return nil, err
	}
	if len(outcomes) == 0 {
		return nil, fmt.Errorf("%s: %w", s.client.SportKey(), odds.ErrNoOutcomes)
	}
	return s.FromOutcomes(ctx, SourceOddsAPI, outcomes)
}

// Latest returns the newest snapshot, from the cache when possible.
func (s *StrengthService) Latest(ctx context.Context) (*models.StrengthSnapshot, error) {
	if s.cache != nil {
		var snapshot models.StrengthSnapshot
		err := s.cache.Get(ctx, StrengthsCacheKey(), &snapshot)
		if err == nil {
			return &snapshot, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			s.logger.WithError(err).Warn("Strength cache lookup failed")
		}
	}
	return models.LatestStrengthSnapshot(s.db)
}
