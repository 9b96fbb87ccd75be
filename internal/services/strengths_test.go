package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/stitts-dev/tournament-sim/internal/odds"
)

// oddsServer serves an outright market with n teams priced by two books.
func oddsServer(t *testing.T, n int) *httptest.Server {
	t.Helper()
	type outcome struct {
		Name  string  `json:"name"`
		Price float64 `json:"price"`
	}
	outcomes := make([]outcome, n)
	for i := range outcomes {
		outcomes[i] = outcome{Name: fmt.Sprintf("Team %02d", i), Price: 4 + float64(i)*2}
	}
	body, err := json.Marshal([]map[string]interface{}{{
		"id":        "evt",
		"sport_key": "soccer_fifa_world_cup_winner",
		"bookmakers": []map[string]interface{}{
			{"key": "a", "title": "Book A", "markets": []map[string]interface{}{{"key": "outrights", "outcomes": outcomes}}},
			{"key": "b", "title": "Book B", "markets": []map[string]interface{}{{"key": "outrights", "outcomes": outcomes}}},
		},
	}})
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testOddsClient(url string) *odds.Client {
	return odds.NewClient(odds.ClientConfig{
		BaseURL:       url,
		APIKey:        "test-key",
		SportKey:      "soccer_fifa_world_cup_winner",
		RatePerMinute: 60000,
		Timeout:       5 * time.Second,
	}, quietLogger())
}

func TestStrengthService_FromOutcomes(t *testing.T) {
	db := newTestDB(t)
	svc := NewStrengthService(db, nil, nil, nil, time.Minute, quietLogger())

	snap, err := svc.FromOutcomes(context.Background(), SourceManual, []odds.Outcome{
		{Bookmaker: "A", Team: "Spain", DecimalOdds: 2.0},
		{Bookmaker: "A", Team: "Japan", DecimalOdds: 4.0},
		{Bookmaker: "B", Team: "Spain", DecimalOdds: 2.5},
		{Bookmaker: "B", Team: "Japan", DecimalOdds: 3.0},
	})
	require.NoError(t, err)
	assert.Equal(t, SourceManual, snap.Source)
	assert.Equal(t, 2, snap.Bookmakers)

	teams := snap.Teams.Data()
	require.Len(t, teams, 2)
	assert.Equal(t, "Spain", teams[0].Name)
	assert.InDelta(t, 0.0, teams[0].Strength+teams[1].Strength, 1e-12)

	latest, err := svc.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, snap.ID, latest.ID)
}

func TestStrengthService_RejectsBadOdds(t *testing.T) {
	svc := NewStrengthService(newTestDB(t), nil, nil, nil, time.Minute, quietLogger())

	_, err := svc.FromOutcomes(context.Background(), SourceManual, []odds.Outcome{{Bookmaker: "A", Team: "Spain", DecimalOdds: 1.0}})
	assert.ErrorIs(t, err, odds.ErrInvalidOdds)

	_, err = svc.FromOutcomes(context.Background(), SourceManual, nil)
	assert.ErrorIs(t, err, odds.ErrNoOutcomes)
}

func TestStrengthService_LatestPrefersCache(t *testing.T) {
	db := newTestDB(t)
	cache, _ := newTestCache(t)
	svc := NewStrengthService(db, nil, cache, nil, time.Minute, quietLogger())
	ctx := context.Background()

	_, err := svc.Latest(ctx)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	snap, err := svc.FromOutcomes(ctx, SourceManual, []odds.Outcome{
		{Bookmaker: "A", Team: "Spain", DecimalOdds: 2.0},
		{Bookmaker: "A", Team: "Japan", DecimalOdds: 3.0},
	})
	require.NoError(t, err)

	// drop the row so only the cache can answer
	require.NoError(t, db.Exec("DELETE FROM strength_snapshots").Error)

	latest, err := svc.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap.ID, latest.ID)
	assert.Len(t, latest.Teams.Data(), 2)
}

func TestStrengthService_Refresh(t *testing.T) {
	srv := oddsServer(t, 6)
	svc := NewStrengthService(newTestDB(t), testOddsClient(srv.URL), nil, nil, time.Minute, quietLogger())

	snap, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SourceOddsAPI, snap.Source)
	assert.Equal(t, 2, snap.Bookmakers)
	assert.Len(t, snap.Teams.Data(), 6)
	assert.Equal(t, "Team 00", snap.Teams.Data()[0].Name)
}

func TestStrengthService_RefreshWithoutClient(t *testing.T) {
	svc := NewStrengthService(newTestDB(t), nil, nil, nil, time.Minute, quietLogger())
	_, err := svc.Refresh(context.Background())
	assert.ErrorIs(t, err, odds.ErrMissingAPIKey)
}
