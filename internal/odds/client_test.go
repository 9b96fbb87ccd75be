package odds

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const outrightsBody = `[
  {
    "id": "evt1",
    "sport_key": "soccer_fifa_world_cup_winner",
    "bookmakers": [
      {"key": "a", "title": "Book A", "markets": [
        {"key": "outrights", "outcomes": [{"name": "Spain", "price": 5.5}, {"name": "France", "price": 6.0}]}
      ]},
      {"key": "b", "title": "Book B", "markets": [
        {"key": "h2h", "outcomes": [{"name": "Spain", "price": 1.9}]},
        {"key": "outrights", "outcomes": [{"name": "Spain", "price": 5.0}]}
      ]}
    ]
  }
]`

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testClient(url string, threshold int) *Client {
	return NewClient(ClientConfig{
		BaseURL:          url,
		APIKey:           "key",
		SportKey:         "soccer_fifa_world_cup_winner",
		RatePerMinute:    60000,
		BreakerThreshold: threshold,
	}, quietLogger())
}

func TestFetchOutrights(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sports/soccer_fifa_world_cup_winner/odds", r.URL.Path)
		assert.Equal(t, "outrights", r.URL.Query().Get("markets"))
		assert.Equal(t, "decimal", r.URL.Query().Get("oddsFormat"))
		assert.Equal(t, "key", r.URL.Query().Get("apiKey"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, outrightsBody)
	}))
	defer srv.Close()

	outcomes, err := testClient(srv.URL, 3).FetchOutrights(context.Background())
	require.NoError(t, err)
	require.Len(t, outcomes, 3)
	assert.Equal(t, Outcome{EventID: "evt1", Bookmaker: "Book A", Team: "Spain", DecimalOdds: 5.5}, outcomes[0])
	assert.Equal(t, "Book B", outcomes[2].Bookmaker)
	assert.Equal(t, 5.0, outcomes[2].DecimalOdds)
}

func TestFetchOutrights_MissingKey(t *testing.T) {
	c := NewClient(ClientConfig{BaseURL: "http://127.0.0.1:0"}, quietLogger())
	_, err := c.FetchOutrights(context.Background())
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestFetchOutrights_BreakerOpens(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := testClient(srv.URL, 2)
	for i := 0; i < 2; i++ {
		_, err := c.FetchOutrights(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "429")
	}
	assert.Equal(t, gobreaker.StateOpen, c.BreakerState())

	_, err := c.FetchOutrights(context.Background())
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, calls)
}
