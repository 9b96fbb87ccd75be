package odds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// ErrMissingAPIKey is returned before any request when no key is configured.
var ErrMissingAPIKey = errors.New("odds api key not configured")

// ClientConfig configures the outright odds client.
type ClientConfig struct {
	BaseURL          string
	APIKey           string
	SportKey         string
	Regions          string
	Timeout          time.Duration
	RatePerMinute    int
	BreakerThreshold int
}

// Client fetches outright winner markets from The Odds API.
type Client struct {
	httpClient  *http.Client
	cfg         ClientConfig
	rateLimiter *rate.Limiter
	breaker     *gobreaker.CircuitBreaker
	logger      *logrus.Logger
}

// NewClient creates a rate limited, circuit broken odds client
func NewClient(cfg ClientConfig, logger *logrus.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RatePerMinute <= 0 {
		cfg.RatePerMinute = 5
	}
	if cfg.BreakerThreshold <= 0 {
		cfg.BreakerThreshold = 5
	}
	if cfg.Regions == "" {
		cfg.Regions = "us"
	}

	threshold := uint32(cfg.BreakerThreshold)
	settings := gobreaker.Settings{
		Name:    "odds-api",
		Timeout: time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"component": "circuit_breaker",
				"service":   name,
				"from":      from.String(),
				"to":        to.String(),
			}).Info("Circuit breaker state changed")
		},
	}

	return &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		cfg:         cfg,
		rateLimiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RatePerMinute)), 1),
		breaker:     gobreaker.NewCircuitBreaker(settings),
		logger:      logger,
	}
}

// SportKey is the market this client reads.
func (c *Client) SportKey() string {
	return c.cfg.SportKey
}

// BreakerState exposes the circuit state for health reporting.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

type apiEvent struct {
	ID         string         `json:"id"`
	SportKey   string         `json:"sport_key"`
	Bookmakers []apiBookmaker `json:"bookmakers"`
}

type apiBookmaker struct {
	Key     string      `json:"key"`
	Title   string      `json:"title"`
	Markets []apiMarket `json:"markets"`
}

type apiMarket struct {
	Key      string       `json:"key"`
	Outcomes []apiOutcome `json:"outcomes"`
}

type apiOutcome struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// FetchOutrights returns one row per bookmaker and team for the outright
// winner market. Prices are raw decimal odds; run StripVigOutrights before
// deriving strengths.
func (c *Client) FetchOutrights(ctx context.Context) ([]Outcome, error) {
	if c.cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetch(ctx)
	})
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"sport": c.cfg.SportKey,
			"error": err,
		}).Warn("Odds fetch failed")
		return nil, err
	}

	events := result.([]apiEvent)
	outcomes := flatten(events)
	c.logger.WithFields(logrus.Fields{
		"sport":    c.cfg.SportKey,
		"events":   len(events),
		"outcomes": len(outcomes),
	}).Info("Fetched outright odds")
	return outcomes, nil
}

func (c *Client) fetch(ctx context.Context) ([]apiEvent, error) {
	q := url.Values{}
	q.Set("regions", c.cfg.Regions)
	q.Set("markets", "outrights")
	q.Set("oddsFormat", "decimal")
	q.Set("apiKey", c.cfg.APIKey)
	endpoint := fmt.Sprintf("%s/sports/%s/odds?%s", c.cfg.BaseURL, url.PathEscape(c.cfg.SportKey), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("odds request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("odds api returned status %d: %s", resp.StatusCode, string(body))
	}

	var events []apiEvent
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, fmt.Errorf("failed to decode odds response: %w", err)
	}
	return events, nil
}

func flatten(events []apiEvent) []Outcome {
	var out []Outcome
	for _, ev := range events {
		for _, book := range ev.Bookmakers {
			for _, m := range book.Markets {
				if m.Key != "outrights" {
					continue
				}
				for _, o := range m.Outcomes {
					out = append(out, Outcome{
						EventID:     ev.ID,
						Bookmaker:   book.Title,
						Team:        o.Name,
						DecimalOdds: o.Price,
					})
				}
			}
		}
	}
	return out
}
