package odds

import (
	"errors"
	"fmt"
)

// ErrInvalidOdds reports a decimal price that cannot be a probability.
var ErrInvalidOdds = errors.New("invalid decimal odds")

// Outcome is one bookmaker's price on one team in an outright market.
type Outcome struct {
	EventID     string  `json:"event_id,omitempty"`
	Bookmaker   string  `json:"bookmaker"`
	Team        string  `json:"team"`
	DecimalOdds float64 `json:"decimal_odds"`
	ImpliedProb float64 `json:"implied_prob,omitempty"`
}

// DecimalToProb converts decimal odds to the raw implied probability.
func DecimalToProb(decimal float64) (float64, error) {
	if !(decimal > 1) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidOdds, decimal)
	}
	return 1 / decimal, nil
}

// RemoveVig3 converts three-way (home, draw, away) decimal odds into fair
// probabilities by stripping the bookmaker's overround.
func RemoveVig3(home, draw, away float64) (float64, float64, float64, error) {
	ph, err := DecimalToProb(home)
	if err != nil {
		return 0, 0, 0, err
	}
	pd, err := DecimalToProb(draw)
	if err != nil {
		return 0, 0, 0, err
	}
	pa, err := DecimalToProb(away)
	if err != nil {
		return 0, 0, 0, err
	}
	total := ph + pd + pa
	return ph / total, pd / total, pa / total, nil
}

// StripVigOutrights fills ImpliedProb so each bookmaker's book sums to one.
// The input is not modified.
func StripVigOutrights(outcomes []Outcome) ([]Outcome, error) {
	totals := make(map[string]float64)
	out := make([]Outcome, len(outcomes))
	for i, o := range outcomes {
		p, err := DecimalToProb(o.DecimalOdds)
		if err != nil {
			return nil, fmt.Errorf("%s/%s: %w", o.Bookmaker, o.Team, err)
		}
		out[i] = o
		out[i].ImpliedProb = p
		totals[o.Bookmaker] += p
	}
	for i := range out {
		out[i].ImpliedProb /= totals[out[i].Bookmaker]
	}
	return out, nil
}
