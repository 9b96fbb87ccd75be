package odds

import (
	"cmp"
	"errors"
	"math"
	"slices"
)

// ErrNoOutcomes is returned when there is nothing to derive strengths from.
var ErrNoOutcomes = errors.New("no outcomes")

// TeamStrength is a log-odds strength relative to the field.
type TeamStrength struct {
	Name        string  `json:"name"`
	Strength    float64 `json:"strength"`
	ImpliedProb float64 `json:"implied_prob"`
}

// Strengths averages each team's vig-free probability over bookmakers and
// measures it against the geometric mean of the field:
//
//	strength = ln(p_team) - mean(ln(p))
//
// so the strengths sum to zero. Outcomes must already carry ImpliedProb.
// Rows are returned strongest first.
func Strengths(outcomes []Outcome) ([]TeamStrength, error) {
	if len(outcomes) == 0 {
		return nil, ErrNoOutcomes
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	var order []string
	for _, o := range outcomes {
		if _, ok := counts[o.Team]; !ok {
			order = append(order, o.Team)
		}
		sums[o.Team] += o.ImpliedProb
		counts[o.Team]++
	}

	rows := make([]TeamStrength, 0, len(order))
	meanLog := 0.0
	for _, team := range order {
		p := sums[team] / float64(counts[team])
		if !(p > 0) {
			return nil, ErrInvalidOdds
		}
		rows = append(rows, TeamStrength{Name: team, ImpliedProb: p})
		meanLog += math.Log(p)
	}
	meanLog /= float64(len(rows))

	for i := range rows {
		rows[i].Strength = math.Log(rows[i].ImpliedProb) - meanLog
	}
	slices.SortStableFunc(rows, func(a, b TeamStrength) int {
		return cmp.Compare(b.Strength, a.Strength)
	})
	return rows, nil
}

// Bookmakers counts distinct bookmakers in a set of outcomes.
func Bookmakers(outcomes []Outcome) int {
	seen := make(map[string]struct{})
	for _, o := range outcomes {
		seen[o.Bookmaker] = struct{}{}
	}
	return len(seen)
}
