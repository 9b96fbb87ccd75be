package simulator

// MatchResult is one simulated scoreline from the first side's view.
type MatchResult struct {
	GoalsFor     int
	GoalsAgainst int
}

// SampleMatch draws a scoreline for entrant a against entrant b. Exactly
// one uniform draw is taken per side, a's first.
func (t *Table) SampleMatch(a, b int, src Source) MatchResult {
	gf := drawGoals(t.cdf[a][b], src)
	ga := drawGoals(t.cdf[b][a], src)
	return MatchResult{GoalsFor: gf, GoalsAgainst: ga}
}

// SampleMatch draws a scoreline for two raw strengths without a Table.
func SampleMatch(sA, sB float64, src Source) MatchResult {
	lA, lB := ExpectedGoals(sA, sB)
	gf := drawGoals(cumulative(truncatedPoisson(lA)), src)
	ga := drawGoals(cumulative(truncatedPoisson(lB)), src)
	return MatchResult{GoalsFor: gf, GoalsAgainst: ga}
}

// drawGoals inverts a cumulative goal distribution with one uniform draw.
func drawGoals(cdf goalDist, src Source) int {
	u := src.Float64()
	for k, c := range cdf {
		if u < c {
			return k
		}
	}
	return MaxGoals
}
