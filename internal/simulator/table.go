package simulator

import (
	"cmp"
	"slices"
)

// Table caches everything the scoring model derives from a fixed set of
// strengths: per-pair cumulative goal distributions for the sampler and the
// pairwise win probabilities used in the knockout stage. It is read-only
// after construction and safe to share between workers.
type Table struct {
	strengths []float64
	cdf       [][]goalDist
	win       [][]float64
	byRank    []int
}

// NewTable precomputes the model for every ordered pair of entrants.
func NewTable(strengths []float64) *Table {
	n := len(strengths)
	t := &Table{
		strengths: slices.Clone(strengths),
		cdf:       make([][]goalDist, n),
		win:       make([][]float64, n),
		byRank:    make([]int, n),
	}
	for a := 0; a < n; a++ {
		t.cdf[a] = make([]goalDist, n)
		t.win[a] = make([]float64, n)
	}
	for a := 0; a < n; a++ {
		t.win[a][a] = 0.5
		for b := 0; b < n; b++ {
			if a == b {
				continue
			}
			lA, lB := ExpectedGoals(strengths[a], strengths[b])
			da, db := truncatedPoisson(lA), truncatedPoisson(lB)
			t.cdf[a][b] = cumulative(da)
			m := outcome(da, db)
			t.win[a][b] = m.Win + 0.5*m.Draw
		}
	}

	for i := range t.byRank {
		t.byRank[i] = i
	}
	slices.SortStableFunc(t.byRank, func(x, y int) int {
		if c := cmp.Compare(strengths[y], strengths[x]); c != 0 {
			return c
		}
		return cmp.Compare(x, y)
	})
	return t
}

func cumulative(d goalDist) goalDist {
	var c goalDist
	acc := 0.0
	for k, p := range d {
		acc += p
		c[k] = acc
	}
	c[MaxGoals] = 1
	return c
}

// Len is the number of entrants in the table.
func (t *Table) Len() int {
	return len(t.strengths)
}

// Strength returns the strength of entrant i.
func (t *Table) Strength(i int) float64 {
	return t.strengths[i]
}

// WinProbability returns the cached probability that a eliminates b.
func (t *Table) WinProbability(a, b int) float64 {
	return t.win[a][b]
}
