package simulator

import (
	"cmp"
	"slices"
)

// GroupSize is the number of entrants in a round-robin group.
const GroupSize = 4

// Standing accumulates one entrant's group record.
type Standing struct {
	Entrant  int `json:"entrant"`
	Points   int `json:"points"`
	GoalDiff int `json:"goal_diff"`
	GoalsFor int `json:"goals_for"`
}

// GroupResult is what a group hands to the rest of the tournament. Fourth
// place is not kept.
type GroupResult struct {
	Winner   int
	RunnerUp int
	Third    Standing
}

func (s *Standing) record(gf, ga int) {
	s.GoalsFor += gf
	s.GoalDiff += gf - ga
	switch {
	case gf > ga:
		s.Points += 3
	case gf == ga:
		s.Points++
	}
}

// compareStandings orders by points, goal difference and goals for, all
// descending, then by entrant index ascending. Distinct entrants never
// compare equal.
func compareStandings(a, b Standing) int {
	if c := cmp.Compare(b.Points, a.Points); c != 0 {
		return c
	}
	if c := cmp.Compare(b.GoalDiff, a.GoalDiff); c != 0 {
		return c
	}
	if c := cmp.Compare(b.GoalsFor, a.GoalsFor); c != 0 {
		return c
	}
	return cmp.Compare(a.Entrant, b.Entrant)
}

// rankStandings shuffles then stable-sorts. The comparator is total over
// distinct entrants, so the ranking does not depend on the shuffle; the
// shuffle still consumes IntN draws from src.
func rankStandings(st []Standing, src Source) {
	shuffle(src, len(st), func(i, j int) { st[i], st[j] = st[j], st[i] })
	slices.SortStableFunc(st, compareStandings)
}

// PlayGroup plays the six fixtures of a group and ranks it. The four
// entrants must be distinct.
func PlayGroup(t *Table, group [GroupSize]int, src Source) GroupResult {
	var st [GroupSize]Standing
	for i, e := range group {
		st[i].Entrant = e
	}
	for a := 0; a < GroupSize; a++ {
		for b := a + 1; b < GroupSize; b++ {
			m := t.SampleMatch(group[a], group[b], src)
			st[a].record(m.GoalsFor, m.GoalsAgainst)
			st[b].record(m.GoalsAgainst, m.GoalsFor)
		}
	}

	rankStandings(st[:], src)
	return GroupResult{
		Winner:   st[0].Entrant,
		RunnerUp: st[1].Entrant,
		Third:    st[2],
	}
}
