package simulator

import (
	"fmt"
	"slices"
)

// Format of the two-stage event.
const (
	Entrants    = 48
	Groups      = Entrants / GroupSize
	BestThirds  = 8
	BracketSize = 2*Groups + BestThirds
)

// DrawMode selects how entrants are assigned to groups.
type DrawMode string

const (
	// DrawRandom is a uniform permutation of all entrants cut into groups.
	DrawRandom DrawMode = "random"
	// DrawPots ranks entrants by strength into GroupSize pots of Groups
	// and gives every group one entrant from each pot.
	DrawPots DrawMode = "pots"
)

// ParseDrawMode maps "" to DrawRandom and rejects unknown modes.
func ParseDrawMode(s string) (DrawMode, error) {
	switch DrawMode(s) {
	case "", DrawRandom:
		return DrawRandom, nil
	case DrawPots:
		return DrawPots, nil
	}
	return "", fmt.Errorf("%w: unknown draw mode %q", ErrInvalidArgument, s)
}

// drawGroups assigns all entrants to groups. Either mode yields a
// permutation of 0..Entrants-1.
func drawGroups(t *Table, mode DrawMode, src Source) [Groups][GroupSize]int {
	var groups [Groups][GroupSize]int
	if mode == DrawPots {
		for pot := 0; pot < GroupSize; pot++ {
			members := slices.Clone(t.byRank[pot*Groups : (pot+1)*Groups])
			shuffle(src, len(members), func(i, j int) { members[i], members[j] = members[j], members[i] })
			for g, e := range members {
				groups[g][pot] = e
			}
		}
		return groups
	}

	perm := make([]int, Entrants)
	for i := range perm {
		perm[i] = i
	}
	shuffle(src, len(perm), func(i, j int) { perm[i], perm[j] = perm[j], perm[i] })
	for g := 0; g < Groups; g++ {
		copy(groups[g][:], perm[g*GroupSize:(g+1)*GroupSize])
	}
	return groups
}

// PlayTournament runs one full event over a 48-entrant table and returns the
// champion. The bracket is seeded in assembly order: every group's winner
// and runner-up in group order, then the best thirds. Group-mates are not
// kept apart in the bracket.
func PlayTournament(t *Table, mode DrawMode, src Source) int {
	groups := drawGroups(t, mode, src)

	bracket := make([]int, 0, BracketSize)
	thirds := make([]Standing, 0, Groups)
	for _, g := range groups {
		res := PlayGroup(t, g, src)
		bracket = append(bracket, res.Winner, res.RunnerUp)
		thirds = append(thirds, res.Third)
	}

	rankStandings(thirds, src)
	for _, s := range thirds[:BestThirds] {
		bracket = append(bracket, s.Entrant)
	}

	return PlayKnockout(t, bracket, src)
}
