package simulator

// PlayKnockout resolves a single-elimination bracket and returns the
// champion. Ties are paired by position, (0,1), (2,3) and so on, and each
// is settled with one uniform draw against the cached win probability; no
// scoreline is sampled. len(bracket) must be a power of two.
func PlayKnockout(t *Table, bracket []int, src Source) int {
	alive := bracket
	for len(alive) > 1 {
		next := make([]int, 0, len(alive)/2)
		for i := 0; i+1 < len(alive); i += 2 {
			a, b := alive[i], alive[i+1]
			if src.Float64() < t.WinProbability(a, b) {
				next = append(next, a)
			} else {
				next = append(next, b)
			}
		}
		alive = next
	}
	return alive[0]
}
