package simulator

// countingSource wraps a Source and counts every draw taken from it.
type countingSource struct {
	inner Source
	calls int
}

func (c *countingSource) Float64() float64 {
	c.calls++
	return c.inner.Float64()
}

func (c *countingSource) IntN(n int) int {
	c.calls++
	return c.inner.IntN(n)
}

// fixedSource always returns the same uniform value and the lowest index.
type fixedSource struct {
	u float64
}

func (f fixedSource) Float64() float64 { return f.u }
func (f fixedSource) IntN(int) int     { return 0 }

func equalField(n int) ([]string, []float64) {
	names := make([]string, n)
	strengths := make([]float64, n)
	for i := range names {
		names[i] = teamName(i)
	}
	return names, strengths
}

func teamName(i int) string {
	return "Team " + string(rune('A'+i/26)) + string(rune('A'+i%26))
}
