package simulator

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rampInput() Input {
	names, _ := equalField(Entrants)
	return Input{Names: names, Strengths: rampStrengths()}
}

func sumProbabilities(r *Result) float64 {
	total := 0.0
	for _, p := range r.Probabilities {
		total += p
	}
	return total
}

func TestSimulate_Reproducible(t *testing.T) {
	in := rampInput()
	opts := Options{Runs: 2000, Seed: 99}

	first, err := Simulate(context.Background(), in, opts)
	require.NoError(t, err)
	second, err := Simulate(context.Background(), in, opts)
	require.NoError(t, err)

	assert.Equal(t, first.Counts, second.Counts)
	assert.Equal(t, first.Probabilities, second.Probabilities)

	other, err := Simulate(context.Background(), in, Options{Runs: 2000, Seed: 100})
	require.NoError(t, err)
	assert.NotEqual(t, first.Counts, other.Counts)
}

func TestSimulate_Conservation(t *testing.T) {
	in := rampInput()
	res, err := Simulate(context.Background(), in, Options{Runs: 3000, Seed: 1, Draw: DrawPots})
	require.NoError(t, err)

	assert.InDelta(t, 1.0, sumProbabilities(res), 1e-9)
	assert.Len(t, res.Probabilities, Entrants)
	wins := 0
	for _, name := range in.Names {
		p, ok := res.Probabilities[name]
		require.True(t, ok)
		assert.True(t, p >= 0 && p <= 1)
		wins += res.Counts[name]
	}
	assert.Equal(t, 3000, wins)
	assert.Equal(t, 3000, res.Runs)
	assert.Equal(t, DrawPots, res.Draw)
}

func TestSimulate_EqualFieldIsUniform(t *testing.T) {
	names, strengths := equalField(Entrants)
	const runs = 10000
	res, err := Simulate(context.Background(), Input{Names: names, Strengths: strengths}, Options{Runs: runs, Seed: 42})
	require.NoError(t, err)

	p := 1.0 / Entrants
	band := 5 * math.Sqrt(p*(1-p)/runs)
	for _, name := range names {
		assert.InDelta(t, p, res.Probabilities[name], band, "entrant %s", name)
	}
}

func TestSimulate_StrongestIsFavourite(t *testing.T) {
	in := rampInput()
	in.Strengths[0] = 3.0
	res, err := Simulate(context.Background(), in, Options{Runs: 4000, Seed: 5})
	require.NoError(t, err)

	ranked := res.Ranked()
	require.Len(t, ranked, Entrants)
	assert.Equal(t, in.Names[0], ranked[0].Name)
	assert.Greater(t, res.Probabilities[in.Names[0]], res.Probabilities[in.Names[Entrants-1]])
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Probability, ranked[i].Probability)
	}
	assert.Greater(t, ranked[0].StdErr, 0.0)
}

func TestSimulate_RejectsNonPositiveRunsBeforeDrawing(t *testing.T) {
	names, strengths := equalField(Entrants)
	for _, runs := range []int{0, -1, -20000} {
		src := &countingSource{inner: NewSource(0)}
		res, err := Simulate(context.Background(), Input{Names: names, Strengths: strengths}, Options{Runs: runs, Source: src})
		assert.ErrorIs(t, err, ErrInvalidArgument)
		assert.Nil(t, res)
		assert.Zero(t, src.calls)
	}
}

func TestSimulate_InvalidInputs(t *testing.T) {
	names, strengths := equalField(Entrants)
	ctx := context.Background()

	_, err := Simulate(ctx, Input{Names: names[:47], Strengths: strengths}, Options{Runs: 10})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	shortNames, shortStrengths := equalField(16)
	_, err = Simulate(ctx, Input{Names: shortNames, Strengths: shortStrengths}, Options{Runs: 10})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	dup := append([]string(nil), names...)
	dup[5] = dup[4]
	_, err = Simulate(ctx, Input{Names: dup, Strengths: strengths}, Options{Runs: 10})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = Simulate(ctx, Input{Names: names, Strengths: strengths}, Options{Runs: 10, Draw: "seeded"})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = Simulate(ctx, Input{Names: names, Strengths: strengths}, Options{Runs: 10, Workers: -2})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		s := append([]float64(nil), strengths...)
		s[30] = bad
		src := &countingSource{inner: NewSource(0)}
		_, err = Simulate(ctx, Input{Names: names, Strengths: s}, Options{Runs: 10, Source: src})
		assert.ErrorIs(t, err, ErrNumericDegenerate)
		assert.Zero(t, src.calls)
	}
}

func TestSimulate_ExplicitSourceMatchesSeed(t *testing.T) {
	in := rampInput()
	bySeed, err := Simulate(context.Background(), in, Options{Runs: 500, Seed: 31})
	require.NoError(t, err)
	bySource, err := Simulate(context.Background(), in, Options{Runs: 500, Source: NewSource(31)})
	require.NoError(t, err)
	assert.Equal(t, bySeed.Counts, bySource.Counts)
}

func TestSimulate_ParallelWorkers(t *testing.T) {
	in := rampInput()
	opts := Options{Runs: 4001, Seed: 77, Workers: 4}

	first, err := Simulate(context.Background(), in, opts)
	require.NoError(t, err)
	second, err := Simulate(context.Background(), in, opts)
	require.NoError(t, err)

	assert.Equal(t, 4, first.Workers)
	assert.Equal(t, 4001, first.Runs)
	assert.Equal(t, first.Counts, second.Counts)
	assert.InDelta(t, 1.0, sumProbabilities(first), 1e-9)
}

func TestSimulate_WorkersCappedByRuns(t *testing.T) {
	res, err := Simulate(context.Background(), rampInput(), Options{Runs: 3, Workers: 8})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Workers)
	assert.Equal(t, 3, res.Runs)
}

func TestSimulate_CancelledReturnsPartial(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	opts := Options{
		Runs: 1000,
		Seed: 2,
		Progress: func(done, total int) {
			if done >= 100 {
				cancel()
			}
		},
	}
	res, err := Simulate(ctx, rampInput(), opts)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.Equal(t, 100, res.Runs)
	assert.Equal(t, 1000, res.Requested)
	assert.InDelta(t, 1.0, sumProbabilities(res), 1e-9)
}

func TestSimulate_ReportsProgress(t *testing.T) {
	var (
		mu   sync.Mutex
		last int
		hits int
	)
	opts := Options{Runs: 500, Workers: 2, Progress: func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 500, total)
		if done > last {
			last = done
		}
		hits++
	}}
	_, err := Simulate(context.Background(), rampInput(), opts)
	require.NoError(t, err)
	assert.Equal(t, 500, last)
	assert.Greater(t, hits, 10)
}

func TestTally_Merge(t *testing.T) {
	a, b := NewTally(3), NewTally(3)
	a.Add(0)
	a.Add(2)
	b.Add(2)
	a.Merge(b)
	assert.Equal(t, []int{1, 0, 2}, a.Counts)
	assert.Equal(t, 3, a.Runs)
}
