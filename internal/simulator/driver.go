package simulator

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"
)

// DefaultRuns is the batch size used when a caller does not choose one.
const DefaultRuns = 20000

// Input is the field for one batch, index-aligned.
type Input struct {
	Names     []string
	Strengths []float64
}

// Options controls a batch.
type Options struct {
	Runs    int
	Seed    uint64
	Workers int
	Draw    DrawMode

	// Source replaces the generator seeded from Seed. Only the sequential
	// path uses it.
	Source Source

	// Progress is called with completed and total runs roughly every one
	// percent of the batch. It may be called from several goroutines.
	Progress func(done, total int)

	Logger *logrus.Logger
}

// Tally counts champions per entrant index.
type Tally struct {
	Counts []int
	Runs   int
}

// NewTally returns an empty tally for n entrants.
func NewTally(n int) *Tally {
	return &Tally{Counts: make([]int, n)}
}

// Add records one champion.
func (t *Tally) Add(champion int) {
	t.Counts[champion]++
	t.Runs++
}

// Merge adds another tally over the same entrants.
func (t *Tally) Merge(o *Tally) {
	for i, c := range o.Counts {
		t.Counts[i] += c
	}
	t.Runs += o.Runs
}

// TeamProbability is one row of a ranked result.
type TeamProbability struct {
	Name        string  `json:"name"`
	Probability float64 `json:"probability"`
	Wins        int     `json:"wins"`
	StdErr      float64 `json:"std_err"`
}

// Result is the outcome of a batch.
type Result struct {
	Probabilities map[string]float64 `json:"probabilities"`
	Counts        map[string]int     `json:"counts"`
	Runs          int                `json:"runs"`
	Requested     int                `json:"requested"`
	Seed          uint64             `json:"seed"`
	Workers       int                `json:"workers"`
	Draw          DrawMode           `json:"draw_mode"`
	Duration      time.Duration      `json:"duration"`
}

// Ranked lists entrants by probability, highest first, ties by name. StdErr
// is the binomial standard error of each estimate.
func (r *Result) Ranked() []TeamProbability {
	rows := make([]TeamProbability, 0, len(r.Probabilities))
	for name, p := range r.Probabilities {
		se := 0.0
		if r.Runs > 0 {
			se = stat.StdErr(math.Sqrt(p*(1-p)), float64(r.Runs))
		}
		rows = append(rows, TeamProbability{Name: name, Probability: p, Wins: r.Counts[name], StdErr: se})
	}
	slices.SortFunc(rows, func(a, b TeamProbability) int {
		if c := cmp.Compare(b.Probability, a.Probability); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return rows
}

// Validate checks a batch before any randomness is consumed.
func Validate(in Input, opts Options) error {
	if opts.Runs <= 0 {
		return fmt.Errorf("%w: runs must be positive, got %d", ErrInvalidArgument, opts.Runs)
	}
	if opts.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidArgument, opts.Workers)
	}
	if len(in.Names) != len(in.Strengths) {
		return fmt.Errorf("%w: %d names but %d strengths", ErrInvalidArgument, len(in.Names), len(in.Strengths))
	}
	if len(in.Strengths) != Entrants {
		return fmt.Errorf("%w: format needs %d entrants, got %d", ErrInvalidArgument, Entrants, len(in.Strengths))
	}
	if _, err := ParseDrawMode(string(opts.Draw)); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(in.Names))
	for _, name := range in.Names {
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: duplicate entrant %q", ErrInvalidArgument, name)
		}
		seen[name] = struct{}{}
	}
	for i, s := range in.Strengths {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return fmt.Errorf("%w: %q has strength %v", ErrNumericDegenerate, in.Names[i], s)
		}
	}
	return nil
}

// Simulate runs the tournament opts.Runs times and reports how often each
// entrant won it. With one worker every run draws from the same stream, so
// the batch as a whole is reproducible from the seed while single runs are
// not. With several workers each one owns a stream derived from the seed
// and the tallies are summed at the end.
//
// If ctx ends first, the partial result over completed runs is returned
// together with ctx.Err().
func Simulate(ctx context.Context, in Input, opts Options) (*Result, error) {
	if err := Validate(in, opts); err != nil {
		return nil, err
	}
	mode, _ := ParseDrawMode(string(opts.Draw))

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > opts.Runs {
		workers = opts.Runs
	}

	start := time.Now()
	table := NewTable(in.Strengths)
	prog := newProgress(opts.Progress, opts.Runs)

	var (
		tally  *Tally
		runErr error
	)
	if workers == 1 {
		src := opts.Source
		if src == nil {
			src = NewSource(opts.Seed)
		}
		tally, runErr = runBatch(ctx, table, mode, src, opts.Runs, prog)
	} else {
		tally, runErr = runParallel(ctx, table, mode, opts.Seed, opts.Runs, workers, prog)
	}

	res := newResult(in.Names, tally)
	res.Requested = opts.Runs
	res.Seed = opts.Seed
	res.Workers = workers
	res.Draw = mode
	res.Duration = time.Since(start)

	if opts.Logger != nil {
		opts.Logger.WithFields(logrus.Fields{
			"runs":     res.Runs,
			"seed":     opts.Seed,
			"workers":  workers,
			"draw":     mode,
			"duration": res.Duration,
		}).Debug("Tournament batch finished")
	}
	return res, runErr
}

func runBatch(ctx context.Context, t *Table, mode DrawMode, src Source, runs int, prog *progress) (*Tally, error) {
	tally := NewTally(t.Len())
	for r := 0; r < runs; r++ {
		select {
		case <-ctx.Done():
			return tally, ctx.Err()
		default:
		}
		tally.Add(PlayTournament(t, mode, src))
		prog.step()
	}
	return tally, nil
}

func runParallel(ctx context.Context, t *Table, mode DrawMode, seed uint64, runs, workers int, prog *progress) (*Tally, error) {
	partials := make([]*Tally, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		share := runs / workers
		if w < runs%workers {
			share++
		}
		wg.Add(1)
		go func(w, share int) {
			defer wg.Done()
			partials[w], errs[w] = runBatch(ctx, t, mode, NewSource(workerSeed(seed, w)), share, prog)
		}(w, share)
	}
	wg.Wait()

	total := NewTally(t.Len())
	var firstErr error
	for w, p := range partials {
		total.Merge(p)
		if errs[w] != nil && firstErr == nil {
			firstErr = errs[w]
		}
	}
	return total, firstErr
}

func newResult(names []string, tally *Tally) *Result {
	res := &Result{
		Probabilities: make(map[string]float64, len(names)),
		Counts:        make(map[string]int, len(names)),
		Runs:          tally.Runs,
	}
	for i, name := range names {
		res.Counts[name] = tally.Counts[i]
		if tally.Runs > 0 {
			res.Probabilities[name] = float64(tally.Counts[i]) / float64(tally.Runs)
		} else {
			res.Probabilities[name] = 0
		}
	}
	return res
}

type progress struct {
	mu    sync.Mutex
	fn    func(done, total int)
	total int
	every int
	done  int
}

func newProgress(fn func(done, total int), total int) *progress {
	every := total / 100
	if every < 1 {
		every = 1
	}
	return &progress{fn: fn, total: total, every: every}
}

func (p *progress) step() {
	if p.fn == nil {
		return
	}
	p.mu.Lock()
	p.done++
	done := p.done
	p.mu.Unlock()
	if done%p.every == 0 || done == p.total {
		p.fn(done, p.total)
	}
}
