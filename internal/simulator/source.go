package simulator

import "math/rand/v2"

// Source is the random stream threaded through a batch. Every function that
// consumes randomness takes it explicitly; nothing in this package keeps a
// generator of its own.
type Source interface {
	Float64() float64
	IntN(n int) int
}

// pcgStream is the fixed PCG increment. Only the seed varies between batches.
const pcgStream = 0x5851f42d4c957f2d

// NewSource returns a generator whose whole sequence is fixed by seed.
func NewSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, pcgStream))
}

// shuffle is a Fisher-Yates pass drawing one IntN per swap position.
func shuffle(src Source, n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := src.IntN(i + 1)
		swap(i, j)
	}
}

// workerSeed derives an independent seed for parallel worker w.
func workerSeed(seed uint64, w int) uint64 {
	z := seed + uint64(w+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
