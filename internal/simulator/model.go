package simulator

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// MaxGoals truncates every goal distribution to 0..MaxGoals. The mass
	// above it is dropped and the remainder renormalised; this is an
	// accepted bias of the model, not an error.
	MaxGoals = 8

	// maxLogRate bounds |mu + sA - sB| so extreme strength gaps cannot
	// overflow exp into Inf.
	maxLogRate = 30.0
)

// BaseLogRate is mu, the log of the expected goals for either side when the
// strengths are equal.
var BaseLogRate = math.Log(1.35)

// goalDist is a truncated, renormalised Poisson pmf over 0..MaxGoals.
type goalDist [MaxGoals + 1]float64

// MatchProbabilities is the exact outcome split for one match.
type MatchProbabilities struct {
	Win  float64 `json:"win"`
	Draw float64 `json:"draw"`
	Loss float64 `json:"loss"`
}

// ExpectedGoals returns the Poisson rates (lambdaA, lambdaB) for two strengths.
func ExpectedGoals(sA, sB float64) (float64, float64) {
	return rate(sA, sB), rate(sB, sA)
}

func rate(s, opp float64) float64 {
	x := BaseLogRate + s - opp
	x = math.Max(-maxLogRate, math.Min(maxLogRate, x))
	return math.Exp(x)
}

// truncatedPoisson evaluates the pmf on 0..MaxGoals and renormalises. When
// every term underflows the rate is far above the support and all mass goes
// to MaxGoals.
func truncatedPoisson(lambda float64) goalDist {
	var d goalDist
	p := distuv.Poisson{Lambda: lambda}
	total := 0.0
	for k := range d {
		d[k] = p.Prob(float64(k))
		total += d[k]
	}
	if total <= 0 || math.IsNaN(total) {
		d = goalDist{}
		if lambda > MaxGoals {
			d[MaxGoals] = 1
		} else {
			d[0] = 1
		}
		return d
	}
	for k := range d {
		d[k] /= total
	}
	return d
}

// outcome enumerates the cross product of two independent goal counts.
func outcome(a, b goalDist) MatchProbabilities {
	var m MatchProbabilities
	for i, pi := range a {
		for j, pj := range b {
			switch {
			case i > j:
				m.Win += pi * pj
			case i == j:
				m.Draw += pi * pj
			default:
				m.Loss += pi * pj
			}
		}
	}
	return m
}

// Outcome returns the win/draw/loss split for side A against side B.
func Outcome(sA, sB float64) MatchProbabilities {
	lA, lB := ExpectedGoals(sA, sB)
	return outcome(truncatedPoisson(lA), truncatedPoisson(lB))
}

// WinProbability is the probability that A eliminates B in a single tie:
// A outscores B, or the match is drawn and A wins the shoot-out, which is
// a coin flip.
func WinProbability(sA, sB float64) float64 {
	m := Outcome(sA, sB)
	return m.Win + 0.5*m.Draw
}
