package selector

import "math"

// MaxBlocks is the number of blocks modeled in a round.
const MaxBlocks = 15

// blocksPerRound is the expected number of blocks produced in a round.
const blocksPerRound = 5

// ProbabilityFunc returns, for a ticket of the specified quality, the
// probability that a block lands at each place of a round.
type ProbabilityFunc func(ticketQuality float64) []float64

// BlockProbabilities models the number of other winners in a round as a
// Poisson process conditioned on at least one winner and returns the
// probability of the block landing at each of the first MaxBlocks places.
func BlockProbabilities(ticketQuality float64) []float64 {
	noWinners := noWinnersProbAssumingMoreThanOne()
	p := 1 - ticketQuality

	binoPdf := func(x, trials float64) float64 {
		if x > trials {
			return 0
		}

		switch p {
		case 0:
			if x == 0 {
				return 1
			}
			return 0
		case 1:
			if x == trials {
				return 1
			}
			return 0
		}

		coef := binomialCoefficient(trials, x)
		if math.IsInf(coef, 0) {
			return 0
		}

		return coef * math.Pow(p, x) * math.Pow(1-p, trials-x)
	}

	out := make([]float64, 0, MaxBlocks)
	for place := range MaxBlocks {
		var pPlace float64
		for otherWinners, pCase := range noWinners {
			pPlace += pCase * binoPdf(float64(place), float64(otherWinners))
		}
		out = append(out, pPlace)
	}

	return out
}

// noWinnersProbAssumingMoreThanOne returns the Poisson distribution of the
// number of winners conditioned on there being at least one.
func noWinnersProbAssumingMoreThanOne() []float64 {
	cond := math.Log(math.Exp(blocksPerRound) - 1)

	poissPdf := func(x float64) float64 {
		lg, _ := math.Lgamma(x + 1)
		return math.Exp(math.Log(blocksPerRound)*x - lg - cond)
	}

	out := make([]float64, 0, MaxBlocks)
	for i := range MaxBlocks {
		out = append(out, poissPdf(float64(i+1)))
	}

	return out
}

func binomialCoefficient(n, k float64) float64 {
	if k > n {
		return math.NaN()
	}

	r := 1.0
	for d := 1.0; d <= k; d++ {
		r *= n
		r /= d
		n--
	}

	return r
}
