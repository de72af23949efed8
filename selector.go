package combiner

import (
	"math"
	"math/rand/v2"
)

// rejectionsPerCandidate bounds the rejection loop in StochasticIndex.
// It is only reached when the cached max weight is stale and larger than
// every weight in the snapshot.
const rejectionsPerCandidate = 64

// Weighted is anything carrying a relative selection weight.
type Weighted interface {
	Weight() float64
}

// StochasticIndex picks an index of cands with probability biased by
// weight, using fitness proportionate selection by rejection sampling:
// a uniformly drawn candidate i is accepted with probability
// weight(i)/maxWeight.
//
// A non-positive (or NaN) maxWeight selects uniformly. cands must not be
// empty.
func StochasticIndex[W Weighted](cands []W, maxWeight float64, rnd *rand.Rand) int {
	n := len(cands)
	if n == 0 {
		panic("combiner: StochasticIndex called with no candidates")
	}
	if n == 1 {
		return 0
	}
	if !(maxWeight > 0) || math.IsInf(maxWeight, 1) {
		return rnd.IntN(n)
	}

	for range n * rejectionsPerCandidate {
		i := rnd.IntN(n)
		if rnd.Float64() < cands[i].Weight()/maxWeight {
			return i
		}
	}
	return rnd.IntN(n)
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
