package combiner

import (
	"math"
	"testing"
)

type weight float64

func (w weight) Weight() float64 { return float64(w) }

func TestStochasticIndexSingleCandidate(t *testing.T) {
	rnd := newRand(1)
	for _, w := range []float64{0, 1, 5} {
		for _, maxW := range []float64{0, w, 10} {
			if i := StochasticIndex([]weight{weight(w)}, maxW, rnd); i != 0 {
				t.Fatalf("weight %v max %v: expected 0, got %d", w, maxW, i)
			}
		}
	}
}

func TestStochasticIndexZeroMaxIsUniform(t *testing.T) {
	rnd := newRand(2)
	cands := []weight{0, 0, 0}

	for _, maxW := range []float64{0, -1, math.NaN()} {
		counts := make([]int, len(cands))
		for range 3000 {
			counts[StochasticIndex(cands, maxW, rnd)]++
		}
		for i, n := range counts {
			if n < 800 || n > 1200 {
				t.Fatalf("max %v: candidate %d picked %d/3000 times", maxW, i, n)
			}
		}
	}
}

func TestStochasticIndexProportional(t *testing.T) {
	rnd := newRand(3)
	cands := []weight{8, 2}

	const draws = 10000
	var first int
	for range draws {
		if StochasticIndex(cands, 8, rnd) == 0 {
			first++
		}
	}
	share := float64(first) / draws
	if math.Abs(share-0.8) > 0.03 {
		t.Fatalf("expected ~0.8 share for weight 8, got %.3f", share)
	}
}

func TestStochasticIndexZeroWeightNeverPicked(t *testing.T) {
	rnd := newRand(4)
	cands := []weight{0, 3, 0}
	for range 1000 {
		if i := StochasticIndex(cands, 3, rnd); i != 1 {
			t.Fatalf("zero weight candidate %d picked", i)
		}
	}
}

func TestStochasticIndexStaleMaxTerminates(t *testing.T) {
	rnd := newRand(5)
	cands := []weight{0, 0}
	for range 100 {
		if i := StochasticIndex(cands, 8, rnd); i < 0 || i >= len(cands) {
			t.Fatalf("index out of range: %d", i)
		}
	}
}

func TestStochasticIndexEmptyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for empty candidates")
		}
	}()
	StochasticIndex([]weight{}, 1, newRand(6))
}
