package simulation

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Sampler draws the evidence strength for one step.
type Sampler interface {
	Sample() float64
}

// NormalSampler draws from a seeded normal distribution.
type NormalSampler struct {
	dist distuv.Normal
}

// NewNormalSampler returns a sampler whose stream depends only on seed.
func NewNormalSampler(mean, sd float64, seed uint64) *NormalSampler {
	return &NormalSampler{
		dist: distuv.Normal{
			Mu:    mean,
			Sigma: sd,
			Src:   rand.NewPCG(seed, seed),
		},
	}
}

func (s *NormalSampler) Sample() float64 { return s.dist.Rand() }

// ReplaySampler returns a fixed sequence of values, then repeats the last one.
type ReplaySampler struct {
	values []float64
	next   int
}

func Replay(values ...float64) *ReplaySampler {
	return &ReplaySampler{values: values}
}

func (r *ReplaySampler) Sample() float64 {
	if len(r.values) == 0 {
		return 0
	}
	if r.next >= len(r.values) {
		return r.values[len(r.values)-1]
	}
	v := r.values[r.next]
	r.next++
	return v
}
