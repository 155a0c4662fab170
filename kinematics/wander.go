package kinematics

import (
	"math/rand/v2"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat/distuv"
)

// WanderSampler draws the 0/1 factor used to perturb heading on wander
// handles.
type WanderSampler interface {
	Sample() float64
}

// BernoulliWander samples from a Bernoulli distribution.
type BernoulliWander struct {
	mu   sync.Mutex
	dist distuv.Bernoulli
}

// NewBernoulliWander returns a sampler yielding 1 with probability p. A nil
// src seeds a PCG source from the wall clock.
func NewBernoulliWander(p float64, src rand.Source) *BernoulliWander {
	if src == nil {
		src = rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed)
	}
	return &BernoulliWander{dist: distuv.Bernoulli{P: p, Src: src}}
}

// NewSeededWander returns a deterministic p=0.5 sampler.
func NewSeededWander(seed uint64) *BernoulliWander {
	return NewBernoulliWander(0.5, rand.NewPCG(seed, seed))
}

// Sample returns 0 or 1.
func (w *BernoulliWander) Sample() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dist.Rand()
}

// FixedWander always returns the same factor. Useful for reproducible runs.
type FixedWander float64

// Sample returns the fixed factor.
func (f FixedWander) Sample() float64 { return float64(f) }
