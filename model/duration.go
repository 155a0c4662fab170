package model

import (
	"fmt"
	"math"
)

// Cardinality distinguishes bounded from unbounded tick windows. The set of
// implementations is closed: only Finite and Infinite satisfy it.
type Cardinality interface {
	isCardinality()
	String() string
}

// Finite marks a window that ends ActiveUntil ticks after it was created.
type Finite struct{}

// Infinite marks a window that never expires.
type Infinite struct{}

func (Finite) isCardinality()   {}
func (Infinite) isCardinality() {}

func (Finite) String() string   { return "finite" }
func (Infinite) String() string { return "infinite" }

// TickDuration is a window of simulated time measured in ticks. It is a value
// type and is never mutated after construction.
type TickDuration struct {
	cardinality Cardinality

	// CreatedAt is the tick index the window starts at.
	CreatedAt float64
	// ActiveUntil is the window length in ticks, relative to CreatedAt.
	ActiveUntil float64
}

// NewFiniteDuration returns a window of activeTicks ticks starting at tick.
// Negative lengths are clamped to zero.
func NewFiniteDuration(tick, activeTicks float64) TickDuration {
	return TickDuration{
		cardinality: Finite{},
		CreatedAt:   tick,
		ActiveUntil: math.Max(activeTicks, 0),
	}
}

// NewInfiniteDuration returns a window starting at tick that never expires.
func NewInfiniteDuration(tick float64) TickDuration {
	return TickDuration{
		cardinality: Infinite{},
		CreatedAt:   tick,
		ActiveUntil: math.Inf(1),
	}
}

// Cardinality reports whether the window is finite or infinite.
func (d TickDuration) Cardinality() Cardinality { return d.cardinality }

// IsFinite reports whether the window can expire.
func (d TickDuration) IsFinite() bool {
	_, ok := d.cardinality.(Finite)
	return ok
}

// TimeLeft returns the number of ticks remaining at currentTick. The result
// is negative once the window has passed and is never clamped. Infinite
// windows always report +Inf.
func (d TickDuration) TimeLeft(currentTick float64) float64 {
	switch d.cardinality.(type) {
	case Infinite:
		return math.Inf(1)
	case Finite:
		return (d.CreatedAt + d.ActiveUntil) - currentTick
	default:
		// Only reachable through a zero-value TickDuration.
		panic(fmt.Sprintf("model: invalid duration cardinality %T", d.cardinality))
	}
}

// Expired reports whether the window has no time left at currentTick.
func (d TickDuration) Expired(currentTick float64) bool {
	return d.TimeLeft(currentTick) <= 0
}
