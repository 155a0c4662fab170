package model

// NextTickEvent is broadcast once per scheduler iteration. Listeners receive
// it by value and must treat it as read-only.
type NextTickEvent struct {
	TickCount      float64
	SecondsPerTick float64
}

// TotalSeconds is the simulated time elapsed at this tick.
func (e NextTickEvent) TotalSeconds() float64 {
	return e.SecondsPerTick * e.TickCount
}
