package model

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Units used throughout the steering model:
//   time in seconds, distance in meters, heading in degrees.

// SteeringOutput is a single motion command.
type SteeringOutput struct {
	Linear       mgl64.Vec2 // meters per second (or per second squared when dynamic)
	HeadingDelta float64    // degrees per second, expected in [-180, 180]
}

// NewSteeringOutput builds a SteeringOutput from its components.
func NewSteeringOutput(x, y, headingDelta float64) SteeringOutput {
	return SteeringOutput{
		Linear:       mgl64.Vec2{x, y},
		HeadingDelta: headingDelta,
	}
}

// SteeringOutputHandle pairs a SteeringOutput with the window it is active
// for. Uniform handles (Dynamic == false) contribute their velocity once when
// attached; dynamic handles are integrated as an acceleration every tick.
type SteeringOutputHandle struct {
	Duration TickDuration
	Output   SteeringOutput
	Wander   bool
	Dynamic  bool
}

// UniformHandle returns a non-dynamic handle.
func UniformHandle(out SteeringOutput, d TickDuration, wander bool) SteeringOutputHandle {
	return SteeringOutputHandle{
		Duration: d,
		Output:   out,
		Wander:   wander,
	}
}

// DynamicHandle returns a handle whose output is integrated as acceleration.
func DynamicHandle(out SteeringOutput, d TickDuration) SteeringOutputHandle {
	return SteeringOutputHandle{
		Duration: d,
		Output:   out,
		Dynamic:  true,
	}
}

// TimeLeft is shorthand for h.Duration.TimeLeft.
func (h SteeringOutputHandle) TimeLeft(currentTick float64) float64 {
	return h.Duration.TimeLeft(currentTick)
}
