package kinematics

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/signalsfoundry/steering-simulator/model"
)

// applySteeringOutput applies one tick of an active handle. Uniform and
// dynamic handles share the half-dt² displacement term; only dynamic handles
// feed back into the velocities.
func (o *KinematicObject) applySteeringOutput(h model.SteeringOutputHandle, ev model.NextTickEvent) {
	dt := ev.SecondsPerTick
	halfTSqr := 0.5 * dt * dt

	o.position = o.position.Add(h.Output.Linear.Mul(halfTSqr))
	o.SetHeading(o.heading + h.Output.HeadingDelta*halfTSqr)

	if h.Wander {
		r := o.wander.Sample()
		o.SetHeading(o.heading * r * mgl64.Clamp(h.Output.HeadingDelta/180, -1, 1))
	}

	if h.Dynamic {
		o.linearVelocity = o.linearVelocity.Add(h.Output.Linear.Mul(dt))
		o.angularVelocity += h.Output.HeadingDelta * dt
	}
}

// removeSteering undoes the velocity a handle contributed over its lifetime.
func (o *KinematicObject) removeSteering(h model.SteeringOutputHandle, ev model.NextTickEvent) {
	if h.Dynamic {
		totalTicks := h.Duration.ActiveUntil
		o.linearVelocity = o.linearVelocity.Sub(h.Output.Linear.Mul(totalTicks * ev.SecondsPerTick))
		return
	}
	o.linearVelocity = o.linearVelocity.Sub(h.Output.Linear)
	o.angularVelocity -= h.Output.HeadingDelta
}
