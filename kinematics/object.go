package kinematics

import (
	"cmp"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/signalsfoundry/steering-simulator/model"
)

const (
	// DefaultMaxSpeed is the speed cap of a new object, in meters per second.
	DefaultMaxSpeed = 1.0
	// DefaultMaxAcceleration is the acceleration cap of a new object.
	DefaultMaxAcceleration = 5.0
)

// KinematicObject is a point mover with a heading. It is not safe for
// concurrent use; sim.Actor serialises access to one.
type KinematicObject struct {
	position        mgl64.Vec2 // meters
	heading         float64    // degrees in (-180, 180], 0 = north
	angularVelocity float64    // degrees per second
	linearVelocity  mgl64.Vec2 // meters per second

	currentSteering []model.SteeringOutputHandle

	maxSpeed        float64
	maxAcceleration float64

	wander WanderSampler
}

// ObjectOption customises KinematicObject construction.
type ObjectOption func(*KinematicObject)

// WithMaxSpeed sets the initial speed cap.
func WithMaxSpeed(v float64) ObjectOption {
	return func(o *KinematicObject) { o.SetMaxSpeed(v) }
}

// WithMaxAcceleration sets the initial acceleration cap.
func WithMaxAcceleration(v float64) ObjectOption {
	return func(o *KinematicObject) { o.SetMaxAcceleration(v) }
}

// WithWanderSampler replaces the random source used by wander handles.
func WithWanderSampler(s WanderSampler) ObjectOption {
	return func(o *KinematicObject) {
		if s != nil {
			o.wander = s
		}
	}
}

// WithHeading sets the initial heading in degrees.
func WithHeading(h float64) ObjectOption {
	return func(o *KinematicObject) { o.SetHeading(h) }
}

// NewKinematicObject places a new object at (x, y).
func NewKinematicObject(x, y float64, opts ...ObjectOption) *KinematicObject {
	o := &KinematicObject{
		position:        mgl64.Vec2{x, y},
		maxSpeed:        DefaultMaxSpeed,
		maxAcceleration: DefaultMaxAcceleration,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.wander == nil {
		o.wander = NewBernoulliWander(0.5, nil)
	}
	return o
}

// Position returns the current position in meters.
func (o *KinematicObject) Position() mgl64.Vec2 { return o.position }

// Heading returns the facing direction in degrees, 0 = north.
func (o *KinematicObject) Heading() float64 { return o.heading }

// OrientationRadians returns the heading in radians.
func (o *KinematicObject) OrientationRadians() float64 { return mgl64.DegToRad(o.heading) }

// LinearVelocity returns the velocity in meters per second.
func (o *KinematicObject) LinearVelocity() mgl64.Vec2 { return o.linearVelocity }

// AngularVelocity returns the heading rate in degrees per second.
func (o *KinematicObject) AngularVelocity() float64 { return o.angularVelocity }

// MaxSpeed returns the speed cap.
func (o *KinematicObject) MaxSpeed() float64 { return o.maxSpeed }

// MaxAcceleration returns the acceleration cap.
func (o *KinematicObject) MaxAcceleration() float64 { return o.maxAcceleration }

// CurrentSteering returns a copy of the active handles in their sorted order.
func (o *KinematicObject) CurrentSteering() []model.SteeringOutputHandle {
	return slices.Clone(o.currentSteering)
}

// PositionInRenderSpace maps the 2D position onto the renderer's ground plane.
func (o *KinematicObject) PositionInRenderSpace() mgl64.Vec3 {
	return mgl64.Vec3{o.position.X(), -0.1, o.position.Y()}
}

// SetMaxSpeed sets the speed cap; negative values become zero.
func (o *KinematicObject) SetMaxSpeed(v float64) {
	o.maxSpeed = math.Max(v, 0)
}

// SetMaxAcceleration sets the acceleration cap; negative values become zero.
func (o *KinematicObject) SetMaxAcceleration(v float64) {
	o.maxAcceleration = math.Max(v, 0)
}

// SetHeading stores h wrapped into (-180, 180].
func (o *KinematicObject) SetHeading(h float64) {
	o.heading = WrapHeading(h)
}

// UpdateHeadingBy rotates the object by delta degrees.
func (o *KinematicObject) UpdateHeadingBy(delta float64) {
	o.SetHeading(o.heading + delta)
}

// UpdateHeadingFromVelocity faces the object along velocity.
func (o *KinematicObject) UpdateHeadingFromVelocity(velocity mgl64.Vec2) {
	orientation := math.Atan2(-velocity.X(), velocity.Y())
	o.SetHeading(mgl64.RadToDeg(orientation) - 90)
}

// WrapHeading maps any angle in degrees into (-180, 180].
func WrapHeading(h float64) float64 {
	h = math.Mod(h, 360)
	if h > 180 {
		h -= 360
	}
	if h <= -180 {
		h += 360
	}
	return h
}

// AddSteering attaches handle at currentTick. A uniform handle's velocity is
// folded in immediately and the speed cap re-applied; dynamic handles only
// contribute during Update.
func (o *KinematicObject) AddSteering(handle model.SteeringOutputHandle, currentTick float64) {
	if !handle.Dynamic {
		o.linearVelocity = o.linearVelocity.Add(handle.Output.Linear)
		o.angularVelocity += handle.Output.HeadingDelta
		o.linearVelocity = clampLength(o.linearVelocity, o.maxSpeed)
	}
	o.currentSteering = append(o.currentSteering, handle)
	o.sortSteering(currentTick)
}

// Halt zeroes both velocities. Steering handles and heading are untouched.
func (o *KinematicObject) Halt() {
	o.linearVelocity = mgl64.Vec2{}
	o.angularVelocity = 0
}

// Update advances the object by one tick: expired handles are removed, the
// remaining ones applied, then position and heading are integrated.
func (o *KinematicObject) Update(ev model.NextTickEvent) {
	o.updateSteering(ev)
	for _, h := range o.currentSteering {
		o.applySteeringOutput(h, ev)
	}

	dt := ev.SecondsPerTick
	o.position = o.position.Add(o.linearVelocity.Mul(dt))
	o.SetHeading(o.heading + o.angularVelocity*dt)
}

func (o *KinematicObject) sortSteering(currentTick float64) {
	slices.SortStableFunc(o.currentSteering, func(a, b model.SteeringOutputHandle) int {
		return cmp.Compare(a.TimeLeft(currentTick), b.TimeLeft(currentTick))
	})
}

func (o *KinematicObject) updateSteering(ev model.NextTickEvent) {
	kept := o.currentSteering[:0]
	for _, h := range o.currentSteering {
		if h.Duration.Expired(ev.TickCount) {
			o.removeSteering(h, ev)
			continue
		}
		kept = append(kept, h)
	}
	clear(o.currentSteering[len(kept):])
	o.currentSteering = kept
}

func clampLength(v mgl64.Vec2, limit float64) mgl64.Vec2 {
	l := v.Len()
	if l <= limit || l == 0 {
		return v
	}
	return v.Mul(limit / l)
}
