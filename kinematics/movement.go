package kinematics

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/signalsfoundry/steering-simulator/model"
)

var (
	// ErrNoMovementNeeded is returned when the target equals the object's
	// position, so no direction can be derived.
	ErrNoMovementNeeded = errors.New("kinematics: target equals current position")
	// ErrStationary is returned when the effective speed or tick length is
	// zero, so the target can never be reached.
	ErrStationary = errors.New("kinematics: effective speed or tick length is zero")
)

// MoveOptions tunes the movement algorithms.
type MoveOptions struct {
	// UpdateHeading asks UniformSpeedMoveTo to turn towards the target.
	UpdateHeading bool
	// Wander sets the wander flag on the produced handle.
	Wander bool
	// MeterLength scales world units to meters. Zero means 1.
	MeterLength float64
}

func (o MoveOptions) meterLength() float64 {
	if o.MeterLength <= 0 {
		return 1
	}
	return o.MeterLength
}

// NewOrientation returns the orientation in radians implied by velocity, or
// orientation unchanged when velocity is zero.
func NewOrientation(orientation float64, velocity mgl64.Vec2) float64 {
	if velocity.Len() > 0 {
		return math.Atan2(-velocity.X(), velocity.Y())
	}
	return orientation
}

// UniformSpeedMoveTo builds a uniform handle moving obj towards target at
// speed (clamped to the object's max speed) for as many ticks as it takes to
// cover the distance. It does not mutate obj; the caller attaches the result
// with AddSteering.
func UniformSpeedMoveTo(obj *KinematicObject, target mgl64.Vec2, speed, tick, secondsPerTick float64, opts MoveOptions) (model.SteeringOutputHandle, error) {
	meterLength := opts.meterLength()
	metersPerSecond := meterLength * mgl64.Clamp(speed, 0, obj.MaxSpeed())

	direction, distance, err := heading(obj.Position(), target)
	if err != nil {
		return model.SteeringOutputHandle{}, err
	}
	velocity := direction.Mul(metersPerSecond)
	totalTicks, err := ticksToCover(distance*meterLength, direction.Mul(metersPerSecond*secondsPerTick))
	if err != nil {
		return model.SteeringOutputHandle{}, err
	}

	orientation := obj.OrientationRadians()
	desired := orientation
	if opts.UpdateHeading {
		headingVec := mgl64.Vec2{math.Cos(orientation), math.Sin(orientation)}
		delta := target.Sub(headingVec)
		desired = math.Atan2(delta.Y(), delta.X())
	}
	degreeDelta := mgl64.RadToDeg(desired - orientation)

	out := model.NewSteeringOutput(velocity.X(), velocity.Y(), degreeDelta)
	return model.UniformHandle(out, model.NewFiniteDuration(tick, totalTicks), opts.Wander), nil
}

// DynamicMoveTo builds a dynamic handle accelerating obj towards target.
// acceleration is clamped to the object's max acceleration. Heading is left
// alone.
func DynamicMoveTo(obj *KinematicObject, target mgl64.Vec2, acceleration, tick, secondsPerTick float64, opts MoveOptions) (model.SteeringOutputHandle, error) {
	meterLength := opts.meterLength()
	metersPerSecond := meterLength * mgl64.Clamp(acceleration, 0, obj.MaxAcceleration())

	direction, distance, err := heading(obj.Position(), target)
	if err != nil {
		return model.SteeringOutputHandle{}, err
	}
	accel := direction.Mul(metersPerSecond)
	totalTicks, err := ticksToCover(distance*meterLength, direction.Mul(metersPerSecond*secondsPerTick))
	if err != nil {
		return model.SteeringOutputHandle{}, err
	}

	out := model.NewSteeringOutput(accel.X(), accel.Y(), 0)
	return model.DynamicHandle(out, model.NewFiniteDuration(tick, totalTicks)), nil
}

func heading(from, to mgl64.Vec2) (mgl64.Vec2, float64, error) {
	delta := to.Sub(from)
	distance := delta.Len()
	if distance == 0 {
		return mgl64.Vec2{}, 0, ErrNoMovementNeeded
	}
	return delta.Normalize(), distance, nil
}

func ticksToCover(distance float64, perTick mgl64.Vec2) (float64, error) {
	step := perTick.Len()
	if step == 0 {
		return 0, ErrStationary
	}
	return math.Ceil(distance / step), nil
}
