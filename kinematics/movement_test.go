package kinematics

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniformSpeedMoveTo(t *testing.T) {
	obj := NewKinematicObject(0, 0, WithMaxSpeed(2))

	h, err := UniformSpeedMoveTo(obj, mgl64.Vec2{10, 0}, 2, 0, 0.1, MoveOptions{MeterLength: 1})
	require.NoError(t, err)

	assert.InDelta(t, 2.0, h.Output.Linear.X(), eps)
	assert.InDelta(t, 0.0, h.Output.Linear.Y(), eps)
	assert.Equal(t, 50.0, h.Duration.ActiveUntil)
	assert.Equal(t, 0.0, h.Duration.CreatedAt)
	assert.True(t, h.Duration.IsFinite())
	assert.False(t, h.Dynamic)
	assert.False(t, h.Wander)
	assert.InDelta(t, 0.0, h.Output.HeadingDelta, eps)

	// Pure: the object is untouched.
	assert.Equal(t, mgl64.Vec2{}, obj.LinearVelocity())
	assert.Empty(t, obj.CurrentSteering())
}

func TestUniformSpeedMoveToClampsSpeed(t *testing.T) {
	obj := NewKinematicObject(0, 0, WithMaxSpeed(1))

	h, err := UniformSpeedMoveTo(obj, mgl64.Vec2{0, 4}, 3, 7, 0.5, MoveOptions{Wander: true})
	require.NoError(t, err)

	assert.InDelta(t, 1.0, h.Output.Linear.Len(), eps)
	assert.InDelta(t, 1.0, h.Output.Linear.Y(), eps)
	// ceil(4 / (1 * 0.5))
	assert.Equal(t, 8.0, h.Duration.ActiveUntil)
	assert.Equal(t, 7.0, h.Duration.CreatedAt)
	assert.True(t, h.Wander)
}

func TestUniformSpeedMoveToMeterLength(t *testing.T) {
	obj := NewKinematicObject(0, 0, WithMaxSpeed(2))

	h, err := UniformSpeedMoveTo(obj, mgl64.Vec2{3, 0}, 2, 0, 1, MoveOptions{MeterLength: 2})
	require.NoError(t, err)

	assert.InDelta(t, 4.0, h.Output.Linear.X(), eps)
	// 3 units * 2 m / (4 m/s * 1 s) = 1.5 -> 2 ticks
	assert.Equal(t, 2.0, h.Duration.ActiveUntil)
}

func TestUniformSpeedMoveToUpdatesHeading(t *testing.T) {
	obj := NewKinematicObject(0, 0, WithMaxSpeed(2))

	h, err := UniformSpeedMoveTo(obj, mgl64.Vec2{0, 10}, 1, 0, 0.1, MoveOptions{UpdateHeading: true})
	require.NoError(t, err)
	assert.NotZero(t, h.Output.HeadingDelta)

	h, err = UniformSpeedMoveTo(obj, mgl64.Vec2{0, 10}, 1, 0, 0.1, MoveOptions{})
	require.NoError(t, err)
	assert.Zero(t, h.Output.HeadingDelta)
}

func TestMoveToDegenerateTarget(t *testing.T) {
	obj := NewKinematicObject(3, 4, WithMaxSpeed(2))

	_, err := UniformSpeedMoveTo(obj, mgl64.Vec2{3, 4}, 1, 0, 0.1, MoveOptions{})
	assert.True(t, errors.Is(err, ErrNoMovementNeeded))

	_, err = DynamicMoveTo(obj, mgl64.Vec2{3, 4}, 1, 0, 0.1, MoveOptions{})
	assert.True(t, errors.Is(err, ErrNoMovementNeeded))
}

func TestMoveToZeroSpeed(t *testing.T) {
	obj := NewKinematicObject(0, 0)

	_, err := UniformSpeedMoveTo(obj, mgl64.Vec2{1, 0}, 0, 0, 0.1, MoveOptions{})
	assert.ErrorIs(t, err, ErrStationary)

	_, err = DynamicMoveTo(obj, mgl64.Vec2{1, 0}, 2, 0, 0, MoveOptions{})
	assert.ErrorIs(t, err, ErrStationary)
}

func TestDynamicMoveTo(t *testing.T) {
	obj := NewKinematicObject(0, 0, WithMaxAcceleration(2))

	h, err := DynamicMoveTo(obj, mgl64.Vec2{0, -6}, 5, 3, 0.5, MoveOptions{})
	require.NoError(t, err)

	assert.True(t, h.Dynamic)
	assert.False(t, h.Wander)
	assert.InDelta(t, -2.0, h.Output.Linear.Y(), eps)
	assert.InDelta(t, 0.0, h.Output.Linear.X(), eps)
	assert.Zero(t, h.Output.HeadingDelta)
	// ceil(6 / (2 * 0.5))
	assert.Equal(t, 6.0, h.Duration.ActiveUntil)
	assert.Equal(t, 3.0, h.Duration.CreatedAt)
}

func TestNewOrientation(t *testing.T) {
	assert.InDelta(t, 1.25, NewOrientation(1.25, mgl64.Vec2{}), eps)
	assert.InDelta(t, 0.0, NewOrientation(1.25, mgl64.Vec2{0, 1}), eps)
}
