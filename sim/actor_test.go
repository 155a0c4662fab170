package sim

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalsfoundry/steering-simulator/kinematics"
	"github.com/signalsfoundry/steering-simulator/model"
)

func TestActorQueuesCommandsUntilNextTick(t *testing.T) {
	a := NewActor("scout", 0, 0)
	a.SetActive(true)

	a.AddSteering(model.UniformHandle(model.NewSteeringOutput(1, 0, 0), model.NewFiniteDuration(0, 3), false))
	snap := a.Snapshot()
	assert.Equal(t, 1, snap.PendingCommands)
	assert.Equal(t, 0, snap.SteeringHandles)
	assert.Equal(t, mgl64.Vec2{}, snap.LinearVelocity)

	a.OnNextTick(model.NextTickEvent{TickCount: 0, SecondsPerTick: 1})

	snap = a.Snapshot()
	assert.Equal(t, 0, snap.PendingCommands)
	assert.Equal(t, 1, snap.SteeringHandles)
	assert.InDelta(t, 1.5, snap.Position.X(), 1e-9)
	assert.InDelta(t, 1.0, snap.LinearVelocity.X(), 1e-9)
	assert.Equal(t, 0.0, snap.LastTick)
	assert.Equal(t, uint64(1), a.TicksWhileActive())
}

func TestInactiveActorIgnoresTicks(t *testing.T) {
	a := NewActor("idle", 2, 3)
	a.Halt()

	a.OnNextTick(model.NextTickEvent{TickCount: 4, SecondsPerTick: 1})

	snap := a.Snapshot()
	assert.False(t, snap.Active)
	assert.Equal(t, 1, snap.PendingCommands)
	assert.Equal(t, mgl64.Vec2{2, 3}, snap.Position)
	assert.Equal(t, uint64(0), a.TicksWhileActive())
}

func TestActorSettersApplyOnTick(t *testing.T) {
	a := NewActor("tuned", 0, 0)
	a.SetActive(true)
	a.SetMaxSpeed(4)
	a.SetMaxAcceleration(9)
	a.SetHeading(370)

	a.OnNextTick(model.NextTickEvent{TickCount: 1, SecondsPerTick: 0.1})

	snap := a.Snapshot()
	assert.Equal(t, 4.0, snap.MaxSpeed)
	assert.Equal(t, 9.0, snap.MaxAcceleration)
	assert.InDelta(t, 10.0, snap.Heading, 1e-9)
	assert.Equal(t, "tuned", snap.Name)
	assert.Equal(t, a.ID(), snap.ID)
}

func TestActorMoveToErrors(t *testing.T) {
	a := NewActor("stuck", 1, 1)

	_, err := a.MoveTo(mgl64.Vec2{1, 1}, 1, 0, 0.1, kinematics.MoveOptions{})
	require.ErrorIs(t, err, kinematics.ErrNoMovementNeeded)

	_, err = a.AccelerateTo(mgl64.Vec2{1, 1}, 1, 0, 0.1, kinematics.MoveOptions{})
	require.ErrorIs(t, err, kinematics.ErrNoMovementNeeded)

	assert.Equal(t, 0, a.Snapshot().PendingCommands)
}

func TestActorAccelerateToQueuesDynamicHandle(t *testing.T) {
	a := NewActor("sprinter", 0, 0, kinematics.WithMaxAcceleration(1))
	a.SetActive(true)

	h, err := a.AccelerateTo(mgl64.Vec2{0, 2}, 3, 0, 1, kinematics.MoveOptions{})
	require.NoError(t, err)
	assert.True(t, h.Dynamic)
	assert.Equal(t, 2.0, h.Duration.ActiveUntil)

	a.OnNextTick(model.NextTickEvent{TickCount: 0, SecondsPerTick: 1})
	snap := a.Snapshot()
	assert.Equal(t, 1, snap.SteeringHandles)
	assert.InDelta(t, 1.0, snap.LinearVelocity.Y(), 1e-9)
}
