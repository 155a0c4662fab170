package sim

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/signalsfoundry/steering-simulator/kinematics"
	"github.com/signalsfoundry/steering-simulator/model"
)

// command mutates the body on the scheduler goroutine. tick is the tick of
// the event being handled.
type command func(body *kinematics.KinematicObject, tick float64)

// ActorSnapshot is a point-in-time copy of an actor's kinematic state.
type ActorSnapshot struct {
	ID              uuid.UUID
	Name            string
	Position        mgl64.Vec2
	RenderPosition  mgl64.Vec3
	Heading         float64
	LinearVelocity  mgl64.Vec2
	AngularVelocity float64
	MaxSpeed        float64
	MaxAcceleration float64
	SteeringHandles int
	PendingCommands int
	LastTick        float64
	Active          bool
}

// Actor is a KinematicObject driven by the tick loop. Mutations requested
// from other goroutines are queued and applied at the start of the next
// tick, so the body itself is only ever written by the scheduler goroutine.
type Actor struct {
	*WorldObject

	id   uuid.UUID
	name string

	mu       sync.Mutex
	body     *kinematics.KinematicObject
	pending  []command
	lastTick float64
}

// NewActor places a named actor at (x, y). The actor is inactive until
// connected through a Registry or activated with SetActive.
func NewActor(name string, x, y float64, opts ...kinematics.ObjectOption) *Actor {
	a := &Actor{
		id:   uuid.New(),
		name: name,
		body: kinematics.NewKinematicObject(x, y, opts...),
	}
	a.WorldObject = NewWorldObject(a.step)
	return a
}

// ID returns the actor's identifier.
func (a *Actor) ID() uuid.UUID { return a.id }

// Name returns the actor's display name.
func (a *Actor) Name() string { return a.name }

func (a *Actor) step(ev model.NextTickEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	queued := a.pending
	a.pending = nil
	for _, cmd := range queued {
		cmd(a.body, ev.TickCount)
	}
	a.body.Update(ev)
	a.lastTick = ev.TickCount
}

func (a *Actor) enqueue(cmd command) {
	a.mu.Lock()
	a.pending = append(a.pending, cmd)
	a.mu.Unlock()
}

// AddSteering queues handle for attachment on the next tick.
func (a *Actor) AddSteering(handle model.SteeringOutputHandle) {
	a.enqueue(func(body *kinematics.KinematicObject, tick float64) {
		body.AddSteering(handle, tick)
	})
}

// Halt queues a velocity reset.
func (a *Actor) Halt() {
	a.enqueue(func(body *kinematics.KinematicObject, _ float64) { body.Halt() })
}

// SetHeading queues a heading change.
func (a *Actor) SetHeading(h float64) {
	a.enqueue(func(body *kinematics.KinematicObject, _ float64) { body.SetHeading(h) })
}

// SetMaxSpeed queues a speed cap change.
func (a *Actor) SetMaxSpeed(v float64) {
	a.enqueue(func(body *kinematics.KinematicObject, _ float64) { body.SetMaxSpeed(v) })
}

// SetMaxAcceleration queues an acceleration cap change.
func (a *Actor) SetMaxAcceleration(v float64) {
	a.enqueue(func(body *kinematics.KinematicObject, _ float64) { body.SetMaxAcceleration(v) })
}

// MoveTo plans a uniform-speed move to target against the actor's current
// state and queues it. tick and secondsPerTick come from the caller's view
// of the simulation clock.
func (a *Actor) MoveTo(target mgl64.Vec2, speed, tick, secondsPerTick float64, opts kinematics.MoveOptions) (model.SteeringOutputHandle, error) {
	a.mu.Lock()
	h, err := kinematics.UniformSpeedMoveTo(a.body, target, speed, tick, secondsPerTick, opts)
	a.mu.Unlock()
	if err != nil {
		return model.SteeringOutputHandle{}, err
	}
	a.AddSteering(h)
	return h, nil
}

// AccelerateTo plans a dynamic move to target and queues it.
func (a *Actor) AccelerateTo(target mgl64.Vec2, acceleration, tick, secondsPerTick float64, opts kinematics.MoveOptions) (model.SteeringOutputHandle, error) {
	a.mu.Lock()
	h, err := kinematics.DynamicMoveTo(a.body, target, acceleration, tick, secondsPerTick, opts)
	a.mu.Unlock()
	if err != nil {
		return model.SteeringOutputHandle{}, err
	}
	a.AddSteering(h)
	return h, nil
}

// Snapshot copies the actor's current state.
func (a *Actor) Snapshot() ActorSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return ActorSnapshot{
		ID:              a.id,
		Name:            a.name,
		Position:        a.body.Position(),
		RenderPosition:  a.body.PositionInRenderSpace(),
		Heading:         a.body.Heading(),
		LinearVelocity:  a.body.LinearVelocity(),
		AngularVelocity: a.body.AngularVelocity(),
		MaxSpeed:        a.body.MaxSpeed(),
		MaxAcceleration: a.body.MaxAcceleration(),
		SteeringHandles: len(a.body.CurrentSteering()),
		PendingCommands: len(a.pending),
		LastTick:        a.lastTick,
		Active:          a.IsActive(),
	}
}
