// Package registry owns the actors living in a simulation. Actors are
// connected to the tick loop when added and disconnected when removed, so the
// registry is the single place where an actor's lifetime ends.
package registry

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/signalsfoundry/steering-simulator/internal/logging"
	"github.com/signalsfoundry/steering-simulator/model"
	"github.com/signalsfoundry/steering-simulator/sim"
)

var (
	// ErrActorExists is returned when adding an actor whose ID is taken.
	ErrActorExists = errors.New("registry: actor already exists")
	// ErrActorNotFound is returned when an ID is not registered.
	ErrActorNotFound = errors.New("registry: actor not found")
)

// EventType indicates what kind of change happened in the registry.
type EventType int

const (
	EventActorAdded EventType = iota
	EventActorRemoved
)

func (t EventType) String() string {
	switch t {
	case EventActorAdded:
		return "actor_added"
	case EventActorRemoved:
		return "actor_removed"
	default:
		return fmt.Sprintf("EventType(%d)", int(t))
	}
}

// Event is emitted to subscribers after an actor is added or removed.
type Event struct {
	Type  EventType
	Actor sim.ActorSnapshot
}

// Connector is the part of a Simulation the registry drives.
type Connector interface {
	ConnectWorldObject(l sim.TickListener) bool
	DisconnectWorldObject(l sim.TickListener) bool
}

// ActorCountRecorder receives registry gauges.
type ActorCountRecorder interface {
	SetActors(n int)
	SetSteeringHandles(n int)
}

// Option customises a Registry.
type Option func(*Registry)

// WithLogger attaches a structured logger.
func WithLogger(l logging.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// WithRecorder reports actor and steering-handle counts to rec. The registry
// then listens to ticks itself to keep the handle gauge current.
func WithRecorder(rec ActorCountRecorder) Option {
	return func(r *Registry) { r.metrics = rec }
}

type subscription struct {
	id uint64
	fn func(Event)
}

// Registry is a thread-safe arena of actors attached to one simulation.
type Registry struct {
	conn    Connector
	log     logging.Logger
	metrics ActorCountRecorder

	// lifecycle serialises Add and Remove so that connecting and
	// disconnecting happen atomically with the map update.
	lifecycle sync.Mutex

	mu     sync.RWMutex
	actors map[uuid.UUID]*sim.Actor
	subs   []subscription
	nextID uint64
}

// New constructs an empty registry bound to conn.
func New(conn Connector, opts ...Option) *Registry {
	r := &Registry{
		conn:   conn,
		log:    logging.Noop(),
		actors: make(map[uuid.UUID]*sim.Actor),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.metrics != nil {
		r.metrics.SetActors(0)
		r.conn.ConnectWorldObject(r)
	}
	return r
}

// Add connects a to the tick loop and activates it, then registers it.
// Readers never observe an actor that is not yet connected.
func (r *Registry) Add(a *sim.Actor) error {
	if a == nil {
		return fmt.Errorf("registry: nil actor")
	}
	r.lifecycle.Lock()
	r.mu.RLock()
	_, exists := r.actors[a.ID()]
	r.mu.RUnlock()
	if exists {
		r.lifecycle.Unlock()
		return fmt.Errorf("%w: %s", ErrActorExists, a.ID())
	}

	r.conn.ConnectWorldObject(a)
	a.SetActive(true)

	r.mu.Lock()
	r.actors[a.ID()] = a
	n := len(r.actors)
	r.mu.Unlock()
	r.lifecycle.Unlock()

	r.log.Info(context.Background(), "actor added",
		logging.String("actor_id", a.ID().String()),
		logging.String("actor_name", a.Name()),
	)
	r.recordActors(n)
	r.notify(Event{Type: EventActorAdded, Actor: a.Snapshot()})
	return nil
}

// Remove deactivates and disconnects the actor before forgetting it. A tick
// already being dispatched sees the actor inactive and leaves it alone.
func (r *Registry) Remove(id uuid.UUID) error {
	r.lifecycle.Lock()
	r.mu.Lock()
	a, ok := r.actors[id]
	if !ok {
		r.mu.Unlock()
		r.lifecycle.Unlock()
		return fmt.Errorf("%w: %s", ErrActorNotFound, id)
	}
	delete(r.actors, id)
	n := len(r.actors)
	r.mu.Unlock()

	a.SetActive(false)
	r.conn.DisconnectWorldObject(a)
	r.lifecycle.Unlock()

	r.log.Info(context.Background(), "actor removed",
		logging.String("actor_id", id.String()),
		logging.String("actor_name", a.Name()),
	)
	r.recordActors(n)
	r.notify(Event{Type: EventActorRemoved, Actor: a.Snapshot()})
	return nil
}

// Get returns the actor with the given ID.
func (r *Registry) Get(id uuid.UUID) (*sim.Actor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.actors[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrActorNotFound, id)
	}
	return a, nil
}

// List returns a snapshot slice of all actors ordered by name, then ID.
func (r *Registry) List() []*sim.Actor {
	r.mu.RLock()
	res := make([]*sim.Actor, 0, len(r.actors))
	for _, a := range r.actors {
		res = append(res, a)
	}
	r.mu.RUnlock()

	slices.SortFunc(res, func(a, b *sim.Actor) int {
		if c := strings.Compare(a.Name(), b.Name()); c != 0 {
			return c
		}
		return strings.Compare(a.ID().String(), b.ID().String())
	})
	return res
}

// Snapshots returns the state of every actor in List order.
func (r *Registry) Snapshots() []sim.ActorSnapshot {
	actors := r.List()
	res := make([]sim.ActorSnapshot, 0, len(actors))
	for _, a := range actors {
		res = append(res, a.Snapshot())
	}
	return res
}

// Len returns the number of registered actors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.actors)
}

// Close removes every actor.
func (r *Registry) Close() {
	for _, a := range r.List() {
		_ = r.Remove(a.ID())
	}
	if r.metrics != nil {
		r.conn.DisconnectWorldObject(r)
	}
}

// Subscribe registers a callback for registry events. It returns an
// unsubscribe function that is safe to call more than once.
func (r *Registry) Subscribe(fn func(Event)) (unsubscribe func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := r.nextID
	r.subs = append(r.subs, subscription{id: id, fn: fn})

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.subs = slices.DeleteFunc(slices.Clone(r.subs), func(s subscription) bool {
			return s.id == id
		})
	}
}

// OnNextTick refreshes the steering-handle gauge. It is only connected when
// a recorder is configured.
func (r *Registry) OnNextTick(model.NextTickEvent) {
	if r.metrics == nil {
		return
	}
	total := 0
	for _, s := range r.Snapshots() {
		total += s.SteeringHandles
	}
	r.metrics.SetSteeringHandles(total)
}

func (r *Registry) notify(ev Event) {
	r.mu.RLock()
	subs := slices.Clone(r.subs)
	r.mu.RUnlock()

	// Notify subscribers outside the lock to avoid deadlocks.
	for _, s := range subs {
		s.fn(ev)
	}
}

func (r *Registry) recordActors(n int) {
	if r.metrics != nil {
		r.metrics.SetActors(n)
	}
}
