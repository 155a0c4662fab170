package sim

import (
	"sync"
	"sync/atomic"

	"github.com/signalsfoundry/steering-simulator/model"
)

// WorldObject adapts a tick handler into a TickListener that can be switched
// on and off. Events delivered while inactive are dropped.
type WorldObject struct {
	active           atomic.Bool
	ticksWhileActive atomic.Uint64

	mu      sync.RWMutex
	handler func(model.NextTickEvent)
}

// NewWorldObject returns an inactive object calling handler on each tick.
func NewWorldObject(handler func(model.NextTickEvent)) *WorldObject {
	return &WorldObject{handler: handler}
}

// OnNextTick runs the handler if the object is active and has one.
func (o *WorldObject) OnNextTick(ev model.NextTickEvent) {
	if !o.active.Load() {
		return
	}
	o.mu.RLock()
	h := o.handler
	o.mu.RUnlock()
	if h == nil {
		return
	}
	h(ev)
	o.ticksWhileActive.Add(1)
}

// SetHandler replaces the tick handler.
func (o *WorldObject) SetHandler(h func(model.NextTickEvent)) {
	o.mu.Lock()
	o.handler = h
	o.mu.Unlock()
}

// IsActive reports whether ticks are being handled.
func (o *WorldObject) IsActive() bool { return o.active.Load() }

// SetActive turns tick handling on or off.
func (o *WorldObject) SetActive(active bool) { o.active.Store(active) }

// TicksWhileActive counts handled ticks.
func (o *WorldObject) TicksWhileActive() uint64 { return o.ticksWhileActive.Load() }
