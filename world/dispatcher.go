package world

import (
	"reflect"
	"sync"
)

// Dispatcher fans events out to subscribers keyed by event type. Each event
// type has its own ordered sink; listeners run in registration order on the
// goroutine that calls Trigger.
type Dispatcher struct {
	mu    sync.RWMutex
	sinks map[reflect.Type][]subscriber
}

type subscriber struct {
	key any
	fn  func(any)
}

// NewDispatcher constructs an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{sinks: make(map[reflect.Type][]subscriber)}
}

// Connect registers fn for events of type E under key. key identifies the
// subscription for Disconnect and must be comparable (typically the
// listener pointer). Connecting an existing key again is a no-op and
// returns false.
func Connect[E any](d *Dispatcher, key any, fn func(E)) bool {
	if d == nil || fn == nil || !comparableKey(key) {
		return false
	}
	t := reflect.TypeFor[E]()

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range d.sinks[t] {
		if s.key == key {
			return false
		}
	}
	d.sinks[t] = append(d.sinks[t], subscriber{
		key: key,
		fn:  func(ev any) { fn(ev.(E)) },
	})
	return true
}

// Disconnect removes the subscription registered under key for events of
// type E. It reports whether anything was removed.
func Disconnect[E any](d *Dispatcher, key any) bool {
	if d == nil || !comparableKey(key) {
		return false
	}
	t := reflect.TypeFor[E]()

	d.mu.Lock()
	defer d.mu.Unlock()
	subs := d.sinks[t]
	for i, s := range subs {
		if s.key != key {
			continue
		}
		// Copy so that snapshots taken by an in-flight Trigger stay intact.
		next := make([]subscriber, 0, len(subs)-1)
		next = append(next, subs[:i]...)
		next = append(next, subs[i+1:]...)
		if len(next) == 0 {
			delete(d.sinks, t)
		} else {
			d.sinks[t] = next
		}
		return true
	}
	return false
}

// Trigger delivers ev to every subscriber of E and returns how many were
// called. The subscriber list is snapshotted under the lock and invoked
// outside it so handlers may connect or disconnect without deadlocking.
func Trigger[E any](d *Dispatcher, ev E) int {
	if d == nil {
		return 0
	}
	d.mu.RLock()
	subs := d.sinks[reflect.TypeFor[E]()]
	d.mu.RUnlock()

	for _, s := range subs {
		s.fn(ev)
	}
	return len(subs)
}

// ListenerCount returns the number of subscribers for events of type E.
func ListenerCount[E any](d *Dispatcher) int {
	if d == nil {
		return 0
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.sinks[reflect.TypeFor[E]()])
}

// comparableKey checks the dynamic value, not just its type: a struct with an
// interface field holding a slice has a comparable type but panics on ==.
func comparableKey(key any) bool {
	return key != nil && reflect.ValueOf(key).Comparable()
}
