package world

import (
	"testing"

	"github.com/signalsfoundry/steering-simulator/model"
)

type otherEvent struct{ name string }

func TestDispatcherCallsInRegistrationOrder(t *testing.T) {
	d := NewDispatcher()
	var order []string
	a, b, c := new(int), new(int), new(int)

	Connect(d, a, func(model.NextTickEvent) { order = append(order, "a") })
	Connect(d, b, func(model.NextTickEvent) { order = append(order, "b") })
	Connect(d, c, func(model.NextTickEvent) { order = append(order, "c") })

	if n := Trigger(d, model.NextTickEvent{TickCount: 1}); n != 3 {
		t.Fatalf("Trigger returned %d, want 3", n)
	}
	if got := len(order); got != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Fatalf("call order = %v, want [a b c]", order)
	}
}

func TestDispatcherKeysByEventType(t *testing.T) {
	d := NewDispatcher()
	key := new(int)
	var ticks, others int
	Connect(d, key, func(model.NextTickEvent) { ticks++ })
	Connect(d, key, func(otherEvent) { others++ })

	Trigger(d, otherEvent{name: "x"})
	Trigger(d, otherEvent{name: "y"})
	Trigger(d, model.NextTickEvent{})

	if ticks != 1 || others != 2 {
		t.Fatalf("ticks=%d others=%d, want 1 and 2", ticks, others)
	}
	if got := ListenerCount[otherEvent](d); got != 1 {
		t.Fatalf("ListenerCount[otherEvent] = %d, want 1", got)
	}
}

func TestDispatcherIgnoresDuplicateConnect(t *testing.T) {
	d := NewDispatcher()
	key := new(int)
	calls := 0
	if !Connect(d, key, func(model.NextTickEvent) { calls++ }) {
		t.Fatalf("first Connect returned false")
	}
	if Connect(d, key, func(model.NextTickEvent) { calls++ }) {
		t.Fatalf("duplicate Connect returned true")
	}
	Trigger(d, model.NextTickEvent{})
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestDispatcherDisconnect(t *testing.T) {
	d := NewDispatcher()
	a, b := new(int), new(int)
	var got []string
	Connect(d, a, func(model.NextTickEvent) { got = append(got, "a") })
	Connect(d, b, func(model.NextTickEvent) { got = append(got, "b") })

	if !Disconnect[model.NextTickEvent](d, a) {
		t.Fatalf("Disconnect(a) = false")
	}
	if Disconnect[model.NextTickEvent](d, a) {
		t.Fatalf("second Disconnect(a) = true")
	}
	Trigger(d, model.NextTickEvent{})
	if len(got) != 1 || got[0] != "b" {
		t.Fatalf("after disconnect calls = %v, want [b]", got)
	}
	if ListenerCount[model.NextTickEvent](d) != 1 {
		t.Fatalf("ListenerCount = %d, want 1", ListenerCount[model.NextTickEvent](d))
	}
}

func TestDispatcherAllowsDisconnectDuringTrigger(t *testing.T) {
	d := NewDispatcher()
	a, b := new(int), new(int)
	bCalls := 0
	Connect(d, a, func(model.NextTickEvent) { Disconnect[model.NextTickEvent](d, b) })
	Connect(d, b, func(model.NextTickEvent) { bCalls++ })

	// The snapshot taken for this dispatch still includes b.
	Trigger(d, model.NextTickEvent{})
	Trigger(d, model.NextTickEvent{})

	if bCalls != 1 {
		t.Fatalf("b called %d times, want 1", bCalls)
	}
}

func TestDispatcherRejectsUncomparableKeys(t *testing.T) {
	d := NewDispatcher()
	if Connect(d, []int{1}, func(model.NextTickEvent) {}) {
		t.Fatalf("Connect with slice key returned true")
	}
	if Connect(d, nil, func(model.NextTickEvent) {}) {
		t.Fatalf("Connect with nil key returned true")
	}
	if Trigger[model.NextTickEvent](nil, model.NextTickEvent{}) != 0 {
		t.Fatalf("Trigger on nil dispatcher should be a no-op")
	}
}

func TestDispatcherRejectsKeysHoldingUncomparableValues(t *testing.T) {
	type boxed struct{ v any }
	d := NewDispatcher()
	if !Connect(d, boxed{v: 1}, func(model.NextTickEvent) {}) {
		t.Fatalf("Connect with comparable boxed key returned false")
	}
	if Connect(d, boxed{v: []int{1}}, func(model.NextTickEvent) {}) {
		t.Fatalf("Connect with boxed slice key returned true")
	}
	if Disconnect[model.NextTickEvent](d, boxed{v: map[string]int{}}) {
		t.Fatalf("Disconnect with boxed map key returned true")
	}
	if got := ListenerCount[model.NextTickEvent](d); got != 1 {
		t.Fatalf("ListenerCount=%d, want 1", got)
	}
}
