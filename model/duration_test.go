package model

import (
	"math"
	"testing"
)

func TestFiniteDurationTimeLeft(t *testing.T) {
	cases := []struct {
		created, active, current, want float64
	}{
		{created: 0, active: 10, current: 0, want: 10},
		{created: 5, active: 10, current: 7, want: 8},
		{created: 5, active: 10, current: 15, want: 0},
		{created: 5, active: 10, current: 20, want: -5},
		{created: 3, active: 0, current: 3, want: 0},
	}
	for _, tc := range cases {
		d := NewFiniteDuration(tc.created, tc.active)
		if got := d.TimeLeft(tc.current); got != tc.want {
			t.Fatalf("TimeLeft(%v) for created=%v active=%v = %v, want %v",
				tc.current, tc.created, tc.active, got, tc.want)
		}
	}
}

func TestFiniteDurationClampsNegativeLength(t *testing.T) {
	d := NewFiniteDuration(4, -3)
	if d.ActiveUntil != 0 {
		t.Fatalf("ActiveUntil = %v, want 0", d.ActiveUntil)
	}
	if !d.Expired(4) {
		t.Fatalf("expected zero-length window to be expired at its creation tick")
	}
}

func TestInfiniteDurationNeverExpires(t *testing.T) {
	d := NewInfiniteDuration(12)
	for _, tick := range []float64{0, 12, 1e9, -50} {
		if got := d.TimeLeft(tick); !math.IsInf(got, 1) {
			t.Fatalf("TimeLeft(%v) = %v, want +Inf", tick, got)
		}
		if d.Expired(tick) {
			t.Fatalf("infinite duration reported expired at tick %v", tick)
		}
	}
	if d.IsFinite() {
		t.Fatalf("IsFinite() = true for infinite duration")
	}
	if _, ok := d.Cardinality().(Infinite); !ok {
		t.Fatalf("Cardinality() = %T, want Infinite", d.Cardinality())
	}
}

func TestZeroValueDurationPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for zero-value TickDuration")
		}
	}()
	var d TickDuration
	_ = d.TimeLeft(0)
}

func TestNextTickEventTotalSeconds(t *testing.T) {
	ev := NextTickEvent{TickCount: 40, SecondsPerTick: 0.25}
	if got := ev.TotalSeconds(); got != 10 {
		t.Fatalf("TotalSeconds() = %v, want 10", got)
	}
}

func TestHandleConstructors(t *testing.T) {
	out := NewSteeringOutput(1, 2, 30)
	u := UniformHandle(out, NewFiniteDuration(0, 5), true)
	if u.Dynamic || !u.Wander {
		t.Fatalf("UniformHandle flags = dynamic:%v wander:%v", u.Dynamic, u.Wander)
	}
	d := DynamicHandle(out, NewFiniteDuration(0, 5))
	if !d.Dynamic || d.Wander {
		t.Fatalf("DynamicHandle flags = dynamic:%v wander:%v", d.Dynamic, d.Wander)
	}
	if got := d.TimeLeft(2); got != 3 {
		t.Fatalf("TimeLeft(2) = %v, want 3", got)
	}
}
