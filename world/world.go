package world

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/steering-simulator/internal/logging"
	"github.com/signalsfoundry/steering-simulator/model"
)

const tracerName = "github.com/signalsfoundry/steering-simulator/world"

const (
	// DefaultMillisecondsPerTick is the real-time and simulated tick length
	// used by Default.
	DefaultMillisecondsPerTick = 10

	minMillisecondsPerTick = 1
	maxMillisecondsPerTick = 1000
)

// ErrInvalidTickInterval indicates a non-positive tick length.
var ErrInvalidTickInterval = errors.New("world: tick interval must be positive")

// TimeType selects which clock a time query reports.
type TimeType int

const (
	// RealTime measures ticks by their wall-clock length.
	RealTime TimeType = iota
	// SimTime measures ticks by their simulated length.
	SimTime
)

func (t TimeType) String() string {
	switch t {
	case RealTime:
		return "real"
	case SimTime:
		return "sim"
	default:
		return fmt.Sprintf("TimeType(%d)", int(t))
	}
}

// Config describes a World's cadence.
type Config struct {
	// MillisecondsPerTick is how long the loop sleeps between ticks.
	MillisecondsPerTick int
	// SimMillisecondsPerTick is how much simulated time one tick represents.
	SimMillisecondsPerTick int
	// StartTick is the initial tick counter.
	StartTick float64
}

// TickRecorder receives per-tick measurements from the loop.
type TickRecorder interface {
	ObserveTick(dispatch time.Duration, listeners int)
	SetRunning(running bool)
}

// Option customises World construction.
type Option func(*World)

// WithLogger attaches a structured logger.
func WithLogger(l logging.Logger) Option {
	return func(w *World) {
		if l != nil {
			w.log = l
		}
	}
}

// WithTickRecorder attaches a metrics sink for tick timings.
func WithTickRecorder(r TickRecorder) Option {
	return func(w *World) { w.metrics = r }
}

// World owns the tick counter and runs the fixed-interval loop that
// broadcasts NextTickEvent through its dispatcher.
type World struct {
	millisecondsPerTick    int
	simMillisecondsPerTick int

	// tick holds the float64 bits of the current tick. Reads are lock-free;
	// advancing it happens under mu.
	tick atomic.Uint64

	// mu guards running and the tick advance.
	mu      sync.Mutex
	running bool

	dispatcher *Dispatcher

	log     logging.Logger
	metrics TickRecorder
	tracer  trace.Tracer
}

// New constructs a stopped World. Tick lengths above one second are clamped;
// non-positive ones are rejected.
func New(cfg Config, opts ...Option) (*World, error) {
	if cfg.MillisecondsPerTick < minMillisecondsPerTick {
		return nil, fmt.Errorf("%w: milliseconds_per_tick=%d", ErrInvalidTickInterval, cfg.MillisecondsPerTick)
	}
	if cfg.SimMillisecondsPerTick < minMillisecondsPerTick {
		return nil, fmt.Errorf("%w: sim_milliseconds_per_tick=%d", ErrInvalidTickInterval, cfg.SimMillisecondsPerTick)
	}

	w := &World{
		millisecondsPerTick:    min(cfg.MillisecondsPerTick, maxMillisecondsPerTick),
		simMillisecondsPerTick: min(cfg.SimMillisecondsPerTick, maxMillisecondsPerTick),
		dispatcher:             NewDispatcher(),
		log:                    logging.Noop(),
		tracer:                 otel.Tracer(tracerName),
	}
	w.tick.Store(math.Float64bits(cfg.StartTick))
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

// MustNew is like New but panics on a configuration fault.
func MustNew(cfg Config, opts ...Option) *World {
	w, err := New(cfg, opts...)
	if err != nil {
		panic(err)
	}
	return w
}

// Default returns a World ticking every 10ms of real and simulated time.
func Default(opts ...Option) *World {
	return MustNew(Config{
		MillisecondsPerTick:    DefaultMillisecondsPerTick,
		SimMillisecondsPerTick: DefaultMillisecondsPerTick,
	}, opts...)
}

// Dispatcher exposes the event dispatcher.
func (w *World) Dispatcher() *Dispatcher { return w.dispatcher }

// CurrentTick returns the tick about to be, or being, dispatched.
func (w *World) CurrentTick() float64 {
	return math.Float64frombits(w.tick.Load())
}

// MillisecondsPerTick returns the real-time tick length.
func (w *World) MillisecondsPerTick() int { return w.millisecondsPerTick }

// SimMillisecondsPerTick returns the simulated tick length.
func (w *World) SimMillisecondsPerTick() int { return w.simMillisecondsPerTick }

// TickInterval returns the real-time tick length as a duration.
func (w *World) TickInterval() time.Duration {
	return time.Duration(w.millisecondsPerTick) * time.Millisecond
}

// SimSecondsPerTick returns the simulated seconds one tick represents.
func (w *World) SimSecondsPerTick() float64 {
	return float64(w.simMillisecondsPerTick) / 1000
}

// TotalSimSeconds returns the simulated seconds elapsed so far.
func (w *World) TotalSimSeconds() float64 {
	return w.CurrentTick() * w.SimSecondsPerTick()
}

// IsRunning reports whether the loop has been asked to keep going.
func (w *World) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Run marks the world running and executes the loop on the calling goroutine
// until Pause is called or ctx is cancelled.
func (w *World) Run(ctx context.Context) {
	w.setRunning(true)
	w.loop(ctx)
}

// Start marks the world running and executes the loop on a new goroutine.
// The returned channel is closed once the loop has exited.
func (w *World) Start(ctx context.Context) <-chan struct{} {
	w.setRunning(true)
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.loop(ctx)
	}()
	return done
}

// Pause asks the loop to stop. A sleep or dispatch already in progress runs
// to completion and the tick is advanced once more before the loop exits.
func (w *World) Pause() {
	w.setRunning(false)
}

func (w *World) setRunning(running bool) {
	w.mu.Lock()
	w.running = running
	w.mu.Unlock()
	if w.metrics != nil {
		w.metrics.SetRunning(running)
	}
}

func (w *World) loop(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	interval := w.TickInterval()
	for w.IsRunning() {
		if ctx.Err() != nil {
			w.Pause()
			return
		}
		tick := w.CurrentTick()
		w.log.Debug(ctx, "beginning game tick", logging.Float64("tick", tick))

		w.step(ctx, tick)
		time.Sleep(interval)

		w.log.Debug(ctx, "ending game tick", logging.Float64("tick", tick))
		w.nextTick(tick)
	}
}

// step broadcasts the event for tick. It runs outside mu so listeners can
// register or query the world while being dispatched.
func (w *World) step(ctx context.Context, tick float64) {
	_, span := w.tracer.Start(ctx, "world.tick", trace.WithAttributes(
		attribute.Float64("sim.tick", tick),
		attribute.Float64("sim.seconds_per_tick", w.SimSecondsPerTick()),
	))
	defer span.End()

	start := time.Now()
	n := Trigger(w.dispatcher, model.NextTickEvent{
		TickCount:      tick,
		SecondsPerTick: w.SimSecondsPerTick(),
	})
	span.SetAttributes(attribute.Int("sim.listeners", n))
	if w.metrics != nil {
		w.metrics.ObserveTick(time.Since(start), n)
	}
}

func (w *World) nextTick(tick float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tick.Store(math.Float64bits(tick + 1))
}

// CurrentTime returns the time elapsed at the current tick on the chosen
// clock.
func (w *World) CurrentTime(tt TimeType) time.Duration {
	return time.Duration(w.CurrentTick() * float64(w.perTick(tt)) * float64(time.Millisecond))
}

// CurrentTimeString formats CurrentTime as HH:MM:SS:mmm.
func (w *World) CurrentTimeString(tt TimeType) string {
	return FormatClock(w.CurrentTime(tt))
}

func (w *World) perTick(tt TimeType) int {
	if tt == SimTime {
		return w.simMillisecondsPerTick
	}
	return w.millisecondsPerTick
}

// FormatClock renders d as zero-padded hours, minutes, seconds and
// milliseconds separated by colons. Negative durations render as zero.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	h := ms / int64(time.Hour/time.Millisecond)
	ms -= h * int64(time.Hour/time.Millisecond)
	m := ms / int64(time.Minute/time.Millisecond)
	ms -= m * int64(time.Minute/time.Millisecond)
	s := ms / 1000
	ms -= s * 1000
	return fmt.Sprintf("%02d:%02d:%02d:%03d", h, m, s, ms)
}
