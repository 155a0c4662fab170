package sim

import (
	"context"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/signalsfoundry/steering-simulator/internal/logging"
	"github.com/signalsfoundry/steering-simulator/model"
	"github.com/signalsfoundry/steering-simulator/world"
)

// TickListener is anything that wants a NextTickEvent every tick.
type TickListener interface {
	OnNextTick(ev model.NextTickEvent)
}

// WorldState is the default world-level state value.
type WorldState struct {
	Gravity            mgl64.Vec2
	VelocityIterations int
	PositionIterations int
}

// DefaultWorldState returns earth-like gravity and the usual solver
// iteration counts.
func DefaultWorldState() *WorldState {
	return &WorldState{
		Gravity:            mgl64.Vec2{0, -10},
		VelocityIterations: 6,
		PositionIterations: 2,
	}
}

// SimState is the default simulation-level state value.
type SimState struct {
	// MeterLength scales world units to meters for movement commands.
	MeterLength float64
}

// ListenerRecorder is told how many tick listeners are connected.
type ListenerRecorder interface {
	SetListeners(n int)
}

// Options customise a Simulation.
type Options struct {
	Logger  logging.Logger
	Metrics ListenerRecorder
	// Origin is the render-space origin of the simulated world.
	Origin mgl64.Vec3
}

// Simulation owns a World and the goroutine that runs it, plus two typed
// state values supplied by the embedding application.
type Simulation[WS, SS any] struct {
	Origin mgl64.Vec3

	world   *world.World
	log     logging.Logger
	metrics ListenerRecorder

	// mu serialises Start/Pause/Close.
	mu   sync.Mutex
	done <-chan struct{}

	stateMu    sync.RWMutex
	worldState *WS
	simState   *SS
}

// New wraps w in a Simulation and initialises its state values. Nil states
// are replaced by zero values.
func New[WS, SS any](w *world.World, ws *WS, ss *SS, opts Options) *Simulation[WS, SS] {
	if opts.Logger == nil {
		opts.Logger = logging.Noop()
	}
	s := &Simulation[WS, SS]{
		Origin:  opts.Origin,
		world:   w,
		log:     opts.Logger,
		metrics: opts.Metrics,
	}
	s.Init(ws, ss)
	return s
}

// Init replaces the state values. Nil arguments become fresh zero values.
func (s *Simulation[WS, SS]) Init(ws *WS, ss *SS) {
	if ws == nil {
		ws = new(WS)
	}
	if ss == nil {
		ss = new(SS)
	}
	s.stateMu.Lock()
	s.worldState, s.simState = ws, ss
	s.stateMu.Unlock()
}

// WorldState returns the world-level state value.
func (s *Simulation[WS, SS]) WorldState() *WS {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.worldState
}

// SimState returns the simulation-level state value.
func (s *Simulation[WS, SS]) SimState() *SS {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.simState
}

// World exposes the underlying world.
func (s *Simulation[WS, SS]) World() *world.World { return s.world }

// Start launches the tick loop. Any previous loop is joined first; calling
// Start while already running does nothing. Cancelling ctx stops the loop
// as Pause would.
func (s *Simulation[WS, SS]) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.world.IsRunning() {
		s.log.Debug(ctx, "sim already running", logging.Float64("tick", s.world.CurrentTick()))
		return
	}
	s.joinLocked()
	s.log.Info(ctx, "starting sim",
		logging.Float64("tick", s.world.CurrentTick()),
		logging.Int("milliseconds_per_tick", s.world.MillisecondsPerTick()),
		logging.Int("sim_milliseconds_per_tick", s.world.SimMillisecondsPerTick()),
	)
	s.done = s.world.Start(ctx)
}

// Pause stops the tick loop and waits for it to exit. Pausing a paused
// simulation is a no-op.
func (s *Simulation[WS, SS]) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done == nil {
		return
	}
	s.log.Info(context.Background(), "pausing sim", logging.Float64("tick", s.world.CurrentTick()))
	s.world.Pause()
	s.joinLocked()
}

// Close pauses and joins so no listener is called after it returns.
func (s *Simulation[WS, SS]) Close() error {
	s.Pause()
	return nil
}

func (s *Simulation[WS, SS]) joinLocked() {
	if s.done != nil {
		<-s.done
		s.done = nil
	}
}

// IsPaused reports whether the tick loop is stopped.
func (s *Simulation[WS, SS]) IsPaused() bool { return !s.world.IsRunning() }

// CurrentTick returns the current tick index.
func (s *Simulation[WS, SS]) CurrentTick() float64 { return s.world.CurrentTick() }

// SecondsPerTick returns simulated seconds per tick.
func (s *Simulation[WS, SS]) SecondsPerTick() float64 { return s.world.SimSecondsPerTick() }

// TotalSimSeconds returns the simulated seconds elapsed.
func (s *Simulation[WS, SS]) TotalSimSeconds() float64 { return s.world.TotalSimSeconds() }

// CurrentTime returns elapsed time on the chosen clock.
func (s *Simulation[WS, SS]) CurrentTime(tt world.TimeType) time.Duration {
	return s.world.CurrentTime(tt)
}

// CurrentTimeString formats elapsed time on the chosen clock.
func (s *Simulation[WS, SS]) CurrentTimeString(tt world.TimeType) string {
	return s.world.CurrentTimeString(tt)
}

// ConnectWorldObject subscribes l to tick events. The simulation keeps no
// ownership of l: callers must disconnect it before discarding it.
func (s *Simulation[WS, SS]) ConnectWorldObject(l TickListener) bool {
	if l == nil {
		return false
	}
	ok := world.Connect(s.world.Dispatcher(), l, l.OnNextTick)
	s.recordListeners()
	return ok
}

// DisconnectWorldObject unsubscribes l. A dispatch already in flight may
// still deliver one last event to it.
func (s *Simulation[WS, SS]) DisconnectWorldObject(l TickListener) bool {
	if l == nil {
		return false
	}
	ok := world.Disconnect[model.NextTickEvent](s.world.Dispatcher(), l)
	s.recordListeners()
	return ok
}

// ListenerCount returns the number of connected tick listeners.
func (s *Simulation[WS, SS]) ListenerCount() int {
	return world.ListenerCount[model.NextTickEvent](s.world.Dispatcher())
}

func (s *Simulation[WS, SS]) recordListeners() {
	if s.metrics != nil {
		s.metrics.SetListeners(s.ListenerCount())
	}
}
