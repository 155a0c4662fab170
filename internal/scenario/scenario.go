// Package scenario assembles a runnable simulation from configuration: the
// world, the simulation wrapper, the actor registry and the initial actors
// with their opening moves.
package scenario

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/signalsfoundry/steering-simulator/internal/config"
	"github.com/signalsfoundry/steering-simulator/internal/logging"
	"github.com/signalsfoundry/steering-simulator/internal/observability"
	"github.com/signalsfoundry/steering-simulator/kinematics"
	"github.com/signalsfoundry/steering-simulator/model"
	"github.com/signalsfoundry/steering-simulator/registry"
	"github.com/signalsfoundry/steering-simulator/sim"
	"github.com/signalsfoundry/steering-simulator/world"
)

// Simulation is the concrete simulation type used by the binaries.
type Simulation = sim.Simulation[sim.WorldState, sim.SimState]

// Options customise Build.
type Options struct {
	Logger  logging.Logger
	Metrics *observability.SimCollector
}

// Runtime holds a built scenario.
type Runtime struct {
	Sim      *Simulation
	Registry *registry.Registry

	log logging.Logger
}

// Build constructs the world and simulation described by cfg and spawns its
// actors. The simulation is left paused.
func Build(cfg config.Config, opts Options) (*Runtime, error) {
	if opts.Logger == nil {
		opts.Logger = logging.Noop()
	}

	worldOpts := []world.Option{world.WithLogger(opts.Logger)}
	simOpts := sim.Options{Logger: opts.Logger}
	regOpts := []registry.Option{registry.WithLogger(opts.Logger)}
	if opts.Metrics != nil {
		worldOpts = append(worldOpts, world.WithTickRecorder(opts.Metrics))
		simOpts.Metrics = opts.Metrics
		regOpts = append(regOpts, registry.WithRecorder(opts.Metrics))
	}

	w, err := world.New(cfg.WorldConfig(), worldOpts...)
	if err != nil {
		return nil, err
	}
	s := sim.New(w, sim.DefaultWorldState(), &sim.SimState{MeterLength: cfg.Scenario.MeterLength}, simOpts)
	rt := &Runtime{
		Sim:      s,
		Registry: registry.New(s, regOpts...),
		log:      opts.Logger,
	}

	for _, ac := range cfg.Scenario.Actors {
		if _, err := rt.Spawn(ac); err != nil {
			rt.Close()
			return nil, err
		}
	}
	return rt, nil
}

// Spawn creates an actor from ac, queues its moves against the current clock
// and registers it. A move that cannot be planned registers nothing.
func (rt *Runtime) Spawn(ac config.ActorConfig) (*sim.Actor, error) {
	objOpts := []kinematics.ObjectOption{kinematics.WithHeading(ac.Heading)}
	if ac.MaxSpeed != nil {
		objOpts = append(objOpts, kinematics.WithMaxSpeed(*ac.MaxSpeed))
	}
	if ac.MaxAcceleration != nil {
		objOpts = append(objOpts, kinematics.WithMaxAcceleration(*ac.MaxAcceleration))
	}
	if ac.WanderSeed != nil {
		objOpts = append(objOpts, kinematics.WithWanderSampler(kinematics.NewSeededWander(*ac.WanderSeed)))
	}

	actor := sim.NewActor(ac.Name, ac.X, ac.Y, objOpts...)

	// Moves are planned before the actor is registered so a bad move leaves
	// nothing behind. Queued commands apply on its first tick.
	meterLength := rt.Sim.SimState().MeterLength
	for i, m := range ac.Moves {
		target := mgl64.Vec2{m.Target[0], m.Target[1]}
		moveOpts := kinematics.MoveOptions{
			UpdateHeading: m.UpdateHeading,
			Wander:        m.Wander,
			MeterLength:   meterLength,
		}
		var err error
		if m.Dynamic {
			_, err = actor.AccelerateTo(target, m.Speed, rt.Sim.CurrentTick(), rt.Sim.SecondsPerTick(), moveOpts)
		} else {
			_, err = actor.MoveTo(target, m.Speed, rt.Sim.CurrentTick(), rt.Sim.SecondsPerTick(), moveOpts)
		}
		if err != nil {
			return nil, fmt.Errorf("actor %q move %d: %w", ac.Name, i, err)
		}
	}
	if err := rt.Registry.Add(actor); err != nil {
		return nil, err
	}
	return actor, nil
}

// RunFor runs the simulation until ticks more ticks have been dispatched or
// ctx is done, then pauses it. ticks <= 0 runs until ctx is done.
func (rt *Runtime) RunFor(ctx context.Context, ticks int) error {
	reached := make(chan struct{})
	if ticks > 0 {
		target := rt.Sim.CurrentTick() + float64(ticks-1)
		var once sync.Once
		watcher := sim.NewWorldObject(func(ev model.NextTickEvent) {
			if ev.TickCount >= target {
				once.Do(func() { close(reached) })
			}
		})
		watcher.SetActive(true)
		rt.Sim.ConnectWorldObject(watcher)
		defer rt.Sim.DisconnectWorldObject(watcher)
	}

	rt.log.Info(ctx, "running scenario",
		logging.Int("ticks", ticks),
		logging.Int("actors", rt.Registry.Len()),
	)
	rt.Sim.Start(ctx)
	select {
	case <-reached:
	case <-ctx.Done():
	}
	rt.Sim.Pause()

	if ticks <= 0 {
		return ctx.Err()
	}
	select {
	case <-reached:
		return nil
	default:
		return ctx.Err()
	}
}

// Close stops the loop and removes every actor.
func (rt *Runtime) Close() {
	rt.Sim.Pause()
	rt.Registry.Close()
}
