package control

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/signalsfoundry/steering-simulator/internal/logging"
	"github.com/signalsfoundry/steering-simulator/sim"
	"github.com/signalsfoundry/steering-simulator/world"
)

// Clock is the part of a Simulation the control service drives.
type Clock interface {
	Start(ctx context.Context)
	Pause()
	IsPaused() bool
	CurrentTick() float64
	TotalSimSeconds() float64
	CurrentTimeString(tt world.TimeType) string
}

// Actors is the part of the actor registry the control service reads.
type Actors interface {
	Snapshots() []sim.ActorSnapshot
	Remove(id uuid.UUID) error
}

// Service implements SimulationControlServer on top of a simulation and its
// registry. It also keeps a gRPC health server in step with the run state.
type Service struct {
	clock  Clock
	actors Actors
	health *runHealth
	log    logging.Logger

	// runCtx outlives individual RPCs and bounds loops started by Start.
	runCtx context.Context
}

// NewService wires the control service. runCtx bounds every loop started
// through Start; actors may be nil when no registry is in use.
func NewService(runCtx context.Context, clock Clock, actors Actors, log logging.Logger) *Service {
	if runCtx == nil {
		runCtx = context.Background()
	}
	if log == nil {
		log = logging.Noop()
	}
	s := &Service{
		clock:  clock,
		actors: actors,
		log:    log,
		runCtx: runCtx,
	}
	s.health = &runHealth{Server: health.NewServer(), sync: s.syncHealth}
	s.syncHealth()
	return s
}

// Health returns the health server reporting this service's status.
func (s *Service) Health() healthpb.HealthServer { return s.health }

// runHealth refreshes the serving status from the clock before answering, so
// a loop stopped by its context reports NOT_SERVING without a Pause RPC.
type runHealth struct {
	*health.Server
	sync func()
}

func (h *runHealth) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	h.sync()
	return h.Server.Check(ctx, req)
}

func (h *runHealth) Watch(req *healthpb.HealthCheckRequest, stream healthpb.Health_WatchServer) error {
	h.sync()
	return h.Server.Watch(req, stream)
}

// GetClock reports the simulation clock.
func (s *Service) GetClock(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(map[string]any{
		"tick":              s.clock.CurrentTick(),
		"total_sim_seconds": s.clock.TotalSimSeconds(),
		"real_time":         s.clock.CurrentTimeString(world.RealTime),
		"sim_time":          s.clock.CurrentTimeString(world.SimTime),
		"paused":            s.clock.IsPaused(),
	})
	if err != nil {
		return nil, ToStatusError(err)
	}
	return out, nil
}

// Start resumes the tick loop. Starting a running simulation is a no-op.
func (s *Service) Start(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	s.clock.Start(s.runCtx)
	s.syncHealth()
	s.requestLogger(ctx).Info(ctx, "simulation started via control plane",
		logging.Float64("tick", s.clock.CurrentTick()),
	)
	return &emptypb.Empty{}, nil
}

// Pause stops the tick loop and waits for it to exit.
func (s *Service) Pause(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	s.clock.Pause()
	s.syncHealth()
	s.requestLogger(ctx).Info(ctx, "simulation paused via control plane",
		logging.Float64("tick", s.clock.CurrentTick()),
	)
	return &emptypb.Empty{}, nil
}

// ListActors returns a snapshot of every registered actor.
func (s *Service) ListActors(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	var snaps []sim.ActorSnapshot
	if s.actors != nil {
		snaps = s.actors.Snapshots()
	}
	list := make([]any, 0, len(snaps))
	for _, a := range snaps {
		list = append(list, actorToMap(a))
	}
	out, err := structpb.NewStruct(map[string]any{"actors": list})
	if err != nil {
		return nil, ToStatusError(err)
	}
	return out, nil
}

// RemoveActor removes the actor named by the "id" field.
func (s *Service) RemoveActor(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	if s.actors == nil {
		return nil, status.Error(codes.FailedPrecondition, "no actor registry configured")
	}
	raw := req.GetFields()["id"].GetStringValue()
	if raw == "" {
		return nil, ToStatusError(fmt.Errorf("%w: id is required", ErrInvalidRequest))
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, ToStatusError(fmt.Errorf("%w: id %q: %v", ErrInvalidRequest, raw, err))
	}
	if err := s.actors.Remove(id); err != nil {
		return nil, ToStatusError(err)
	}
	s.requestLogger(ctx).Info(ctx, "actor removed via control plane", logging.String("actor_id", id.String()))
	return &emptypb.Empty{}, nil
}

func (s *Service) syncHealth() {
	st := healthpb.HealthCheckResponse_SERVING
	if s.clock.IsPaused() {
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus(ServiceName, st)
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
}

func (s *Service) requestLogger(ctx context.Context) logging.Logger {
	if l := logging.LoggerFromContext(ctx); l != nil {
		return l
	}
	return s.log
}

func actorToMap(a sim.ActorSnapshot) map[string]any {
	return map[string]any{
		"id":               a.ID.String(),
		"name":             a.Name,
		"x":                a.Position.X(),
		"y":                a.Position.Y(),
		"heading":          a.Heading,
		"velocity_x":       a.LinearVelocity.X(),
		"velocity_y":       a.LinearVelocity.Y(),
		"angular_velocity": a.AngularVelocity,
		"steering_handles": float64(a.SteeringHandles),
		"pending_commands": float64(a.PendingCommands),
		"last_tick":        a.LastTick,
		"active":           a.Active,
	}
}
