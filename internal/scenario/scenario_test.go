package scenario

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalsfoundry/steering-simulator/internal/config"
	"github.com/signalsfoundry/steering-simulator/internal/observability"
	"github.com/signalsfoundry/steering-simulator/kinematics"
)

func ptr[T any](v T) *T { return &v }

func testConfig() config.Config {
	cfg := config.Default()
	cfg.World.MillisecondsPerTick = 1
	cfg.World.SimMillisecondsPerTick = 100
	cfg.Scenario.Actors = []config.ActorConfig{
		{
			Name:     "scout",
			MaxSpeed: ptr(2.0),
			Moves:    []config.MoveConfig{{Target: [2]float64{1, 0}, Speed: 2}},
		},
		{
			Name:            "hauler",
			X:               0,
			Y:               5,
			Heading:         90,
			MaxAcceleration: ptr(1.0),
			WanderSeed:      ptr(uint64(3)),
			Moves:           []config.MoveConfig{{Target: [2]float64{0, 0}, Speed: 1, Dynamic: true}},
		},
	}
	return cfg
}

func TestBuildSpawnsActorsWithQueuedMoves(t *testing.T) {
	rt, err := Build(testConfig(), Options{})
	require.NoError(t, err)
	t.Cleanup(rt.Close)

	require.Equal(t, 2, rt.Registry.Len())
	snaps := rt.Registry.Snapshots()
	assert.Equal(t, "hauler", snaps[0].Name)
	assert.Equal(t, 90.0, snaps[0].Heading)
	assert.Equal(t, 1.0, snaps[0].MaxAcceleration)
	assert.Equal(t, 1, snaps[0].PendingCommands)
	assert.Equal(t, "scout", snaps[1].Name)
	assert.Equal(t, 2.0, snaps[1].MaxSpeed)
	assert.True(t, rt.Sim.IsPaused())
}

func TestBuildRejectsDegenerateMove(t *testing.T) {
	cfg := testConfig()
	cfg.Scenario.Actors[0].Moves[0].Target = [2]float64{0, 0}

	_, err := Build(cfg, Options{})
	require.ErrorIs(t, err, kinematics.ErrNoMovementNeeded)
}

func TestSpawnWithBadMoveRegistersNothing(t *testing.T) {
	rt, err := Build(testConfig(), Options{})
	require.NoError(t, err)
	t.Cleanup(rt.Close)
	listeners := rt.Sim.ListenerCount()

	_, err = rt.Spawn(config.ActorConfig{
		Name: "stuck",
		Moves: []config.MoveConfig{
			{Target: [2]float64{3, 0}, Speed: 1},
			{Target: [2]float64{0, 0}, Speed: 1},
		},
	})
	require.ErrorIs(t, err, kinematics.ErrNoMovementNeeded)
	assert.Equal(t, 2, rt.Registry.Len())
	assert.Equal(t, listeners, rt.Sim.ListenerCount())
}

func TestBuildRejectsInvalidWorld(t *testing.T) {
	cfg := testConfig()
	cfg.World.MillisecondsPerTick = 0

	_, err := Build(cfg, Options{})
	require.Error(t, err)
}

func TestRunForAdvancesTicks(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := observability.NewSimCollector(reg)
	require.NoError(t, err)

	rt, err := Build(testConfig(), Options{Metrics: collector})
	require.NoError(t, err)
	t.Cleanup(rt.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, rt.RunFor(ctx, 10))

	assert.True(t, rt.Sim.IsPaused())
	assert.GreaterOrEqual(t, rt.Sim.CurrentTick(), 10.0)
	assert.GreaterOrEqual(t, testutil.ToFloat64(collector.Ticks), 10.0)
	assert.Equal(t, 2.0, testutil.ToFloat64(collector.Actors))
	assert.Equal(t, 0.0, testutil.ToFloat64(collector.Running))

	for _, s := range rt.Registry.Snapshots() {
		assert.Zero(t, s.PendingCommands, s.Name)
	}
	scout := rt.Registry.Snapshots()[1]
	assert.Greater(t, scout.Position.X(), 0.0)
}

func TestRunForStopsOnContext(t *testing.T) {
	rt, err := Build(testConfig(), Options{})
	require.NoError(t, err)
	t.Cleanup(rt.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = rt.RunFor(ctx, 0)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, rt.Sim.IsPaused())
}
