package main

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/signalsfoundry/steering-simulator/internal/config"
	"github.com/signalsfoundry/steering-simulator/internal/control"
	"github.com/signalsfoundry/steering-simulator/internal/scenario"
)

const testScenario = `
world:
  milliseconds_per_tick: 1
  sim_milliseconds_per_tick: 100
metrics:
  enabled: false
scenario:
  duration_ticks: 5
  actors:
    - name: scout
      max_speed: 2
      moves:
        - target: [1, 0]
          speed: 2
    - name: idler
      x: 3
      y: 3
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sim.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRunPrintsActors(t *testing.T) {
	path := writeConfig(t, testScenario)

	out, err := execute(t, "run", "--config", path, "--ticks", "8")
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	for _, want := range []string{"NAME", "scout", "idler", "3.000"} {
		if !strings.Contains(out, want) {
			t.Fatalf("run output missing %q:\n%s", want, out)
		}
	}
	if !strings.HasPrefix(out, "tick ") {
		t.Fatalf("run output should start with the clock line:\n%s", out)
	}
}

func TestRunRequiresDuration(t *testing.T) {
	path := writeConfig(t, "world:\n  milliseconds_per_tick: 1\n")
	if _, err := execute(t, "run", "--config", path); err == nil {
		t.Fatalf("expected run without a duration to fail")
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	path := writeConfig(t, "world:\n  bogus: 1\n")
	if _, err := execute(t, "run", "--config", path, "--ticks", "1"); err == nil {
		t.Fatalf("expected unknown config key to fail")
	}
}

func TestStatusAgainstLiveServer(t *testing.T) {
	cfg, err := config.Parse([]byte(testScenario))
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	rt, err := scenario.Build(cfg, scenario.Options{})
	if err != nil {
		t.Fatalf("scenario.Build: %v", err)
	}
	defer rt.Close()

	svc := control.NewService(context.Background(), rt.Sim, rt.Registry, nil)
	server := control.NewGRPCServer(svc, control.ServerOptions{})
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	go func() { _ = server.Serve(lis) }()
	defer server.Stop()

	out, err := execute(t, "status", "--addr", lis.Addr().String())
	if err != nil {
		t.Fatalf("status error: %v", err)
	}
	for _, want := range []string{"paused=true", "health=NOT_SERVING", "scout", "idler"} {
		if !strings.Contains(out, want) {
			t.Fatalf("status output missing %q:\n%s", want, out)
		}
	}
}
