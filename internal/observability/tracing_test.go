package observability

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestTracingConfigFromEnv(t *testing.T) {
	t.Setenv("SIM_TRACING_ENABLED", "TRUE")
	t.Setenv("SIM_TRACING_EXPORTER", "OTLP")
	t.Setenv("SIM_TRACING_SERVICE_NAME", "sim-under-test")
	t.Setenv("SIM_OTLP_ENDPOINT", "collector:4317")
	t.Setenv("SIM_TRACING_SAMPLE_RATIO", "0.25")

	cfg := TracingConfigFromEnv(DefaultTracingConfig())
	if !cfg.Enabled || cfg.Exporter != ExporterOTLP || cfg.ServiceName != "sim-under-test" ||
		cfg.Endpoint != "collector:4317" || cfg.SampleRatio != 0.25 {
		t.Fatalf("TracingConfigFromEnv = %+v", cfg)
	}
}

func TestWithEnvIgnoresMalformedValues(t *testing.T) {
	env := map[string]string{
		"SIM_TRACING_ENABLED":      "sometimes",
		"SIM_TRACING_SAMPLE_RATIO": "1.5",
	}
	cfg := DefaultTracingConfig().WithEnv(func(k string) string { return env[k] })
	if cfg.SampleRatio != 1 {
		t.Fatalf("SampleRatio = %v, want default 1", cfg.SampleRatio)
	}
	if cfg.Enabled {
		t.Fatalf("tracing enabled from a malformed flag")
	}
}

func TestInitTracingDisabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), DefaultTracingConfig(), nil)
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}
	if otel.GetTracerProvider() == nil {
		t.Fatalf("no tracer provider installed")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestInitTracingStdoutWritesSpans(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultTracingConfig()
	cfg.Enabled = true
	cfg.Output = &buf

	shutdown, err := InitTracing(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}
	t.Cleanup(func() { _, _ = InitTracing(context.Background(), DefaultTracingConfig(), nil) })

	_, span := otel.Tracer("test").Start(context.Background(), "world.tick")
	span.End()
	ShutdownWithTimeout(context.Background(), shutdown, nil)

	if !strings.Contains(buf.String(), "world.tick") {
		t.Fatalf("exported spans missing world.tick: %q", buf.String())
	}
}

func TestInitTracingRejectsUnknownExporter(t *testing.T) {
	cfg := DefaultTracingConfig()
	cfg.Enabled = true
	cfg.Exporter = "carrier-pigeon"
	_, err := InitTracing(context.Background(), cfg, nil)
	if !errors.Is(err, ErrUnknownExporter) {
		t.Fatalf("InitTracing error = %v, want ErrUnknownExporter", err)
	}
}
