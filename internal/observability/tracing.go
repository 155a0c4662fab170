package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/signalsfoundry/steering-simulator/internal/logging"
)

const (
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"

	defaultOTLPEndpoint = "localhost:4317"
	tracingShutdownWait = 5 * time.Second
)

// ErrUnknownExporter is returned by InitTracing for an exporter name it
// cannot build.
var ErrUnknownExporter = errors.New("observability: unknown trace exporter")

// TracingConfig governs how tick and RPC spans are exported.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	Exporter    string  `yaml:"exporter"`
	Endpoint    string  `yaml:"endpoint"`
	SampleRatio float64 `yaml:"sample_ratio"`

	// Output receives stdout-exporter spans. Nil means os.Stderr so that
	// span dumps never interleave with command output.
	Output io.Writer `yaml:"-"`
}

// DefaultTracingConfig has tracing off; when switched on it samples every
// tick to the stdout exporter.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName: "steering-simulator",
		Exporter:    ExporterStdout,
		SampleRatio: 1,
	}
}

// TracingConfigFromEnv overlays SIM_TRACING_* and SIM_OTLP_ENDPOINT from the
// process environment onto base.
func TracingConfigFromEnv(base TracingConfig) TracingConfig {
	return base.WithEnv(os.Getenv)
}

// WithEnv returns a copy of c with the tracing variables read through getenv
// applied. Malformed values are ignored.
func (c TracingConfig) WithEnv(getenv func(string) string) TracingConfig {
	if raw := getenv("SIM_TRACING_ENABLED"); raw != "" {
		if enabled, err := strconv.ParseBool(raw); err == nil {
			c.Enabled = enabled
		}
	}
	if exporter := getenv("SIM_TRACING_EXPORTER"); exporter != "" {
		c.Exporter = strings.ToLower(exporter)
	}
	if service := getenv("SIM_TRACING_SERVICE_NAME"); service != "" {
		c.ServiceName = service
	}
	if endpoint := getenv("SIM_OTLP_ENDPOINT"); endpoint != "" {
		c.Endpoint = endpoint
	}
	if raw := getenv("SIM_TRACING_SAMPLE_RATIO"); raw != "" {
		if ratio, err := strconv.ParseFloat(raw, 64); err == nil && ratio >= 0 && ratio <= 1 {
			c.SampleRatio = ratio
		}
	}
	return c
}

// InitTracing installs the global tracer provider and propagators described
// by cfg. The returned function flushes buffered spans.
func InitTracing(ctx context.Context, cfg TracingConfig, log logging.Logger) (func(context.Context) error, error) {
	if log == nil {
		log = logging.Noop()
	}

	if !cfg.Enabled {
		otel.SetTracerProvider(noop.NewTracerProvider())
		otel.SetTextMapPropagator(propagation.TraceContext{})
		log.Debug(ctx, "tracing disabled")
		return func(context.Context) error { return nil }, nil
	}

	exp, err := newSpanExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", cfg.ServiceName),
			attribute.String("service.namespace", "steering-sim"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("observability: build trace resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Info(ctx, "tracing enabled",
		logging.String("exporter", cfg.Exporter),
		logging.String("service_name", cfg.ServiceName),
		logging.Float64("sample_ratio", cfg.SampleRatio),
	)
	return tp.Shutdown, nil
}

func newSpanExporter(ctx context.Context, cfg TracingConfig) (sdktrace.SpanExporter, error) {
	switch strings.ToLower(cfg.Exporter) {
	case ExporterStdout, "":
		out := cfg.Output
		if out == nil {
			out = os.Stderr
		}
		return stdouttrace.New(stdouttrace.WithWriter(out), stdouttrace.WithoutTimestamps())
	case ExporterOTLP, "otlpgrpc":
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = defaultOTLPEndpoint
		}
		return otlptrace.New(ctx, otlptracegrpc.NewClient(
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownExporter, cfg.Exporter)
	}
}

// ShutdownWithTimeout flushes spans within a bounded window. Failures are
// logged, not returned: shutdown runs on the way out.
func ShutdownWithTimeout(ctx context.Context, shutdown func(context.Context) error, log logging.Logger) {
	if shutdown == nil {
		return
	}
	if log == nil {
		log = logging.Noop()
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), tracingShutdownWait)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		log.Warn(ctx, "tracing shutdown failed", logging.Err(err))
	}
}
