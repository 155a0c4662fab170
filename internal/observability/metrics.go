package observability

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// SimCollector bundles Prometheus metrics for the tick loop, the actor
// registry and the control plane. It satisfies world.TickRecorder,
// sim.ListenerRecorder and registry.ActorCountRecorder.
type SimCollector struct {
	gatherer prometheus.Gatherer

	Ticks           prometheus.Counter
	TickDispatch    prometheus.Histogram
	TickListeners   prometheus.Gauge
	Running         prometheus.Gauge
	Actors          prometheus.Gauge
	SteeringHandles prometheus.Gauge
	RPCRequests     *prometheus.CounterVec
	RPCDurations    *prometheus.HistogramVec
}

// NewSimCollector registers simulator metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
// Registering twice against the same registerer reuses the existing
// collectors.
func NewSimCollector(reg prometheus.Registerer) (*SimCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	ticks, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_ticks_total",
		Help: "Total number of ticks dispatched by the world loop.",
	}), "sim_ticks_total")
	if err != nil {
		return nil, err
	}

	dispatch, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sim_tick_dispatch_duration_seconds",
		Help:    "Time spent delivering one NextTick event to every listener.",
		Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	}), "sim_tick_dispatch_duration_seconds")
	if err != nil {
		return nil, err
	}

	listeners, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_tick_listeners",
		Help: "Current number of objects subscribed to tick events.",
	}), "sim_tick_listeners")
	if err != nil {
		return nil, err
	}
	running, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_running",
		Help: "1 while the tick loop is running, 0 while paused.",
	}), "sim_running")
	if err != nil {
		return nil, err
	}
	actors, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_actors",
		Help: "Current number of actors in the registry.",
	}), "sim_actors")
	if err != nil {
		return nil, err
	}
	handles, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_steering_handles",
		Help: "Steering handles active across all actors at the last tick.",
	}), "sim_steering_handles")
	if err != nil {
		return nil, err
	}

	requests, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rpc_requests_total",
		Help: "Total number of handled control RPCs, labeled by service, method, and gRPC status code.",
	}, []string{"service", "method", "code"}), "rpc_requests_total")
	if err != nil {
		return nil, err
	}
	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rpc_request_duration_seconds",
		Help:    "Control RPC latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"service", "method"}), "rpc_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &SimCollector{
		gatherer:        gatherer,
		Ticks:           ticks,
		TickDispatch:    dispatch,
		TickListeners:   listeners,
		Running:         running,
		Actors:          actors,
		SteeringHandles: handles,
		RPCRequests:     requests,
		RPCDurations:    durations,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *SimCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// ObserveTick records one dispatched tick.
func (c *SimCollector) ObserveTick(dispatch time.Duration, listeners int) {
	if c == nil {
		return
	}
	if c.Ticks != nil {
		c.Ticks.Inc()
	}
	if c.TickDispatch != nil {
		c.TickDispatch.Observe(dispatch.Seconds())
	}
	c.SetListeners(listeners)
}

// SetRunning flips the running gauge.
func (c *SimCollector) SetRunning(running bool) {
	if c == nil || c.Running == nil {
		return
	}
	if running {
		c.Running.Set(1)
		return
	}
	c.Running.Set(0)
}

// SetListeners updates the tick listener gauge.
func (c *SimCollector) SetListeners(n int) {
	if c == nil || c.TickListeners == nil {
		return
	}
	c.TickListeners.Set(float64(n))
}

// SetActors updates the registry size gauge.
func (c *SimCollector) SetActors(n int) {
	if c == nil || c.Actors == nil {
		return
	}
	c.Actors.Set(float64(n))
}

// SetSteeringHandles updates the active steering handle gauge.
func (c *SimCollector) SetSteeringHandles(n int) {
	if c == nil || c.SteeringHandles == nil {
		return
	}
	c.SteeringHandles.Set(float64(n))
}

// UnaryServerInterceptor records request counts and durations for unary RPCs.
func (c *SimCollector) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		if c == nil {
			return resp, err
		}

		fullMethod := ""
		if info != nil {
			fullMethod = info.FullMethod
		}
		service, method := SplitMethod(fullMethod)
		code := status.Code(err).String()

		if c.RPCRequests != nil {
			c.RPCRequests.WithLabelValues(service, method, code).Inc()
		}
		if c.RPCDurations != nil {
			c.RPCDurations.WithLabelValues(service, method).Observe(time.Since(start).Seconds())
		}

		return resp, err
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SimCollector) Handler() http.Handler {
	gatherer := c.Gatherer()
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SplitMethod parses a fully-qualified gRPC method name into service and method
// components. It tolerates empty strings and partial paths, returning
// "unknown"/"unknown" when parsing fails.
func SplitMethod(fullMethod string) (string, string) {
	if fullMethod == "" {
		return "unknown", "unknown"
	}
	fullMethod = strings.TrimPrefix(fullMethod, "/")
	parts := strings.Split(fullMethod, "/")
	if len(parts) < 2 {
		return "unknown", "unknown"
	}
	service := parts[len(parts)-2]
	method := parts[len(parts)-1]
	if dot := strings.LastIndex(service, "."); dot >= 0 && dot+1 < len(service) {
		service = service[dot+1:]
	}
	if service == "" {
		service = "unknown"
	}
	if method == "" {
		method = "unknown"
	}
	return service, method
}
