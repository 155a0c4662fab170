package control

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/signalsfoundry/steering-simulator/internal/logging"
	"github.com/signalsfoundry/steering-simulator/internal/observability"
)

// ServerOptions tunes NewGRPCServer.
type ServerOptions struct {
	Logger     logging.Logger
	Metrics    *observability.SimCollector
	RunID      string
	Reflection bool
}

// NewGRPCServer builds a gRPC server carrying the control and health
// services, with logging, metrics and tracing interceptors installed.
func NewGRPCServer(svc *Service, opts ServerOptions) *grpc.Server {
	server := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			RequestIDUnaryServerInterceptor(opts.Logger, opts.RunID),
			opts.Metrics.UnaryServerInterceptor(),
			TracingUnaryServerInterceptor(),
		),
	)
	RegisterSimulationControlServer(server, svc)
	healthpb.RegisterHealthServer(server, svc.Health())
	if opts.Reflection {
		reflection.Register(server)
	}
	return server
}
