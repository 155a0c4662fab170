package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/signalsfoundry/steering-simulator/internal/control"
	"github.com/signalsfoundry/steering-simulator/internal/logging"
	"github.com/signalsfoundry/steering-simulator/internal/observability"
	"github.com/signalsfoundry/steering-simulator/internal/scenario"
)

// newServeCmd keeps the simulation alive behind the gRPC control plane and
// a Prometheus endpoint until interrupted.
func newServeCmd(root *rootOptions) *cobra.Command {
	var autostart bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the simulation over gRPC with Prometheus metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := root.load(cmd)
			if err != nil {
				return err
			}
			cfg.Tracing = observability.TracingConfigFromEnv(cfg.Tracing)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx, runID := logging.EnsureRunID(ctx)

			shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing, log)
			if err != nil {
				return err
			}
			defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

			var collector *observability.SimCollector
			if cfg.Metrics.Enabled {
				collector, err = observability.NewSimCollector(prometheus.DefaultRegisterer)
				if err != nil {
					return err
				}
			}

			rt, err := scenario.Build(cfg, scenario.Options{Logger: log, Metrics: collector})
			if err != nil {
				return err
			}
			defer rt.Close()

			var metricsSrv *http.Server
			if collector != nil {
				metricsSrv = serveMetrics(ctx, cfg.Metrics.Addr, collector, log)
			}

			svc := control.NewService(ctx, rt.Sim, rt.Registry, log)
			server := control.NewGRPCServer(svc, control.ServerOptions{
				Logger:     log,
				Metrics:    collector,
				RunID:      runID,
				Reflection: cfg.GRPC.Reflection,
			})
			lis, err := net.Listen("tcp", cfg.GRPC.Addr)
			if err != nil {
				log.Error(ctx, "failed to listen for gRPC", logging.String("addr", cfg.GRPC.Addr), logging.Err(err))
				return err
			}

			log.Info(ctx, "starting control gRPC server", logging.String("addr", lis.Addr().String()))
			go func() {
				if err := server.Serve(lis); err != nil {
					log.Error(ctx, "gRPC server exited", logging.Err(err))
				}
			}()

			if autostart {
				if _, err := svc.Start(ctx, nil); err != nil {
					return err
				}
			}

			<-ctx.Done()

			log.Info(context.Background(), "shutting down simulator")
			rt.Sim.Pause()
			server.GracefulStop()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if metricsSrv != nil {
				_ = metricsSrv.Shutdown(shutdownCtx)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&autostart, "autostart", true, "Start the tick loop as soon as the server is up")
	return cmd
}

func serveMetrics(ctx context.Context, addr string, collector *observability.SimCollector, log logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn(ctx, "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(ctx, "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
