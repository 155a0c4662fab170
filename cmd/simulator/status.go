package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/steering-simulator/internal/config"
	"github.com/signalsfoundry/steering-simulator/internal/control"
	"github.com/signalsfoundry/steering-simulator/internal/logging"
)

// newStatusCmd queries a running simulator over gRPC.
func newStatusCmd() *cobra.Command {
	var (
		addr    string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the clock, health and actors of a running simulator",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			ctx, _ = logging.EnsureRequestID(ctx)

			client, err := control.Dial(addr)
			if err != nil {
				return err
			}
			defer client.Close()

			clock, err := client.Clock(ctx)
			if err != nil {
				return fmt.Errorf("get clock: %w", err)
			}
			health, err := client.Health(ctx)
			if err != nil {
				return fmt.Errorf("health check: %w", err)
			}
			actors, err := client.Actors(ctx)
			if err != nil {
				return fmt.Errorf("list actors: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "tick %.0f  real %s  sim %s  paused=%t  health=%s\n",
				clock.Tick, clock.RealTime, clock.SimTime, clock.Paused, health)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tX\tY\tHEADING\tHANDLES\tACTIVE")
			for _, a := range actors {
				fmt.Fprintf(tw, "%s\t%s\t%.3f\t%.3f\t%.1f\t%d\t%t\n",
					a.ID, a.Name, a.X, a.Y, a.Heading, a.SteeringHandles, a.Active)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", defaultStatusAddr(), "Address of the simulator's gRPC server")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Deadline for the status RPCs")
	return cmd
}

func defaultStatusAddr() string {
	addr := os.Getenv(config.EnvGRPCAddr)
	if addr == "" {
		addr = config.Default().GRPC.Addr
	}
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
