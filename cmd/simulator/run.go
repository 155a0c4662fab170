package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/steering-simulator/internal/logging"
	"github.com/signalsfoundry/steering-simulator/internal/scenario"
	"github.com/signalsfoundry/steering-simulator/sim"
	"github.com/signalsfoundry/steering-simulator/world"
)

// newRunCmd runs the configured scenario for a fixed number of ticks and
// prints the final actor states.
func newRunCmd(root *rootOptions) *cobra.Command {
	var ticks int
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the configured scenario and print the final actor states",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := root.load(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("ticks") {
				cfg.Scenario.DurationTicks = ticks
			}
			if cfg.Scenario.DurationTicks <= 0 {
				return errors.New("run needs a positive --ticks or scenario.duration_ticks")
			}

			ctx, runID := logging.EnsureRunID(cmd.Context())
			rt, err := scenario.Build(cfg, scenario.Options{Logger: log})
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.RunFor(ctx, cfg.Scenario.DurationTicks); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			log.Info(ctx, "scenario complete",
				logging.String("run_id", runID),
				logging.Float64("tick", rt.Sim.CurrentTick()),
			)
			return printActors(cmd.OutOrStdout(), rt.Sim, rt.Registry.Snapshots())
		},
	}
	cmd.Flags().IntVar(&ticks, "ticks", 0, "Number of ticks to run (overrides scenario.duration_ticks)")
	return cmd
}

func printActors(out io.Writer, s *scenario.Simulation, snaps []sim.ActorSnapshot) error {
	fmt.Fprintf(out, "tick %.0f  real %s  sim %s\n",
		s.CurrentTick(), s.CurrentTimeString(world.RealTime), s.CurrentTimeString(world.SimTime))
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tX\tY\tHEADING\tVX\tVY\tHANDLES")
	for _, a := range snaps {
		fmt.Fprintf(tw, "%s\t%.3f\t%.3f\t%.1f\t%.3f\t%.3f\t%d\n",
			a.Name, a.Position.X(), a.Position.Y(), a.Heading,
			a.LinearVelocity.X(), a.LinearVelocity.Y(), a.SteeringHandles)
	}
	return tw.Flush()
}
