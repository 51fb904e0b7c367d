package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/stateforward/go-command"
	"github.com/stateforward/go-command/pkg/loop"
)

type counts struct {
	initialized, finished, interrupted int
}

func newDemoCmd(opts *options) *cobra.Command {
	var ticks int
	var tickRate time.Duration

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a scripted robot program",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("ticks") {
				opts.config.Ticks = ticks
			}
			if cmd.Flags().Changed("tick-rate") {
				opts.config.TickRate = tickRate
			}
			scheduler := opts.scheduler(cmd)
			robot := newRobot()
			if err := robot.install(scheduler); err != nil {
				return err
			}

			var total counts
			scheduler.OnCommandInitialize(func(c command.Command) {
				total.initialized++
				opts.logger.Info("command initialized", "command", c.Name())
			})
			scheduler.OnCommandFinish(func(c command.Command) {
				total.finished++
				opts.logger.Info("command finished", "command", c.Name())
			})
			scheduler.OnCommandInterrupt(func(c command.Command) {
				total.interrupted++
				opts.logger.Info("command interrupted", "command", c.Name())
			})

			runner := loop.New(scheduler, loop.Config{TickRate: opts.config.TickRate, MaxTicks: opts.config.Ticks}, opts.logger)
			if err := runner.Start(cmd.Context()); err != nil {
				return err
			}
			scheduler.CancelAll()
			fmt.Fprintf(cmd.OutOrStdout(), "ticks=%d initialized=%d finished=%d interrupted=%d\n",
				runner.Ticks(), total.initialized, total.finished, total.interrupted)
			return nil
		},
	}
	cmd.Flags().IntVar(&ticks, "ticks", 0, "Ticks to run (overrides config, 0 runs until interrupted)")
	cmd.Flags().DurationVar(&tickRate, "tick-rate", 0, "Tick period (overrides config)")
	return cmd
}
