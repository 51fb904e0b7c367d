package cli

import (
	"time"

	"github.com/stateforward/go-command"
)

// robot is the scripted program run by the demo command. The operator
// subsystem advances a tick counter that stands in for driver input.
type robot struct {
	ticks    int
	operator command.Subsystem
	drive    command.Subsystem
	intake   command.Subsystem
	shooter  command.Subsystem

	idle    command.Command
	boost   command.Command
	routine command.Command
}

func newRobot() *robot {
	robot := &robot{}
	robot.operator = command.NewSubsystem("operator", func() { robot.ticks++ })
	robot.drive = command.NewSubsystem("drive")
	robot.intake = command.NewSubsystem("intake")
	robot.shooter = command.NewSubsystem("shooter")

	robot.idle = command.Define(command.Name("drive.idle"), command.Requires(robot.drive))
	boost := command.Run(func() {}, robot.drive)
	boost.SetName("drive.boost")
	robot.boost = boost

	deploy := command.Instant(func() {}, robot.intake)
	deploy.SetName("intake.deploy")
	feed := command.Wait(60 * time.Millisecond)
	feed.SetName("intake.feed")
	spin := command.Run(func() {}, robot.shooter)
	spin.SetName("shooter.spin")
	spin.SetInterruptBehavior(command.CancelIncoming)
	score := command.Sequence(
		deploy,
		command.Parallel(feed, command.Race(spin, command.Wait(100*time.Millisecond))),
	)
	score.SetName("score")
	robot.routine = score
	return robot
}

// between reports whether the script is inside [from, to).
func (robot *robot) between(from, to int) func() bool {
	return func() bool { return robot.ticks >= from && robot.ticks < to }
}

func (robot *robot) install(scheduler *command.Scheduler) error {
	scheduler.RegisterSubsystem(robot.operator, robot.drive, robot.intake, robot.shooter)
	if err := scheduler.SetDefaultCommand(robot.drive, robot.idle); err != nil {
		return err
	}
	command.NewTrigger(scheduler, robot.between(10, 15)).OnTrue(robot.routine)
	command.NewTrigger(scheduler, robot.between(50, 80)).WhileTrue(robot.boost)
	command.NewTrigger(scheduler, robot.between(120, 200)).Debounce(100 * time.Millisecond).OnTrue(robot.routine)
	return nil
}
