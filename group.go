package command

import (
	"github.com/stateforward/go-command/kinds"
)

type group struct {
	Base
	commands []Command
}

func newGroup(kind uint64, commands []Command) group {
	group := group{}
	group.kind = kind
	group.interrupt = CancelIncoming
	group.add(commands...)
	return group
}

func (group *group) add(commands ...Command) {
	for _, command := range commands {
		if command == nil {
			continue
		}
		group.commands = append(group.commands, command)
		for requirement := range command.Requirements() {
			group.AddRequirements(requirement)
		}
		if command.InterruptBehavior() == CancelSelf {
			group.interrupt = CancelSelf
		}
	}
	group.runsWhenDisabled = len(group.commands) > 0
	for _, command := range group.commands {
		if !command.RunsWhenDisabled() {
			group.runsWhenDisabled = false
			break
		}
	}
}

func (group *group) Children() []Command {
	return append([]Command(nil), group.commands...)
}

/******* Sequential *******/

// SequentialGroup runs its commands one after another. When the current
// command finishes the next one is initialized on the same tick.
type SequentialGroup struct {
	group
	current int
}

func Sequence(commands ...Command) *SequentialGroup {
	return &SequentialGroup{group: newGroup(kinds.Sequential, commands)}
}

func (sequence *SequentialGroup) Initialize() {
	sequence.current = 0
	if sequence.IsFinished() {
		return
	}
	sequence.commands[0].Initialize()
}

func (sequence *SequentialGroup) Execute() {
	if sequence.IsFinished() {
		return
	}
	head := sequence.commands[sequence.current]
	if !head.IsFinished() {
		head.Execute()
		return
	}
	head.End(false)
	sequence.current++
	if sequence.IsFinished() {
		return
	}
	sequence.commands[sequence.current].Initialize()
}

func (sequence *SequentialGroup) IsFinished() bool {
	return sequence.current >= len(sequence.commands)
}

func (sequence *SequentialGroup) End(interrupted bool) {
	if interrupted && !sequence.IsFinished() {
		sequence.commands[sequence.current].End(true)
	}
	sequence.current = len(sequence.commands)
}

// Current returns the command the sequence is running.
func (sequence *SequentialGroup) Current() (Command, bool) {
	if sequence.IsFinished() {
		return nil, false
	}
	return sequence.commands[sequence.current], true
}

/******* Parallel *******/

// ParallelGroup runs its commands together and finishes once all of them have.
type ParallelGroup struct {
	group
	running []bool
	any     bool
}

func Parallel(commands ...Command) *ParallelGroup {
	return &ParallelGroup{group: newGroup(kinds.Parallel, commands)}
}

func (parallel *ParallelGroup) Initialize() {
	parallel.running = make([]bool, len(parallel.commands))
	for i, command := range parallel.commands {
		command.Initialize()
		parallel.running[i] = true
	}
}

func (parallel *ParallelGroup) Execute() {
	for i, command := range parallel.commands {
		if !parallel.running[i] || parallel.IsFinished() {
			continue
		}
		command.Execute()
		if command.IsFinished() {
			command.End(false)
			parallel.running[i] = false
		}
	}
}

func (parallel *ParallelGroup) IsFinished() bool {
	if len(parallel.commands) == 0 {
		return true
	}
	for _, running := range parallel.running {
		if parallel.any && !running {
			return true
		}
		if !parallel.any && running {
			return false
		}
	}
	return !parallel.any
}

// End ends every command still running with interrupted=false, whether or
// not the group itself was interrupted.
func (parallel *ParallelGroup) End(interrupted bool) {
	for i, command := range parallel.commands {
		if i < len(parallel.running) && parallel.running[i] {
			command.End(false)
			parallel.running[i] = false
		}
	}
}

// Running reports which commands have not finished yet, in construction order.
func (parallel *ParallelGroup) Running() []bool {
	return append([]bool(nil), parallel.running...)
}

/******* Race *******/

// RaceGroup runs its commands together and finishes as soon as any of them
// does.
type RaceGroup struct {
	ParallelGroup
}

func Race(commands ...Command) *RaceGroup {
	race := &RaceGroup{ParallelGroup: ParallelGroup{group: newGroup(kinds.Race, commands), any: true}}
	return race
}
