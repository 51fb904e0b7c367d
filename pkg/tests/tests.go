// Package tests provides commands that record their lifecycle, for use in
// scheduler tests.
package tests

import (
	"fmt"
	"slices"

	"github.com/stateforward/go-command"
)

// Trace collects lifecycle events in the order they happen.
type Trace struct {
	events []string
}

func (t *Trace) Record(event string) {
	t.events = append(t.events, event)
}

func (t *Trace) Events() []string {
	return slices.Clone(t.events)
}

func (t *Trace) Reset() {
	t.events = nil
}

func (t *Trace) Matches(expected ...string) bool {
	return slices.Equal(t.events, expected)
}

func (t *Trace) Count(event string) int {
	count := 0
	for _, current := range t.events {
		if current == event {
			count++
		}
	}
	return count
}

// Mock is a command that finishes after a fixed number of executions and
// records "<name>.initialize", "<name>.execute", "<name>.end(<interrupted>)".
// FinishAfter <= 0 never finishes.
type Mock struct {
	command.Base
	trace       *Trace
	FinishAfter int
	OnExecute   func()
	executed    int
	ended       []bool
}

func NewMock(trace *Trace, name string, finishAfter int, subsystems ...command.Subsystem) *Mock {
	mock := &Mock{trace: trace, FinishAfter: finishAfter}
	mock.SetName(name)
	mock.AddRequirements(subsystems...)
	return mock
}

func (mock *Mock) Initialize() {
	mock.executed = 0
	mock.record("initialize")
}

func (mock *Mock) Execute() {
	mock.executed++
	mock.record("execute")
	if mock.OnExecute != nil {
		mock.OnExecute()
	}
}

func (mock *Mock) IsFinished() bool {
	return mock.FinishAfter > 0 && mock.executed >= mock.FinishAfter
}

func (mock *Mock) End(interrupted bool) {
	mock.ended = append(mock.ended, interrupted)
	mock.record(fmt.Sprintf("end(%t)", interrupted))
}

// Executed returns the number of Execute calls since the last Initialize.
func (mock *Mock) Executed() int {
	return mock.executed
}

// Ended returns the interrupted flag of every End call.
func (mock *Mock) Ended() []bool {
	return slices.Clone(mock.ended)
}

func (mock *Mock) record(event string) {
	if mock.trace != nil {
		mock.trace.Record(mock.Name() + "." + event)
	}
}

// Sequence returns a condition that yields values in order and then repeats
// the last one.
func Sequence(values ...bool) func() bool {
	i := 0
	return func() bool {
		if len(values) == 0 {
			return false
		}
		value := values[min(i, len(values)-1)]
		i++
		return value
	}
}
