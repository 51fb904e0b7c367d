package command_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stateforward/go-command"
	"github.com/stateforward/go-command/kinds"
	"github.com/stateforward/go-command/pkg/tests"
)

func TestSequence(t *testing.T) {
	s := newScheduler()
	trace := &tests.Trace{}
	a := tests.NewMock(trace, "a", 1)
	b := tests.NewMock(trace, "b", 1)
	sequence := command.Sequence(a, b)

	s.Schedule(sequence)
	assert.Equal(t, []string{"a.initialize"}, trace.Events(), "only the head is initialized")

	s.Tick()
	assert.Equal(t, []string{"a.initialize", "a.execute"}, trace.Events())
	assert.False(t, sequence.IsFinished())

	trace.Reset()
	s.Tick()
	assert.Equal(t, []string{"a.end(false)", "b.initialize"}, trace.Events(), "next command starts on the same tick")
	assert.False(t, sequence.IsFinished())
	current, ok := sequence.Current()
	require.True(t, ok)
	assert.Same(t, b, current)

	s.Tick()
	assert.True(t, s.IsScheduled(sequence))
	s.Tick()
	assert.False(t, s.IsScheduled(sequence))
	assert.Equal(t, []string{"a.end(false)", "b.initialize", "b.execute", "b.end(false)"}, trace.Events())
	assert.Equal(t, []bool{false}, a.Ended())
	assert.Equal(t, []bool{false}, b.Ended())
}

func TestSequence_Interrupted(t *testing.T) {
	s := newScheduler()
	trace := &tests.Trace{}
	a := tests.NewMock(trace, "a", 0)
	b := tests.NewMock(trace, "b", 0)
	sequence := command.Sequence(a, b)

	s.Schedule(sequence)
	s.Tick()
	s.Cancel(sequence)

	assert.Equal(t, []bool{true}, a.Ended())
	assert.Zero(t, trace.Count("b.initialize"))
}

func TestSequence_Reschedule(t *testing.T) {
	s := newScheduler()
	trace := &tests.Trace{}
	a := tests.NewMock(trace, "a", 1)
	sequence := command.Sequence(a)

	s.Schedule(sequence)
	s.Tick()
	s.Tick()
	require.False(t, s.IsScheduled(sequence))

	s.Schedule(sequence)
	assert.True(t, s.IsScheduled(sequence))
	assert.Equal(t, 2, trace.Count("a.initialize"))
}

func TestParallel(t *testing.T) {
	s := newScheduler()
	trace := &tests.Trace{}
	a := tests.NewMock(trace, "a", 1)
	b := tests.NewMock(trace, "b", 3)
	parallel := command.Parallel(a, b)

	s.Schedule(parallel)
	assert.Equal(t, []string{"a.initialize", "b.initialize"}, trace.Events())

	s.Tick()
	assert.Equal(t, []bool{false}, a.Ended(), "a ends on the tick it finishes")
	assert.Equal(t, []bool{false, true}, parallel.Running())
	assert.True(t, s.IsScheduled(parallel))

	s.Tick()
	assert.True(t, s.IsScheduled(parallel))
	s.Tick()
	assert.False(t, s.IsScheduled(parallel))

	assert.Equal(t, 1, a.Executed())
	assert.Equal(t, []bool{false}, a.Ended(), "a is never ended twice")
	assert.Equal(t, []bool{false}, b.Ended())
}

func TestParallel_Interrupted(t *testing.T) {
	s := newScheduler()
	a := tests.NewMock(nil, "a", 1)
	b := tests.NewMock(nil, "b", 0)
	parallel := command.Parallel(a, b)

	s.Schedule(parallel)
	s.Tick()
	s.Cancel(parallel)

	assert.Equal(t, []bool{false}, a.Ended())
	assert.Equal(t, []bool{false}, b.Ended(), "children are ended uninterrupted even when the group is cancelled")
}

func TestRace(t *testing.T) {
	s := newScheduler()
	trace := &tests.Trace{}
	a := tests.NewMock(trace, "a", 1)
	b := tests.NewMock(trace, "b", 5)
	race := command.Race(a, b)

	s.Schedule(race)
	s.Tick()

	assert.False(t, s.IsScheduled(race))
	assert.Equal(t, []string{
		"a.initialize",
		"b.initialize",
		"a.execute",
		"a.end(false)",
		"b.end(false)",
	}, trace.Events())
	assert.Equal(t, []bool{false}, b.Ended(), "race losers are not interrupted")
	assert.Zero(t, b.Executed())
}

func TestRace_CancelledStillEndsUninterrupted(t *testing.T) {
	s := newScheduler()
	a := tests.NewMock(nil, "a", 0)
	b := tests.NewMock(nil, "b", 0)
	race := command.Race(a, b)

	s.Schedule(race)
	s.Tick()
	s.Cancel(race)

	assert.Equal(t, []bool{false}, a.Ended())
	assert.Equal(t, []bool{false}, b.Ended())
}

func TestEmptyGroupsFinishImmediately(t *testing.T) {
	for name, group := range map[string]command.Command{
		"sequence": command.Sequence(),
		"parallel": command.Parallel(),
		"race":     command.Race(),
	} {
		t.Run(name, func(t *testing.T) {
			s := newScheduler()
			s.Schedule(group)
			require.True(t, s.IsScheduled(group))
			s.Tick()
			assert.False(t, s.IsScheduled(group))
		})
	}
}

func TestGroupRequirementsAndInterruptBehavior(t *testing.T) {
	arm, lift := command.NewSubsystem("arm"), command.NewSubsystem("lift")
	a := tests.NewMock(nil, "a", 0, arm)
	a.SetInterruptBehavior(command.CancelIncoming)
	b := tests.NewMock(nil, "b", 0, lift)
	b.SetInterruptBehavior(command.CancelIncoming)

	stubborn := command.Parallel(a, b)
	assert.Equal(t, command.CancelIncoming, stubborn.InterruptBehavior())
	assert.True(t, stubborn.HasRequirement(arm))
	assert.True(t, stubborn.HasRequirement(lift))
	assert.Len(t, stubborn.Requirements(), 2)

	yielding := command.Sequence(a, tests.NewMock(nil, "c", 0, arm))
	assert.Equal(t, command.CancelSelf, yielding.InterruptBehavior())
	assert.Len(t, yielding.Requirements(), 1)
	assert.Len(t, yielding.Children(), 2)
}

func TestGroupRunsWhenDisabled(t *testing.T) {
	a := tests.NewMock(nil, "a", 0)
	b := tests.NewMock(nil, "b", 0)
	a.SetRunsWhenDisabled(true)
	assert.False(t, command.Parallel(a, b).RunsWhenDisabled())
	b.SetRunsWhenDisabled(true)
	assert.True(t, command.Parallel(a, b).RunsWhenDisabled())
	assert.False(t, command.Sequence().RunsWhenDisabled())
}

func TestNestedGroups(t *testing.T) {
	s := newScheduler()
	trace := &tests.Trace{}
	a := tests.NewMock(trace, "a", 1)
	b := tests.NewMock(trace, "b", 2)
	c := tests.NewMock(trace, "c", 1)
	routine := command.Sequence(command.Parallel(a, b), c)

	assert.True(t, kinds.IsKind(routine.Kind(), kinds.Group))
	s.Schedule(routine)
	for i := 0; i < 10 && s.IsScheduled(routine); i++ {
		s.Tick()
	}

	assert.False(t, s.IsScheduled(routine))
	assert.Equal(t, []string{
		"a.initialize",
		"b.initialize",
		"a.execute",
		"a.end(false)",
		"b.execute",
		"b.execute",
		"b.end(false)",
		"c.initialize",
		"c.execute",
		"c.end(false)",
	}, trace.Events())
}
