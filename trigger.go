package command

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/stateforward/go-command/clock"
	"github.com/stateforward/go-command/kinds"
	"github.com/stateforward/go-command/pkg/set"
)

var ErrBindingLoopRunning = errors.New("binding loop is polling")

/******* BindingLoop *******/

// Binding is a callback polled once per tick. Bindings are compared by
// identity, so implementations must be comparable.
type Binding interface {
	Run()
}

type binding struct {
	fn func()
}

func (binding *binding) Run() {
	binding.fn()
}

// BindingLoop polls its bindings in the order they were bound.
type BindingLoop struct {
	element
	bindings set.Ordered[Binding]
	running  bool
}

func NewBindingLoop(maybeName ...string) *BindingLoop {
	loop := &BindingLoop{}
	loop.kind = kinds.BindingLoop
	if len(maybeName) > 0 {
		loop.name = maybeName[0]
	}
	return loop
}

// Bind appends b. Binding the same value twice is a no-op.
func (loop *BindingLoop) Bind(b Binding) error {
	if loop.running {
		return fmt.Errorf("bind %s: %w", loop.Name(), ErrBindingLoopRunning)
	}
	if b == nil {
		return nil
	}
	loop.bindings.Add(b)
	return nil
}

func (loop *BindingLoop) BindFunc(fn func()) error {
	if fn == nil {
		return nil
	}
	return loop.Bind(&binding{fn: fn})
}

// Poll runs every binding. A panicking binding propagates to the caller but
// leaves the loop usable.
func (loop *BindingLoop) Poll() {
	if loop == nil {
		return
	}
	loop.running = true
	defer func() { loop.running = false }()
	for b := range loop.bindings.Items() {
		b.Run()
	}
}

func (loop *BindingLoop) Clear() error {
	if loop.running {
		return fmt.Errorf("clear %s: %w", loop.Name(), ErrBindingLoopRunning)
	}
	loop.bindings.Clear()
	return nil
}

func (loop *BindingLoop) Len() int {
	return loop.bindings.Len()
}

func (loop *BindingLoop) Polling() bool {
	return loop.running
}

/******* Trigger *******/

// Trigger turns edges of a boolean condition into scheduling actions.
type Trigger struct {
	element
	scheduler *Scheduler
	loop      *BindingLoop
	condition func() bool
}

// NewTrigger creates a trigger polled by maybeLoop, or by the scheduler's
// default binding loop when none is given.
func NewTrigger(scheduler *Scheduler, condition func() bool, maybeLoop ...*BindingLoop) *Trigger {
	loop := scheduler.DefaultBindingLoop()
	if len(maybeLoop) > 0 && maybeLoop[0] != nil {
		loop = maybeLoop[0]
	}
	trigger := &Trigger{
		scheduler: scheduler,
		loop:      loop,
		condition: condition,
	}
	trigger.kind = kinds.Trigger
	return trigger
}

func (trigger *Trigger) Get() bool {
	if trigger == nil || trigger.condition == nil {
		return false
	}
	return trigger.condition()
}

type edge struct {
	trigger  *Trigger
	previous bool
	body     func(previous, current bool)
}

func (edge *edge) Run() {
	current := edge.trigger.Get()
	edge.body(edge.previous, current)
	edge.previous = current
}

func (trigger *Trigger) addBinding(body func(previous, current bool)) *Trigger {
	edge := &edge{trigger: trigger, previous: trigger.Get(), body: body}
	if err := trigger.loop.Bind(edge); err != nil {
		slog.Error("trigger binding rejected", "trigger", trigger.Name(), "error", err)
		panic(fmt.Errorf("trigger %s: %w", trigger.Name(), err))
	}
	return trigger
}

// OnChange schedules command whenever the condition changes.
func (trigger *Trigger) OnChange(command Command) *Trigger {
	return trigger.addBinding(func(previous, current bool) {
		if previous != current {
			trigger.scheduler.Schedule(command)
		}
	})
}

// OnTrue schedules command when the condition goes from false to true.
func (trigger *Trigger) OnTrue(command Command) *Trigger {
	return trigger.addBinding(func(previous, current bool) {
		if !previous && current {
			trigger.scheduler.Schedule(command)
		}
	})
}

// OnFalse schedules command when the condition goes from true to false.
func (trigger *Trigger) OnFalse(command Command) *Trigger {
	return trigger.addBinding(func(previous, current bool) {
		if previous && !current {
			trigger.scheduler.Schedule(command)
		}
	})
}

// WhileTrue schedules command on the rising edge and cancels it on the falling edge.
func (trigger *Trigger) WhileTrue(command Command) *Trigger {
	return trigger.addBinding(func(previous, current bool) {
		if !previous && current {
			trigger.scheduler.Schedule(command)
		} else if previous && !current {
			trigger.scheduler.Cancel(command)
		}
	})
}

// WhileFalse schedules command on the falling edge and cancels it on the rising edge.
func (trigger *Trigger) WhileFalse(command Command) *Trigger {
	return trigger.addBinding(func(previous, current bool) {
		if previous && !current {
			trigger.scheduler.Schedule(command)
		} else if !previous && current {
			trigger.scheduler.Cancel(command)
		}
	})
}

func (trigger *Trigger) ToggleOnTrue(command Command) *Trigger {
	return trigger.addBinding(func(previous, current bool) {
		if !previous && current {
			trigger.toggle(command)
		}
	})
}

func (trigger *Trigger) ToggleOnFalse(command Command) *Trigger {
	return trigger.addBinding(func(previous, current bool) {
		if previous && !current {
			trigger.toggle(command)
		}
	})
}

func (trigger *Trigger) toggle(command Command) {
	if trigger.scheduler.IsScheduled(command) {
		trigger.scheduler.Cancel(command)
	} else {
		trigger.scheduler.Schedule(command)
	}
}

func (trigger *Trigger) derive(condition func() bool) *Trigger {
	return NewTrigger(trigger.scheduler, condition, trigger.loop)
}

// And returns a trigger that is active while both conditions are.
func (trigger *Trigger) And(condition func() bool) *Trigger {
	return trigger.derive(func() bool {
		return trigger.Get() && condition()
	})
}

// Or returns a trigger that is active while either condition is.
func (trigger *Trigger) Or(condition func() bool) *Trigger {
	return trigger.derive(func() bool {
		return trigger.Get() || condition()
	})
}

func (trigger *Trigger) Negate() *Trigger {
	return trigger.derive(func() bool {
		return !trigger.Get()
	})
}

// Debounce returns a trigger that becomes active once this trigger has been
// active for at least d. Only rising edges are debounced.
func (trigger *Trigger) Debounce(d time.Duration, maybeClock ...clock.Clock) *Trigger {
	var c clock.Clock
	if len(maybeClock) > 0 && maybeClock[0] != nil {
		c = maybeClock[0]
	} else {
		c = clock.Make()
	}
	var (
		since  time.Time
		rising bool
	)
	return trigger.derive(func() bool {
		if !trigger.Get() {
			rising = false
			return false
		}
		if !rising {
			rising = true
			since = c.Now()
		}
		return c.Now().Sub(since) >= d
	})
}
