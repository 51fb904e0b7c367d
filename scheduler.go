package command

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"github.com/stateforward/go-command/embedded"
	"github.com/stateforward/go-command/kinds"
	"github.com/stateforward/go-command/pkg/set"
	"github.com/stateforward/go-command/queue"
)

var ErrDefaultCommandRequirement = errors.New("default command must require its subsystem")

// Trace is called at the start of a scheduler step and returns a function
// called when the step completes.
type Trace func(ctx context.Context, step string, elements ...embedded.Element) func(...any)

type Config struct {
	Name   string
	Logger *slog.Logger
	Trace  Trace
}

type subcontext = context.Context

// Scheduler runs commands cooperatively, one Tick at a time. It is not safe
// for concurrent use; every method must be called from the goroutine driving
// Tick.
type Scheduler struct {
	subcontext
	element
	running     set.Ordered[Command]
	claims      map[Command][]Subsystem
	holders     map[Subsystem]Command
	subsystems  set.Ordered[Subsystem]
	defaults    map[Subsystem]Command
	defaultLoop *BindingLoop
	activeLoop  *BindingLoop
	inRunLoop   bool
	toSchedule  *queue.Queue[Command]
	toCancel    *queue.Queue[Command]
	ending      set.Set[Command]
	disabled    bool
	hooks       struct {
		initialize []func(Command)
		execute    []func(Command)
		finish     []func(Command)
		interrupt  []func(Command)
	}
	logger *slog.Logger
	trace  Trace
}

func New(ctx context.Context, maybeConfig ...Config) *Scheduler {
	var config Config
	if len(maybeConfig) > 0 {
		config = maybeConfig[0]
	}
	if ctx == nil {
		ctx = context.Background()
	}
	scheduler := &Scheduler{
		subcontext:  ctx,
		claims:      map[Command][]Subsystem{},
		holders:     map[Subsystem]Command{},
		defaults:    map[Subsystem]Command{},
		defaultLoop: NewBindingLoop("default"),
		toSchedule:  queue.New[Command](),
		toCancel:    queue.New[Command](),
		ending:      set.New[Command](),
		trace:       config.Trace,
	}
	scheduler.kind = kinds.Scheduler
	scheduler.name = config.Name
	scheduler.activeLoop = scheduler.defaultLoop
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	scheduler.logger = logger.With("component", "scheduler", "scheduler", scheduler.Id())
	return scheduler
}

func WithTrace(scheduler *Scheduler, trace Trace) *Scheduler {
	scheduler.trace = trace
	return scheduler
}

/******* Bindings *******/

func (scheduler *Scheduler) DefaultBindingLoop() *BindingLoop {
	return scheduler.defaultLoop
}

func (scheduler *Scheduler) ActiveBindingLoop() *BindingLoop {
	return scheduler.activeLoop
}

// SetActiveBindingLoop replaces the loop polled every tick. A nil loop
// restores the default one.
func (scheduler *Scheduler) SetActiveBindingLoop(loop *BindingLoop) {
	if loop == nil {
		loop = scheduler.defaultLoop
	}
	scheduler.activeLoop = loop
}

/******* Subsystems *******/

// RegisterSubsystem makes the scheduler call each subsystem's Periodic hook
// every tick and manage its default command.
func (scheduler *Scheduler) RegisterSubsystem(subsystems ...Subsystem) {
	for _, subsystem := range subsystems {
		if subsystem == nil {
			continue
		}
		if scheduler.subsystems.Add(subsystem) {
			scheduler.logger.Debug("subsystem registered", "subsystem", subsystem)
		}
	}
}

// SetDefaultCommand registers subsystem if needed and sets the command
// scheduled whenever nothing else requires it. The command must require the
// subsystem.
func (scheduler *Scheduler) SetDefaultCommand(subsystem Subsystem, command Command) error {
	if subsystem == nil || command == nil {
		return nil
	}
	if !command.Requirements().Contains(subsystem) {
		return fmt.Errorf("%w: %s does not require %v", ErrDefaultCommandRequirement, command.Name(), subsystem)
	}
	scheduler.RegisterSubsystem(subsystem)
	scheduler.defaults[subsystem] = command
	return nil
}

// RemoveDefaultCommand clears the default command. A default command that is
// already running keeps running until something else claims the subsystem.
func (scheduler *Scheduler) RemoveDefaultCommand(subsystem Subsystem) {
	if subsystem == nil {
		return
	}
	delete(scheduler.defaults, subsystem)
}

func (scheduler *Scheduler) DefaultCommand(subsystem Subsystem) (Command, bool) {
	command, ok := scheduler.defaults[subsystem]
	return command, ok
}

// Requiring returns the running command holding subsystem.
func (scheduler *Scheduler) Requiring(subsystem Subsystem) (Command, bool) {
	command, ok := scheduler.holders[subsystem]
	return command, ok
}

/******* Observers *******/

func (scheduler *Scheduler) OnCommandInitialize(fn func(Command)) {
	scheduler.hooks.initialize = append(scheduler.hooks.initialize, fn)
}

func (scheduler *Scheduler) OnCommandExecute(fn func(Command)) {
	scheduler.hooks.execute = append(scheduler.hooks.execute, fn)
}

func (scheduler *Scheduler) OnCommandFinish(fn func(Command)) {
	scheduler.hooks.finish = append(scheduler.hooks.finish, fn)
}

func (scheduler *Scheduler) OnCommandInterrupt(fn func(Command)) {
	scheduler.hooks.interrupt = append(scheduler.hooks.interrupt, fn)
}

func notify(hooks []func(Command), command Command) {
	for _, hook := range hooks {
		hook(command)
	}
}

/******* Enable / Disable *******/

// Disable stops the scheduler. Running commands that do not run when disabled
// are cancelled, during the current tick if one is in progress. Ticks are
// no-ops until Enable is called.
func (scheduler *Scheduler) Disable() {
	if scheduler.disabled {
		return
	}
	scheduler.disabled = true
	scheduler.logger.Info("scheduler disabled")
	if !scheduler.inRunLoop {
		scheduler.sweep()
	}
}

func (scheduler *Scheduler) Enable() {
	if !scheduler.disabled {
		return
	}
	scheduler.disabled = false
	scheduler.logger.Info("scheduler enabled")
}

func (scheduler *Scheduler) Disabled() bool {
	return scheduler.disabled
}

func (scheduler *Scheduler) sweep() {
	for command := range scheduler.running.Items() {
		if !command.RunsWhenDisabled() {
			scheduler.cancel(command)
		}
	}
}

/******* Scheduling *******/

func (scheduler *Scheduler) IsScheduled(command Command) bool {
	if scheduler == nil || command == nil {
		return false
	}
	return scheduler.running.Contains(command)
}

// Running iterates over the scheduled commands in the order they were admitted.
func (scheduler *Scheduler) Running() iter.Seq[Command] {
	return scheduler.running.Items()
}

// Schedule starts commands that are not already running. A command whose
// requirements are held is only started if every holder can be interrupted,
// in which case the holders are cancelled first. Calls made while commands
// are executing take effect after the execution phase of the current tick.
func (scheduler *Scheduler) Schedule(commands ...Command) {
	for _, command := range commands {
		scheduler.schedule(command)
	}
}

func (scheduler *Scheduler) schedule(command Command) {
	if scheduler == nil || command == nil {
		return
	}
	if scheduler.inRunLoop {
		scheduler.toSchedule.Push(command)
		return
	}
	if scheduler.disabled || scheduler.IsScheduled(command) {
		return
	}
	if scheduler.trace != nil {
		defer scheduler.trace(scheduler, "schedule", command)()
	}
	requirements := make([]Subsystem, 0, len(command.Requirements()))
	for requirement := range command.Requirements() {
		requirements = append(requirements, requirement)
	}
	// An evicted holder may schedule commands from End, so holders are
	// checked again until none remain.
	for holders := scheduler.holding(requirements); len(holders) > 0; holders = scheduler.holding(requirements) {
		for _, holder := range holders {
			if holder.InterruptBehavior() == CancelIncoming {
				scheduler.logger.Debug("command rejected", "command", command.Name(), "holder", holder.Name())
				return
			}
		}
		for _, holder := range holders {
			scheduler.logger.Debug("command evicted", "command", holder.Name(), "by", command.Name())
			scheduler.cancel(holder)
		}
		if scheduler.disabled || scheduler.IsScheduled(command) {
			return
		}
	}
	scheduler.initialize(command, requirements)
}

// holding returns the running commands holding any of requirements, in
// admission order. Commands already ending are about to release their
// requirements and are left out.
func (scheduler *Scheduler) holding(requirements []Subsystem) []Command {
	held := set.New[Command]()
	for _, requirement := range requirements {
		if holder, ok := scheduler.holders[requirement]; ok && !scheduler.ending.Contains(holder) {
			held.Add(holder)
		}
	}
	if len(held) == 0 {
		return nil
	}
	holders := make([]Command, 0, len(held))
	for command := range scheduler.running.Items() {
		if held.Contains(command) {
			holders = append(holders, command)
		}
	}
	return holders
}

func (scheduler *Scheduler) initialize(command Command, requirements []Subsystem) {
	if scheduler.trace != nil {
		defer scheduler.trace(scheduler, "initialize", command)()
	}
	scheduler.running.Add(command)
	scheduler.claims[command] = requirements
	for _, requirement := range requirements {
		scheduler.holders[requirement] = command
	}
	scheduler.logger.Debug("command initialized", "command", command.Name(), "id", command.Id())
	command.Initialize()
	notify(scheduler.hooks.initialize, command)
}

func (scheduler *Scheduler) release(command Command) {
	scheduler.running.Remove(command)
	for _, requirement := range scheduler.claims[command] {
		if scheduler.holders[requirement] == command {
			delete(scheduler.holders, requirement)
		}
	}
	delete(scheduler.claims, command)
}

// Cancel ends running commands with interrupted=true. Cancelling a command
// that is not running, or that is already ending, does nothing.
func (scheduler *Scheduler) Cancel(commands ...Command) {
	for _, command := range commands {
		scheduler.cancel(command)
	}
}

// CancelAll cancels every running command.
func (scheduler *Scheduler) CancelAll() {
	for command := range scheduler.running.Items() {
		scheduler.cancel(command)
	}
}

func (scheduler *Scheduler) cancel(command Command) {
	if scheduler == nil || command == nil {
		return
	}
	if scheduler.ending.Contains(command) {
		return
	}
	if scheduler.inRunLoop {
		scheduler.toCancel.Push(command)
		return
	}
	if !scheduler.IsScheduled(command) {
		return
	}
	if scheduler.trace != nil {
		defer scheduler.trace(scheduler, "cancel", command)(true)
	}
	scheduler.end(command, true)
	notify(scheduler.hooks.interrupt, command)
	scheduler.release(command)
}

func (scheduler *Scheduler) end(command Command, interrupted bool) {
	scheduler.ending.Add(command)
	defer scheduler.ending.Remove(command)
	scheduler.logger.Debug("command ended", "command", command.Name(), "interrupted", interrupted)
	command.End(interrupted)
}

/******* Tick *******/

// Tick runs one scheduling cycle: subsystem periodic hooks, the active
// binding loop, every running command, the requests deferred while commands
// ran, and finally default commands for unclaimed subsystems. A panic raised
// by a command propagates to the caller.
func (scheduler *Scheduler) Tick() {
	if scheduler == nil || scheduler.disabled {
		return
	}
	if scheduler.trace != nil {
		defer scheduler.trace(scheduler, "Tick", scheduler)()
	}
	for subsystem := range scheduler.subsystems.Items() {
		subsystem.Periodic()
	}
	loop := scheduler.activeLoop
	loop.Poll()

	scheduler.run()
	scheduler.flush()

	if scheduler.disabled {
		scheduler.sweep()
		return
	}
	for subsystem := range scheduler.subsystems.Items() {
		if _, claimed := scheduler.holders[subsystem]; claimed {
			continue
		}
		if command, ok := scheduler.defaults[subsystem]; ok {
			scheduler.schedule(command)
		}
	}
}

func (scheduler *Scheduler) run() {
	scheduler.inRunLoop = true
	defer func() { scheduler.inRunLoop = false }()
	for command := range scheduler.running.Items() {
		if scheduler.disabled && !command.RunsWhenDisabled() {
			scheduler.cancel(command)
			continue
		}
		scheduler.execute(command)
		if command.IsFinished() {
			scheduler.finish(command)
		}
	}
}

func (scheduler *Scheduler) execute(command Command) {
	if scheduler.trace != nil {
		defer scheduler.trace(scheduler, "execute", command)()
	}
	command.Execute()
	notify(scheduler.hooks.execute, command)
}

func (scheduler *Scheduler) finish(command Command) {
	if scheduler.trace != nil {
		defer scheduler.trace(scheduler, "end", command)(false)
	}
	scheduler.end(command, false)
	notify(scheduler.hooks.finish, command)
	scheduler.release(command)
}

// flush applies the deferred requests. Repeated schedule requests collapse
// into the first one.
func (scheduler *Scheduler) flush() {
	for command := range set.NewOrdered(scheduler.toSchedule.Drain()...).Items() {
		scheduler.schedule(command)
	}
	for _, command := range scheduler.toCancel.Drain() {
		scheduler.cancel(command)
	}
}
