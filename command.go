package command

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/stateforward/go-command/clock"
	"github.com/stateforward/go-command/embedded"
	"github.com/stateforward/go-command/kinds"
	"github.com/stateforward/go-command/pkg/set"
)

type (
	Element           = embedded.Element
	Command           = embedded.Command
	Group             = embedded.Group
	Subsystem         = embedded.Subsystem
	InterruptBehavior = embedded.InterruptBehavior
)

const (
	CancelSelf     = embedded.CancelSelf
	CancelIncoming = embedded.CancelIncoming
)

/******* Element *******/

type element struct {
	kind uint64
	name string
	id   string
}

func (element *element) Kind() uint64 {
	if element == nil {
		return 0
	}
	if element.kind == 0 {
		return kinds.Command
	}
	return element.kind
}

func (element *element) Id() string {
	if element == nil {
		return ""
	}
	if element.id == "" {
		element.id = newId()
	}
	return element.id
}

func (element *element) Name() string {
	if element == nil {
		return ""
	}
	if element.name == "" {
		return kinds.String(element.Kind())
	}
	return element.name
}

// SetName replaces the name used in logs, traces and diagrams.
func (element *element) SetName(name string) {
	element.name = name
}

func newId() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

/******* Subsystem *******/

// NamedSubsystem is a subsystem identified by its pointer, with an optional
// periodic hook.
type NamedSubsystem struct {
	element
	periodic func()
}

func (subsystem *NamedSubsystem) Periodic() {
	if subsystem.periodic != nil {
		subsystem.periodic()
	}
}

func (subsystem *NamedSubsystem) String() string {
	return subsystem.Name()
}

// NewSubsystem returns a named subsystem. The optional function runs once per
// tick before triggers are polled.
func NewSubsystem(name string, maybePeriodic ...func()) *NamedSubsystem {
	var periodic func()
	if len(maybePeriodic) > 0 {
		periodic = maybePeriodic[0]
	}
	return &NamedSubsystem{
		element:  element{kind: kinds.Subsystem, name: name},
		periodic: periodic,
	}
}

/******* Base *******/

// Base supplies the default behavior for every Command method. Embed it in a
// struct and override the lifecycle hooks that matter.
type Base struct {
	element
	requirements     set.Set[Subsystem]
	interrupt        InterruptBehavior
	runsWhenDisabled bool
}

func (base *Base) Initialize()          {}
func (base *Base) Execute()             {}
func (base *Base) IsFinished() bool     { return false }
func (base *Base) End(interrupted bool) {}

// AddRequirements declares subsystems the command needs exclusive use of.
// Requirements must not change while the command is scheduled.
func (base *Base) AddRequirements(subsystems ...Subsystem) {
	if base.requirements == nil {
		base.requirements = set.New[Subsystem]()
	}
	for _, subsystem := range subsystems {
		if subsystem == nil {
			continue
		}
		base.requirements.Add(subsystem)
	}
}

func (base *Base) Requirements() set.Set[Subsystem] {
	if base.requirements == nil {
		base.requirements = set.New[Subsystem]()
	}
	return base.requirements
}

func (base *Base) HasRequirement(subsystem Subsystem) bool {
	return base.requirements.Contains(subsystem)
}

func (base *Base) InterruptBehavior() InterruptBehavior {
	return base.interrupt
}

func (base *Base) SetInterruptBehavior(behavior InterruptBehavior) {
	base.interrupt = behavior
}

func (base *Base) RunsWhenDisabled() bool {
	return base.runsWhenDisabled
}

func (base *Base) SetRunsWhenDisabled(runs bool) {
	base.runsWhenDisabled = runs
}

/******* Func *******/

// Func is a command assembled from plain functions.
type Func struct {
	Base
	initialize func()
	execute    func()
	finished   func() bool
	end        func(interrupted bool)
}

type Partial func(command *Func)

// Define builds a Func command from partials.
//
//	cmd := command.Define(
//		command.Name("intake"),
//		command.Requires(intake),
//		command.Execute(intake.Spin),
//		command.Finished(intake.Full),
//	)
func Define(partials ...Partial) *Func {
	command := &Func{}
	command.kind = kinds.Command
	for _, partial := range partials {
		partial(command)
	}
	return command
}

func (command *Func) Initialize() {
	if command.initialize != nil {
		command.initialize()
	}
}

func (command *Func) Execute() {
	if command.execute != nil {
		command.execute()
	}
}

func (command *Func) IsFinished() bool {
	if command.finished == nil {
		return false
	}
	return command.finished()
}

func (command *Func) End(interrupted bool) {
	if command.end != nil {
		command.end(interrupted)
	}
}

func Name(name string) Partial {
	return func(command *Func) {
		command.name = name
	}
}

func Initialize(fn func()) Partial {
	return func(command *Func) {
		command.initialize = fn
	}
}

func Execute(fn func()) Partial {
	return func(command *Func) {
		command.execute = fn
	}
}

func Finished(fn func() bool) Partial {
	return func(command *Func) {
		command.finished = fn
	}
}

func End(fn func(interrupted bool)) Partial {
	return func(command *Func) {
		command.end = fn
	}
}

func Requires(subsystems ...Subsystem) Partial {
	return func(command *Func) {
		command.AddRequirements(subsystems...)
	}
}

func Interrupt(behavior InterruptBehavior) Partial {
	return func(command *Func) {
		command.interrupt = behavior
	}
}

func RunsWhenDisabled() Partial {
	return func(command *Func) {
		command.runsWhenDisabled = true
	}
}

func kind(kind uint64) Partial {
	return func(command *Func) {
		command.kind = kind
	}
}

// Instant runs fn once on initialize and finishes on the same tick.
func Instant(fn func(), subsystems ...Subsystem) *Func {
	return Define(
		kind(kinds.Instant),
		Requires(subsystems...),
		Initialize(fn),
		Finished(func() bool { return true }),
	)
}

// Run calls fn every tick and never finishes on its own.
func Run(fn func(), subsystems ...Subsystem) *Func {
	return Define(
		kind(kinds.Run),
		Requires(subsystems...),
		Execute(fn),
	)
}

/******* Wait *******/

type WaitCommand struct {
	Base
	clock    clock.Clock
	duration time.Duration
	started  time.Time
}

// Wait finishes once duration has elapsed since it was initialized.
func Wait(duration time.Duration, maybeClock ...clock.Clock) *WaitCommand {
	var c clock.Clock
	if len(maybeClock) > 0 && maybeClock[0] != nil {
		c = maybeClock[0]
	} else {
		c = clock.Make()
	}
	command := &WaitCommand{clock: c, duration: duration}
	command.kind = kinds.Wait
	command.name = fmt.Sprintf("wait(%s)", duration)
	return command
}

func (command *WaitCommand) Initialize() {
	command.started = command.clock.Now()
}

func (command *WaitCommand) IsFinished() bool {
	return command.clock.Now().Sub(command.started) >= command.duration
}

func (command *WaitCommand) Elapsed() time.Duration {
	if command.started.IsZero() {
		return 0
	}
	return command.clock.Now().Sub(command.started)
}

/******* Action *******/

// Action is an incremental unit of work driven once per tick. Run reports
// whether the action still has work left.
type Action interface {
	Run() bool
}

type ActionFunc func() bool

func (fn ActionFunc) Run() bool {
	return fn()
}

// ActionCommand drives an Action built fresh on every initialize. The action
// only exists while the command is running.
type ActionCommand struct {
	Func
	factory func() Action
	active  Action
	pending bool
}

// NewAction wraps factory in a command. Partials configure the remaining
// behavior; an End partial runs after the action is released.
func NewAction(factory func() Action, partials ...Partial) *ActionCommand {
	command := &ActionCommand{factory: factory}
	command.kind = kinds.Action
	for _, partial := range partials {
		partial(&command.Func)
	}
	return command
}

func (command *ActionCommand) Initialize() {
	command.active = nil
	if command.factory != nil {
		command.active = command.factory()
	}
	if command.active == nil {
		slog.Error("action factory returned nil", "command", command.Name())
	}
	command.pending = command.active != nil
	command.Func.Initialize()
}

func (command *ActionCommand) Execute() {
	if command.active == nil {
		return
	}
	command.pending = command.active.Run()
	command.Func.Execute()
}

func (command *ActionCommand) IsFinished() bool {
	return !command.pending
}

func (command *ActionCommand) End(interrupted bool) {
	command.active = nil
	command.pending = false
	command.Func.End(interrupted)
}

// Active returns the running action, if any.
func (command *ActionCommand) Active() (Action, bool) {
	return command.active, command.active != nil
}
