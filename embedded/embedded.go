package embedded

import (
	"github.com/stateforward/go-command/pkg/set"
)

type Element interface {
	Kind() uint64
	Id() string
	Name() string
}

// Subsystem is an exclusive-use resource. Implementations must be comparable
// (pointer types) since subsystems are used as map keys.
type Subsystem interface {
	Periodic()
}

type InterruptBehavior uint8

const (
	// CancelSelf lets a conflicting incoming command evict the holder.
	CancelSelf InterruptBehavior = iota
	// CancelIncoming rejects any conflicting incoming command.
	CancelIncoming
)

func (behavior InterruptBehavior) String() string {
	switch behavior {
	case CancelSelf:
		return "cancel_self"
	case CancelIncoming:
		return "cancel_incoming"
	}
	return "unknown"
}

type Command interface {
	Element
	Initialize()
	Execute()
	IsFinished() bool
	End(interrupted bool)
	Requirements() set.Set[Subsystem]
	InterruptBehavior() InterruptBehavior
	RunsWhenDisabled() bool
}

type Group interface {
	Command
	Children() []Command
}
