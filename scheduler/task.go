package scheduler

import (
	"reflect"
	"time"
)

// Kind discriminates the four task flavors the scheduler dispatches: a
// descriptor watch, a one-shot deadline, an OS signal watch, or an
// in-process named broadcaster.
type Kind int

const (
	KindFD Kind = iota
	KindTimeout
	KindSignal
	KindEvent
)

func (k Kind) String() string {
	switch k {
	case KindFD:
		return "FD"
	case KindTimeout:
		return "TIMEOUT"
	case KindSignal:
		return "SIGNAL"
	case KindEvent:
		return "EVENT"
	default:
		return "UNKNOWN"
	}
}

// FDCallback is invoked for a descriptor task on readiness, once for READ
// and once for WRITE when both fire in the same dispatch.
type FDCallback func(t *Task, events FDEvent, ctx any)

// TimeoutCallback is invoked exactly once, when a timeout task expires.
type TimeoutCallback func(t *Task, ctx any)

// SignalCallback is invoked once per coalesced delivery of a registered
// signal number.
type SignalCallback func(t *Task, signo int, ctx any)

// EventCallback is an event subscriber. Returning false stops the fan-out
// for the remaining subscribers in that signal call.
type EventCallback func(t *Task, args []any, ctx any) bool

// connection is one subscriber registered against an event task.
type connection struct {
	owner    *Schedule
	callback EventCallback
	context  any
}

// Task is a tagged record shared by every schedulable unit; only the
// fields relevant to its Kind are populated.
type Task struct {
	kind  Kind
	valid bool

	schedule *Schedule

	// FD
	fd               int
	requestedEvents  FDEvent
	readyEvents      FDEvent
	fdCallback       FDCallback
	fdContext        any

	// TIMEOUT
	deadline        time.Time
	seq             uint64
	timeoutCallback TimeoutCallback
	timeoutContext  any
	heapIndex       int

	// SIGNAL
	signo          int
	signalCallback SignalCallback
	signalContext  any

	// EVENT
	name        string
	paramSchema []reflect.Type
	connections []*connection
}

// Valid reports whether the task has not yet been marked for removal.
func (t *Task) Valid() bool { return t.valid }

// Kind returns the task's tagged kind.
func (t *Task) Kind() Kind { return t.kind }

// FD returns the descriptor this task watches; meaningless for non-FD tasks.
func (t *Task) FD() int { return t.fd }

func (t *Task) reset() {
	t.kind = 0
	t.valid = false
	t.schedule = nil
	t.fd = 0
	t.requestedEvents = 0
	t.readyEvents = 0
	t.fdCallback = nil
	t.fdContext = nil
	t.deadline = time.Time{}
	t.seq = 0
	t.timeoutCallback = nil
	t.timeoutContext = nil
	t.heapIndex = -1
	t.signo = 0
	t.signalCallback = nil
	t.signalContext = nil
	t.name = ""
	t.paramSchema = nil
	t.connections = nil
}
