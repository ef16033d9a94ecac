// Package tlsslot provides a per-goroutine slot holding the active
// scheduler and a goroutine-local error code, mirroring the thread-local
// storage contract every evcore package consults when a caller omits an
// explicit schedule argument.
//
// Go has no first-class thread-local storage, and no supported API to key
// state off an OS thread without runtime.LockOSThread. The slot below is
// keyed by goroutine id instead, parsed from the runtime stack trace (see
// goroutineID).
// Cross-goroutine sharing of a slot is undefined, exactly as the spec
// requires for cross-thread sharing.
package tlsslot

import (
	"runtime"
	"sync"
)

// ErrCode is the thread-local error-code kind, readable immediately after a
// failing call per the core's error handling contract.
type ErrCode int

const (
	OK ErrCode = iota
	OutOfMemory
	InvalidArgument
	Overflow
	EOF
	NotFound
	NotValid
	Unreachable
	Limit
	AlreadyExists
	NoSuchFile
	Err
)

func (c ErrCode) String() string {
	switch c {
	case OK:
		return "OK"
	case OutOfMemory:
		return "OUT_OF_MEMORY"
	case InvalidArgument:
		return "INVALID_ARGUMENT"
	case Overflow:
		return "OVERFLOW"
	case EOF:
		return "EOF"
	case NotFound:
		return "NOT_FOUND"
	case NotValid:
		return "NOT_VALID"
	case Unreachable:
		return "UNREACHABLE"
	case Limit:
		return "LIMIT"
	case AlreadyExists:
		return "ALREADY_EXISTS"
	case NoSuchFile:
		return "NO_SUCH_FILE"
	case Err:
		return "ERR"
	default:
		return "UNKNOWN"
	}
}

// TLS is the per-goroutine block: the active scheduler reference and the
// last error code/reason, lazily initialized on first access.
type TLS struct {
	ActiveSchedule any
	LastCode       ErrCode
	LastReason     string
}

var (
	mu   sync.RWMutex
	data = make(map[uint64]*TLS)
)

// goroutineID parses the current goroutine's numeric id out of a runtime
// stack trace. This is the same technique used by the teacher event loop
// to determine thread affinity (isLoopThread/getGoroutineID in loop.go);
// it is the only portable way to obtain a stable per-goroutine identity
// without cgo or an unsafe runtime hook.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] >= '0' && buf[i] <= '9' {
			id = id*10 + uint64(buf[i]-'0')
		} else {
			break
		}
	}
	return id
}

// Get returns this goroutine's TLS block, lazily creating it on first use.
func Get() *TLS {
	id := goroutineID()

	mu.RLock()
	t, ok := data[id]
	mu.RUnlock()
	if ok {
		return t
	}

	mu.Lock()
	defer mu.Unlock()
	if t, ok = data[id]; ok {
		return t
	}
	t = &TLS{}
	data[id] = t
	return t
}

// Drop releases the current goroutine's TLS block. Call this when a
// goroutine that used the slot is about to exit, to avoid leaking one
// entry per goroutine that ever touched the package.
func Drop() {
	id := goroutineID()
	mu.Lock()
	delete(data, id)
	mu.Unlock()
}

// ActiveSchedule returns the schedule installed via SetActiveSchedule for
// the current goroutine, or nil if none is set.
func ActiveSchedule() any {
	return Get().ActiveSchedule
}

// SetActiveSchedule installs s as the current goroutine's active
// scheduler. The scheduler package does not read this slot: its
// operations are methods on an explicit *Schedule, and none of them falls
// back to the active schedule.
func SetActiveSchedule(s any) {
	Get().ActiveSchedule = s
}

// SetError records the last error code and an optional human-readable
// reason for the current goroutine.
func SetError(code ErrCode, reason string) {
	t := Get()
	t.LastCode = code
	t.LastReason = reason
}

// LastError returns the current goroutine's last recorded error code.
func LastError() ErrCode {
	return Get().LastCode
}

// LastErrorReason returns the current goroutine's last recorded error
// reason string, if any was set.
func LastErrorReason() string {
	return Get().LastReason
}
