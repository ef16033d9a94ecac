package scheduler

import "time"

// FDEvent is a bitmask over the four readiness kinds the platform adapter
// reports, per spec §3's Task FD extension.
type FDEvent uint32

const (
	EventRead FDEvent = 1 << iota
	EventWrite
	EventExpire
	EventInterrupt
)

// WaitOutcome is the result of one platform wait call, per spec §6's
// {TIMEOUT|READY|INTERRUPTED|SHUTDOWN} contract.
type WaitOutcome int

const (
	WaitTimeout WaitOutcome = iota
	WaitReady
	WaitInterrupted
	WaitShutdown
)

// ReadyFD is one entry of the ready list a platform wait call returns.
type ReadyFD struct {
	FD     int
	Events FDEvent
}

// platform is the five-operation adapter interface spec §6 requires: the
// only OS-aware surface in the core. scheduler/poller_linux.go (epoll) and
// scheduler/poller_darwin.go (kqueue) implement it, grounded on the
// teacher's FastPoller (eventloop/poller_linux.go, poller_darwin.go).
type platform interface {
	init(s *Schedule) error
	uninit() error
	scheduleFD(fd int, events FDEvent) error
	unscheduleFD(fd int) error
	wait(timeout time.Duration) (WaitOutcome, []ReadyFD, error)
	wakeup()
	signalRegister(signo int) error
	signalUnregister(signo int) error
	signalsCall(deliver func(signo int))
}
