//go:build windows

package scheduler

import (
	"net"
	"time"

	"golang.org/x/sys/windows"
)

// pollPlatform implements the platform interface via WSAPoll, the closest
// Windows analogue to the five-operation adapter contract; the teacher's
// own poller_windows.go reaches for IOCP instead, but IOCP's completion
// model doesn't map onto "poll a set of descriptors for readiness" without
// per-fd overlapped I/O machinery this core has no use for. WSAPoll gives
// the same select/poll/epoll/kqueue-shaped semantics §6 asks the adapter
// to expose. The wake mechanism is a connected loopback TCP pair (Windows
// has no eventfd/pipe equivalent usable with WSAPoll), folded into the
// same poll set the way the unix adapters fold their self-pipe/eventfd in.
type pollPlatform struct {
	fds     []windows.WSAPollFd
	wakeFD  int
	wakeR   net.Conn
	wakeW   net.Conn
	signals *signalMux
}

func newPlatform() platform {
	return &pollPlatform{}
}

func (p *pollPlatform) init(s *Schedule) error {
	fd, r, w, err := createWakeSocket()
	if err != nil {
		return err
	}
	p.wakeFD, p.wakeR, p.wakeW = fd, r, w
	p.fds = append(p.fds, windows.WSAPollFd{Fd: windows.Handle(fd), Events: windows.POLLIN})

	p.signals = newSignalMux()
	p.signals.setHook(func() {
		s.markPendingSignal()
		p.wakeup()
	})
	return nil
}

func (p *pollPlatform) uninit() error {
	p.signals.close()
	p.wakeR.Close()
	p.wakeW.Close()
	return nil
}

func (p *pollPlatform) scheduleFD(fd int, events FDEvent) error {
	for i := range p.fds {
		if int(p.fds[i].Fd) == fd {
			p.fds[i].Events = pollEventsOf(events)
			return nil
		}
	}
	p.fds = append(p.fds, windows.WSAPollFd{Fd: windows.Handle(fd), Events: pollEventsOf(events)})
	return nil
}

func (p *pollPlatform) unscheduleFD(fd int) error {
	for i := range p.fds {
		if int(p.fds[i].Fd) == fd {
			p.fds = append(p.fds[:i], p.fds[i+1:]...)
			return nil
		}
	}
	return nil
}

func pollEventsOf(events FDEvent) int16 {
	var mask int16
	if events&EventRead != 0 {
		mask |= windows.POLLIN
	}
	if events&EventWrite != 0 {
		mask |= windows.POLLOUT
	}
	return mask
}

func (p *pollPlatform) wait(timeout time.Duration) (WaitOutcome, []ReadyFD, error) {
	timeoutMs := int32(-1)
	if timeout >= 0 {
		timeoutMs = int32(timeout / time.Millisecond)
	}

	n, err := windows.WSAPoll(p.fds, timeoutMs)
	if err != nil {
		return WaitShutdown, nil, err
	}
	if n == 0 {
		return WaitTimeout, nil, nil
	}

	ready := make([]ReadyFD, 0, n)
	wokeUp := false
	for _, fd := range p.fds {
		if fd.REvents == 0 {
			continue
		}
		if int(fd.Fd) == p.wakeFD {
			wokeUp = true
			continue
		}
		var ev FDEvent
		if fd.REvents&windows.POLLIN != 0 {
			ev |= EventRead
		}
		if fd.REvents&windows.POLLOUT != 0 {
			ev |= EventWrite
		}
		if fd.REvents&windows.POLLHUP != 0 {
			ev |= EventInterrupt
		}
		if fd.REvents&windows.POLLERR != 0 {
			ev |= EventExpire
		}
		if ev != 0 {
			ready = append(ready, ReadyFD{FD: int(fd.Fd), Events: ev})
		}
	}

	if wokeUp {
		drainWakeSocket(p.wakeR)
	}
	if len(ready) == 0 {
		return WaitInterrupted, nil, nil
	}
	return WaitReady, ready, nil
}

func (p *pollPlatform) wakeup() {
	signalWakeSocket(p.wakeW)
}

func (p *pollPlatform) signalRegister(signo int) error {
	p.signals.register(signo)
	return nil
}

func (p *pollPlatform) signalUnregister(signo int) error {
	p.signals.unregister(signo)
	return nil
}

func (p *pollPlatform) signalsCall(deliver func(signo int)) {
	p.signals.drain(deliver)
}
