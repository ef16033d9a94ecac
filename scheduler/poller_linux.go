//go:build linux

package scheduler

import (
	"time"

	"golang.org/x/sys/unix"
)

// epollPlatform implements the platform interface via epoll, grounded on
// the teacher's FastPoller (eventloop/poller_linux.go): direct fd-indexed
// registration, a preallocated event buffer, and an eventfd-based wake
// mechanism folded into the same epoll set.
type epollPlatform struct {
	epfd    int
	wakeR   int
	wakeW   int
	signals *signalMux
	events  [256]unix.EpollEvent
}

func newPlatform() platform {
	return &epollPlatform{}
}

func (p *epollPlatform) init(s *Schedule) error {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return err
	}
	p.epfd = epfd

	r, w, err := createWakeFD()
	if err != nil {
		unix.Close(epfd)
		return err
	}
	p.wakeR, p.wakeW = r, w

	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, p.wakeR, &unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(p.wakeR),
	}); err != nil {
		unix.Close(p.epfd)
		closeWakeFD(p.wakeR, p.wakeW)
		return err
	}

	p.signals = newSignalMux()
	p.signals.setHook(func() {
		s.markPendingSignal()
		p.wakeup()
	})
	return nil
}

func (p *epollPlatform) uninit() error {
	p.signals.close()
	closeWakeFD(p.wakeR, p.wakeW)
	return unix.Close(p.epfd)
}

func (p *epollPlatform) scheduleFD(fd int, events FDEvent) error {
	var epollEvents uint32
	if events&EventRead != 0 {
		epollEvents |= unix.EPOLLIN
	}
	if events&EventWrite != 0 {
		epollEvents |= unix.EPOLLOUT
	}
	ev := &unix.EpollEvent{Events: epollEvents, Fd: int32(fd)}
	err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, ev)
	if err == unix.ENOENT {
		err = unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, ev)
	}
	return err
}

func (p *epollPlatform) unscheduleFD(fd int) error {
	err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
	if err == unix.ENOENT {
		return nil
	}
	return err
}

func (p *epollPlatform) wait(timeout time.Duration) (WaitOutcome, []ReadyFD, error) {
	timeoutMs := -1
	if timeout >= 0 {
		timeoutMs = int(timeout / time.Millisecond)
	}

	n, err := unix.EpollWait(p.epfd, p.events[:], timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return WaitInterrupted, nil, nil
		}
		return WaitShutdown, nil, err
	}
	if n == 0 {
		return WaitTimeout, nil, nil
	}

	ready := make([]ReadyFD, 0, n)
	wokeUp := false
	for i := 0; i < n; i++ {
		fd := int(p.events[i].Fd)
		if fd == p.wakeR {
			wokeUp = true
			continue
		}
		var ev FDEvent
		if p.events[i].Events&unix.EPOLLIN != 0 {
			ev |= EventRead
		}
		if p.events[i].Events&unix.EPOLLOUT != 0 {
			ev |= EventWrite
		}
		if p.events[i].Events&(unix.EPOLLERR) != 0 {
			ev |= EventExpire
		}
		if p.events[i].Events&unix.EPOLLHUP != 0 {
			ev |= EventInterrupt
		}
		ready = append(ready, ReadyFD{FD: fd, Events: ev})
	}

	if wokeUp {
		drainWakeFD(p.wakeR)
	}
	if len(ready) == 0 {
		return WaitInterrupted, nil, nil
	}
	return WaitReady, ready, nil
}

func (p *epollPlatform) wakeup() {
	signalWakeFD(p.wakeW)
}

func (p *epollPlatform) signalRegister(signo int) error {
	p.signals.register(signo)
	return nil
}

func (p *epollPlatform) signalUnregister(signo int) error {
	p.signals.unregister(signo)
	return nil
}

func (p *epollPlatform) signalsCall(deliver func(signo int)) {
	p.signals.drain(deliver)
}
