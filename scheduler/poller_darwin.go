//go:build darwin

package scheduler

import (
	"time"

	"golang.org/x/sys/unix"
)

// kqueuePlatform implements the platform interface via kqueue, grounded on
// the teacher's FastPoller (eventloop/poller_darwin.go): EVFILT_READ/WRITE
// registration per fd, plus a self-pipe folded into the same kqueue set as
// the wake mechanism (darwin has no eventfd).
type kqueuePlatform struct {
	kq      int
	wakeR   int
	wakeW   int
	signals *signalMux
	events  [256]unix.Kevent_t
}

func newPlatform() platform {
	return &kqueuePlatform{}
}

func (p *kqueuePlatform) init(s *Schedule) error {
	kq, err := unix.Kqueue()
	if err != nil {
		return err
	}
	unix.CloseOnExec(kq)
	p.kq = kq

	r, w, err := createWakeFD()
	if err != nil {
		unix.Close(kq)
		return err
	}
	p.wakeR, p.wakeW = r, w

	wakeEv := []unix.Kevent_t{{
		Ident:  uint64(p.wakeR),
		Filter: unix.EVFILT_READ,
		Flags:  unix.EV_ADD | unix.EV_ENABLE,
	}}
	if _, err := unix.Kevent(p.kq, wakeEv, nil, nil); err != nil {
		unix.Close(p.kq)
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

func (p *kqueuePlatform) uninit() error {
	p.signals.close()
	closeWakeFD(p.wakeR, p.wakeW)
	return unix.Close(p.kq)
}

func (p *kqueuePlatform) scheduleFD(fd int, events FDEvent) error {
	var changes []unix.Kevent_t
	readFlags := unix.EV_DELETE
	if events&EventRead != 0 {
		readFlags = unix.EV_ADD | unix.EV_ENABLE
	}
	changes = append(changes, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: uint16(readFlags)})

	writeFlags := unix.EV_DELETE
	if events&EventWrite != 0 {
		writeFlags = unix.EV_ADD | unix.EV_ENABLE
	}
	changes = append(changes, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: uint16(writeFlags)})

	_, err := unix.Kevent(p.kq, changes, nil, nil)
	return ignoreBenignKeventErr(err)
}

func (p *kqueuePlatform) unscheduleFD(fd int) error {
	changes := []unix.Kevent_t{
		{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: unix.EV_DELETE},
		{Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: unix.EV_DELETE},
	}
	_, err := unix.Kevent(p.kq, changes, nil, nil)
	return ignoreBenignKeventErr(err)
}

func ignoreBenignKeventErr(err error) error {
	if err == unix.ENOENT || err == unix.EBADF {
		return nil
	}
	return err
}

func (p *kqueuePlatform) wait(timeout time.Duration) (WaitOutcome, []ReadyFD, error) {
	var ts *unix.Timespec
	if timeout >= 0 {
		t := unix.NsecToTimespec(timeout.Nanoseconds())
		ts = &t
	}

	n, err := unix.Kevent(p.kq, nil, p.events[:], ts)
	if err != nil {
		if err == unix.EINTR {
			return WaitInterrupted, nil, nil
		}
		return WaitShutdown, nil, err
	}
	if n == 0 {
		return WaitTimeout, nil, nil
	}

	byFD := make(map[int]FDEvent, n)
	wokeUp := false
	for i := 0; i < n; i++ {
		fd := int(p.events[i].Ident)
		if fd == p.wakeR {
			wokeUp = true
			continue
		}
		switch p.events[i].Filter {
		case unix.EVFILT_READ:
			byFD[fd] |= EventRead
		case unix.EVFILT_WRITE:
			byFD[fd] |= EventWrite
		}
		if p.events[i].Flags&unix.EV_EOF != 0 {
			byFD[fd] |= EventInterrupt
		}
		if p.events[i].Flags&unix.EV_ERROR != 0 {
			byFD[fd] |= EventExpire
		}
	}

	if wokeUp {
		drainWakeFD(p.wakeR)
	}
	if len(byFD) == 0 {
		return WaitInterrupted, nil, nil
	}

	ready := make([]ReadyFD, 0, len(byFD))
	for fd, ev := range byFD {
		ready = append(ready, ReadyFD{FD: fd, Events: ev})
	}
	return WaitReady, ready, nil
}

func (p *kqueuePlatform) wakeup() {
	signalWakeFD(p.wakeW)
}

func (p *kqueuePlatform) signalRegister(signo int) error {
	p.signals.register(signo)
	return nil
}

func (p *kqueuePlatform) signalUnregister(signo int) error {
	p.signals.unregister(signo)
	return nil
}

func (p *kqueuePlatform) signalsCall(deliver func(signo int)) {
	p.signals.drain(deliver)
}
