//go:build darwin

package scheduler

import "golang.org/x/sys/unix"

// createWakeFD creates a self-pipe for wake-up notifications, matching the
// teacher's wakeup_darwin.go (kqueue has no eventfd equivalent).
func createWakeFD() (readFD, writeFD int, err error) {
	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		return 0, 0, err
	}
	unix.CloseOnExec(fds[0])
	unix.CloseOnExec(fds[1])
	if err := unix.SetNonblock(fds[0], true); err != nil {
		unix.Close(fds[0])
		unix.Close(fds[1])
		return 0, 0, err
	}
	if err := unix.SetNonblock(fds[1], true); err != nil {
		unix.Close(fds[0])
		unix.Close(fds[1])
		return 0, 0, err
	}
	return fds[0], fds[1], nil
}

func signalWakeFD(writeFD int) {
	var buf [1]byte
	_, _ = unix.Write(writeFD, buf[:])
}

func drainWakeFD(readFD int) {
	var buf [64]byte
	for {
		if _, err := unix.Read(readFD, buf[:]); err != nil {
			return
		}
	}
}

func closeWakeFD(readFD, writeFD int) {
	_ = unix.Close(readFD)
	_ = unix.Close(writeFD)
}
