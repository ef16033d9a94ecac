//go:build linux

package scheduler

import "golang.org/x/sys/unix"

// createWakeFD creates an eventfd for wake-up notifications, the same
// primitive the teacher's wakeup_linux.go uses (a single fd serves as both
// read and write end).
func createWakeFD() (readFD, writeFD int, err error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return 0, 0, err
	}
	return fd, fd, nil
}

func signalWakeFD(writeFD int) {
	var buf [8]byte
	buf[7] = 1
	_, _ = unix.Write(writeFD, buf[:])
}

func drainWakeFD(readFD int) {
	var buf [8]byte
	for {
		if _, err := unix.Read(readFD, buf[:]); err != nil {
			return
		}
	}
}

func closeWakeFD(readFD, writeFD int) {
	_ = unix.Close(readFD)
}
