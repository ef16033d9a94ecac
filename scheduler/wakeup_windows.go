//go:build windows

package scheduler

import (
	"net"
	"syscall"
)

// createWakeSocket opens a connected loopback TCP pair and returns the
// read side's raw descriptor (for inclusion in a WSAPoll set) alongside
// both ends as net.Conn, analogous to createWakeFD on unix.
func createWakeSocket() (readFD int, read, write net.Conn, err error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, nil, nil, err
	}
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	acceptErr := make(chan error, 1)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			acceptErr <- err
			return
		}
		accepted <- c
	}()

	write, err = net.Dial("tcp", ln.Addr().String())
	if err != nil {
		return 0, nil, nil, err
	}

	select {
	case read = <-accepted:
	case err = <-acceptErr:
		write.Close()
		return 0, nil, nil, err
	}

	tcpConn, ok := read.(*net.TCPConn)
	if !ok {
		read.Close()
		write.Close()
		return 0, nil, nil, syscall.EINVAL
	}
	rawConn, err := tcpConn.SyscallConn()
	if err != nil {
		read.Close()
		write.Close()
		return 0, nil, nil, err
	}
	var fd uintptr
	if ctlErr := rawConn.Control(func(p uintptr) { fd = p }); ctlErr != nil {
		read.Close()
		write.Close()
		return 0, nil, nil, ctlErr
	}

	return int(fd), read, write, nil
}

func signalWakeSocket(w net.Conn) {
	var buf [1]byte
	_, _ = w.Write(buf[:])
}

// drainWakeSocket consumes whatever wake bytes are currently buffered. A
// single read suffices since WSAPoll only reported this fd because at
// least one byte is already sitting in the socket buffer; looping would
// risk blocking on a second read once the buffer is empty (net.Conn has
// no non-blocking mode the way a unix fd does).
func drainWakeSocket(r net.Conn) {
	var buf [64]byte
	_, _ = r.Read(buf[:])
}
