// Package socket opens connected sockets on raw descriptors.  It
// performs no locking: callers serialise access to the descriptors it
// hands out.
package socket

import (
	"golang.org/x/sys/unix"
)

// Invalid is the descriptor value meaning "not connected".
const Invalid = -1

// Sys is the set of OS primitives the socket layer needs.  Unix
// implements it with real system calls; tests substitute fakes that
// count calls.
type Sys interface {
	Socket(domain, typ, proto int) (int, error)
	Connect(fd int, sa unix.Sockaddr) error
	Send(fd int, p []byte, flags int) (int, error)
	Close(fd int) error
}

// Unix is the Sys backed by golang.org/x/sys/unix.  Descriptors are
// blocking.
var Unix Sys = unixSys{}

type unixSys struct{}

func (unixSys) Socket(domain, typ, proto int) (int, error) {
	fd, err := unix.Socket(domain, typ, proto)
	if err != nil {
		return Invalid, err
	}
	unix.CloseOnExec(fd)
	return fd, nil
}

// Connect connects fd to sa.  A blocking connect interrupted by a signal
// keeps going in the kernel, so an EINTR is finished by waiting for
// writability and collecting SO_ERROR instead of calling connect again.
func (unixSys) Connect(fd int, sa unix.Sockaddr) error {
	err := unix.Connect(fd, sa)
	if err != unix.EINTR {
		return err
	}
	pfd := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLOUT}}
	for {
		_, err = unix.Poll(pfd, -1)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return err
		}
		break
	}
	soerr, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return err
	}
	if soerr != 0 {
		return unix.Errno(soerr)
	}
	return nil
}

// Send writes p to the connected peer of fd.  It returns whatever a
// single sendmsg accepted; an EINTR before any byte was accepted is
// retried.
func (unixSys) Send(fd int, p []byte, flags int) (int, error) {
	for {
		n, err := unix.SendmsgN(fd, p, nil, nil, flags)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, err
		}
		return n, nil
	}
}

func (unixSys) Close(fd int) error {
	return unix.Close(fd)
}
