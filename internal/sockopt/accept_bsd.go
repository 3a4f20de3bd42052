//go:build unix && !linux

// File: internal/sockopt/accept_bsd.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Darwin/BSD fallback: no accept4(2), so the flags are applied with
// separate fcntl calls after socket(2)/accept(2).

package sockopt

import "golang.org/x/sys/unix"

// newStreamSocket opens a nonblocking close-on-exec TCP socket.
func newStreamSocket(domain int) (int, error) {
	fd, err := unix.Socket(domain, unix.SOCK_STREAM, 0)
	if err != nil {
		return -1, err
	}
	if err := markAsync(fd); err != nil {
		unix.Close(fd)
		return -1, err
	}
	return fd, nil
}

// acceptStream retrieves one pending connection and marks it nonblocking.
func acceptStream(lfd int) (int, error) {
	nfd, _, err := unix.Accept(lfd)
	if err != nil {
		return -1, err
	}
	if err := markAsync(nfd); err != nil {
		unix.Close(nfd)
		return -1, err
	}
	return nfd, nil
}

func markAsync(fd int) error {
	unix.CloseOnExec(fd)
	return unix.SetNonblock(fd, true)
}
