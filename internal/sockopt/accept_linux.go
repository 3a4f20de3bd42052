//go:build linux

// File: internal/sockopt/accept_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux socket creation and accept via SOCK_NONBLOCK/SOCK_CLOEXEC and
// accept4(2), avoiding the separate fcntl round-trips.

package sockopt

import "golang.org/x/sys/unix"

// newStreamSocket opens a nonblocking close-on-exec TCP socket.
func newStreamSocket(domain int) (int, error) {
	return unix.Socket(domain, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
}

// acceptStream retrieves one pending connection, already nonblocking.
func acceptStream(lfd int) (int, error) {
	nfd, _, err := unix.Accept4(lfd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	if err != nil {
		return -1, err
	}
	return nfd, nil
}
