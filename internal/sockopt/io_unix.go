//go:build unix

// File: internal/sockopt/io_unix.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Nonblocking read/write primitives for established sockets.

package sockopt

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-accept/api"
)

// Read fills p from fd. api.ErrWouldBlock means the receive queue is empty.
func Read(fd int, p []byte) (int, error) {
	n, err := unix.Read(fd, p)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return 0, api.ErrWouldBlock
		}
		return 0, fmt.Errorf("read: %w", err)
	}
	return n, nil
}

// Write sends p to fd. api.ErrWouldBlock means the send queue is full.
func Write(fd int, p []byte) (int, error) {
	n, err := unix.Write(fd, p)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return 0, api.ErrWouldBlock
		}
		return 0, fmt.Errorf("write: %w", err)
	}
	return n, nil
}

// CloseFd closes a raw descriptor not yet owned by an FD wrapper.
func CloseFd(fd int) error {
	return unix.Close(fd)
}
