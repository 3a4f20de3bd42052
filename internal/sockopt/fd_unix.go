//go:build unix

// File: internal/sockopt/fd_unix.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Close-exactly-once descriptor wrapper. Concurrent closers race on an
// atomic flag; the loser observes a no-op, never a second close(2) on a
// possibly reused descriptor number.

package sockopt

import (
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// FD wraps an open file descriptor with idempotent close semantics.
type FD struct {
	fd     int
	closed int32
}

// NewFD wraps fd. Ownership transfers to the returned FD.
func NewFD(fd int) *FD {
	return &FD{fd: fd}
}

// Raw returns the descriptor number and whether the FD is still open.
// A caller holding a false result must not issue syscalls on the number.
func (f *FD) Raw() (int, bool) {
	return f.fd, atomic.LoadInt32(&f.closed) == 0
}

// Sys returns the descriptor as uintptr for reactor registration.
func (f *FD) Sys() uintptr {
	return uintptr(f.fd)
}

// Closed reports whether Close has taken effect.
func (f *FD) Closed() bool {
	return atomic.LoadInt32(&f.closed) != 0
}

// Close releases the descriptor. Only the first call reaches close(2);
// later calls return nil.
func (f *FD) Close() error {
	if !atomic.CompareAndSwapInt32(&f.closed, 0, 1) {
		return nil
	}
	return unix.Close(f.fd)
}
