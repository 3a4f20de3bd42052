// File: api/conn.go
// Package api defines the accepted-connection capability surface.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import "net"

// Conn is an established, nonblocking connection produced by an acceptor.
// Read and Write return ErrWouldBlock instead of blocking when no data or
// buffer space is available.
type Conn interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)

	// Close releases the socket. Idempotent.
	Close() error

	// LocalAddr returns the locally bound address.
	LocalAddr() net.Addr

	// RemoteAddr returns the peer address.
	RemoteAddr() net.Addr
}
