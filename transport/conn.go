// File: transport/conn.go
// Package transport implements the accepted-connection object.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A Conn wraps one accepted nonblocking socket. Reads and writes never
// block: when the kernel has nothing to give or no room to take, the call
// returns api.ErrWouldBlock and the caller re-arms readiness interest.

package transport

import (
	"net"

	"github.com/momentics/hioload-accept/api"
	"github.com/momentics/hioload-accept/internal/sockopt"
)

// Conn is an established TCP connection over a raw descriptor.
type Conn struct {
	fd     *sockopt.FD
	local  net.Addr
	remote net.Addr
}

var _ api.Conn = (*Conn)(nil)

// NewConn takes ownership of the accepted descriptor fd and captures both
// endpoint addresses. On address-query failure the descriptor is closed.
func NewConn(fd int) (*Conn, error) {
	local, err := sockopt.LocalAddr(fd)
	if err != nil {
		sockopt.CloseFd(fd)
		return nil, err
	}
	remote, err := sockopt.RemoteAddr(fd)
	if err != nil {
		sockopt.CloseFd(fd)
		return nil, err
	}
	return &Conn{fd: sockopt.NewFD(fd), local: local, remote: remote}, nil
}

// Read fills p with available bytes. Returns api.ErrWouldBlock when the
// receive queue is empty.
func (c *Conn) Read(p []byte) (int, error) {
	rawFd, open := c.fd.Raw()
	if !open {
		return 0, api.ErrConnClosed
	}
	return sockopt.Read(rawFd, p)
}

// Write sends as much of p as the kernel will take. Returns
// api.ErrWouldBlock when the send queue is full.
func (c *Conn) Write(p []byte) (int, error) {
	rawFd, open := c.fd.Raw()
	if !open {
		return 0, api.ErrConnClosed
	}
	return sockopt.Write(rawFd, p)
}

// Close releases the socket. Idempotent.
func (c *Conn) Close() error {
	return c.fd.Close()
}

// LocalAddr returns the locally bound address.
func (c *Conn) LocalAddr() net.Addr {
	return c.local
}

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.remote
}

// Fd exposes the raw descriptor, e.g. for reactor registration of the
// established connection. The second result is false once Close ran.
func (c *Conn) Fd() (int, bool) {
	return c.fd.Raw()
}

// KeepAlive reports the connection's SO_KEEPALIVE setting.
func (c *Conn) KeepAlive() (bool, error) {
	rawFd, open := c.fd.Raw()
	if !open {
		return false, api.ErrConnClosed
	}
	return sockopt.KeepAlive(rawFd)
}

// OOBInline reports the connection's SO_OOBINLINE setting.
func (c *Conn) OOBInline() (bool, error) {
	rawFd, open := c.fd.Raw()
	if !open {
		return false, api.ErrConnClosed
	}
	return sockopt.OOBInline(rawFd)
}

// NoDelay reports the connection's TCP_NODELAY setting.
func (c *Conn) NoDelay() (bool, error) {
	rawFd, open := c.fd.Raw()
	if !open {
		return false, api.ErrConnClosed
	}
	return sockopt.NoDelay(rawFd)
}
