//go:build unix

// File: internal/sockopt/listen_unix.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Nonblocking TCP listener setup on top of golang.org/x/sys/unix.

package sockopt

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-accept/api"
)

// ListenerOptions carries optional listening-socket tuning. Nil fields
// leave the OS default untouched.
type ListenerOptions struct {
	ReceiveBuffer *int
	ReuseAddress  *bool
}

// ListenStream creates a nonblocking TCP listening socket bound to addr
// with the given backlog, returning the wrapped descriptor and the actual
// bound address (resolving port 0). On any failure no descriptor leaks.
func ListenStream(addr *net.TCPAddr, backlog int, opts ListenerOptions) (*FD, *net.TCPAddr, error) {
	domain, sa, err := sockaddrOf(addr)
	if err != nil {
		return nil, nil, err
	}
	rawFd, err := newStreamSocket(domain)
	if err != nil {
		return nil, nil, fmt.Errorf("socket create: %w", err)
	}
	fd := NewFD(rawFd)

	if opts.ReuseAddress != nil {
		if err := unix.SetsockoptInt(rawFd, unix.SOL_SOCKET, unix.SO_REUSEADDR, boolToInt(*opts.ReuseAddress)); err != nil {
			fd.Close()
			return nil, nil, fmt.Errorf("set SO_REUSEADDR: %w", err)
		}
	}
	if opts.ReceiveBuffer != nil {
		if err := unix.SetsockoptInt(rawFd, unix.SOL_SOCKET, unix.SO_RCVBUF, *opts.ReceiveBuffer); err != nil {
			fd.Close()
			return nil, nil, fmt.Errorf("set SO_RCVBUF: %w", err)
		}
	}
	if err := unix.Bind(rawFd, sa); err != nil {
		fd.Close()
		return nil, nil, fmt.Errorf("bind %s: %w", addr, err)
	}
	if err := unix.Listen(rawFd, backlog); err != nil {
		fd.Close()
		return nil, nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	bound, err := LocalAddr(rawFd)
	if err != nil {
		fd.Close()
		return nil, nil, err
	}
	return fd, bound, nil
}

// AcceptOne plucks one pending connection from l's backlog without
// blocking. The returned descriptor is nonblocking and close-on-exec.
// api.ErrWouldBlock means the backlog is empty (or the kernel reported a
// transient abort) and interest should be re-armed; api.ErrListenerClosed
// means l was closed out from under the caller.
func AcceptOne(l *FD) (int, error) {
	rawFd, open := l.Raw()
	if !open {
		return -1, api.ErrListenerClosed
	}
	nfd, err := acceptStream(rawFd)
	if err == nil {
		return nfd, nil
	}
	switch err {
	case unix.EAGAIN, unix.ECONNABORTED, unix.EINTR:
		return -1, api.ErrWouldBlock
	case unix.EBADF, unix.EINVAL:
		return -1, api.ErrListenerClosed
	}
	return -1, fmt.Errorf("accept: %w", err)
}

// LocalAddr queries the socket's bound address.
func LocalAddr(fd int) (*net.TCPAddr, error) {
	sa, err := unix.Getsockname(fd)
	if err != nil {
		return nil, fmt.Errorf("getsockname: %w", err)
	}
	return tcpAddrOf(sa), nil
}

// RemoteAddr queries the socket's peer address.
func RemoteAddr(fd int) (*net.TCPAddr, error) {
	sa, err := unix.Getpeername(fd)
	if err != nil {
		return nil, fmt.Errorf("getpeername: %w", err)
	}
	return tcpAddrOf(sa), nil
}

// sockaddrOf converts a TCP address into the matching socket domain and
// unix.Sockaddr. A nil or IPv4 IP selects AF_INET.
func sockaddrOf(addr *net.TCPAddr) (int, unix.Sockaddr, error) {
	if addr == nil {
		return 0, nil, api.NewError(api.ErrCodeBind, "nil bind address")
	}
	ip := addr.IP
	if ip == nil {
		ip = net.IPv4zero
	}
	if ip4 := ip.To4(); ip4 != nil {
		sa := &unix.SockaddrInet4{Port: addr.Port}
		copy(sa.Addr[:], ip4)
		return unix.AF_INET, sa, nil
	}
	if ip16 := ip.To16(); ip16 != nil {
		sa := &unix.SockaddrInet6{Port: addr.Port}
		copy(sa.Addr[:], ip16)
		return unix.AF_INET6, sa, nil
	}
	return 0, nil, fmt.Errorf("unusable bind address %s", addr)
}

// tcpAddrOf converts a kernel sockaddr back into net.TCPAddr.
func tcpAddrOf(sa unix.Sockaddr) *net.TCPAddr {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return &net.TCPAddr{IP: append([]byte(nil), a.Addr[:]...), Port: a.Port}
	case *unix.SockaddrInet6:
		return &net.TCPAddr{IP: append([]byte(nil), a.Addr[:]...), Port: a.Port}
	default:
		return nil
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
