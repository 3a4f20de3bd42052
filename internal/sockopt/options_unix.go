//go:build unix

// File: internal/sockopt/options_unix.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Per-connection socket option application and queries.

package sockopt

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// ConnOptions carries optional accepted-connection tuning. Nil fields
// leave the OS default untouched.
type ConnOptions struct {
	KeepAlive *bool
	OOBInline *bool
	NoDelay   *bool
}

// ApplyConnOptions sets each explicitly configured option on fd.
func ApplyConnOptions(fd int, opts ConnOptions) error {
	if opts.KeepAlive != nil {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_KEEPALIVE, boolToInt(*opts.KeepAlive)); err != nil {
			return fmt.Errorf("set SO_KEEPALIVE: %w", err)
		}
	}
	if opts.OOBInline != nil {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_OOBINLINE, boolToInt(*opts.OOBInline)); err != nil {
			return fmt.Errorf("set SO_OOBINLINE: %w", err)
		}
	}
	if opts.NoDelay != nil {
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, boolToInt(*opts.NoDelay)); err != nil {
			return fmt.Errorf("set TCP_NODELAY: %w", err)
		}
	}
	return nil
}

// KeepAlive reports the socket's SO_KEEPALIVE setting.
func KeepAlive(fd int) (bool, error) {
	return boolOption(fd, unix.SOL_SOCKET, unix.SO_KEEPALIVE)
}

// OOBInline reports the socket's SO_OOBINLINE setting.
func OOBInline(fd int) (bool, error) {
	return boolOption(fd, unix.SOL_SOCKET, unix.SO_OOBINLINE)
}

// NoDelay reports the socket's TCP_NODELAY setting.
func NoDelay(fd int) (bool, error) {
	return boolOption(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY)
}

// ReceiveBuffer reports the socket's SO_RCVBUF size.
func ReceiveBuffer(fd int) (int, error) {
	v, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF)
	if err != nil {
		return 0, fmt.Errorf("get SO_RCVBUF: %w", err)
	}
	return v, nil
}

func boolOption(fd, level, opt int) (bool, error) {
	v, err := unix.GetsockoptInt(fd, level, opt)
	if err != nil {
		return false, fmt.Errorf("getsockopt: %w", err)
	}
	return v != 0, nil
}
