//go:build !unix

// File: internal/sockopt/sockopt_stub.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Stub so the module compiles on platforms without the raw socket layer.

package sockopt

import (
	"net"

	"github.com/momentics/hioload-accept/api"
)

// FD is a placeholder descriptor wrapper on unsupported platforms.
type FD struct{}

func NewFD(fd int) *FD { return &FD{} }

func (f *FD) Raw() (int, bool) { return -1, false }

func (f *FD) Sys() uintptr { return 0 }

func (f *FD) Closed() bool { return true }

func (f *FD) Close() error { return nil }

type ListenerOptions struct {
	ReceiveBuffer *int
	ReuseAddress  *bool
}

type ConnOptions struct {
	KeepAlive *bool
	OOBInline *bool
	NoDelay   *bool
}

func ListenStream(addr *net.TCPAddr, backlog int, opts ListenerOptions) (*FD, *net.TCPAddr, error) {
	return nil, nil, api.ErrNotSupported
}

func AcceptOne(l *FD) (int, error) { return -1, api.ErrNotSupported }

func Read(fd int, p []byte) (int, error) { return 0, api.ErrNotSupported }

func Write(fd int, p []byte) (int, error) { return 0, api.ErrNotSupported }

func CloseFd(fd int) error { return api.ErrNotSupported }

func ApplyConnOptions(fd int, opts ConnOptions) error { return api.ErrNotSupported }

func LocalAddr(fd int) (*net.TCPAddr, error) { return nil, api.ErrNotSupported }

func RemoteAddr(fd int) (*net.TCPAddr, error) { return nil, api.ErrNotSupported }

func KeepAlive(fd int) (bool, error) { return false, api.ErrNotSupported }

func OOBInline(fd int) (bool, error) { return false, api.ErrNotSupported }

func NoDelay(fd int) (bool, error) { return false, api.ErrNotSupported }

func ReceiveBuffer(fd int) (int, error) { return 0, api.ErrNotSupported }
