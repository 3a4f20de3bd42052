//go:build !linux

// File: reactor/reactor_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub factory for platforms without a poller backend yet.

package reactor

import "github.com/momentics/hioload-accept/api"

// New reports the reactor as unsupported on this platform.
func New(exec api.Executor) (api.Reactor, error) {
	return nil, api.ErrNotSupported
}
