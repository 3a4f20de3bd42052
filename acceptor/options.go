// File: acceptor/options.go
// Package acceptor defines functional options for the Acceptor.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package acceptor

import "github.com/momentics/hioload-accept/tracker"

// Option customizes acceptor initialization. Socket options left unset
// keep the OS default on every socket the acceptor creates.
type Option func(*Acceptor)

// WithKeepAlive sets SO_KEEPALIVE on accepted connections.
func WithKeepAlive(enable bool) Option {
	return func(a *Acceptor) {
		a.keepAlive = &enable
	}
}

// WithOOBInline sets SO_OOBINLINE on accepted connections.
func WithOOBInline(enable bool) Option {
	return func(a *Acceptor) {
		a.oobInline = &enable
	}
}

// WithNoDelay sets TCP_NODELAY on accepted connections.
func WithNoDelay(enable bool) Option {
	return func(a *Acceptor) {
		a.noDelay = &enable
	}
}

// WithReceiveBuffer sets SO_RCVBUF on listening sockets.
func WithReceiveBuffer(size int) Option {
	return func(a *Acceptor) {
		a.receiveBuffer = &size
	}
}

// WithReuseAddress sets SO_REUSEADDR on listening sockets.
func WithReuseAddress(enable bool) Option {
	return func(a *Acceptor) {
		a.reuseAddress = &enable
	}
}

// WithManagedRegistry registers successfully accepted connections with reg
// for coordinated bulk shutdown.
func WithManagedRegistry(reg *tracker.Registry) Option {
	return func(a *Acceptor) {
		a.managed = reg
	}
}
