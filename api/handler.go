// File: api/handler.go
// Package api defines the OpenHandler interface.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// OpenHandler is the caller-supplied per-request decision point for newly
// accepted connections.
type OpenHandler interface {
	// OnOpen inspects the connection and returns true to keep it.
	// Returning false or an error means "reject": the acceptor closes the
	// connection and no close-side callback is ever invoked for it.
	OnOpen(conn Conn) (bool, error)
}

// OpenHandlerFunc adapts a plain function to OpenHandler.
type OpenHandlerFunc func(conn Conn) (bool, error)

// OnOpen implements OpenHandler.
func (f OpenHandlerFunc) OnOpen(conn Conn) (bool, error) {
	return f(conn)
}
