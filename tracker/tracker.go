// File: tracker/tracker.go
// Package tracker implements the managed-connection registry.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Accepted connections registered here stay reachable for coordinated bulk
// shutdown. Registration is fire-and-forget from the acceptor's point of
// view; a connection that closes itself should call Remove.

package tracker

import (
	"log"
	"sync"

	"github.com/momentics/hioload-accept/api"
)

// Registry tracks live managed connections.
type Registry struct {
	mu    sync.RWMutex
	conns map[api.Conn]struct{}
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[api.Conn]struct{})}
}

// Register adds conn to the registry. Registering twice is a no-op.
func (r *Registry) Register(conn api.Conn) {
	if conn == nil {
		return
	}
	r.mu.Lock()
	r.conns[conn] = struct{}{}
	r.mu.Unlock()
}

// Remove drops conn from the registry without closing it.
func (r *Registry) Remove(conn api.Conn) {
	r.mu.Lock()
	delete(r.conns, conn)
	r.mu.Unlock()
}

// Len returns the number of tracked connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Range invokes fn for every tracked connection.
func (r *Registry) Range(fn func(conn api.Conn)) {
	r.mu.RLock()
	snapshot := make([]api.Conn, 0, len(r.conns))
	for c := range r.conns {
		snapshot = append(snapshot, c)
	}
	r.mu.RUnlock()
	for _, c := range snapshot {
		fn(c)
	}
}

// CloseAll closes and drops every tracked connection. Close failures are
// logged and do not stop the sweep.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	snapshot := make([]api.Conn, 0, len(r.conns))
	for c := range r.conns {
		snapshot = append(snapshot, c)
	}
	r.conns = make(map[api.Conn]struct{})
	r.mu.Unlock()
	for _, c := range snapshot {
		if err := c.Close(); err != nil {
			log.Printf("[tracker] close: %v", err)
		}
	}
}
