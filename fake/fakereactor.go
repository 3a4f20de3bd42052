// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

// Package fake provides test doubles for the reactor and executor
// contracts so acceptor and future behavior can be driven deterministically.
package fake

import (
	"sync"

	"github.com/momentics/hioload-accept/api"
)

// Handle is a recorded fake registration.
type Handle struct {
	mu       sync.Mutex
	cb       api.Callback
	armed    api.Interest
	resumes  int
	suspends int
	closed   bool
}

// Resume implements api.Handle.
func (h *Handle) Resume(interest api.Interest) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return api.ErrListenerClosed
	}
	h.armed = interest
	h.resumes++
	return nil
}

// Suspend implements api.Handle.
func (h *Handle) Suspend() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.armed = 0
	h.suspends++
	return nil
}

// Close implements api.Handle.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

// Resumes reports how many times Resume ran.
func (h *Handle) Resumes() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.resumes
}

// Armed reports the currently armed interest.
func (h *Handle) Armed() api.Interest {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.armed
}

// Closed reports whether the registration was dropped.
func (h *Handle) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// Fire invokes the registered callback synchronously, simulating a
// reactor readiness dispatch. The armed interest is cleared first, the
// way a oneshot registration disarms before its callback runs.
func (h *Handle) Fire() {
	h.mu.Lock()
	cb := h.cb
	h.armed = 0
	h.mu.Unlock()
	cb()
}

// Reactor is a manually driven api.Reactor.
type Reactor struct {
	mu          sync.Mutex
	handles     []*Handle
	registerErr error
}

var _ api.Reactor = (*Reactor)(nil)

// NewReactor constructs an empty fake reactor.
func NewReactor() *Reactor {
	return &Reactor{}
}

// FailRegistrations makes every subsequent Register return err.
func (r *Reactor) FailRegistrations(err error) {
	r.mu.Lock()
	r.registerErr = err
	r.mu.Unlock()
}

// Register implements api.Reactor.
func (r *Reactor) Register(fd uintptr, cb api.Callback, armed bool) (api.Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.registerErr != nil {
		return nil, r.registerErr
	}
	h := &Handle{cb: cb}
	if armed {
		h.armed = api.Readable
	}
	r.handles = append(r.handles, h)
	return h, nil
}

// Close implements api.Reactor.
func (r *Reactor) Close() error {
	return nil
}

// Handles returns all registrations made so far.
func (r *Reactor) Handles() []*Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Handle(nil), r.handles...)
}

// Last returns the most recent registration, or nil.
func (r *Reactor) Last() *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.handles) == 0 {
		return nil
	}
	return r.handles[len(r.handles)-1]
}
