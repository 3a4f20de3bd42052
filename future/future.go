// File: future/future.go
// Package future implements the single-assignment connection future.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A Future is completed exactly once by whichever of Complete, Fail or
// Cancel wins; all later attempts are no-ops. Completion notifiers are kept
// in a FIFO and dispatched on the executor supplied at registration, never
// inline on the completing goroutine.

package future

import (
	"log"
	"net"
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"

	"github.com/momentics/hioload-accept/api"
)

// notifierEntry pairs a registered notifier with its execution context.
type notifierEntry struct {
	exec api.Executor
	fn   api.Notifier
}

// Future is the concrete api.ConnFuture produced by accept requests.
type Future struct {
	state int32 // atomic api.FutureState

	mu        sync.Mutex
	conn      api.Conn
	err       error
	notifiers *queue.Queue // of notifierEntry, drained on completion

	localAddr net.Addr
	canceller func() // releases the pending request's listening socket
}

var _ api.ConnFuture = (*Future)(nil)

// New creates a pending future. localAddr is the bound listener address,
// captured before the listener can be closed. canceller is invoked by
// Cancel to release the listening socket; it must tolerate being called
// after the socket is already closed.
func New(localAddr net.Addr, canceller func()) *Future {
	return &Future{
		notifiers: queue.New(),
		localAddr: localAddr,
		canceller: canceller,
	}
}

// NewCompleted creates a future already succeeded with conn.
func NewCompleted(conn api.Conn) *Future {
	f := New(conn.LocalAddr(), nil)
	f.Complete(conn)
	return f
}

// NewFailed creates a future already failed with err. localAddr may be nil
// when the listener was never bound.
func NewFailed(err error, localAddr net.Addr) *Future {
	f := New(localAddr, nil)
	f.Fail(err)
	return f
}

// State implements api.ConnFuture.
func (f *Future) State() api.FutureState {
	return api.FutureState(atomic.LoadInt32(&f.state))
}

// Result implements api.ConnFuture.
func (f *Future) Result() (api.Conn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.conn, f.err
}

// LocalAddr implements api.ConnFuture.
func (f *Future) LocalAddr() net.Addr {
	return f.localAddr
}

// Complete transitions the future to StateSucceeded with conn. Returns
// false if the future was already terminal.
func (f *Future) Complete(conn api.Conn) bool {
	return f.finish(api.StateSucceeded, conn, nil)
}

// Fail transitions the future to StateFailed with err. Returns false if
// the future was already terminal.
func (f *Future) Fail(err error) bool {
	return f.finish(api.StateFailed, nil, err)
}

// Cancel implements api.ConnFuture. The canceller runs before the state
// transition so a racing readiness callback observes the closed socket;
// it is safe to run even when the future turns out to be terminal already.
func (f *Future) Cancel() error {
	if f.canceller != nil {
		f.canceller()
	}
	cancelErr := api.NewError(api.ErrCodeCancelled, "accept request cancelled")
	if !f.finish(api.StateCancelled, nil, cancelErr) {
		return api.ErrFutureCompleted
	}
	return nil
}

// finish performs the single-assignment transition and drains notifiers.
func (f *Future) finish(state api.FutureState, conn api.Conn, err error) bool {
	f.mu.Lock()
	if api.FutureState(atomic.LoadInt32(&f.state)) != api.StatePending {
		f.mu.Unlock()
		return false
	}
	f.conn = conn
	f.err = err
	atomic.StoreInt32(&f.state, int32(state))
	pending := f.notifiers
	f.notifiers = queue.New()
	f.mu.Unlock()

	for pending.Length() > 0 {
		entry := pending.Remove().(notifierEntry)
		f.dispatch(entry)
	}
	return true
}

// Notify implements api.ConnFuture. A notifier registered after completion
// is still dispatched, immediately, on its executor.
func (f *Future) Notify(exec api.Executor, fn api.Notifier) {
	if fn == nil {
		return
	}
	entry := notifierEntry{exec: exec, fn: fn}
	f.mu.Lock()
	if api.FutureState(atomic.LoadInt32(&f.state)) == api.StatePending {
		f.notifiers.Add(entry)
		f.mu.Unlock()
		return
	}
	f.mu.Unlock()
	f.dispatch(entry)
}

// dispatch hands one notifier to its executor. Without an executor the
// notifier runs on a fresh goroutine, keeping it off the completing
// goroutine while still delivering exactly once. A panicking notifier is
// isolated and logged so it cannot disturb other notifiers or the caller.
func (f *Future) dispatch(entry notifierEntry) {
	run := func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[future] notifier panic: %v", r)
			}
		}()
		entry.fn(f)
	}
	if entry.exec == nil {
		go run()
		return
	}
	if err := entry.exec.Submit(run); err != nil {
		log.Printf("[future] notifier dispatch failed: %v", err)
	}
}
