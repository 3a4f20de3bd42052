// File: acceptor/acceptor.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Acceptor entry point: per-instance socket configuration, the closed
// flag, and the request path that either completes synchronously or hands
// off to a pendingAccept registered with the reactor.

package acceptor

import (
	"errors"
	"fmt"
	"log"
	"net"
	"sync"

	"github.com/momentics/hioload-accept/api"
	"github.com/momentics/hioload-accept/future"
	"github.com/momentics/hioload-accept/internal/sockopt"
	"github.com/momentics/hioload-accept/tracker"
	"github.com/momentics/hioload-accept/transport"
)

// Acceptor creates single-shot accept requests against a shared reactor.
// All methods are safe for concurrent use.
type Acceptor struct {
	reactor api.Reactor

	keepAlive     *bool
	oobInline     *bool
	noDelay       *bool
	receiveBuffer *int
	reuseAddress  *bool
	managed       *tracker.Registry

	mu     sync.Mutex
	closed bool
}

// New constructs an Acceptor dispatching readiness through r.
func New(r api.Reactor, opts ...Option) *Acceptor {
	a := &Acceptor{reactor: r}
	for _, o := range opts {
		o(a)
	}
	return a
}

// AcceptTo starts one accept request bound to addr and returns its future
// without blocking. Errors before reactor registration surface as an
// already-failed future; everything later arrives through the future.
func (a *Acceptor) AcceptTo(addr *net.TCPAddr, handler api.OpenHandler) api.ConnFuture {
	// The lock covers only the closed check and socket creation, so no new
	// listener appears after Close. The handler and the reactor run outside
	// it; an open handler may call back into this acceptor.
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return future.NewFailed(
			api.NewError(api.ErrCodeAcceptorClosed, "accept request on closed acceptor").
				WithCause(api.ErrAcceptorClosed), addr)
	}
	lfd, bound, err := sockopt.ListenStream(addr, 1, sockopt.ListenerOptions{
		ReceiveBuffer: a.receiveBuffer,
		ReuseAddress:  a.reuseAddress,
	})
	a.mu.Unlock()
	if err != nil {
		return future.NewFailed(
			api.NewError(api.ErrCodeBind, "listener setup failed").
				WithCause(err).WithContext("addr", addr.String()), addr)
	}

	// A peer may already sit in the backlog. One-shot semantics apply on
	// this path too: the listener is released before the future returns.
	nfd, err := sockopt.AcceptOne(lfd)
	if err == nil {
		lfd.Close()
		conn, estErr := a.establish(nfd, handler)
		if estErr != nil {
			return future.NewFailed(estErr, bound)
		}
		return future.NewCompleted(conn)
	}
	if !errors.Is(err, api.ErrWouldBlock) {
		lfd.Close()
		return future.NewFailed(
			api.NewError(api.ErrCodeAcceptIO, "initial accept failed").
				WithCause(err).WithContext("addr", bound.String()), bound)
	}

	p := newPendingAccept(a, lfd, bound, handler)
	h, err := a.reactor.Register(lfd.Sys(), p.onReady, false)
	if err != nil {
		lfd.Close()
		return future.NewFailed(
			api.NewError(api.ErrCodeAcceptIO, "reactor registration failed").
				WithCause(err).WithContext("addr", bound.String()), bound)
	}
	p.setHandle(h)
	if err := h.Resume(api.Readable); err != nil {
		h.Close()
		lfd.Close()
		return future.NewFailed(
			api.NewError(api.ErrCodeAcceptIO, "arming readiness interest failed").
				WithCause(err).WithContext("addr", bound.String()), bound)
	}
	return p.future
}

// Close permanently disables new accept requests. Requests already in
// flight are unaffected. Idempotent and safe from any goroutine.
func (a *Acceptor) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.closed {
		log.Printf("[acceptor] closing %p", a)
		a.closed = true
	}
}

// Destination is a bound accept factory for one address, mirroring the
// acceptor's configuration.
type Destination struct {
	a    *Acceptor
	addr *net.TCPAddr
}

// Destination returns an accept factory fixed to addr.
func (a *Acceptor) Destination(addr *net.TCPAddr) Destination {
	return Destination{a: a, addr: addr}
}

// Accept starts one accept request at the bound address.
func (d Destination) Accept(handler api.OpenHandler) api.ConnFuture {
	return d.a.AcceptTo(d.addr, handler)
}

// establish turns a freshly accepted descriptor into a configured,
// handler-approved connection. On any failure the descriptor is released
// and a classified error is returned; ownership of a successful result
// passes to the caller (and to the managed registry when enabled).
func (a *Acceptor) establish(nfd int, handler api.OpenHandler) (api.Conn, error) {
	if err := sockopt.ApplyConnOptions(nfd, sockopt.ConnOptions{
		KeepAlive: a.keepAlive,
		OOBInline: a.oobInline,
		NoDelay:   a.noDelay,
	}); err != nil {
		sockopt.CloseFd(nfd)
		return nil, api.NewError(api.ErrCodeAcceptIO, "connection configuration failed").WithCause(err)
	}
	conn, err := transport.NewConn(nfd)
	if err != nil {
		return nil, api.NewError(api.ErrCodeAcceptIO, "connection setup failed").WithCause(err)
	}
	ok, herr := safeOnOpen(handler, conn)
	if herr != nil {
		// No close-side callback fires here: the open handler never
		// completed, so there is nothing paired to release.
		conn.Close()
		return nil, herr
	}
	if !ok {
		conn.Close()
		log.Printf("[acceptor] open handler rejected connection from %s", conn.RemoteAddr())
		return nil, api.NewError(api.ErrCodeHandlerRejected, "connection rejected").
			WithCause(api.ErrHandlerRejected)
	}
	if a.managed != nil {
		a.managed.Register(conn)
	}
	return conn, nil
}

// safeOnOpen invokes the open handler, converting panics and errors into a
// classified handler failure.
func safeOnOpen(handler api.OpenHandler, conn api.Conn) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			err = api.NewError(api.ErrCodeHandlerFailure, fmt.Sprintf("open handler panic: %v", r))
		}
	}()
	ok, herr := handler.OnOpen(conn)
	if herr != nil {
		return false, api.NewError(api.ErrCodeHandlerFailure, "open handler failed").WithCause(herr)
	}
	return ok, nil
}
