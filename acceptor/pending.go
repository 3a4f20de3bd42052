// File: acceptor/pending.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// pendingAccept is the reactor callback object for one in-flight request.
// It owns the listening socket and the registration handle, and completes
// the request's future exactly once. The reactor's oneshot dispatch keeps
// onReady invocations serialized; the descriptor's close-once flag is the
// synchronization point against concurrent cancellation.

package acceptor

import (
	"errors"
	"log"
	"net"
	"sync"

	"github.com/momentics/hioload-accept/api"
	"github.com/momentics/hioload-accept/future"
	"github.com/momentics/hioload-accept/internal/sockopt"
)

type pendingAccept struct {
	acceptor *Acceptor
	listener *sockopt.FD
	handler  api.OpenHandler
	future   *future.Future

	mu     sync.Mutex
	handle api.Handle
}

func newPendingAccept(a *Acceptor, listener *sockopt.FD, bound *net.TCPAddr, handler api.OpenHandler) *pendingAccept {
	p := &pendingAccept{
		acceptor: a,
		listener: listener,
		handler:  handler,
	}
	p.future = future.New(bound, p.cancel)
	return p
}

// setHandle stores the registration token once the reactor returns it.
func (p *pendingAccept) setHandle(h api.Handle) {
	p.mu.Lock()
	p.handle = h
	p.mu.Unlock()
}

func (p *pendingAccept) getHandle() api.Handle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.handle
}

// onReady runs on a reactor worker when the listener reports acceptable
// readiness.
func (p *pendingAccept) onReady() {
	nfd, err := sockopt.AcceptOne(p.listener)
	if err != nil {
		if errors.Is(err, api.ErrWouldBlock) {
			// Spurious wakeup: nothing in the backlog after all.
			if rerr := p.getHandle().Resume(api.Readable); rerr != nil {
				p.terminate(api.NewError(api.ErrCodeClosedDuringWait, "listener invalidated while re-arming").WithCause(rerr))
			}
			return
		}
		if errors.Is(err, api.ErrListenerClosed) {
			log.Printf("[acceptor] listener closed while awaiting connection")
			p.terminate(api.NewError(api.ErrCodeClosedDuringWait, "listener closed while awaiting connection").WithCause(err))
			return
		}
		log.Printf("[acceptor] accept I/O error: %v", err)
		p.terminate(api.NewError(api.ErrCodeAcceptIO, "accept failed").WithCause(err))
		return
	}

	// Exactly one connection per request: the listener goes away before
	// the connection is even configured.
	p.release()
	conn, estErr := p.acceptor.establish(nfd, p.handler)
	if estErr != nil {
		p.future.Fail(estErr)
		return
	}
	if !p.future.Complete(conn) {
		// Lost the race against cancellation; the connection has no owner.
		conn.Close()
		if p.acceptor.managed != nil {
			p.acceptor.managed.Remove(conn)
		}
	}
}

// cancel is installed as the future's canceller. Closing the listener here
// makes a concurrently running onReady observe a dead descriptor instead
// of a freed one.
func (p *pendingAccept) cancel() {
	p.release()
}

// terminate releases owned resources and fails the future. The Fail is a
// no-op when cancellation already won.
func (p *pendingAccept) terminate(err error) {
	p.release()
	p.future.Fail(err)
}

// release drops the reactor registration and closes the listening socket,
// in that order: once the descriptor is closed the kernel may hand the
// same number to a concurrent request, and a late deregistration would
// then hit the reused number. Both operations are idempotent, so every
// terminal path may call this.
func (p *pendingAccept) release() {
	if h := p.getHandle(); h != nil {
		h.Close()
	}
	p.listener.Close()
}
