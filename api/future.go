// File: api/future.go
// Author: momentics <momentics@gmail.com>
//
// Future/promise surface for asynchronous connection establishment.
// A ConnFuture is completed exactly once and may be observed, notified on,
// and cancelled from any goroutine.

package api

import "net"

// FutureState is the observable state of a ConnFuture. Transitions are
// monotonic: once the state leaves StatePending it never changes again.
type FutureState int32

const (
	StatePending FutureState = iota
	StateSucceeded
	StateFailed
	StateCancelled
)

// String returns a human-readable state name.
func (s FutureState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Notifier is a completion callback registered on a ConnFuture. It receives
// the future itself and runs on the Executor supplied at registration.
type Notifier func(f ConnFuture)

// ConnFuture is the eventual result of one accept request.
type ConnFuture interface {
	// State reports the current state without blocking.
	State() FutureState

	// Result returns the connection or error once the future is terminal.
	// In StatePending it returns (nil, nil); in StateCancelled it returns
	// (nil, the cancellation error).
	Result() (Conn, error)

	// LocalAddr returns the address the listening socket was bound to.
	// Available in every state, including after the listener is closed.
	LocalAddr() net.Addr

	// Notify registers fn for completion delivery on exec. A nil exec
	// falls back to a dedicated goroutine. If the future is already
	// terminal, fn is dispatched immediately. Each registered notifier
	// is invoked exactly once.
	Notify(exec Executor, fn Notifier)

	// Cancel aborts the pending request, releasing its listening socket.
	// Returns ErrFutureCompleted if the future was already terminal.
	Cancel() error
}
