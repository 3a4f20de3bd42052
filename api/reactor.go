// File: api/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Defines the abstract interface for event-driven IO reactors used to
// multiplex readiness notifications for nonblocking sockets. A registration
// is oneshot: after a callback fires, interest must be re-armed via Resume.

package api

// Interest selects which readiness condition a registration waits for.
type Interest uint32

const (
	// Readable fires when a read or accept would not block.
	Readable Interest = 1 << iota
	// Writable fires when a write or connect would not block.
	Writable
)

// Callback is invoked by the reactor on one of its worker goroutines when
// the armed interest fires. Callbacks for the same Handle never run
// concurrently with each other.
type Callback func()

// Handle is the registration token returned by Reactor.Register. It is
// owned by exactly one registrant.
type Handle interface {
	// Resume arms (or re-arms) interest for one more readiness event.
	Resume(interest Interest) error

	// Suspend disarms interest without dropping the registration.
	Suspend() error

	// Close deregisters the callback. Idempotent. The registrant remains
	// responsible for closing the underlying descriptor.
	Close() error
}

// Reactor multiplexes readiness events for registered descriptors and
// dispatches callbacks, regardless of the polling mechanism underneath.
type Reactor interface {
	// Register associates fd with cb. When armed is true the registration
	// starts with Readable interest armed; otherwise it starts suspended.
	Register(fd uintptr, cb Callback, armed bool) (Handle, error)

	// Close shuts down the poller backend and drops all registrations.
	Close() error
}
