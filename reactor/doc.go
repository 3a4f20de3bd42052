// File: reactor/doc.go
// Author: momentics <momentics@gmail.com>
//
// Package reactor provides the platform readiness reactor behind
// api.Reactor. Registrations are oneshot: after a callback fires the
// registration is disarmed until the owner calls Resume again, which is
// what guarantees callbacks for one registration never run concurrently.
// Callbacks are dispatched on the executor supplied at construction.
package reactor
