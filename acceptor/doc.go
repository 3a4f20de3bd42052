// File: acceptor/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package acceptor implements the asynchronous single-shot TCP accept
// primitive. Each request binds a fresh listening socket with a backlog of
// one, waits for readiness through the reactor without blocking the
// caller, and delivers exactly one established, fully configured
// connection through a future. The listening socket is released as soon as
// the request reaches a terminal state, whichever way it gets there.
package acceptor
