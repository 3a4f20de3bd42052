// File: api/executor.go
// Package api defines the Executor contract for parallel task dispatch.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Executor abstracts parallel task execution. Futures dispatch completion
// notifiers through an Executor so they never run on the completing thread.
type Executor interface {
	// Submit schedules task for execution.
	Submit(task func()) error

	// NumWorkers returns current number of active worker routines.
	NumWorkers() int
}
