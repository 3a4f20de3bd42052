// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package fake

import (
	"sync"

	"github.com/momentics/hioload-accept/api"
)

// Executor runs submitted tasks inline on the calling goroutine, which
// makes notifier delivery synchronous and assertable in tests.
type Executor struct {
	mu        sync.Mutex
	submitted int
	err       error
}

var _ api.Executor = (*Executor)(nil)

// NewExecutor constructs an inline executor.
func NewExecutor() *Executor {
	return &Executor{}
}

// FailSubmissions makes every subsequent Submit return err without
// running the task.
func (e *Executor) FailSubmissions(err error) {
	e.mu.Lock()
	e.err = err
	e.mu.Unlock()
}

// Submit implements api.Executor.
func (e *Executor) Submit(task func()) error {
	e.mu.Lock()
	e.submitted++
	err := e.err
	e.mu.Unlock()
	if err != nil {
		return err
	}
	task()
	return nil
}

// NumWorkers implements api.Executor.
func (e *Executor) NumWorkers() int {
	return 1
}

// Submitted reports how many tasks were handed in.
func (e *Executor) Submitted() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.submitted
}
