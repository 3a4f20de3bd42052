// File: internal/concurrency/executor.go
// Package concurrency implements the worker-pool executor used for
// notifier dispatch and reactor callback execution.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/momentics/hioload-accept/api"
)

// TaskFunc is a unit of work to execute. It aliases func() so the
// executor satisfies api.Executor directly.
type TaskFunc = func()

// Executor manages a pool of worker goroutines.
type Executor struct {
	tasks      chan TaskFunc
	closeCh    chan struct{}
	closed     int32 // atomic flag: 1 if closed
	numWorkers int32
	wg         sync.WaitGroup

	// statistics
	totalTasks     int64
	completedTasks int64
}

var _ api.Executor = (*Executor)(nil)

// NewExecutor creates an Executor with the given number of workers.
// If numWorkers <= 0, defaults to runtime.NumCPU().
func NewExecutor(numWorkers int) *Executor {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	e := &Executor{
		tasks:      make(chan TaskFunc, numWorkers*16),
		closeCh:    make(chan struct{}),
		numWorkers: int32(numWorkers),
	}
	e.wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go e.run()
	}
	return e
}

// Submit enqueues a task, returning api.ErrExecutorClosed after Close.
func (e *Executor) Submit(task TaskFunc) error {
	if atomic.LoadInt32(&e.closed) == 1 {
		return api.ErrExecutorClosed
	}
	atomic.AddInt64(&e.totalTasks, 1)
	select {
	case e.tasks <- task:
		return nil
	case <-e.closeCh:
		return api.ErrExecutorClosed
	}
}

// NumWorkers returns the number of worker goroutines.
func (e *Executor) NumWorkers() int {
	return int(atomic.LoadInt32(&e.numWorkers))
}

// Close shuts down the executor and waits for workers to drain.
// Tasks already queued still run; new submissions are refused.
func (e *Executor) Close() {
	if atomic.CompareAndSwapInt32(&e.closed, 0, 1) {
		close(e.closeCh)
		e.wg.Wait()
	}
}

// Stats returns basic executor metrics.
func (e *Executor) Stats() map[string]int64 {
	return map[string]int64{
		"total_tasks":     atomic.LoadInt64(&e.totalTasks),
		"completed_tasks": atomic.LoadInt64(&e.completedTasks),
		"pending_tasks":   atomic.LoadInt64(&e.totalTasks) - atomic.LoadInt64(&e.completedTasks),
		"num_workers":     int64(e.NumWorkers()),
	}
}

// run is the main worker loop. On shutdown the remaining queue is drained
// before the worker exits.
func (e *Executor) run() {
	defer e.wg.Done()
	for {
		select {
		case task := <-e.tasks:
			e.executeTask(task)
		case <-e.closeCh:
			for {
				select {
				case task := <-e.tasks:
					e.executeTask(task)
				default:
					return
				}
			}
		}
	}
}

// executeTask runs the task under panic recovery to keep the worker alive.
func (e *Executor) executeTask(task TaskFunc) {
	defer func() {
		if r := recover(); r != nil {
			// swallow panic to keep worker alive
		}
		atomic.AddInt64(&e.completedTasks, 1)
	}()
	task()
}
