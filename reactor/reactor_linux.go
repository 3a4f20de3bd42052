//go:build linux

// File: reactor/reactor_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux epoll(7)-based oneshot reactor implementation and factory.

package reactor

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-accept/api"
)

// linuxReactor is an epoll-based readiness reactor with oneshot handles.
type linuxReactor struct {
	epfd  int
	exec  api.Executor
	wakeR int
	wakeW int

	mu      sync.Mutex
	handles map[int]*linuxHandle // keyed by registered fd

	closed int32
	done   chan struct{}
}

// New constructs the platform reactor and starts its poll loop. Callbacks
// are dispatched on exec.
func New(exec api.Executor) (api.Reactor, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll create: %w", err)
	}
	var pipeFds [2]int
	if err := unix.Pipe2(pipeFds[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		unix.Close(epfd)
		return nil, fmt.Errorf("wake pipe: %w", err)
	}
	r := &linuxReactor{
		epfd:    epfd,
		exec:    exec,
		wakeR:   pipeFds[0],
		wakeW:   pipeFds[1],
		handles: make(map[int]*linuxHandle),
		done:    make(chan struct{}),
	}
	// The wake pipe is the only level-triggered, permanently armed entry.
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(r.wakeR)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, r.wakeR, &ev); err != nil {
		r.closeFds()
		return nil, fmt.Errorf("epoll ctl add wake: %w", err)
	}
	go r.loop()
	return r, nil
}

// Register implements api.Reactor.
func (r *linuxReactor) Register(fd uintptr, cb api.Callback, armed bool) (api.Handle, error) {
	if atomic.LoadInt32(&r.closed) == 1 {
		return nil, api.NewError(api.ErrCodeInternal, "reactor is closed")
	}
	h := &linuxHandle{r: r, fd: int(fd), cb: cb}
	events := uint32(unix.EPOLLONESHOT)
	if armed {
		events |= unix.EPOLLIN
	}
	ev := unix.EpollEvent{Events: events, Fd: int32(fd)}
	r.mu.Lock()
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_ADD, int(fd), &ev); err != nil {
		r.mu.Unlock()
		return nil, fmt.Errorf("epoll ctl add: %w", err)
	}
	r.handles[int(fd)] = h
	r.mu.Unlock()
	return h, nil
}

// Close shuts down the poll loop and releases the epoll instance.
func (r *linuxReactor) Close() error {
	if !atomic.CompareAndSwapInt32(&r.closed, 0, 1) {
		return nil
	}
	// Wake the loop; it tears down the descriptors on exit.
	var one = [1]byte{1}
	unix.Write(r.wakeW, one[:])
	<-r.done
	return nil
}

// loop is the poll loop, running until Close.
func (r *linuxReactor) loop() {
	defer close(r.done)
	defer r.closeFds()
	events := make([]unix.EpollEvent, 64)
	for {
		n, err := unix.EpollWait(r.epfd, events, -1)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			log.Printf("[reactor] epoll wait: %v", err)
			return
		}
		for i := 0; i < n; i++ {
			fd := int(events[i].Fd)
			if fd == r.wakeR {
				return
			}
			r.mu.Lock()
			h := r.handles[fd]
			r.mu.Unlock()
			if h == nil {
				continue
			}
			// The oneshot flag disarmed the entry before dispatch, so the
			// callback cannot fire again until it resumes the handle.
			if err := r.exec.Submit(h.cb); err != nil {
				log.Printf("[reactor] callback dispatch: %v", err)
			}
		}
	}
}

// closeFds releases the poller descriptors.
func (r *linuxReactor) closeFds() {
	unix.Close(r.epfd)
	unix.Close(r.wakeR)
	unix.Close(r.wakeW)
}

// drop removes h from the dispatch table. It reports whether h still owned
// the slot: a descriptor number may have been closed and reused by a newer
// registration, and that entry must not be disturbed by a stale Close.
func (r *linuxReactor) drop(fd int, h *linuxHandle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.handles[fd] != h {
		return false
	}
	delete(r.handles, fd)
	return true
}

// linuxHandle is one oneshot registration.
type linuxHandle struct {
	r      *linuxReactor
	fd     int
	cb     api.Callback
	closed int32
}

// Resume re-arms interest for one more readiness event.
func (h *linuxHandle) Resume(interest api.Interest) error {
	if atomic.LoadInt32(&h.closed) == 1 {
		return api.ErrListenerClosed
	}
	events := uint32(unix.EPOLLONESHOT)
	if interest&api.Readable != 0 {
		events |= unix.EPOLLIN
	}
	if interest&api.Writable != 0 {
		events |= unix.EPOLLOUT
	}
	ev := unix.EpollEvent{Events: events, Fd: int32(h.fd)}
	if err := unix.EpollCtl(h.r.epfd, unix.EPOLL_CTL_MOD, h.fd, &ev); err != nil {
		return fmt.Errorf("epoll ctl mod: %w", err)
	}
	return nil
}

// Suspend disarms interest without dropping the registration.
func (h *linuxHandle) Suspend() error {
	if atomic.LoadInt32(&h.closed) == 1 {
		return api.ErrListenerClosed
	}
	ev := unix.EpollEvent{Events: unix.EPOLLONESHOT, Fd: int32(h.fd)}
	if err := unix.EpollCtl(h.r.epfd, unix.EPOLL_CTL_MOD, h.fd, &ev); err != nil {
		return fmt.Errorf("epoll ctl mod: %w", err)
	}
	return nil
}

// Close deregisters the callback. The ctl is only issued while h still
// owns the dispatch slot, so a stale Close after the descriptor number was
// reused cannot evict the newer registration. A descriptor already closed
// has left the epoll set on its own, which is why ctl errors are ignored.
func (h *linuxHandle) Close() error {
	if !atomic.CompareAndSwapInt32(&h.closed, 0, 1) {
		return nil
	}
	if h.r.drop(h.fd, h) {
		unix.EpollCtl(h.r.epfd, unix.EPOLL_CTL_DEL, h.fd, nil)
	}
	return nil
}
