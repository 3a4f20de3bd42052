//go:build unix

// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package acceptor

import (
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-accept/api"
	"github.com/momentics/hioload-accept/fake"
	"github.com/momentics/hioload-accept/internal/sockopt"
	"github.com/momentics/hioload-accept/tracker"
	"github.com/momentics/hioload-accept/transport"
)

var loopback = &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0}

func acceptAll(conn api.Conn) (bool, error) { return true, nil }

// dialBacklog connects to the pending request's bound address so the next
// accept attempt finds a connection in the backlog.
func dialBacklog(t *testing.T, f api.ConnFuture) net.Conn {
	t.Helper()
	c, err := net.DialTimeout("tcp", f.LocalAddr().String(), 2*time.Second)
	require.NoError(t, err)
	return c
}

func TestAcceptReturnsPendingWithoutBlocking(t *testing.T) {
	r := fake.NewReactor()
	a := New(r)

	start := time.Now()
	f := a.AcceptTo(loopback, api.OpenHandlerFunc(acceptAll))
	elapsed := time.Since(start)

	assert.Equal(t, api.StatePending, f.State())
	assert.Less(t, elapsed, time.Second, "request must not wait on network I/O")
	require.NotNil(t, f.LocalAddr())
	assert.NotEqual(t, 0, f.LocalAddr().(*net.TCPAddr).Port, "bound port must be resolved")

	h := r.Last()
	require.NotNil(t, h)
	assert.Equal(t, api.Readable, h.Armed())

	require.NoError(t, f.Cancel())
}

func TestPostCloseRejection(t *testing.T) {
	r := fake.NewReactor()
	a := New(r)
	a.Close()
	a.Close() // idempotent

	for i := 0; i < 2; i++ {
		f := a.AcceptTo(loopback, api.OpenHandlerFunc(acceptAll))
		assert.Equal(t, api.StateFailed, f.State())
		_, err := f.Result()
		assert.ErrorIs(t, err, api.ErrAcceptorClosed)
		assert.Equal(t, api.ErrCodeAcceptorClosed, api.CodeOf(err))
	}
	assert.Empty(t, r.Handles(), "closed acceptor must not create registrations")
}

func TestReadinessCompletesFuture(t *testing.T) {
	r := fake.NewReactor()
	reg := tracker.NewRegistry()
	a := New(r, WithManagedRegistry(reg))

	f := a.AcceptTo(loopback, api.OpenHandlerFunc(acceptAll))
	require.Equal(t, api.StatePending, f.State())

	client := dialBacklog(t, f)
	defer client.Close()

	h := r.Last()
	h.Fire()

	require.Equal(t, api.StateSucceeded, f.State())
	conn, err := f.Result()
	require.NoError(t, err)
	require.NotNil(t, conn)
	defer conn.Close()

	assert.Equal(t, f.LocalAddr().String(), conn.LocalAddr().String())
	assert.Equal(t, 1, reg.Len(), "managed connection must be tracked")
	assert.True(t, h.Closed(), "registration must be dropped after completion")
}

func TestSpuriousWakeupRearms(t *testing.T) {
	r := fake.NewReactor()
	a := New(r)

	f := a.AcceptTo(loopback, api.OpenHandlerFunc(acceptAll))
	h := r.Last()
	require.NotNil(t, h)
	require.Equal(t, 1, h.Resumes())

	// Readiness with an empty backlog re-arms and completes nothing.
	h.Fire()
	assert.Equal(t, api.StatePending, f.State())
	assert.Equal(t, 2, h.Resumes())
	assert.Equal(t, api.Readable, h.Armed())

	// A real connection afterwards still succeeds.
	client := dialBacklog(t, f)
	defer client.Close()
	h.Fire()
	require.Equal(t, api.StateSucceeded, f.State())
	conn, err := f.Result()
	require.NoError(t, err)
	conn.Close()
}

func TestHandlerRejectionFailsFuture(t *testing.T) {
	r := fake.NewReactor()
	reg := tracker.NewRegistry()
	a := New(r, WithManagedRegistry(reg))

	f := a.AcceptTo(loopback, api.OpenHandlerFunc(func(api.Conn) (bool, error) {
		return false, nil
	}))
	client := dialBacklog(t, f)
	defer client.Close()

	r.Last().Fire()

	require.Equal(t, api.StateFailed, f.State())
	_, err := f.Result()
	assert.ErrorIs(t, err, api.ErrHandlerRejected)
	assert.Equal(t, api.ErrCodeHandlerRejected, api.CodeOf(err))
	assert.Equal(t, 0, reg.Len(), "rejected connection must not be tracked")

	// The accepted socket was closed: the peer observes EOF.
	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 1)
	_, rerr := client.Read(buf)
	assert.Error(t, rerr)
}

func TestHandlerErrorFailsFuture(t *testing.T) {
	r := fake.NewReactor()
	a := New(r)

	f := a.AcceptTo(loopback, api.OpenHandlerFunc(func(api.Conn) (bool, error) {
		return true, fmt.Errorf("handshake exploded")
	}))
	client := dialBacklog(t, f)
	defer client.Close()

	r.Last().Fire()

	require.Equal(t, api.StateFailed, f.State())
	_, err := f.Result()
	assert.Equal(t, api.ErrCodeHandlerFailure, api.CodeOf(err))
}

func TestHandlerPanicIsolated(t *testing.T) {
	r := fake.NewReactor()
	a := New(r)

	f := a.AcceptTo(loopback, api.OpenHandlerFunc(func(api.Conn) (bool, error) {
		panic("handler bug")
	}))
	client := dialBacklog(t, f)
	defer client.Close()

	require.NotPanics(t, func() { r.Last().Fire() })
	require.Equal(t, api.StateFailed, f.State())
	_, err := f.Result()
	assert.Equal(t, api.ErrCodeHandlerFailure, api.CodeOf(err))
}

func TestCancelReleasesListener(t *testing.T) {
	r := fake.NewReactor()
	a := New(r)

	f := a.AcceptTo(loopback, api.OpenHandlerFunc(acceptAll))
	addr := f.LocalAddr().String()

	require.NoError(t, f.Cancel())
	assert.Equal(t, api.StateCancelled, f.State())
	assert.True(t, r.Last().Closed())

	// The bound port is gone; new connections are refused.
	_, err := net.DialTimeout("tcp", addr, time.Second)
	assert.Error(t, err)
}

func TestCancelRacingReadinessFailsGracefully(t *testing.T) {
	r := fake.NewReactor()
	a := New(r)

	f := a.AcceptTo(loopback, api.OpenHandlerFunc(acceptAll))
	require.NoError(t, f.Cancel())

	// A readiness dispatch that was already in flight when cancel closed
	// the listener must observe the dead descriptor, not crash.
	require.NotPanics(t, func() { r.Last().Fire() })
	assert.Equal(t, api.StateCancelled, f.State(), "cancellation outcome must stick")
}

func TestConfiguredOptionsApplied(t *testing.T) {
	r := fake.NewReactor()
	a := New(r,
		WithKeepAlive(true),
		WithNoDelay(false),
		WithReuseAddress(true),
	)

	f := a.AcceptTo(loopback, api.OpenHandlerFunc(acceptAll))
	client := dialBacklog(t, f)
	defer client.Close()

	r.Last().Fire()
	require.Equal(t, api.StateSucceeded, f.State())
	res, err := f.Result()
	require.NoError(t, err)
	conn := res.(*transport.Conn)
	defer conn.Close()

	keepAlive, err := conn.KeepAlive()
	require.NoError(t, err)
	assert.True(t, keepAlive)

	noDelay, err := conn.NoDelay()
	require.NoError(t, err)
	assert.False(t, noDelay)

	// Unset options stay at the OS default.
	oob, err := conn.OOBInline()
	require.NoError(t, err)
	assert.False(t, oob)
}

func TestBindFailureIsSynchronous(t *testing.T) {
	r := fake.NewReactor()
	a := New(r)

	// Binding to an address that is not local fails in setup.
	f := a.AcceptTo(&net.TCPAddr{IP: net.IPv4(192, 0, 2, 1), Port: 12345}, api.OpenHandlerFunc(acceptAll))
	assert.Equal(t, api.StateFailed, f.State())
	_, err := f.Result()
	assert.Equal(t, api.ErrCodeBind, api.CodeOf(err))
	assert.Empty(t, r.Handles())
}

func TestRegistrationFailureClosesListener(t *testing.T) {
	r := fake.NewReactor()
	r.FailRegistrations(fmt.Errorf("poller full"))
	a := New(r)

	f := a.AcceptTo(loopback, api.OpenHandlerFunc(acceptAll))
	addr := f.LocalAddr()

	assert.Equal(t, api.StateFailed, f.State())
	_, err := f.Result()
	assert.Equal(t, api.ErrCodeAcceptIO, api.CodeOf(err))

	// No leaked listener behind the failed future.
	if addr != nil {
		_, derr := net.DialTimeout("tcp", addr.String(), time.Second)
		assert.Error(t, derr)
	}
}

// releaseOrderHandle records whether the listener was still open at the
// moment the registration was dropped.
type releaseOrderHandle struct {
	listener         *sockopt.FD
	droppedWhileOpen bool
}

func (h *releaseOrderHandle) Resume(api.Interest) error { return nil }
func (h *releaseOrderHandle) Suspend() error            { return nil }
func (h *releaseOrderHandle) Close() error {
	h.droppedWhileOpen = !h.listener.Closed()
	return nil
}

func TestReleaseDeregistersBeforeClosingListener(t *testing.T) {
	lfd, bound, err := sockopt.ListenStream(loopback, 1, sockopt.ListenerOptions{})
	require.NoError(t, err)

	a := New(fake.NewReactor())
	p := newPendingAccept(a, lfd, bound, api.OpenHandlerFunc(acceptAll))
	h := &releaseOrderHandle{listener: lfd}
	p.setHandle(h)

	p.release()

	// Deregistration must happen while the descriptor number is still
	// ours; a closed number can be reused by another request, and a late
	// drop would then hit that request's registration.
	assert.True(t, h.droppedWhileOpen)
	assert.True(t, lfd.Closed())
}

func TestHandlerMayReenterAcceptor(t *testing.T) {
	r := fake.NewReactor()
	a := New(r)

	var lockFree bool
	var nested api.ConnFuture
	f := a.AcceptTo(loopback, api.OpenHandlerFunc(func(api.Conn) (bool, error) {
		if a.mu.TryLock() {
			lockFree = true
			a.mu.Unlock()
		}
		nested = a.AcceptTo(loopback, api.OpenHandlerFunc(acceptAll))
		a.Close()
		return true, nil
	}))
	client := dialBacklog(t, f)
	defer client.Close()

	h := r.Last()
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Fire()
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("re-entrant handler deadlocked the acceptor")
	}

	assert.True(t, lockFree, "acceptor lock must not be held while the handler runs")
	require.Equal(t, api.StateSucceeded, f.State())
	conn, err := f.Result()
	require.NoError(t, err)
	defer conn.Close()

	// The nested request was issued before Close and stays live.
	require.NotNil(t, nested)
	assert.Equal(t, api.StatePending, nested.State())
	require.NoError(t, nested.Cancel())
}

func TestDestinationAccept(t *testing.T) {
	r := fake.NewReactor()
	a := New(r)

	d := a.Destination(loopback)
	f := d.Accept(api.OpenHandlerFunc(acceptAll))
	assert.Equal(t, api.StatePending, f.State())
	require.NoError(t, f.Cancel())
}
