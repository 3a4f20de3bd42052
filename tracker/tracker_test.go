// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package tracker_test

import (
	"net"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/momentics/hioload-accept/api"
	"github.com/momentics/hioload-accept/tracker"
)

type trackedConn struct {
	closes int32
}

func (c *trackedConn) Read(p []byte) (int, error)  { return 0, api.ErrWouldBlock }
func (c *trackedConn) Write(p []byte) (int, error) { return len(p), nil }
func (c *trackedConn) Close() error                { atomic.AddInt32(&c.closes, 1); return nil }
func (c *trackedConn) LocalAddr() net.Addr         { return nil }
func (c *trackedConn) RemoteAddr() net.Addr        { return nil }

func TestRegisterRemove(t *testing.T) {
	r := tracker.NewRegistry()
	c1, c2 := &trackedConn{}, &trackedConn{}

	r.Register(c1)
	r.Register(c1) // duplicate is a no-op
	r.Register(c2)
	r.Register(nil)
	assert.Equal(t, 2, r.Len())

	r.Remove(c1)
	assert.Equal(t, 1, r.Len())

	var seen int
	r.Range(func(api.Conn) { seen++ })
	assert.Equal(t, 1, seen)
}

func TestCloseAll(t *testing.T) {
	r := tracker.NewRegistry()
	conns := []*trackedConn{{}, {}, {}}
	for _, c := range conns {
		r.Register(c)
	}

	r.CloseAll()
	assert.Equal(t, 0, r.Len())
	for _, c := range conns {
		assert.Equal(t, int32(1), atomic.LoadInt32(&c.closes))
	}

	// Sweeping an empty registry is fine.
	r.CloseAll()
}
