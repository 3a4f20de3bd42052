//go:build unix

// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport_test

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-accept/api"
	"github.com/momentics/hioload-accept/internal/sockopt"
	"github.com/momentics/hioload-accept/transport"
)

// acceptedPair establishes a loopback connection and returns the accepted
// side as a transport.Conn plus the dialing side.
func acceptedPair(t *testing.T) (*transport.Conn, net.Conn) {
	t.Helper()
	lfd, bound, err := sockopt.ListenStream(&net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)}, 1, sockopt.ListenerOptions{})
	require.NoError(t, err)
	defer lfd.Close()

	client, err := net.DialTimeout("tcp", bound.String(), 2*time.Second)
	require.NoError(t, err)

	var nfd int
	deadline := time.Now().Add(2 * time.Second)
	for {
		nfd, err = sockopt.AcceptOne(lfd)
		if err == nil {
			break
		}
		if !errors.Is(err, api.ErrWouldBlock) || time.Now().After(deadline) {
			client.Close()
			t.Fatalf("accept: %v", err)
		}
		time.Sleep(time.Millisecond)
	}

	conn, err := transport.NewConn(nfd)
	require.NoError(t, err)
	t.Cleanup(func() {
		conn.Close()
		client.Close()
	})
	return conn, client
}

func TestReadWrite(t *testing.T) {
	conn, client := acceptedPair(t)

	// Empty receive queue reports would-block instead of blocking.
	buf := make([]byte, 16)
	_, err := conn.Read(buf)
	assert.ErrorIs(t, err, api.ErrWouldBlock)

	_, err = client.Write([]byte("ping"))
	require.NoError(t, err)

	n := 0
	deadline := time.Now().Add(2 * time.Second)
	for n == 0 {
		n, err = conn.Read(buf)
		if errors.Is(err, api.ErrWouldBlock) {
			if time.Now().After(deadline) {
				t.Fatal("payload never arrived")
			}
			time.Sleep(time.Millisecond)
			continue
		}
		require.NoError(t, err)
	}
	assert.Equal(t, "ping", string(buf[:n]))

	_, err = conn.Write([]byte("pong"))
	require.NoError(t, err)
	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	got := make([]byte, 4)
	_, err = client.Read(got)
	require.NoError(t, err)
	assert.Equal(t, "pong", string(got))
}

func TestAddresses(t *testing.T) {
	conn, client := acceptedPair(t)

	assert.Equal(t, client.RemoteAddr().String(), conn.LocalAddr().String())
	assert.Equal(t, client.LocalAddr().String(), conn.RemoteAddr().String())
}

func TestCloseIdempotent(t *testing.T) {
	conn, _ := acceptedPair(t)

	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())

	_, err := conn.Read(make([]byte, 1))
	assert.ErrorIs(t, err, api.ErrConnClosed)
	_, err = conn.Write([]byte("x"))
	assert.ErrorIs(t, err, api.ErrConnClosed)
	_, open := conn.Fd()
	assert.False(t, open)

	// Addresses survive close.
	assert.NotNil(t, conn.LocalAddr())
	assert.NotNil(t, conn.RemoteAddr())
}
