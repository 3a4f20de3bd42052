// File: facade/accept.go
// Unified facade layer for hioload-accept library.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// HioloadAccept aggregates the executor, the platform reactor, the managed
// connection registry and the acceptor behind a single constructor, and
// implements api.GracefulShutdown for unified teardown.

package facade

import (
	"fmt"
	"net"
	"sync"

	"github.com/momentics/hioload-accept/acceptor"
	"github.com/momentics/hioload-accept/api"
	"github.com/momentics/hioload-accept/future"
	"github.com/momentics/hioload-accept/internal/concurrency"
	"github.com/momentics/hioload-accept/reactor"
	"github.com/momentics/hioload-accept/tracker"
)

// Config holds parameters immutable per run. Nil socket-option fields
// leave the OS default in place on every socket the service creates.
type Config struct {
	NumWorkers        int   // Number of executor worker goroutines
	ManageConnections bool  // Track accepted connections for bulk shutdown
	KeepAlive         *bool // SO_KEEPALIVE for accepted connections
	OOBInline         *bool // SO_OOBINLINE for accepted connections
	NoDelay           *bool // TCP_NODELAY for accepted connections
	ReceiveBuffer     *int  // SO_RCVBUF for listening sockets
	ReuseAddress      *bool // SO_REUSEADDR for listening sockets
}

// DefaultConfig returns default configuration values.
func DefaultConfig() *Config {
	return &Config{
		NumWorkers:        4,    // Four executor workers
		ManageConnections: true, // Bulk-close accepted connections on Stop
	}
}

// HioloadAccept is the main facade type.
type HioloadAccept struct {
	executor *concurrency.Executor
	reactor  api.Reactor
	registry *tracker.Registry
	acceptor *acceptor.Acceptor

	config  *Config
	mu      sync.Mutex
	stopped bool
}

// Ensure compliance with api.GracefulShutdown.
var _ api.GracefulShutdown = (*HioloadAccept)(nil)

// New constructs HioloadAccept with the given configuration, wiring the
// executor into the reactor for callback dispatch and the registry into
// the acceptor when connection management is enabled.
func New(cfg *Config) (*HioloadAccept, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	h := &HioloadAccept{config: cfg}

	h.executor = concurrency.NewExecutor(cfg.NumWorkers)
	r, err := reactor.New(h.executor)
	if err != nil {
		h.executor.Close()
		return nil, fmt.Errorf("reactor init failure: %w", err)
	}
	h.reactor = r

	opts := make([]acceptor.Option, 0, 6)
	if cfg.ManageConnections {
		h.registry = tracker.NewRegistry()
		opts = append(opts, acceptor.WithManagedRegistry(h.registry))
	}
	if cfg.KeepAlive != nil {
		opts = append(opts, acceptor.WithKeepAlive(*cfg.KeepAlive))
	}
	if cfg.OOBInline != nil {
		opts = append(opts, acceptor.WithOOBInline(*cfg.OOBInline))
	}
	if cfg.NoDelay != nil {
		opts = append(opts, acceptor.WithNoDelay(*cfg.NoDelay))
	}
	if cfg.ReceiveBuffer != nil {
		opts = append(opts, acceptor.WithReceiveBuffer(*cfg.ReceiveBuffer))
	}
	if cfg.ReuseAddress != nil {
		opts = append(opts, acceptor.WithReuseAddress(*cfg.ReuseAddress))
	}
	h.acceptor = acceptor.New(h.reactor, opts...)
	return h, nil
}

// AcceptTo resolves addr and starts a single-shot accept request. All
// failures, including resolution, arrive through the returned future.
func (h *HioloadAccept) AcceptTo(addr string, handler api.OpenHandler) api.ConnFuture {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return future.NewFailed(
			api.NewError(api.ErrCodeBind, "address resolution failed").
				WithCause(err).WithContext("addr", addr), nil)
	}
	return h.acceptor.AcceptTo(tcpAddr, handler)
}

// Acceptor exposes the underlying acceptor for per-request destinations.
func (h *HioloadAccept) Acceptor() *acceptor.Acceptor {
	return h.acceptor
}

// Executor exposes the notifier execution context.
func (h *HioloadAccept) Executor() api.Executor {
	return h.executor
}

// Registry returns the managed-connection registry, or nil when
// connection management is disabled.
func (h *HioloadAccept) Registry() *tracker.Registry {
	return h.registry
}

// Stop forecloses new requests, stops the reactor, bulk-closes managed
// connections and shuts the executor down. Calling Stop twice is a no-op.
func (h *HioloadAccept) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return nil
	}
	h.acceptor.Close()
	err := h.reactor.Close()
	if h.registry != nil {
		h.registry.CloseAll()
	}
	h.executor.Close()
	h.stopped = true
	return err
}

// Shutdown implements api.GracefulShutdown by delegating to Stop().
func (h *HioloadAccept) Shutdown() error {
	return h.Stop()
}
