// File: internal/sockopt/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package sockopt provides the raw nonblocking-socket plumbing for the
// acceptor core: listener creation with tuning options, single nonblocking
// accepts, per-connection option application and queries, and a descriptor
// wrapper whose Close is guaranteed to release the OS resource exactly once.
package sockopt
