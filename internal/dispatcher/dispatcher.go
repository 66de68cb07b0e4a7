// Package dispatcher implements the IR Session Dispatcher: for each
// inbound user connection on an active port, it draws
// a pool connection, writes the target-port assignment header, and
// starts the bidirectional proxy.
package dispatcher

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/mehrannoway-ops/TuM/internal/logging"
	"github.com/mehrannoway-ops/TuM/internal/netutil"
	"github.com/mehrannoway-ops/TuM/internal/pool"
	"github.com/mehrannoway-ops/TuM/internal/proxy"
	"github.com/mehrannoway-ops/TuM/internal/tcptune"

	"net"
)

var log = logging.Logger("dispatcher")

// Options mirrors the Tunables the dispatcher consumes directly; the
// rest (tcptune, proxy) take their own Options structs.
type Options struct {
	PoolWait       time.Duration
	PoolMaxAge     time.Duration
	HeaderDeadline time.Duration // write deadline for the assignment header
	Tune           tcptune.Options
	Proxy          proxy.Options
}

// Dispatcher draws PooledConnections from a single BridgePool and pairs
// them with user connections arriving on any active port. One
// Dispatcher serves every port opened by the Listener Controller.
type Dispatcher struct {
	pool     *pool.BridgePool
	opts     Options
	sessions *semaphore.Weighted // nil when max_sessions == 0 (unbounded)
}

// New builds a Dispatcher. maxSessions <= 0 disables the global session
// ceiling.
func New(p *pool.BridgePool, opts Options, maxSessions int) *Dispatcher {
	d := &Dispatcher{pool: p, opts: opts}
	if maxSessions > 0 {
		d.sessions = semaphore.NewWeighted(int64(maxSessions))
	}
	return d
}

// Handle serves one inbound user connection on active port p. Ownership
// of conn passes to Handle; it always ends with conn closed, either via
// the proxy teardown or directly on a failed draw.
func (d *Dispatcher) Handle(ctx context.Context, port int, conn net.Conn) {
	tcptune.Apply(conn, d.opts.Tune)

	if d.sessions != nil {
		if err := d.sessions.Acquire(ctx, 1); err != nil {
			_ = conn.Close()
			return
		}
		defer d.sessions.Release(1)
	}

	tunnel, ok := d.drawHealthy(ctx, port)
	if !ok {
		log.Debug("no healthy pool connection within pool_wait, closing user socket", "port", port)
		_ = conn.Close()
		return
	}

	proxy.Run(ctx, conn, tunnel.Conn, d.opts.Proxy)
}

// drawHealthy draws pool connections until one survives age and header
// checks, or pool_wait elapses overall. Stale or write-broken draws are
// closed and retried; they never re-enter the pool.
func (d *Dispatcher) drawHealthy(ctx context.Context, port int) (*pool.PooledConnection, bool) {
	deadline := time.Now().Add(d.opts.PoolWait)

	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, false
		}

		pc, ok := d.pool.Get(ctx, remaining)
		if !ok {
			return nil, false
		}

		if d.opts.PoolMaxAge > 0 && pc.Age(d.pool.Clock()) >= d.opts.PoolMaxAge {
			log.Debug("drawn pool connection past pool_max_age, discarding", "id", pc.ID)
			_ = pc.Close()
			continue
		}

		if err := netutil.WriteHeader(pc.Conn, uint16(port), d.opts.HeaderDeadline); err != nil {
			log.Debug("assignment header write failed, discarding and redrawing", "id", pc.ID, "err", err)
			_ = pc.Close()
			continue
		}

		return pc, true
	}
}
