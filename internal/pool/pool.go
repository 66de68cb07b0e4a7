// Package pool implements the Bridge Pool: a bounded FIFO queue of idle
// PooledConnections with non-blocking put, timed-blocking get, and a
// stale-sweep used by the pinger and recycler.
package pool

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"

	"github.com/mehrannoway-ops/TuM/internal/logging"
)

var log = logging.Logger("pool")

// BridgePool is a bounded FIFO of idle PooledConnections. Capacity is
// fixed at construction (2 × pool_size). Put never blocks:
// on overflow the rejected connection is closed immediately, on the
// theory that EU will simply reconnect.
type BridgePool struct {
	queue chan *PooledConnection
	clock clock.Clock
}

// New creates a BridgePool with the given capacity.
func New(capacity int, clk clock.Clock) *BridgePool {
	if capacity < 1 {
		capacity = 1
	}
	if clk == nil {
		clk = clock.New()
	}
	return &BridgePool{
		queue: make(chan *PooledConnection, capacity),
		clock: clk,
	}
}

// Clock exposes the pool's clock so callers (the pinger/recycler, and
// the session dispatcher's pool_max_age check) share one time source.
func (p *BridgePool) Clock() clock.Clock {
	return p.clock
}

// Put enqueues conn. On a full queue the connection is closed instead
// of blocking — backpressure is expressed by closing, never by making
// the caller (the Bridge Acceptor) wait.
func (p *BridgePool) Put(pc *PooledConnection) {
	select {
	case p.queue <- pc:
	default:
		log.Debug("pool full, closing rejected connection", "id", pc.ID)
		_ = pc.Close()
	}
}

// Get waits up to timeout for an idle connection. A non-positive
// timeout polls once without blocking. ctx cancellation (e.g. process
// shutdown) also ends the wait early.
func (p *BridgePool) Get(ctx context.Context, timeout time.Duration) (*PooledConnection, bool) {
	if timeout <= 0 {
		select {
		case pc := <-p.queue:
			return pc, true
		default:
			return nil, false
		}
	}

	timer := p.clock.Timer(timeout)
	defer timer.Stop()

	select {
	case pc := <-p.queue:
		return pc, true
	case <-timer.C:
		return nil, false
	case <-ctx.Done():
		return nil, false
	}
}

// Len reports the number of idle connections currently queued.
func (p *BridgePool) Len() int {
	return len(p.queue)
}

// RecycleStale atomically drains the queue, closes every entry whose
// age is >= maxAge, and re-enqueues the rest. A survivor that cannot
// be re-enqueued because a concurrent Put has since filled the queue
// is itself closed — the same "close the loser" rule as put() uses.
// Returns the number of connections closed.
func (p *BridgePool) RecycleStale(maxAge time.Duration) int {
	n := len(p.queue)
	survivors := make([]*PooledConnection, 0, n)
	closed := 0

	for i := 0; i < n; i++ {
		select {
		case pc := <-p.queue:
			if pc.Age(p.clock) >= maxAge {
				_ = pc.Close()
				closed++
			} else {
				survivors = append(survivors, pc)
			}
		default:
			i = n
		}
	}

	for _, pc := range survivors {
		select {
		case p.queue <- pc:
		default:
			_ = pc.Close()
			closed++
		}
	}

	if closed > 0 {
		log.Debug("recycled stale pool connections", "closed", closed, "remaining", len(p.queue))
	}
	return closed
}

// Close drains and closes every queued connection, combining any close
// errors with multierr rather than discarding all but the first.
func (p *BridgePool) Close() error {
	var errs error
	for {
		select {
		case pc := <-p.queue:
			if err := pc.Close(); err != nil {
				errs = multierr.Append(errs, err)
			}
		default:
			return errs
		}
	}
}
