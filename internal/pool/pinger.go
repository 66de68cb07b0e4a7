package pool

import (
	"time"

	"github.com/mehrannoway-ops/TuM/internal/netutil"
)

// Ping sweeps the pool once: drain the queue,
// close anything already older than maxAge, write a 2-byte heartbeat
// header to everything else with drainTimeout to bound the write, and
// requeue only the survivors. Entries that fail the write, or cannot
// be requeued because a concurrent Put filled the pool first, are
// closed.
//
// Intended to run every pool_ping_interval under the Supervisor.
func (p *BridgePool) Ping(maxAge time.Duration, drainTimeout time.Duration) {
	n := len(p.queue)
	survivors := make([]*PooledConnection, 0, n)
	pinged, closed := 0, 0

	for i := 0; i < n; i++ {
		select {
		case pc := <-p.queue:
			if pc.Age(p.clock) >= maxAge {
				_ = pc.Close()
				closed++
				continue
			}
			if err := netutil.WriteHeader(pc.Conn, netutil.HeartbeatHeader, drainTimeout); err != nil {
				log.Debug("heartbeat write failed, closing", "id", pc.ID, "err", err)
				_ = pc.Close()
				closed++
				continue
			}
			pinged++
			survivors = append(survivors, pc)
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

	if pinged > 0 || closed > 0 {
		log.Debug("pool ping sweep complete", "pinged", pinged, "closed", closed)
	}
}
