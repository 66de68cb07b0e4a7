package pool

import (
	"context"
	"time"
)

// RunPinger calls Ping every interval until ctx is cancelled. Intended
// to be wrapped by the Supervisor as a long-lived task.
func (p *BridgePool) RunPinger(ctx context.Context, interval, maxAge, drainTimeout time.Duration) {
	ticker := p.clock.Ticker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Ping(maxAge, drainTimeout)
		}
	}
}

// RunRecycler calls RecycleStale every interval until ctx is
// cancelled. Intended to be wrapped by the Supervisor as a long-lived
// task.
func (p *BridgePool) RunRecycler(ctx context.Context, interval, maxAge time.Duration) {
	ticker := p.clock.Ticker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.RecycleStale(maxAge)
		}
	}
}
