// Package eu implements the EU side of the tunnel: the Dialer Worker
// that keeps a pool of connections fed into IR's bridge port, and the
// local dialer that completes each assignment against a backend
// service.
package eu

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/mehrannoway-ops/TuM/internal/logging"
	"github.com/mehrannoway-ops/TuM/internal/netutil"
	"github.com/mehrannoway-ops/TuM/internal/proxy"
	"github.com/mehrannoway-ops/TuM/internal/tcptune"
)

var log = logging.Logger("eu")

// Options mirrors the Tunables a worker needs.
type Options struct {
	IranIP      string
	BridgePort  int
	LocalHost   string
	DialTimeout time.Duration
	PoolMaxAge  time.Duration
	Tune        tcptune.Options
	Proxy       proxy.Options
}

// Worker runs one EU dialer loop. Each worker is wrapped
// by the Supervisor so a fatal error just restarts the loop body.
type Worker struct {
	id        int
	opts      Options
	dials     *semaphore.Weighted
	staggered bool
}

// NewWorker builds worker id, sharing dials (sized dial_concurrency)
// across every worker so the whole pool never exceeds the dial
// concurrency ceiling at once.
func NewWorker(id int, opts Options, dials *semaphore.Weighted) *Worker {
	return &Worker{id: id, opts: opts, dials: dials}
}

// RunOnce performs a single dial-read-proxy cycle. It is the unit the
// Supervisor restarts with backoff on error; a clean return (peer
// closed after a normal proxy session) is also expected and causes a
// re-dial after the Supervisor's minimum backoff (0.2s plus jitter).
func (w *Worker) RunOnce(ctx context.Context) error {
	w.stagger(ctx)

	if err := w.dials.Acquire(ctx, 1); err != nil {
		return err
	}
	defer w.dials.Release(1)

	bridgeAddr := net.JoinHostPort(w.opts.IranIP, strconv.Itoa(w.opts.BridgePort))
	conn, err := net.DialTimeout("tcp", bridgeAddr, w.opts.DialTimeout)
	if err != nil {
		return fmt.Errorf("dial bridge: %w", err)
	}
	tcptune.Apply(conn, w.opts.Tune)

	connectedAt := time.Now()

	for {
		header, err := netutil.ReadHeader(conn)
		if err != nil {
			_ = conn.Close()
			return fmt.Errorf("read assignment header: %w", err)
		}
		if header == netutil.HeartbeatHeader {
			continue
		}
		if !netutil.ValidPort(header) {
			_ = conn.Close()
			return fmt.Errorf("invalid assignment port %d", header)
		}

		localAddr := net.JoinHostPort(w.opts.LocalHost, strconv.Itoa(int(header)))
		local, err := net.DialTimeout("tcp", localAddr, w.opts.DialTimeout)
		if err != nil {
			log.Debug("local dial failed", "port", header, "err", err)
			_ = conn.Close()
			return fmt.Errorf("dial local: %w", err)
		}
		tcptune.Apply(local, w.opts.Tune)

		proxy.Run(ctx, conn, local, w.opts.Proxy)

		if w.opts.PoolMaxAge > 0 && time.Since(connectedAt) >= w.opts.PoolMaxAge {
			// the tunnel outlived its welcome; IR's recycler would
			// have closed it anyway, so don't wait for that round trip
			_ = conn.Close()
		}
		return nil
	}
}

// stagger sleeps a few tens of milliseconds keyed by worker id before
// the worker's first dial only, spreading an initial burst of workers
// across time so they don't all SYN the bridge port in the same
// instant. Reconnects after that are not re-staggered.
func (w *Worker) stagger(ctx context.Context) {
	if w.staggered {
		return
	}
	w.staggered = true

	delay := time.Duration(w.id%20) * 10 * time.Millisecond
	if delay == 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(delay):
	}
}
