// Package proxy implements the Bidirectional Proxy: two concurrent copy
// loops between a user connection and a tunnel connection, with a
// per-read idle watchdog, drain-threshold backpressure, and symmetric
// half-close-then-close teardown.
package proxy

import (
	"context"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mehrannoway-ops/TuM/internal/logging"
)

var log = logging.Logger("proxy")

// Options mirrors the subset of config.Tunables the proxy needs.
type Options struct {
	CopyChunk      int           // bytes per Read; <=0 defaults to 32 KiB
	SessionIdle    time.Duration // 0 disables the idle watchdog
	DrainThreshold int           // 0 disables drain-pause backpressure
}

// Run wires a and b together until either side ends (EOF, reset, idle
// timeout, or error), then tears down both. It blocks until both copy
// directions and the idle watchdog (if enabled) have returned, so the
// caller can safely release any resources (e.g. a semaphore slot)
// immediately after Run returns.
func Run(ctx context.Context, a, b net.Conn, opts Options) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var lastActivity atomic.Int64
	lastActivity.Store(time.Now().UnixNano())

	var once sync.Once
	shutdown := func() {
		once.Do(func() {
			cancel()
			teardown(a)
			teardown(b)
		})
	}

	go func() {
		<-ctx.Done()
		shutdown()
	}()

	errCh := make(chan error, 2)
	go func() {
		err := copyLoop(ctx, b, a, &lastActivity, opts)
		errCh <- err
		shutdown()
	}()
	go func() {
		err := copyLoop(ctx, a, b, &lastActivity, opts)
		errCh <- err
		shutdown()
	}()

	watchdogDone := make(chan struct{})
	if opts.SessionIdle > 0 {
		go func() {
			defer close(watchdogDone)
			watchIdle(ctx, &lastActivity, opts.SessionIdle, shutdown)
		}()
	} else {
		close(watchdogDone)
	}

	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil && !isBenign(err) {
			log.Debug("proxy copy ended", "err", err)
		}
		shutdown()
	}
	<-watchdogDone
}

// copyLoop reads from src and writes to dst until src.Read returns an
// error. When SessionIdle > 0 every read is individually bounded
// (per-read, not per-task) so a stalled peer cannot wedge the loop
// forever even without the separate watchdog.
func copyLoop(ctx context.Context, dst, src net.Conn, lastActivity *atomic.Int64, opts Options) error {
	chunk := opts.CopyChunk
	if chunk <= 0 {
		chunk = 32 * 1024
	}
	buf := make([]byte, chunk)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if opts.SessionIdle > 0 {
			_ = src.SetReadDeadline(time.Now().Add(opts.SessionIdle))
		}

		n, rerr := src.Read(buf)
		if n > 0 {
			lastActivity.Store(time.Now().UnixNano())
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return werr
			}
			if opts.DrainThreshold > 0 {
				awaitDrain(ctx, dst, opts.DrainThreshold)
			}
		}
		if rerr != nil {
			return rerr
		}
	}
}

// awaitDrain pauses the calling copy direction while dst's kernel send
// queue holds more than threshold bytes, so a slow reader applies
// backpressure instead of letting an unbounded amount of unsent data
// pile up in the kernel. Bounded by maxWait so a stuck peer cannot
// freeze the loop indefinitely; the idle watchdog and per-read
// deadline remain the backstop for that case.
func awaitDrain(ctx context.Context, conn net.Conn, threshold int) {
	const pollInterval = 2 * time.Millisecond
	const maxWait = 2 * time.Second

	deadline := time.Now().Add(maxWait)
	for {
		pending, ok := pendingWriteBytes(conn)
		if !ok || pending <= threshold {
			return
		}
		if time.Now().After(deadline) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(pollInterval):
		}
	}
}

// watchIdle cancels the session when no data has crossed either
// direction for longer than idle, polling every idle/4 (at least
// 10ms). Data in either direction refreshes the shared timestamp; it is
// a backstop alongside the per-read deadlines in copyLoop.
func watchIdle(ctx context.Context, lastActivity *atomic.Int64, idle time.Duration, shutdown func()) {
	interval := idle / 4
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			last := time.Unix(0, lastActivity.Load())
			if time.Since(last) > idle {
				shutdown()
				return
			}
		}
	}
}

// teardown attempts a write-half-close before the full close, so the
// peer sees a clean FIN rather than an abrupt RST where the transport
// supports it (only *net.TCPConn does; net.Pipe and similar fall
// through to a plain Close).
func teardown(conn net.Conn) {
	if hc, ok := conn.(interface{ CloseWrite() error }); ok {
		_ = hc.CloseWrite()
	}
	_ = conn.Close()
}

// isBenign reports whether err is normal teardown noise (closed
// connection, reset, broken pipe, or an expected idle-read timeout)
// that should not be logged as a failure.
func isBenign(err error) bool {
	if err == nil || err == io.EOF {
		return true
	}
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "broken pipe")
}
