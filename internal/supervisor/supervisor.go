// Package supervisor implements the generic restart-with-backoff
// wrapper that every long-lived task (bridge acceptor,
// listener accept loops, dialer workers, autosync client/acceptor,
// pool pinger/recycler) runs under, plus the process-wide stop signal
// that cascades shutdown to all of them.
package supervisor

import (
	"context"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jbenet/goprocess"

	"github.com/mehrannoway-ops/TuM/internal/logging"
)

var log = logging.Logger("supervisor")

// Task is a unit of long-lived work. It should run until ctx is
// cancelled and then return nil; any other return (including a nil
// return before cancellation) is treated as "this task ended and
// should be restarted".
type Task func(ctx context.Context) error

const (
	minBackoff = 200 * time.Millisecond
	maxBackoff = 5 * time.Second
)

// Run wraps task in a restart loop: on a normal or erroring return it
// logs and restarts after a backoff wait; on ctx cancellation it exits
// cleanly without restarting. The backoff only grows on an erroring
// return, doubling up to maxBackoff; a normal return resets it to
// minBackoff, since that is the expected end of one completed session,
// not a failure to recover from. name is purely for logging.
func Run(ctx context.Context, name string, task Task) {
	backoff := minBackoff
	for {
		if ctx.Err() != nil {
			return
		}

		err := task(ctx)

		if ctx.Err() != nil {
			return
		}
		if err != nil {
			log.Warn("task ended with error, restarting", "task", name, "err", err, "backoff", backoff)
		} else {
			log.Debug("task returned, restarting", "task", name, "backoff", backoff)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(jitter(backoff)):
		}

		if err == nil {
			backoff = minBackoff
			continue
		}

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// jitter adds up to 20% random variance so many restarting tasks don't
// all retry in lockstep.
func jitter(d time.Duration) time.Duration {
	return d + time.Duration(rand.Int63n(int64(d)/5+1))
}

// Root is the process-wide stop signal: SIGINT/SIGTERM
// sets it by cancelling the context returned by Context(), which every
// supervised task observes; the goprocess children hung off of it only
// let Stop wait for those tasks to return.
type Root struct {
	proc     goprocess.Process
	cancel   context.CancelFunc
	ctx      context.Context
	stopOnce sync.Once
}

// NewRoot builds a Root backed by a goprocess tree used purely for its
// Close()-waits-for-children bookkeeping; the actual stop signal is the
// plain context Stop cancels before closing the tree, so every
// supervised task unblocks on ctx.Done() first and the tree's Close
// only needs to wait, never to propagate anything itself.
func NewRoot() *Root {
	ctx, cancel := context.WithCancel(context.Background())
	proc := goprocess.WithParent(goprocess.Background())
	return &Root{proc: proc, cancel: cancel, ctx: ctx}
}

// Context returns the context every supervised Task should observe.
func (r *Root) Context() context.Context {
	return r.ctx
}

// Go registers a child task under the goprocess tree so Close waits
// for it, then runs it under Run.
func (r *Root) Go(name string, task Task) {
	child := r.proc.Go(func(p goprocess.Process) {
		Run(r.ctx, name, task)
	})
	_ = child
}

// WatchSignals blocks until SIGINT/SIGTERM is received, then calls
// Stop. Intended to run on the main goroutine of cmd/tum.
func (r *Root) WatchSignals() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigs
	log.Info("received signal, shutting down", "signal", sig)
	r.Stop()
}

// Stop cascades cancellation to every supervised task, then blocks
// until the goprocess tree reports every child has returned. Idempotent.
func (r *Root) Stop() {
	r.stopOnce.Do(func() {
		r.cancel()
		_ = r.proc.Close()
	})
}
