package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRun_RestartsOnError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	done := make(chan struct{})

	go func() {
		Run(ctx, "flaky", func(ctx context.Context) error {
			n := calls.Add(1)
			if n >= 3 {
				cancel()
			}
			return errors.New("boom")
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not exit after cancellation")
	}
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}

func TestRun_ExitsCleanlyWithoutRestartOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls atomic.Int32
	done := make(chan struct{})
	go func() {
		Run(ctx, "obedient", func(ctx context.Context) error {
			calls.Add(1)
			<-ctx.Done()
			return nil
		})
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not exit after cancellation")
	}
	assert.EqualValues(t, 1, calls.Load(), "a task observing ctx.Done and returning should not be restarted")
}

func TestRoot_StopCascadesToSupervisedTasks(t *testing.T) {
	root := NewRoot()

	started := make(chan struct{})
	stopped := make(chan struct{})
	root.Go("worker", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		close(stopped)
		return nil
	})

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("worker never started")
	}

	root.Stop()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("worker was not cancelled by Stop")
	}
}

func TestRoot_StopIsIdempotent(t *testing.T) {
	root := NewRoot()
	root.Stop()
	root.Stop()
}
