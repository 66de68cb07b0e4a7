package proxy

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_EchoesBothDirectionsThenEndsOnEOF(t *testing.T) {
	aSrv, aCli := net.Pipe()
	bSrv, bCli := net.Pipe()

	done := make(chan struct{})
	go func() {
		Run(context.Background(), aSrv, bSrv, Options{CopyChunk: 4096})
		close(done)
	}()

	go func() {
		buf := make([]byte, 5)
		io.ReadFull(bCli, buf)
		bCli.Write(buf)
	}()

	_, err := aCli.Write([]byte("hello"))
	require.NoError(t, err)

	reply := make([]byte, 5)
	_, err = io.ReadFull(aCli, reply)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(reply))

	aCli.Close()
	bCli.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after both peers closed")
	}
}

func TestRun_IdleTimeoutEndsSession(t *testing.T) {
	aSrv, aCli := net.Pipe()
	bSrv, bCli := net.Pipe()
	defer aCli.Close()
	defer bCli.Close()

	done := make(chan struct{})
	go func() {
		Run(context.Background(), aSrv, bSrv, Options{
			CopyChunk:   4096,
			SessionIdle: 50 * time.Millisecond,
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not end after the idle timeout elapsed")
	}
}

func TestRun_ContextCancellationEndsSession(t *testing.T) {
	aSrv, aCli := net.Pipe()
	bSrv, bCli := net.Pipe()
	defer aCli.Close()
	defer bCli.Close()

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		Run(ctx, aSrv, bSrv, Options{CopyChunk: 4096})
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not end after context cancellation")
	}
}
