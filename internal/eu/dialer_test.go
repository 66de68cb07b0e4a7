package eu

import (
	"context"
	"net"
	"testing"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mehrannoway-ops/TuM/internal/netutil"
	"github.com/mehrannoway-ops/TuM/internal/proxy"
)

func TestRunOnce_HeartbeatThenAssignmentProxies(t *testing.T) {
	bridgeLn, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer bridgeLn.Close()

	backendLn, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer backendLn.Close()
	backendPort := backendLn.Addr().(*net.TCPAddr).Port

	bridgeAccepted := make(chan net.Conn, 1)
	go func() {
		conn, err := bridgeLn.Accept()
		if err == nil {
			bridgeAccepted <- conn
		}
	}()
	backendAccepted := make(chan net.Conn, 1)
	go func() {
		conn, err := backendLn.Accept()
		if err == nil {
			backendAccepted <- conn
		}
	}()

	opts := Options{
		IranIP:      "127.0.0.1",
		BridgePort:  bridgeLn.Addr().(*net.TCPAddr).Port,
		LocalHost:   "127.0.0.1",
		DialTimeout: time.Second,
		Proxy:       proxy.Options{CopyChunk: 4096},
	}
	w := NewWorker(0, opts, semaphore.NewWeighted(4))

	done := make(chan error, 1)
	go func() { done <- w.RunOnce(context.Background()) }()

	var irSide net.Conn
	select {
	case irSide = <-bridgeAccepted:
	case <-time.After(time.Second):
		t.Fatal("bridge side never accepted")
	}
	defer irSide.Close()

	require.NoError(t, netutil.WriteHeader(irSide, netutil.HeartbeatHeader, time.Second))
	require.NoError(t, netutil.WriteHeader(irSide, uint16(backendPort), time.Second))

	var backendSide net.Conn
	select {
	case backendSide = <-backendAccepted:
	case <-time.After(time.Second):
		t.Fatal("backend never dialed")
	}
	defer backendSide.Close()

	_, err = irSide.Write([]byte("ping"))
	require.NoError(t, err)
	buf := make([]byte, 4)
	_, err = backendSide.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(buf))

	irSide.Close()
	backendSide.Close()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("RunOnce did not return")
	}
}

func TestRunOnce_UndialableLocalPortReturnsError(t *testing.T) {
	// nothing to dial against; only the bridge connection exists. A
	// worker assigned a port with no local listener must error out
	// rather than hang.
	bridgeLn, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer bridgeLn.Close()

	bridgeAccepted := make(chan net.Conn, 1)
	go func() {
		conn, err := bridgeLn.Accept()
		if err == nil {
			bridgeAccepted <- conn
		}
	}()

	opts := Options{
		IranIP:      "127.0.0.1",
		BridgePort:  bridgeLn.Addr().(*net.TCPAddr).Port,
		LocalHost:   "127.0.0.1",
		DialTimeout: 200 * time.Millisecond,
		Proxy:       proxy.Options{CopyChunk: 4096},
	}
	w := NewWorker(0, opts, semaphore.NewWeighted(4))

	done := make(chan error, 1)
	go func() { done <- w.RunOnce(context.Background()) }()

	var irSide net.Conn
	select {
	case irSide = <-bridgeAccepted:
	case <-time.After(time.Second):
		t.Fatal("bridge side never accepted")
	}
	defer irSide.Close()

	// valid, non-heartbeat header but nothing listens on that port
	require.NoError(t, netutil.WriteHeader(irSide, 1, time.Second))

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("RunOnce did not return an error for an undialable port")
	}
}
