package tcptune

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApply_TCPConnDoesNotPanicOrError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		c, _ := ln.Accept()
		accepted <- c
	}()

	client, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	server := <-accepted
	require.NotNil(t, server)
	defer server.Close()

	require.NotPanics(t, func() {
		Apply(client, Options{KeepaliveSecs: 30, SockBuf: 4096})
		Apply(server, Options{KeepaliveSecs: 0})
	})
}

func TestApply_NonTCPConnIsNoop(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	require.NotPanics(t, func() {
		Apply(a, Options{KeepaliveSecs: 30})
	})
}
