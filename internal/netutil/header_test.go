package netutil

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWriteReadHeader_RoundTrip(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	done := make(chan error, 1)
	go func() {
		done <- WriteHeader(server, 8080, time.Second)
	}()

	got, err := ReadHeader(client)
	require.NoError(t, err)
	require.Equal(t, uint16(8080), got)
	require.NoError(t, <-done)
}

func TestValidPort(t *testing.T) {
	require.False(t, ValidPort(HeartbeatHeader))
	require.True(t, ValidPort(1))
	require.True(t, ValidPort(65535))
}
