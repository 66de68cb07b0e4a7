//go:build !linux

package netutil

import "net"

// ListenTCP falls back to the stdlib default backlog on non-Linux
// platforms; backlog is accepted for API parity but ignored.
func ListenTCP(addr string, backlog int) (net.Listener, error) {
	return net.Listen("tcp", addr)
}
