//go:build !linux

package proxy

import "net"

// pendingWriteBytes has no portable equivalent of TIOCOUTQ; non-Linux
// builds never drain-pause and rely on TCP's own flow control.
func pendingWriteBytes(conn net.Conn) (int, bool) {
	return 0, false
}
