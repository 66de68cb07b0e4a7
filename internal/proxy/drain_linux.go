//go:build linux

package proxy

import (
	"net"

	"golang.org/x/sys/unix"
)

// pendingWriteBytes queries the kernel's outstanding send-queue size
// for conn via TIOCOUTQ, the same SyscallConn().Control() idiom the
// socket-tuning layer uses for SO_KEEPALIVE knobs. Used to decide when
// a copy loop must pause for drain_threshold backpressure. ok is false
// for anything that isn't a *net.TCPConn (e.g.
// net.Pipe in tests), in which case the caller skips draining.
func pendingWriteBytes(conn net.Conn) (int, bool) {
	tc, ok := conn.(*net.TCPConn)
	if !ok {
		return 0, false
	}
	raw, err := tc.SyscallConn()
	if err != nil {
		return 0, false
	}
	var n int
	var ctrlErr error
	err = raw.Control(func(fd uintptr) {
		n, ctrlErr = unix.IoctlGetInt(int(fd), unix.TIOCOUTQ)
	})
	if err != nil || ctrlErr != nil {
		return 0, false
	}
	return n, true
}
