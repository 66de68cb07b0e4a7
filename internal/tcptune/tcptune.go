// Package tcptune applies socket tuning on every accepted or dialed
// connection: TCP_NODELAY, SO_KEEPALIVE with idle/interval/count
// (keepalive_secs, keepalive_secs, 3), and optional
// SO_RCVBUF/SO_SNDBUF. Every failure here is non-fatal — tuning is a
// best-effort optimization, never a precondition for carrying traffic.
package tcptune

import (
	"net"
	"time"

	"github.com/mehrannoway-ops/TuM/internal/logging"
)

var log = logging.Logger("tcptune")

// Options mirrors the subset of config.Tunables that socket tuning
// needs, kept separate so this package has no dependency on internal/config.
type Options struct {
	KeepaliveSecs int
	SockBuf       int // 0 = leave at OS default
}

// Apply tunes conn in place. Only *net.TCPConn is tunable; any other
// net.Conn (e.g. in tests using net.Pipe) is left untouched.
func Apply(conn net.Conn, opts Options) {
	tc, ok := conn.(*net.TCPConn)
	if !ok {
		return
	}

	if err := tc.SetNoDelay(true); err != nil {
		log.Debug("SetNoDelay failed", "err", err)
	}

	if opts.KeepaliveSecs > 0 {
		if err := tc.SetKeepAlive(true); err != nil {
			log.Debug("SetKeepAlive failed", "err", err)
		}
		period := time.Duration(opts.KeepaliveSecs) * time.Second
		if err := tc.SetKeepAlivePeriod(period); err != nil {
			log.Debug("SetKeepAlivePeriod failed", "err", err)
		}
		setKeepAliveKernelKnobs(tc, opts.KeepaliveSecs, 3)
	}

	if opts.SockBuf > 0 {
		if err := tc.SetReadBuffer(opts.SockBuf); err != nil {
			log.Debug("SetReadBuffer failed", "err", err)
		}
		if err := tc.SetWriteBuffer(opts.SockBuf); err != nil {
			log.Debug("SetWriteBuffer failed", "err", err)
		}
	}
}
