// Package bridge implements the IR Bridge Acceptor: it accepts the
// EU-originated connections that seed the Bridge Pool.
package bridge

import (
	"net"
	"sync/atomic"

	TempErrCatcher "github.com/jbenet/go-temp-err-catcher"

	"github.com/mehrannoway-ops/TuM/internal/logging"
	"github.com/mehrannoway-ops/TuM/internal/netutil"
	"github.com/mehrannoway-ops/TuM/internal/pool"
	"github.com/mehrannoway-ops/TuM/internal/tcptune"
)

var log = logging.Logger("bridge")

// Acceptor listens for EU-dialed bridge connections and feeds them into
// a BridgePool. One Acceptor serves bridge_port for the lifetime of the
// IR process.
type Acceptor struct {
	listener net.Listener
	pool     *pool.BridgePool
	tune     tcptune.Options
	closed   atomic.Bool
}

// New binds bridge_port with backlog_bridge and returns an Acceptor
// ready to Run. The listener is opened eagerly so callers can surface a
// bind failure before handing the Acceptor to the Supervisor.
func New(bindAddr string, backlog int, p *pool.BridgePool, tune tcptune.Options) (*Acceptor, error) {
	ln, err := netutil.ListenTCP(bindAddr, backlog)
	if err != nil {
		return nil, err
	}
	return &Acceptor{listener: ln, pool: p, tune: tune}, nil
}

// Run accepts connections until the listener is closed. Transient
// accept errors (those satisfying the net.Error.Temporary-style
// contract recognized by go-temp-err-catcher) are logged and retried
// with a short randomized backoff instead of killing the acceptor;
// anything else ends Run so the Supervisor can restart it.
func (a *Acceptor) Run() error {
	var tec TempErrCatcher.TempErrCatcher
	for {
		conn, err := a.listener.Accept()
		if err != nil {
			if a.closed.Load() {
				return nil
			}
			if tec.IsTemporary(err) {
				log.Debug("transient accept error, retrying", "err", err)
				continue
			}
			return err
		}
		go a.admit(conn)
	}
}

// admit tunes a freshly accepted connection and hands it to the pool.
// PooledConnection wraps it with a creation timestamp; Put closes it
// immediately if the pool is already full.
func (a *Acceptor) admit(conn net.Conn) {
	tcptune.Apply(conn, a.tune)
	pc := pool.NewPooledConnection(conn, a.pool.Clock())
	log.Debug("admitted bridge connection", "id", pc.ID, "remote", conn.RemoteAddr())
	a.pool.Put(pc)
}

// Addr reports the bound address, mainly useful in tests that bind to
// ":0" and need to know the assigned port.
func (a *Acceptor) Addr() net.Addr {
	return a.listener.Addr()
}

// Close stops accepting new bridge connections. Idempotent.
func (a *Acceptor) Close() error {
	if a.closed.CompareAndSwap(false, true) {
		return a.listener.Close()
	}
	return nil
}
