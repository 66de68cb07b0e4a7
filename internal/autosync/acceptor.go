package autosync

import (
	"io"
	"net"
	"sync/atomic"

	TempErrCatcher "github.com/jbenet/go-temp-err-catcher"

	"github.com/mehrannoway-ops/TuM/internal/autosync/wire"
	"github.com/mehrannoway-ops/TuM/internal/netutil"
)

// ApplyFunc receives a freshly parsed DesiredPortSet. Satisfied by
// listener.Controller.ApplyDesired; kept as a func type so this package
// has no dependency on the listener package.
type ApplyFunc func(ports []int)

// Acceptor serves sync_port for the IR AutoSync channel.
type Acceptor struct {
	listener net.Listener
	apply    ApplyFunc
	maxPorts int
	closed   atomic.Bool
}

// NewAcceptor binds sync_port with backlog_sync.
func NewAcceptor(bindAddr string, backlog int, maxPorts int, apply ApplyFunc) (*Acceptor, error) {
	ln, err := netutil.ListenTCP(bindAddr, backlog)
	if err != nil {
		return nil, err
	}
	return &Acceptor{listener: ln, apply: apply, maxPorts: maxPorts}, nil
}

// Addr reports the bound address.
func (a *Acceptor) Addr() net.Addr {
	return a.listener.Addr()
}

// Close stops accepting new sync connections. Idempotent.
func (a *Acceptor) Close() error {
	if a.closed.CompareAndSwap(false, true) {
		return a.listener.Close()
	}
	return nil
}

// Run accepts connections until the listener is closed.
func (a *Acceptor) Run() error {
	var tec TempErrCatcher.TempErrCatcher
	for {
		conn, err := a.listener.Accept()
		if err != nil {
			if a.closed.Load() {
				return nil
			}
			if tec.IsTemporary(err) {
				continue
			}
			return err
		}
		go a.serve(conn)
	}
}

// serve parses a stream of framed messages from one connection until
// EOF or a parse error, applying each successfully parsed message in
// arrival order: across reconnects the latest successfully-parsed
// message wins — the connection lifetime here gives us the arrival
// order for free, and a fresh connection replaces
// whatever the last one applied).
func (a *Acceptor) serve(conn net.Conn) {
	defer conn.Close()
	for {
		ports, err := wire.ReadMessage(conn, a.maxPorts)
		if err != nil {
			if err != io.EOF {
				log.Debug("autosync message parse failed, closing connection", "err", err)
			}
			return
		}
		a.apply(toIntPorts(ports))
	}
}

func toIntPorts(ports []uint16) []int {
	out := make([]int, len(ports))
	for i, p := range ports {
		out[i] = int(p)
	}
	return out
}
