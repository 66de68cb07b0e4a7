// Package listener implements the IR Listener Controller: it owns
// ActiveListeners and reconciles it against whatever DesiredPortSet the
// AutoSync Acceptor (or manual config) last produced, opening and
// closing user-facing TCP listeners to match.
package listener

import (
	"errors"
	"net"
	"strconv"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	TempErrCatcher "github.com/jbenet/go-temp-err-catcher"

	"github.com/mehrannoway-ops/TuM/internal/logging"
	"github.com/mehrannoway-ops/TuM/internal/netutil"
)

var log = logging.Logger("listener")

// Conn handler invoked for every accepted user connection on an active
// port. Session dispatch lives one layer up (internal/dispatcher); the
// controller only owns bind/close lifecycle.
type AcceptFunc func(port int, conn net.Conn)

// Controller maintains ActiveListeners under a single mutex and
// reconciles it against a desired port set via ApplyDesired. No
// operation holds the mutex across a bind/close syscall: the diff is
// snapshotted first and the lock released before any I/O runs.
type Controller struct {
	mu       sync.Mutex
	active   map[int]net.Listener
	bindAddr string
	backlog  int
	reserved map[int]bool
	accept   AcceptFunc

	warnOnce *lru.Cache[int, struct{}]
}

// New creates a Controller. bindAddr is the interface every user-facing
// listener binds to (IR_BIND), matching the Bridge/AutoSync acceptors.
// bridgePort and syncPort are always excluded from any desired set,
// even if a caller (or a malformed sync message) names them.
func New(bindAddr string, backlog int, bridgePort, syncPort int, accept AcceptFunc) *Controller {
	cache, _ := lru.New[int, struct{}](256)
	return &Controller{
		active:   make(map[int]net.Listener),
		bindAddr: bindAddr,
		backlog:  backlog,
		reserved: map[int]bool{
			bridgePort: true,
			syncPort:   true,
		},
		accept:   accept,
		warnOnce: cache,
	}
}

// ActivePorts returns a snapshot of the currently open ports.
func (c *Controller) ActivePorts() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	ports := make([]int, 0, len(c.active))
	for p := range c.active {
		ports = append(ports, p)
	}
	return ports
}

// sanitize intersects desired with [1,65535] and drops reserved ports.
func (c *Controller) sanitize(desired []int) map[int]bool {
	out := make(map[int]bool, len(desired))
	for _, p := range desired {
		if p < 1 || p > 65535 {
			continue
		}
		if c.reserved[p] {
			continue
		}
		out[p] = true
	}
	return out
}

// ApplyDesired reconciles ActiveListeners to match desired. Bind
// failures are logged and skipped — they never abort the rest of the
// apply. Repeated calls with the same effective set are a no-op.
func (c *Controller) ApplyDesired(desired []int) {
	want := c.sanitize(desired)

	c.mu.Lock()
	var toOpen, toClose []int
	for p := range want {
		if _, ok := c.active[p]; !ok {
			toOpen = append(toOpen, p)
		}
	}
	closing := make(map[int]net.Listener)
	for p, ln := range c.active {
		if !want[p] {
			toClose = append(toClose, p)
			closing[p] = ln
		}
	}
	c.mu.Unlock()

	if len(toOpen) == 0 && len(toClose) == 0 {
		return
	}

	opened := make(map[int]net.Listener, len(toOpen))
	for _, p := range toOpen {
		addr := net.JoinHostPort(c.bindAddr, strconv.Itoa(p))
		ln, err := netutil.ListenTCP(addr, c.backlog)
		if err != nil {
			if !c.warnOnce.Contains(p) {
				log.Warn("bind failed, skipping port", "port", p, "err", err)
				c.warnOnce.Add(p, struct{}{})
			}
			continue
		}
		c.warnOnce.Remove(p)
		opened[p] = ln
		go c.acceptLoop(p, ln)
	}

	for _, ln := range closing {
		_ = ln.Close()
	}

	c.mu.Lock()
	for p, ln := range opened {
		c.active[p] = ln
	}
	for _, p := range toClose {
		delete(c.active, p)
	}
	c.mu.Unlock()

	if len(opened) > 0 || len(toClose) > 0 {
		log.Info("applied desired port set", "opened", len(opened), "closed", len(toClose))
	}
}

// acceptLoop serves one listener until it is closed (directly, or by a
// later ApplyDesired that removes the port). Accept errors after close
// are expected and silent; transient errors are retried via
// go-temp-err-catcher; anything else is logged and ends the loop.
func (c *Controller) acceptLoop(port int, ln net.Listener) {
	var tec TempErrCatcher.TempErrCatcher
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			if tec.IsTemporary(err) {
				continue
			}
			log.Warn("accept failed, listener loop ending", "port", port, "err", err)
			return
		}
		go c.accept(port, conn)
	}
}

// CloseAll closes every active listener, e.g. at process shutdown.
func (c *Controller) CloseAll() {
	c.mu.Lock()
	listeners := c.active
	c.active = make(map[int]net.Listener)
	c.mu.Unlock()

	for _, ln := range listeners {
		_ = ln.Close()
	}
}
