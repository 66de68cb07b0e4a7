// Package autosync implements both halves of the AutoSync channel: the
// EU client that reports its local listening ports, and the IR acceptor
// that turns those reports into desired listener state.
package autosync

import (
	"context"
	"net"
	"strconv"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mehrannoway-ops/TuM/internal/autosync/wire"
	"github.com/mehrannoway-ops/TuM/internal/logging"
)

var log = logging.Logger("autosync")

// PortLister enumerates the local TCP ports currently worth reporting.
// Satisfied by internal/portscan.Enumerate; kept as a func type so this
// package has no direct dependency on how ports are discovered.
type PortLister func() []uint16

// ClientOptions mirrors the Tunables the EU client needs.
type ClientOptions struct {
	IranIP       string
	SyncPort     int
	BridgePort   int // excluded from every report
	SyncInterval time.Duration
	MaxSyncPorts int
	DialTimeout  time.Duration
}

// Client runs the EU AutoSync loop under the Supervisor.
type Client struct {
	opts    ClientOptions
	list    PortLister
	warnLRU *lru.Cache[string, time.Time]
}

// NewClient builds a Client. list supplies the current local listening
// ports on each tick; the bridge and sync ports are filtered out here
// regardless of whether list already excludes them.
func NewClient(opts ClientOptions, list PortLister) *Client {
	cache, _ := lru.New[string, time.Time](1)
	return &Client{opts: opts, list: list, warnLRU: cache}
}

// RunOnce dials sync_port, reports once immediately, then reports
// again every sync_interval until ctx is cancelled or the connection
// fails. Intended as the Supervisor-wrapped task body; a returned error
// triggers the Supervisor's exponential backoff, the same schedule every
// supervised task gets (start 0.2s, cap 5s). This package applies no
// backoff schedule of its own.
func (c *Client) RunOnce(ctx context.Context) error {
	addr := net.JoinHostPort(c.opts.IranIP, strconv.Itoa(c.opts.SyncPort))
	conn, err := net.DialTimeout("tcp", addr, c.opts.DialTimeout)
	if err != nil {
		c.warnRateLimited("dial sync port failed", err)
		return err
	}
	defer conn.Close()
	log.Info("autosync connected", "addr", addr)

	ticker := time.NewTicker(c.opts.SyncInterval)
	defer ticker.Stop()

	if err := c.reportOnce(conn); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := c.reportOnce(conn); err != nil {
				return err
			}
		}
	}
}

func (c *Client) reportOnce(conn net.Conn) error {
	ports := c.list()
	filtered := make([]uint16, 0, len(ports))
	for _, p := range ports {
		if int(p) == c.opts.BridgePort || int(p) == c.opts.SyncPort {
			continue
		}
		filtered = append(filtered, p)
	}

	msg := wire.EncodePT1(filtered, c.opts.MaxSyncPorts)
	if err := conn.SetWriteDeadline(time.Now().Add(c.opts.SyncInterval)); err != nil {
		return err
	}
	_, err := conn.Write(msg)
	return err
}

// warnRateLimited logs at most once per 60s per message, so a
// disabled-sync IR peer doesn't flood the log.
func (c *Client) warnRateLimited(msg string, err error) {
	if last, ok := c.warnLRU.Get(msg); ok && time.Since(last) < 60*time.Second {
		return
	}
	c.warnLRU.Add(msg, time.Now())
	log.Warn(msg, "err", err)
}
