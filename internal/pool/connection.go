package pool

import (
	"net"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
)

// PooledConnection is one idle EU-originated connection waiting on IR
// for a 2-byte assignment header. It must always leave
// the pool either assigned (handed to a proxy) or closed — it is never
// dropped silently.
type PooledConnection struct {
	Conn      net.Conn
	CreatedAt time.Time
	ID        string // log correlation only; never placed on the wire
}

// NewPooledConnection wraps an accepted connection, stamping its
// creation time from clk so age comparisons in tests can use a mock
// clock instead of a real sleep.
func NewPooledConnection(conn net.Conn, clk clock.Clock) *PooledConnection {
	return &PooledConnection{
		Conn:      conn,
		CreatedAt: clk.Now(),
		ID:        uuid.NewString(),
	}
}

// Age reports how long ago this connection was accepted, per clk.
func (pc *PooledConnection) Age(clk clock.Clock) time.Duration {
	return clk.Now().Sub(pc.CreatedAt)
}

// Close closes the underlying connection. Safe to call more than once.
func (pc *PooledConnection) Close() error {
	return pc.Conn.Close()
}
