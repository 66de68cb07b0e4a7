package pool

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pipe() (net.Conn, net.Conn) {
	return net.Pipe()
}

func TestPut_OverflowClosesRejected(t *testing.T) {
	mc := clock.NewMock()
	p := New(1, mc)

	a, a2 := pipe()
	defer a2.Close()
	b, b2 := pipe()
	defer b2.Close()

	p.Put(NewPooledConnection(a, mc))
	p.Put(NewPooledConnection(b, mc)) // pool full, b must be closed

	assert.Equal(t, 1, p.Len())

	_, err := b.Write([]byte("x"))
	assert.Error(t, err, "the overflowed connection should already be closed")
}

func TestGet_TimeoutExpiresWithNoConnection(t *testing.T) {
	mc := clock.NewMock()
	p := New(2, mc)

	result := make(chan bool, 1)
	go func() {
		_, ok := p.Get(context.Background(), 50*time.Millisecond)
		result <- ok
	}()

	// advance the mock clock past the wait deadline; Get may not have
	// armed its timer yet, so keep advancing until it returns
	for {
		select {
		case ok := <-result:
			assert.False(t, ok)
			return
		default:
			mc.Add(51 * time.Millisecond)
		}
	}
}

func TestGet_ReturnsPutConnectionImmediately(t *testing.T) {
	mc := clock.NewMock()
	p := New(2, mc)

	a, a2 := pipe()
	defer a.Close()
	defer a2.Close()

	pc := NewPooledConnection(a, mc)
	p.Put(pc)

	got, ok := p.Get(context.Background(), time.Second)
	require.True(t, ok)
	assert.Equal(t, pc.ID, got.ID)
	assert.Equal(t, 0, p.Len())
}

func TestRecycleStale_ClosesOldKeepsYoung(t *testing.T) {
	mc := clock.NewMock()
	p := New(4, mc)

	oldConn, oldPeer := pipe()
	defer oldPeer.Close()
	oldPC := NewPooledConnection(oldConn, mc)
	p.Put(oldPC)

	mc.Add(5 * time.Second)

	youngConn, youngPeer := pipe()
	defer youngPeer.Close()
	youngPC := NewPooledConnection(youngConn, mc)
	p.Put(youngPC)

	closed := p.RecycleStale(5 * time.Second)
	assert.Equal(t, 1, closed, "only the entry aged exactly maxAge should be recycled")
	assert.Equal(t, 1, p.Len())

	got, ok := p.Get(context.Background(), 0)
	require.True(t, ok)
	assert.Equal(t, youngPC.ID, got.ID)
}

func TestRecycleStale_AgedExactlyMaxAgeIsRecycled(t *testing.T) {
	mc := clock.NewMock()
	p := New(2, mc)

	conn, peer := pipe()
	defer peer.Close()
	pc := NewPooledConnection(conn, mc)
	p.Put(pc)

	mc.Add(10 * time.Second)

	closed := p.RecycleStale(10 * time.Second)
	assert.Equal(t, 1, closed, "age == maxAge must recycle (>=, not >)")
}

func TestClose_DrainsAndClosesEverything(t *testing.T) {
	mc := clock.NewMock()
	p := New(3, mc)

	var peers []net.Conn
	for i := 0; i < 3; i++ {
		c, peer := pipe()
		peers = append(peers, peer)
		defer peer.Close()
		p.Put(NewPooledConnection(c, mc))
	}

	require.NoError(t, p.Close())
	assert.Equal(t, 0, p.Len())
}
