package dispatcher

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mehrannoway-ops/TuM/internal/netutil"
	"github.com/mehrannoway-ops/TuM/internal/pool"
	"github.com/mehrannoway-ops/TuM/internal/proxy"
)

func baseOpts() Options {
	return Options{
		PoolWait:       200 * time.Millisecond,
		PoolMaxAge:     time.Minute,
		HeaderDeadline: time.Second,
		Proxy:          proxy.Options{CopyChunk: 4096},
	}
}

func TestHandle_WritesHeaderAndProxies(t *testing.T) {
	mc := clock.NewMock()
	p := pool.New(4, mc)

	tunnelIR, tunnelEU := net.Pipe()
	p.Put(pool.NewPooledConnection(tunnelIR, mc))

	userSrv, userCli := net.Pipe()
	defer userCli.Close()

	d := New(p, baseOpts(), 0)
	go d.Handle(context.Background(), 8080, userSrv)

	header, err := netutil.ReadHeader(tunnelEU)
	require.NoError(t, err)
	assert.EqualValues(t, 8080, header)

	go func() {
		userCli.Write([]byte("hi"))
	}()
	buf := make([]byte, 2)
	_, err = tunnelEU.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hi", string(buf))

	tunnelEU.Close()
}

func TestHandle_NoPoolConnectionClosesUser(t *testing.T) {
	mc := clock.NewMock()
	p := pool.New(1, mc)

	userSrv, userCli := net.Pipe()

	opts := baseOpts()
	opts.PoolWait = 0
	d := New(p, opts, 0)

	d.Handle(context.Background(), 8080, userSrv)

	buf := make([]byte, 1)
	_, err := userCli.Read(buf)
	assert.Error(t, err, "user connection should be closed when no pool connection is available")
}

func TestHandle_DiscardsStaleConnectionAndRedraws(t *testing.T) {
	mc := clock.NewMock()
	p := pool.New(4, mc)

	staleIR, stalePeer := net.Pipe()
	stalePC := pool.NewPooledConnection(staleIR, mc)
	p.Put(stalePC)

	mc.Add(time.Hour) // now older than PoolMaxAge

	freshIR, freshPeer := net.Pipe()
	p.Put(pool.NewPooledConnection(freshIR, mc))

	userSrv, userCli := net.Pipe()
	defer userCli.Close()
	defer freshPeer.Close()

	d := New(p, baseOpts(), 0)
	go d.Handle(context.Background(), 9090, userSrv)

	header, err := netutil.ReadHeader(freshPeer)
	require.NoError(t, err)
	assert.EqualValues(t, 9090, header)

	buf := make([]byte, 1)
	_, err = stalePeer.Read(buf)
	assert.Error(t, err, "the stale connection should have been closed, not assigned")
}
