package listener

import (
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopAccept(port int, conn net.Conn) {
	conn.Close()
}

func TestApplyDesired_OpensAndClosesPorts(t *testing.T) {
	c := New("127.0.0.1", 16, 7000, 7001, noopAccept)

	portA, portB := 29111, 29112

	c.ApplyDesired([]int{portA})
	require.Eventually(t, func() bool {
		return dialSucceeds(portA)
	}, time.Second, 10*time.Millisecond)
	assert.ElementsMatch(t, []int{portA}, c.ActivePorts())

	c.ApplyDesired([]int{portB})
	require.Eventually(t, func() bool {
		return dialSucceeds(portB) && !dialSucceeds(portA)
	}, time.Second, 10*time.Millisecond)
	assert.ElementsMatch(t, []int{portB}, c.ActivePorts())

	c.CloseAll()
}

func TestApplyDesired_ExcludesReservedPorts(t *testing.T) {
	c := New("127.0.0.1", 16, 7000, 7001, noopAccept)
	c.ApplyDesired([]int{7000, 7001, 40123})
	defer c.CloseAll()

	require.Eventually(t, func() bool {
		return dialSucceeds(40123)
	}, time.Second, 10*time.Millisecond)

	ports := c.ActivePorts()
	assert.NotContains(t, ports, 7000)
	assert.NotContains(t, ports, 7001)
}

func TestApplyDesired_SanitizesOutOfRangePorts(t *testing.T) {
	c := New("127.0.0.1", 16, 7000, 7001, noopAccept)
	c.ApplyDesired([]int{0, -1, 70000, 65536})
	defer c.CloseAll()

	assert.Empty(t, c.ActivePorts())
}

func TestApplyDesired_RepeatedApplyIsNoOp(t *testing.T) {
	c := New("127.0.0.1", 16, 7000, 7001, noopAccept)
	port := 29113

	c.ApplyDesired([]int{port})
	require.Eventually(t, func() bool {
		return dialSucceeds(port)
	}, time.Second, 10*time.Millisecond)
	firstSnapshot := c.ActivePorts()

	c.ApplyDesired([]int{port})
	defer c.CloseAll()

	assert.ElementsMatch(t, firstSnapshot, c.ActivePorts())
}

func dialSucceeds(port int) bool {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)), 100*time.Millisecond)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
