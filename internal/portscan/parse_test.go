package portscan

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseProcNetTCP_SelectsOnlyListenState(t *testing.T) {
	const sample = `  sl  local_address rem_address   st tx_queue rx_queue tr tm->when retrnsmt   uid  timeout inode
   0: 0100007F:1F90 00000000:0000 0A 00000000:00000000 00:00000000 00000000     0        0 12345 1 0000000000000000 100 0 0 10 0
   1: 0100007F:0050 0A0000C0:CB3A 01 00000000:00000000 00:00000000 00000000     0        0 12346 1 0000000000000000 100 0 0 10 0
`
	ports := ParseProcNetTCP(strings.NewReader(sample))
	assert.Equal(t, []uint16{8080}, ports)
}

func TestParseProcNetTCP_SkipsMalformedRows(t *testing.T) {
	const sample = "header line\nnot enough fields\n"
	ports := ParseProcNetTCP(strings.NewReader(sample))
	assert.Empty(t, ports)
}

func TestParseSSOutput_ExtractsPortFromLocalAddress(t *testing.T) {
	const sample = `State   Recv-Q  Send-Q   Local Address:Port    Peer Address:Port
LISTEN  0       128            127.0.0.1:8080         0.0.0.0:*
LISTEN  0       128                  [::]:9090            [::]:*
`
	ports := ParseSSOutput(strings.NewReader(sample))
	assert.Equal(t, []uint16{8080, 9090}, ports)
}
