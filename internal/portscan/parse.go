// Package portscan enumerates the local TCP ports an EU host is
// currently listening on, for the AutoSync client to report.
package portscan

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

const listenState = "0A"

// ParseProcNetTCP parses the contents of /proc/net/tcp or
// /proc/net/tcp6, returning the local port of every row whose state
// column is "0A" (LISTEN). Malformed rows are skipped rather than
// aborting the whole parse — one bad line from a kernel we don't fully
// understand shouldn't blind AutoSync to every other listener.
func ParseProcNetTCP(r io.Reader) []uint16 {
	var ports []uint16
	scanner := bufio.NewScanner(r)
	first := true
	for scanner.Scan() {
		if first {
			first = false // header row: "sl local_address rem_address st ..."
			continue
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 {
			continue
		}
		if fields[3] != listenState {
			continue
		}
		port, ok := localAddrPort(fields[1])
		if !ok {
			continue
		}
		ports = append(ports, port)
	}
	return ports
}

// localAddrPort decodes the port from a "local_address" field of the
// form "0100007F:1F90" (address:port, both hex, port big-endian).
func localAddrPort(field string) (uint16, bool) {
	idx := strings.IndexByte(field, ':')
	if idx < 0 || idx+1 >= len(field) {
		return 0, false
	}
	n, err := strconv.ParseUint(field[idx+1:], 16, 16)
	if err != nil {
		return 0, false
	}
	return uint16(n), true
}

// ParseSSOutput parses `ss -lnt` output, extracting the port from the
// "Local Address:Port" column. Used as the fallback when
// /proc/net/tcp[6] yields nothing.
func ParseSSOutput(r io.Reader) []uint16 {
	var ports []uint16
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 {
			continue
		}
		// ss -lnt columns: State Recv-Q Send-Q Local:Port Peer:Port ...
		local := fields[3]
		lastColon := strings.LastIndexByte(local, ':')
		if lastColon < 0 {
			continue
		}
		n, err := strconv.ParseUint(local[lastColon+1:], 10, 16)
		if err != nil {
			continue
		}
		ports = append(ports, uint16(n))
	}
	return ports
}
