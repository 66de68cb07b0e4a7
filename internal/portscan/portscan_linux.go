//go:build linux

package portscan

import (
	"bytes"
	"os"
	"os/exec"

	"github.com/mehrannoway-ops/TuM/internal/logging"
)

var log = logging.Logger("portscan")

// Enumerate lists the host's currently LISTEN-state TCP ports. It tries
// /proc/net/tcp and /proc/net/tcp6 first; if both come back empty (a
// restrictive container, a namespace without procfs, or simply no
// listeners), it falls back to `ss -lnt`.
func Enumerate() []uint16 {
	var ports []uint16
	ports = append(ports, fromProc("/proc/net/tcp")...)
	ports = append(ports, fromProc("/proc/net/tcp6")...)
	if len(ports) > 0 {
		return ports
	}

	out, err := exec.Command("ss", "-lnt").Output()
	if err != nil {
		log.Debug("ss -lnt fallback failed", "err", err)
		return nil
	}
	return ParseSSOutput(bytes.NewReader(out))
}

func fromProc(path string) []uint16 {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	return ParseProcNetTCP(f)
}
