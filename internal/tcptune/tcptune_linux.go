//go:build linux

package tcptune

import (
	"net"

	"golang.org/x/sys/unix"
)

// setKeepAliveKernelKnobs sets TCP_KEEPIDLE/TCP_KEEPINTVL/TCP_KEEPCNT
// directly, the way the stdlib's SetKeepAlivePeriod alone cannot
// express the probe count. Falls back to the numeric option values
// (4, 5, 6) when the named unix constants are unavailable in an older
// header set.
func setKeepAliveKernelKnobs(tc *net.TCPConn, idleSecs, count int) {
	raw, err := tc.SyscallConn()
	if err != nil {
		log.Debug("SyscallConn unavailable, skipping kernel keepalive knobs", "err", err)
		return
	}

	const (
		tcpKeepIdleFallback  = 4
		tcpKeepIntvlFallback = 5
		tcpKeepCntFallback   = 6
	)

	keepIdleOpt := unix.TCP_KEEPIDLE
	if keepIdleOpt == 0 {
		keepIdleOpt = tcpKeepIdleFallback
	}
	keepIntvlOpt := unix.TCP_KEEPINTVL
	if keepIntvlOpt == 0 {
		keepIntvlOpt = tcpKeepIntvlFallback
	}
	keepCntOpt := unix.TCP_KEEPCNT
	if keepCntOpt == 0 {
		keepCntOpt = tcpKeepCntFallback
	}

	err = raw.Control(func(fd uintptr) {
		if e := unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, keepIdleOpt, idleSecs); e != nil {
			log.Debug("set TCP_KEEPIDLE failed", "err", e)
		}
		if e := unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, keepIntvlOpt, idleSecs); e != nil {
			log.Debug("set TCP_KEEPINTVL failed", "err", e)
		}
		if e := unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, keepCntOpt, count); e != nil {
			log.Debug("set TCP_KEEPCNT failed", "err", e)
		}
	})
	if err != nil {
		log.Debug("Control failed while setting keepalive knobs", "err", err)
	}
}
