//go:build linux

package netutil

import (
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// ListenTCP opens a TCP listener with an explicit backlog and
// SO_REUSEADDR, the way the Listener Controller needs for
// backlog_ports and the Bridge/Sync acceptors need for
// backlog_bridge/backlog_sync. The stdlib's
// net.Listen always uses the kernel's somaxconn default and offers no
// way to override it per-listener, so this builds the socket directly.
func ListenTCP(addr string, backlog int) (net.Listener, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, err
	}

	domain := unix.AF_INET
	sockAddr, err := toSockaddr(tcpAddr, &domain)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Socket(domain, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return nil, fmt.Errorf("socket: %w", err)
	}
	closeOnErr := true
	defer func() {
		if closeOnErr {
			unix.Close(fd)
		}
	}()

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return nil, fmt.Errorf("setsockopt SO_REUSEADDR: %w", err)
	}

	if err := unix.Bind(fd, sockAddr); err != nil {
		return nil, fmt.Errorf("bind: %w", err)
	}

	if backlog <= 0 {
		backlog = 128
	}
	if err := unix.Listen(fd, backlog); err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}

	file := os.NewFile(uintptr(fd), addr)
	ln, err := net.FileListener(file)
	// net.FileListener dup()s the fd; our copy must be closed either
	// way once the *os.File wrapper has handed off.
	_ = file.Close()
	if err != nil {
		return nil, fmt.Errorf("FileListener: %w", err)
	}

	closeOnErr = false
	return ln, nil
}

func toSockaddr(addr *net.TCPAddr, domain *int) (unix.Sockaddr, error) {
	if ip4 := addr.IP.To4(); ip4 != nil {
		*domain = unix.AF_INET
		var sa unix.SockaddrInet4
		sa.Port = addr.Port
		copy(sa.Addr[:], ip4)
		return &sa, nil
	}
	*domain = unix.AF_INET6
	var sa unix.SockaddrInet6
	sa.Port = addr.Port
	if addr.IP != nil {
		copy(sa.Addr[:], addr.IP.To16())
	}
	return &sa, nil
}
