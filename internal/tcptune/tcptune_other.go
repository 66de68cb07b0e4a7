//go:build !linux

package tcptune

import "net"

// setKeepAliveKernelKnobs is a no-op outside Linux: net.TCPConn's
// portable API (SetKeepAlivePeriod) is all that's available, and that
// was already applied by Apply before this is called.
func setKeepAliveKernelKnobs(_ *net.TCPConn, _ int, _ int) {}
