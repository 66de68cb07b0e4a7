//go:build !linux

package portscan

// Enumerate returns no ports on non-Linux hosts: AutoSync still runs,
// it just has nothing to report.
func Enumerate() []uint16 {
	return nil
}
