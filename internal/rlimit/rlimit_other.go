//go:build !linux

package rlimit

// Non-Linux platforms: the soft-limit raise is a best-effort Linux
// optimization only; elsewhere we report 0, which gives sizing an fd
// budget of 0 and so the 100-connection floor.
func raise(_ uint64) uint64 {
	log.Info("nofile soft-limit raise skipped on this platform")
	return 0
}

func softLimit() uint64 {
	return 0
}
