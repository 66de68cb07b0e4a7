// Package rlimit raises the process's soft RLIMIT_NOFILE toward a
// target value, capped by the hard limit, using the same
// golang.org/x/sys/unix surface used elsewhere in this module for
// socket-option tuning.
package rlimit

import "github.com/mehrannoway-ops/TuM/internal/logging"

var log = logging.Logger("rlimit")

// Raise attempts to set RLIMIT_NOFILE's soft limit to target, never
// exceeding the current hard limit. It returns the resulting soft
// limit; any failure is logged and treated as non-fatal. A failed raise
// returns the current soft limit; when the limit cannot be read at all
// (and on non-Linux platforms) it returns 0.
func Raise(target uint64) uint64 {
	return raise(target)
}

// SoftLimit returns the process's current soft RLIMIT_NOFILE without
// attempting to change it. Used by internal/sizing's fd_budget
// calculation.
func SoftLimit() uint64 {
	return softLimit()
}
