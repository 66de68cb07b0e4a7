//go:build linux

package rlimit

import "golang.org/x/sys/unix"

func raise(target uint64) uint64 {
	var limit unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &limit); err != nil {
		log.Warn("getrlimit failed, leaving nofile limit untouched", "err", err)
		return 0
	}

	want := target
	if want > limit.Max {
		want = limit.Max
	}
	if want <= limit.Cur {
		return limit.Cur
	}

	newLimit := unix.Rlimit{Cur: want, Max: limit.Max}
	if err := unix.Setrlimit(unix.RLIMIT_NOFILE, &newLimit); err != nil {
		log.Warn("setrlimit failed, keeping current soft limit", "target", target, "current", limit.Cur, "err", err)
		return limit.Cur
	}

	log.Info("raised nofile soft limit", "from", limit.Cur, "to", want, "hard", limit.Max)
	return want
}

func softLimit() uint64 {
	var limit unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &limit); err != nil {
		return 0
	}
	return limit.Cur
}
