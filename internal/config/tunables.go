// Package config defines the frozen, process-wide Tunables singleton
// and the two role-specific bootstrap configs.
//
// Tunables is read once at startup via Default() + ApplyEnv() and is
// never mutated again; every long-lived component takes it by value or
// by pointer-to-const and never re-reads the environment.
package config

import "time"

// Tunables holds every process-wide knob this module exposes, each
// with a PAHLAVI_* environment override applied by ApplyEnv.
type Tunables struct {
	DialTimeout         time.Duration
	PoolWait            time.Duration
	KeepaliveSecs       int
	SockBuf             int // 0 = OS default
	CopyChunk           int
	SyncInterval        time.Duration
	BacklogBridge       int
	BacklogPorts        int
	BacklogSync         int
	DrainThreshold      int
	MaxSyncPorts        int
	PoolMaxAge          time.Duration
	PoolPingInterval    time.Duration
	PoolRecycleInterval time.Duration // 0 = derive from PoolMaxAge
	SessionIdle         time.Duration // 0 disables the idle watchdog
	MaxSessions         int           // 0 = unbounded
	DialConcurrency     int
	IRBind              string
	EULocalHost         string
	Pool                int // 0 = auto-size
	NofileTarget        int
	LogLevel            string
}

// Default returns the documented defaults for every tunable.
func Default() Tunables {
	return Tunables{
		DialTimeout:         10 * time.Second,
		PoolWait:            5 * time.Second,
		KeepaliveSecs:       30,
		SockBuf:             0,
		CopyChunk:           32 * 1024,
		SyncInterval:        10 * time.Second,
		BacklogBridge:       256,
		BacklogPorts:        256,
		BacklogSync:         16,
		DrainThreshold:      1 << 20, // 1 MiB
		MaxSyncPorts:        64,
		PoolMaxAge:          10 * time.Minute,
		PoolPingInterval:    30 * time.Second,
		PoolRecycleInterval: 0,
		SessionIdle:         5 * time.Minute,
		MaxSessions:         0,
		DialConcurrency:     32,
		IRBind:              "0.0.0.0",
		EULocalHost:         "127.0.0.1",
		Pool:                0,
		NofileTarget:        65535,
		LogLevel:            "",
	}
}

// RecycleInterval returns PoolRecycleInterval, or the derived default
// max(5, min(30, pool_max_age/2)) (in seconds) when it is unset.
func (t Tunables) RecycleInterval() time.Duration {
	if t.PoolRecycleInterval > 0 {
		return t.PoolRecycleInterval
	}
	secs := int(t.PoolMaxAge.Seconds() / 2)
	if secs < 5 {
		secs = 5
	}
	if secs > 30 {
		secs = 30
	}
	return time.Duration(secs) * time.Second
}
