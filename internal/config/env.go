package config

import (
	"os"
	"strconv"
	"time"
)

// EnvPrefix is prepended to every tunable's environment variable name.
const EnvPrefix = "PAHLAVI_"

// ApplyEnv overrides each field with its PAHLAVI_* environment
// variable when present and parseable, and silently keeps the current
// value (the documented default, if called right after Default())
// otherwise. Environment variables are read exactly once; callers must
// not call this again after boot.
func (t *Tunables) ApplyEnv() {
	envDuration(&t.DialTimeout, "DIAL_TIMEOUT")
	envDuration(&t.PoolWait, "POOL_WAIT")
	envInt(&t.KeepaliveSecs, "KEEPALIVE_SECS")
	envInt(&t.SockBuf, "SOCKBUF")
	envInt(&t.CopyChunk, "COPY_CHUNK")
	envDuration(&t.SyncInterval, "SYNC_INTERVAL")
	envInt(&t.BacklogBridge, "BACKLOG_BRIDGE")
	envInt(&t.BacklogPorts, "BACKLOG_PORTS")
	envInt(&t.BacklogSync, "BACKLOG_SYNC")
	envInt(&t.DrainThreshold, "DRAIN_THRESHOLD")
	envInt(&t.MaxSyncPorts, "MAX_SYNC_PORTS")
	envDuration(&t.PoolMaxAge, "POOL_MAX_AGE")
	envDuration(&t.PoolPingInterval, "POOL_PING_INTERVAL")
	envDuration(&t.PoolRecycleInterval, "POOL_RECYCLE_INTERVAL")
	envDuration(&t.SessionIdle, "SESSION_IDLE")
	envInt(&t.MaxSessions, "MAX_SESSIONS")
	envInt(&t.DialConcurrency, "DIAL_CONCURRENCY")
	envString(&t.IRBind, "IR_BIND")
	envString(&t.EULocalHost, "EU_LOCAL_HOST")
	envInt(&t.Pool, "POOL")
	envInt(&t.NofileTarget, "NOFILE_TARGET")
	envString(&t.LogLevel, "LOG_LEVEL")
}

func envString(dst *string, name string) {
	if v := os.Getenv(EnvPrefix + name); v != "" {
		*dst = v
	}
}

func envInt(dst *int, name string) {
	v := os.Getenv(EnvPrefix + name)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return
	}
	*dst = n
}

func envDuration(dst *time.Duration, name string) {
	v := os.Getenv(EnvPrefix + name)
	if v == "" {
		return
	}
	// A bare number is seconds unless the value itself carries a Go
	// duration suffix (e.g. "500ms").
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		*dst = time.Duration(secs * float64(time.Second))
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
	}
}
