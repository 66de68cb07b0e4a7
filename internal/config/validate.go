package config

// Validate rejects a Tunables value that cannot be run: negative
// durations, non-positive sizes where a size is meaningful.
func (t Tunables) Validate() error {
	if t.DialTimeout <= 0 || t.PoolWait <= 0 {
		return ErrInvalidConfig
	}
	if t.CopyChunk <= 0 {
		return ErrInvalidConfig
	}
	if t.SyncInterval <= 0 {
		return ErrInvalidConfig
	}
	if t.BacklogBridge <= 0 || t.BacklogPorts <= 0 || t.BacklogSync <= 0 {
		return ErrInvalidConfig
	}
	if t.MaxSyncPorts <= 0 {
		return ErrInvalidConfig
	}
	if t.PoolMaxAge <= 0 || t.PoolPingInterval <= 0 {
		return ErrInvalidConfig
	}
	if t.SessionIdle < 0 || t.MaxSessions < 0 || t.DialConcurrency < 0 {
		return ErrInvalidConfig
	}
	return nil
}

// Validate rejects an IRConfig that cannot be run: a manual port list
// is required when AutoSync is disabled, and the bridge/sync ports
// must differ and be in range.
func (c IRConfig) Validate() error {
	if !inPortRange(c.BridgePort) || !inPortRange(c.SyncPort) {
		return ErrInvalidConfig
	}
	if c.BridgePort == c.SyncPort {
		return ErrInvalidConfig
	}
	if !c.AutoSync && len(c.ManualPorts) == 0 {
		return ErrInvalidConfig
	}
	return nil
}

// Validate rejects an EUConfig that cannot be run.
func (c EUConfig) Validate() error {
	if c.IranIP == "" {
		return ErrInvalidConfig
	}
	if !inPortRange(c.BridgePort) || !inPortRange(c.SyncPort) {
		return ErrInvalidConfig
	}
	if c.BridgePort == c.SyncPort {
		return ErrInvalidConfig
	}
	return nil
}

func inPortRange(p int) bool {
	return p >= 1 && p <= 65535
}
