package config

// IRConfig is the bootstrap configuration for the IR (public-facing)
// role.
type IRConfig struct {
	BridgePort  int
	SyncPort    int
	AutoSync    bool
	ManualPorts []int // used only when AutoSync is false
}

// EUConfig is the bootstrap configuration for the EU (backend-access)
// role.
type EUConfig struct {
	IranIP         string
	BridgePort     int
	SyncPort       int
	EnableAutoSync bool
}
