package sizing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoolSize_ExplicitOverrideWins(t *testing.T) {
	assert.Equal(t, 42, PoolSize(RoleIR, 42))
}

func TestAutoSize_ClampedToRange(t *testing.T) {
	// Starved fd budget and no RAM reading: clamps up to the floor.
	assert.Equal(t, minPoolSize, autoSize(RoleIR, 0, 0))

	// Enormous fd budget and RAM: clamps down to the ceiling.
	assert.Equal(t, maxPoolSize, autoSize(RoleEU, 10_000_000, 10_000_000))
}

func TestAutoSize_EURoleGetsLargerFractionThanIR(t *testing.T) {
	// fd budget 1200: IR 0.22 -> 264, EU 0.30 -> 360, both under the
	// 500 RAM-fallback bound and above the 100 floor
	const nofile = 2_000
	ir := autoSize(RoleIR, nofile, 0)
	eu := autoSize(RoleEU, nofile, 0)
	assert.Greater(t, eu, ir)
}

func TestAutoSize_AlwaysInClampRange(t *testing.T) {
	cases := []struct {
		nofile uint64
		ram    uint64
	}{
		{0, 0},
		{1, 1},
		{100, 50},
		{5000, 2000},
		{1_000_000, 1_000_000},
	}
	for _, c := range cases {
		got := autoSize(RoleIR, c.nofile, c.ram)
		assert.GreaterOrEqual(t, got, minPoolSize)
		assert.LessOrEqual(t, got, maxPoolSize)
	}
}
