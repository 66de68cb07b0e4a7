// Package sizing implements the PAHLAVI_POOL auto-sizing formula: when
// the pool size is not pinned explicitly, derive one from the available
// file-descriptor budget and installed RAM.
package sizing

import (
	"github.com/pbnjay/memory"

	"github.com/mehrannoway-ops/TuM/internal/rlimit"
)

// Role selects which fraction of the fd budget a role is allowed to
// spend on pool connections.
type Role int

const (
	RoleIR Role = iota
	RoleEU
)

func (r Role) fraction() float64 {
	if r == RoleEU {
		return 0.30
	}
	return 0.22
}

const (
	minPoolSize = 100
	maxPoolSize = 2000
	fdReserve   = 800
	ramFallback = 500
)

// PoolSize returns explicit unchanged when it is positive (an operator
// override via PAHLAVI_POOL or a CLI prompt answer); otherwise it
// derives a size from the soft nofile limit and installed RAM, clamped
// to [100, 2000].
func PoolSize(role Role, explicit int) int {
	if explicit > 0 {
		return explicit
	}
	return autoSize(role, rlimit.SoftLimit(), totalRAMMiB())
}

// autoSize is the pure arithmetic core, factored out so the clamp
// boundaries can be tested without touching rlimit or the OS.
func autoSize(role Role, nofileSoft uint64, ramMiB uint64) int {
	fdBudget := int64(nofileSoft) - fdReserve
	if fdBudget < 0 {
		fdBudget = 0
	}

	byFD := int(float64(fdBudget) * role.fraction())

	byRAM := ramFallback
	if ramMiB > 0 {
		byRAM = int((ramMiB / 1024) * 250)
	}

	size := byFD
	if byRAM < size {
		size = byRAM
	}

	if size < minPoolSize {
		size = minPoolSize
	}
	if size > maxPoolSize {
		size = maxPoolSize
	}
	return size
}

func totalRAMMiB() uint64 {
	total := memory.TotalMemory()
	if total == 0 {
		return 0
	}
	return total / (1024 * 1024)
}
