package mempool

import (
	"errors"

	"github.com/23skdu/mempool/internal/arena"
	"github.com/23skdu/mempool/internal/registry"
)

// Errors surfaced by the public API. ErrOOM and ErrBadAlign originate in the
// arena, ErrExhausted in the registry; they are re-exported so callers only
// import this package.
var (
	// ErrOOM means growing an arena would exceed the pool's byte cap. The
	// pool stays usable and prior allocations are unaffected.
	ErrOOM = arena.ErrOOM

	// ErrBadAlign means the requested alignment is not a power of two.
	ErrBadAlign = arena.ErrBadAlign

	// ErrExhausted means all MaxPools pool ids are in use.
	ErrExhausted = registry.ErrExhausted

	// ErrClosed means the pool has already been closed.
	ErrClosed = errors.New("mempool: pool is closed")
)
