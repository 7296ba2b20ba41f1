package mempool

import (
	"unsafe"

	arrowmem "github.com/apache/arrow-go/v18/arrow/memory"
)

// Policy selects which generation an Allocator routes to. The choice is
// fixed at adapter construction; the runtime entry points Alloc and
// AllocTemp stay separate.
type Policy int

const (
	// PolicyDefault routes to the active generation.
	PolicyDefault Policy = iota
	// PolicyTemp routes to the temporary generation.
	PolicyTemp
)

// adapterAlign matches Arrow's 64-byte buffer alignment.
const adapterAlign = 64

// Allocator adapts a Pool to Arrow's memory.Allocator so Arrow builders and
// buffers can be backed by pool memory. Free is a no-op; bytes live until
// the owning generation is released. Allocation failure panics, since the
// Allocator interface cannot surface errors.
type Allocator struct {
	pool   *Pool
	policy Policy
}

// NewAllocator creates an adapter for p routing per policy.
func NewAllocator(p *Pool, policy Policy) *Allocator {
	return &Allocator{pool: p, policy: policy}
}

// Allocate returns a 64-byte aligned buffer of len size from the pool.
func (al *Allocator) Allocate(size int) []byte {
	if size < 0 {
		panic("mempool: negative allocation size")
	}
	var (
		ptr unsafe.Pointer
		err error
	)
	if al.policy == PolicyTemp {
		ptr, err = al.pool.AllocTemp(uintptr(size), adapterAlign)
	} else {
		ptr, err = al.pool.Alloc(uintptr(size), adapterAlign)
	}
	if err != nil {
		panic(err)
	}
	return unsafe.Slice((*byte)(ptr), size)
}

// Reallocate bumps a fresh buffer and copies; the old bytes are left for the
// next generation release.
func (al *Allocator) Reallocate(size int, b []byte) []byte {
	if size == len(b) {
		return b
	}
	nb := al.Allocate(size)
	copy(nb, b)
	return nb
}

// Free is a no-op.
func (al *Allocator) Free([]byte) {}

var _ arrowmem.Allocator = (*Allocator)(nil)
