// Package arena implements the monotonic chunked bump allocator backing each
// (goroutine, pool, generation) slot. An Arena grows by whole chunks and is
// reclaimed only by Release, which drops every chunk in one step and leaves
// the arena empty and reusable.
//
// An Arena instance is not goroutine-safe. The pool layer guarantees that
// Alloc is only ever called by the owning goroutine and that Release runs
// only while the owner is not allocating.
package arena

import (
	"errors"
	"math"
	"unsafe"

	"github.com/23skdu/mempool/internal/metrics"
)

// DefaultChunkSize is the default chunk size for new arenas (64 KiB).
const DefaultChunkSize = 1 << 16

var (
	// ErrOOM is returned when growing the arena would exceed its byte cap.
	ErrOOM = errors.New("arena: out of memory")

	// ErrBadAlign is returned when the requested alignment is not a power of two.
	ErrBadAlign = errors.New("arena: alignment must be a power of two")
)

// chunk is a single slab of backing memory. base caches the address of
// buf[0] so alignment can be computed against real addresses rather than
// chunk offsets.
type chunk struct {
	buf  []byte
	base uintptr
	off  uintptr
}

// Arena is a monotonic bump allocator. Memory is handed out front to back
// from the current chunk; offsets are never reissued, so every allocation
// returns bytes that are still runtime-zeroed.
type Arena struct {
	chunks    []chunk
	current   *chunk
	chunkSize int
	maxBytes  int64 // 0 means unbounded
	capacity  int64
}

// New creates an empty arena. No memory is reserved until the first Alloc,
// so a failed first allocation leaves nothing behind. chunkSize <= 0 selects
// DefaultChunkSize; maxBytes caps total chunk bytes, 0 means unbounded.
func New(chunkSize int, maxBytes int64) *Arena {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Arena{chunkSize: chunkSize, maxBytes: maxBytes}
}

// Alloc returns a pointer to size bytes aligned to align, which must be a
// power of two. The bytes stay valid until the next Release. Zero-size
// requests consume one byte so distinct allocations get distinct addresses.
func (a *Arena) Alloc(size, align uintptr) (unsafe.Pointer, error) {
	if align == 0 {
		align = 1
	}
	if align&(align-1) != 0 {
		return nil, ErrBadAlign
	}
	if size == 0 {
		size = 1
	}

	// Fast path: bump inside the current chunk.
	if c := a.current; c != nil {
		addr := c.base + c.off
		aligned := (addr + align - 1) &^ (align - 1)
		end := aligned + size - c.base
		if end <= uintptr(len(c.buf)) {
			c.off = end
			return unsafe.Pointer(&c.buf[aligned-c.base]), nil
		}
	}

	return a.allocSlow(size, align)
}

// allocSlow grows the arena by one chunk and allocates from it.
func (a *Arena) allocSlow(size, align uintptr) (unsafe.Pointer, error) {
	if size > math.MaxInt-align {
		return nil, ErrOOM
	}
	// Worst case the chunk base is misaligned by align-1 bytes.
	need := int(size + align - 1)
	csize := a.chunkSize
	if need > csize {
		csize = need
	}
	if a.maxBytes > 0 && a.capacity+int64(csize) > a.maxBytes {
		return nil, ErrOOM
	}

	buf := make([]byte, csize)
	a.chunks = append(a.chunks, chunk{
		buf:  buf,
		base: uintptr(unsafe.Pointer(&buf[0])),
	})
	a.current = &a.chunks[len(a.chunks)-1]
	a.capacity += int64(csize)

	metrics.ArenaChunksTotal.Inc()
	metrics.ArenaChunkBytes.Add(float64(csize))

	c := a.current
	aligned := (c.base + align - 1) &^ (align - 1)
	c.off = aligned + size - c.base
	return unsafe.Pointer(&c.buf[aligned-c.base]), nil
}

// Release drops every chunk in one step. All pointers previously returned by
// Alloc are invalidated by contract; the arena itself stays usable and grows
// fresh chunks on the next Alloc.
func (a *Arena) Release() {
	if a.chunks == nil {
		return
	}
	metrics.ArenaChunkBytes.Sub(float64(a.capacity))
	metrics.ArenaReleasesTotal.Inc()
	a.chunks = nil
	a.current = nil
	a.capacity = 0
}

// SizeInUse returns the number of bytes handed out, including alignment
// padding.
func (a *Arena) SizeInUse() int64 {
	var sum int64
	for i := range a.chunks {
		sum += int64(a.chunks[i].off)
	}
	return sum
}

// Capacity returns the total byte size of all chunks.
func (a *Arena) Capacity() int64 {
	return a.capacity
}

// NumChunks returns the number of chunks currently owned by the arena.
func (a *Arena) NumChunks() int {
	return len(a.chunks)
}

// Stats is a point-in-time snapshot of arena usage.
type Stats struct {
	SizeInUse int64
	Capacity  int64
	NumChunks int
}

// StatsSnapshot returns a snapshot of the arena's usage counters.
func (a *Arena) StatsSnapshot() Stats {
	return Stats{
		SizeInUse: a.SizeInUse(),
		Capacity:  a.Capacity(),
		NumChunks: a.NumChunks(),
	}
}
