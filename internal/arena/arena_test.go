package arena

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArena_Alloc_Basic(t *testing.T) {
	a := New(1024, 0)

	p1, err := a.Alloc(40, 8)
	require.NoError(t, err)
	require.NotNil(t, p1)

	// Write through the pointer and read it back after more allocations.
	s1 := unsafe.Slice((*byte)(p1), 40)
	s1[0] = 0xAB
	s1[39] = 0xCD

	p2, err := a.Alloc(40, 8)
	require.NoError(t, err)
	assert.NotEqual(t, uintptr(p1), uintptr(p2))

	assert.Equal(t, byte(0xAB), s1[0])
	assert.Equal(t, byte(0xCD), s1[39])
}

func TestArena_Alloc_Lazy(t *testing.T) {
	a := New(1024, 0)

	// No memory reserved before the first allocation.
	assert.Equal(t, int64(0), a.Capacity())
	assert.Equal(t, 0, a.NumChunks())

	_, err := a.Alloc(8, 8)
	require.NoError(t, err)
	assert.Equal(t, 1, a.NumChunks())
}

func TestArena_Alloc_Alignment(t *testing.T) {
	a := New(64*1024, 0)

	aligns := []uintptr{1, 2, 4, 8, 16, 64, 256, 4096}
	for _, align := range aligns {
		for i := 0; i < 8; i++ {
			// Odd sizes force misaligned bump cursors.
			p, err := a.Alloc(13, align)
			require.NoError(t, err)
			assert.Zero(t, uintptr(p)%align, "align %d iteration %d", align, i)
		}
	}
}

func TestArena_Alloc_BadAlign(t *testing.T) {
	a := New(1024, 0)
	_, err := a.Alloc(8, 3)
	assert.ErrorIs(t, err, ErrBadAlign)
	_, err = a.Alloc(8, 24)
	assert.ErrorIs(t, err, ErrBadAlign)
}

func TestArena_Alloc_ZeroSize(t *testing.T) {
	a := New(1024, 0)

	// Zero-size allocations still get distinct addresses.
	p1, err := a.Alloc(0, 1)
	require.NoError(t, err)
	p2, err := a.Alloc(0, 1)
	require.NoError(t, err)
	assert.NotEqual(t, uintptr(p1), uintptr(p2))
}

func TestArena_Alloc_Zeroed(t *testing.T) {
	a := New(256, 0)

	// Chunks come zeroed from the runtime and offsets are never reissued,
	// so every allocation reads as zero. Check across a chunk boundary.
	for i := 0; i < 64; i++ {
		p, err := a.Alloc(32, 8)
		require.NoError(t, err)
		s := unsafe.Slice((*byte)(p), 32)
		for j, b := range s {
			require.Zero(t, b, "allocation %d byte %d", i, j)
		}
		s[0] = 0xFF
	}
}

func TestArena_Alloc_Growth(t *testing.T) {
	a := New(128, 0)

	// 80 + 40 = 120 fits the first 128-byte chunk; the next 40 must grow.
	_, err := a.Alloc(80, 8)
	require.NoError(t, err)
	_, err = a.Alloc(40, 8)
	require.NoError(t, err)
	require.Equal(t, 1, a.NumChunks())

	_, err = a.Alloc(40, 8)
	require.NoError(t, err)
	assert.Equal(t, 2, a.NumChunks())
}

func TestArena_Alloc_Oversized(t *testing.T) {
	a := New(128, 0)

	// Requests larger than the chunk size get a dedicated chunk.
	p, err := a.Alloc(4096, 8)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.GreaterOrEqual(t, a.Capacity(), int64(4096))
}

func TestArena_Alloc_OOM(t *testing.T) {
	a := New(1024, 2048)

	_, err := a.Alloc(1000, 8)
	require.NoError(t, err)
	_, err = a.Alloc(1000, 8)
	require.NoError(t, err)

	// A third chunk would exceed the 2048-byte cap.
	_, err = a.Alloc(1000, 8)
	assert.ErrorIs(t, err, ErrOOM)

	// The arena stays usable within its existing chunks.
	_, err = a.Alloc(8, 8)
	require.NoError(t, err)
}

func TestArena_Release_Reuse(t *testing.T) {
	a := New(1024, 0)

	_, err := a.Alloc(512, 8)
	require.NoError(t, err)
	require.Greater(t, a.Capacity(), int64(0))

	a.Release()
	assert.Equal(t, int64(0), a.Capacity())
	assert.Equal(t, 0, a.NumChunks())
	assert.Equal(t, int64(0), a.SizeInUse())

	// Release keeps the arena usable.
	p, err := a.Alloc(64, 8)
	require.NoError(t, err)
	require.NotNil(t, p)

	// Release is idempotent.
	a.Release()
	a.Release()
	assert.Equal(t, 0, a.NumChunks())
}

func TestArena_OOM_RespectsCapAfterRelease(t *testing.T) {
	a := New(1024, 1024)

	_, err := a.Alloc(1000, 8)
	require.NoError(t, err)
	_, err = a.Alloc(1000, 8)
	assert.ErrorIs(t, err, ErrOOM)

	// Release makes room under the cap for new chunks.
	a.Release()
	_, err = a.Alloc(1000, 8)
	require.NoError(t, err)
}

func TestArena_StatsSnapshot(t *testing.T) {
	a := New(1024, 0)
	_, err := a.Alloc(100, 4)
	require.NoError(t, err)

	s := a.StatsSnapshot()
	assert.Equal(t, 1, s.NumChunks)
	assert.Equal(t, int64(1024), s.Capacity)
	assert.GreaterOrEqual(t, s.SizeInUse, int64(100))
}

func BenchmarkArena_Alloc(b *testing.B) {
	a := New(1<<20, 0)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if i%16384 == 0 {
			a.Release()
		}
		_, _ = a.Alloc(48, 8)
	}
}
