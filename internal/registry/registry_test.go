package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/23skdu/mempool/internal/arena"
)

func TestRegistry_AcquireID_Dense(t *testing.T) {
	r := New()

	// Ids come out smallest-first.
	for want := 0; want < 8; want++ {
		id, err := r.AcquireID()
		require.NoError(t, err)
		assert.Equal(t, want, id)
	}

	// Releasing reopens the smallest hole.
	r.ReleaseID(3)
	r.ReleaseID(1)
	id, err := r.AcquireID()
	require.NoError(t, err)
	assert.Equal(t, 1, id)
	id, err = r.AcquireID()
	require.NoError(t, err)
	assert.Equal(t, 3, id)
}

func TestRegistry_AcquireID_Exhausted(t *testing.T) {
	r := New()

	for i := 0; i < MaxPools; i++ {
		_, err := r.AcquireID()
		require.NoError(t, err)
	}

	_, err := r.AcquireID()
	assert.ErrorIs(t, err, ErrExhausted)

	// Freeing any id makes the next acquire succeed with exactly that id.
	r.ReleaseID(17)
	id, err := r.AcquireID()
	require.NoError(t, err)
	assert.Equal(t, 17, id)
	assert.Equal(t, 0, r.FreeIDs())
}

func TestRegistry_BindUnbind(t *testing.T) {
	r := New()
	id, err := r.AcquireID()
	require.NoError(t, err)

	var h1, h2 arena.Handle
	r.Bind(id, 0, &h1)
	r.Bind(id, 0, &h2)
	r.Bind(id, 1, &h1)

	assert.Equal(t, 2, r.BoundCount(id, 0))
	assert.Equal(t, 1, r.BoundCount(id, 1))

	r.Unbind(id, 0, &h1)
	assert.Equal(t, 1, r.BoundCount(id, 0))

	// Unbinding a handle that is not bound is a no-op.
	r.Unbind(id, 0, &h1)
	assert.Equal(t, 1, r.BoundCount(id, 0))
}

func TestRegistry_ForEach(t *testing.T) {
	r := New()
	id, err := r.AcquireID()
	require.NoError(t, err)

	handles := make([]arena.Handle, 4)
	for i := range handles {
		r.Bind(id, 0, &handles[i])
	}

	seen := make(map[*arena.Handle]bool)
	r.ForEach(id, 0, func(h *arena.Handle) {
		seen[h] = true
	})
	require.Len(t, seen, 4)
	for i := range handles {
		assert.True(t, seen[&handles[i]])
	}

	// The other generation is untouched.
	count := 0
	r.ForEach(id, 1, func(*arena.Handle) { count++ })
	assert.Zero(t, count)
}

func TestRegistry_ReleaseID_DropsEntry(t *testing.T) {
	r := New()
	id, err := r.AcquireID()
	require.NoError(t, err)

	var h arena.Handle
	r.Bind(id, 0, &h)
	r.ReleaseID(id)

	// The retired id has no entry: walks see nothing, binds are no-ops.
	assert.Equal(t, 0, r.BoundCount(id, 0))
	r.Bind(id, 0, &h)
	assert.Equal(t, 0, r.BoundCount(id, 0))

	// Reacquiring the id starts with empty sets.
	id2, err := r.AcquireID()
	require.NoError(t, err)
	assert.Equal(t, id, id2)
	assert.Equal(t, 0, r.BoundCount(id2, 0))
}

func TestRegistry_ConcurrentBind(t *testing.T) {
	r := New()

	const pools = 8
	ids := make([]int, pools)
	for i := range ids {
		id, err := r.AcquireID()
		require.NoError(t, err)
		ids[i] = id
	}

	const perPool = 64
	handles := make([][perPool]arena.Handle, pools)

	var wg sync.WaitGroup
	for i := 0; i < pools; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < perPool; j++ {
				r.Bind(ids[i], j%2, &handles[i][j])
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < pools; i++ {
		assert.Equal(t, perPool/2, r.BoundCount(ids[i], 0))
		assert.Equal(t, perPool/2, r.BoundCount(ids[i], 1))
	}
}
