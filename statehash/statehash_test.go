package statehash

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInsertFindDelete(t *testing.T) {
	h, err := New(1000, 16)
	require.NoError(t, err)

	e, inserted := h.Insert(5, 42)
	require.True(t, inserted)

	e2, inserted2 := h.Insert(5, 99)
	require.False(t, inserted2)
	require.Equal(t, e, e2)

	found, val, ok := h.Find(5)
	require.True(t, ok)
	require.Equal(t, uint64(42), val)
	require.Equal(t, e, found)

	h.SetValueAt(found, 7)
	_, val, ok = h.Find(5)
	require.True(t, ok)
	require.Equal(t, uint64(7), val)

	h.Delete(5)
	_, _, ok = h.Find(5)
	require.False(t, ok)
	require.True(t, h.IsEmpty())
}

func TestConcurrentDistinctKeys(t *testing.T) {
	h, err := New(100000, 8192)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for k := uint64(1); k <= 5000; k++ {
		wg.Add(1)
		go func(k uint64) {
			defer wg.Done()
			h.Insert(k, k*2)
		}(k)
	}
	wg.Wait()

	for k := uint64(1); k <= 5000; k++ {
		_, v, ok := h.Find(k)
		require.True(t, ok)
		require.Equal(t, k*2, v)
	}
}

func TestKeyBitWidthSelection(t *testing.T) {
	h, err := New(10, 16)
	require.NoError(t, err)
	require.EqualValues(t, 32, h.keyBits)

	_, err = New(uint64(1)<<41, 16)
	require.ErrorIs(t, err, ErrKeyTooLarge)
}

func TestResizeRequiresEmpty(t *testing.T) {
	h, err := New(1000, 16)
	require.NoError(t, err)
	h.Insert(1, 1)
	require.ErrorIs(t, h.Resize(1024), ErrNotEmpty)
	h.Delete(1)
	require.NoError(t, h.Resize(1024))
	require.GreaterOrEqual(t, h.Capacity(), uint32(1024))
}
