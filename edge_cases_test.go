package heapmgr_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavanmanishd/heapmgr"
)

func TestEdgeCases(t *testing.T) {
	t.Run("InvalidCapacities", func(t *testing.T) {
		for _, capacity := range []int{0, -1, -1000, heapmgr.MaxCapacity + 1} {
			_, err := heapmgr.New(capacity)
			assert.ErrorIs(t, err, heapmgr.ErrInvalidSize, "capacity %d", capacity)
		}
	})

	t.Run("SingleByteArena", func(t *testing.T) {
		m, err := heapmgr.New(1)
		require.NoError(t, err)
		defer m.Close()

		b, err := m.Allocate(1)
		require.NoError(t, err)
		require.NoError(t, b.Write([]byte{7}))
		require.ErrorIs(t, b.Write([]byte{7, 8}), heapmgr.ErrOverflow)

		n, err := b.WriteUnchecked([]byte{1, 2, 3})
		require.ErrorIs(t, err, heapmgr.ErrOverflow)
		assert.Equal(t, 1, n, "overrun stops at the end of the arena")
		assert.Contains(t, err.Error(), "2 bytes past the end of a 1 byte block")
		assert.Equal(t, heapmgr.Intact, b.CheckIntegrity())
	})

	t.Run("AllocateWholeArenaRepeatedly", func(t *testing.T) {
		m, err := heapmgr.New(256)
		require.NoError(t, err)
		defer m.Close()

		for range 10 {
			b, err := m.Allocate(256)
			require.NoError(t, err)
			require.True(t, m.Release(b))
		}
		assert.Equal(t, 256, m.Free())
	})

	t.Run("ResizeToSameSize", func(t *testing.T) {
		m, err := heapmgr.New(64)
		require.NoError(t, err)
		defer m.Close()

		a, _ := m.Allocate(4)
		b, _ := m.Allocate(4)
		require.NoError(t, a.Write([]byte{1, 2, 3, 4}))

		_, err = m.Resize(a, 4)
		require.NoError(t, err)
		assert.Equal(t, []byte{1, 2, 3, 4}, a.Bytes())
		assert.Equal(t, heapmgr.Intact, a.CheckIntegrity())
		require.NoError(t, m.Verify(a, b))
	})

	t.Run("ReleaseInAnyOrder", func(t *testing.T) {
		m, err := heapmgr.New(128)
		require.NoError(t, err)
		defer m.Close()

		blocks := make([]*heapmgr.Block, 8)
		for i := range blocks {
			blocks[i], err = m.Allocate(16)
			require.NoError(t, err)
			require.NoError(t, blocks[i].Write(bytes.Repeat([]byte{byte(i + 1)}, 16)))
		}

		for _, i := range []int{3, 0, 7, 5} {
			require.True(t, m.Release(blocks[i]))
		}
		for _, i := range []int{1, 2, 4, 6} {
			assert.Equal(t, bytes.Repeat([]byte{byte(i + 1)}, 16), blocks[i].Bytes())
			assert.Equal(t, heapmgr.Intact, blocks[i].CheckIntegrity())
		}

		big, err := m.Allocate(64)
		require.NoError(t, err)
		require.NoError(t, m.Verify(blocks[1], blocks[2], blocks[4], blocks[6], big))
	})

	t.Run("EmptyWrite", func(t *testing.T) {
		m, err := heapmgr.New(16)
		require.NoError(t, err)
		defer m.Close()

		b, _ := m.Allocate(4)
		require.NoError(t, b.Write(nil))
		assert.Equal(t, 0, b.DumpInfo().Sealed)
		assert.Equal(t, heapmgr.Intact, b.CheckIntegrity())
	})

	t.Run("VerifyRejectsForeignBlock", func(t *testing.T) {
		m1, _ := heapmgr.New(16)
		defer m1.Close()
		m2, _ := heapmgr.New(16)
		defer m2.Close()

		b, err := m2.Allocate(4)
		require.NoError(t, err)
		err = m1.Verify(b)
		require.ErrorIs(t, err, heapmgr.ErrCorruptArena)
	})

	t.Run("VerifyRejectsDuplicateBlock", func(t *testing.T) {
		m, _ := heapmgr.New(16)
		defer m.Close()

		b, err := m.Allocate(4)
		require.NoError(t, err)
		err = m.Verify(b, b)
		require.ErrorIs(t, err, heapmgr.ErrCorruptArena)
		assert.Contains(t, err.Error(), "overlaps")
	})

	t.Run("UseAfterRelease", func(t *testing.T) {
		m, _ := heapmgr.New(16)
		defer m.Close()

		b, err := m.Allocate(4)
		require.NoError(t, err)
		require.True(t, m.Release(b))

		// Handles are not validated; using a released one is a programming error.
		assert.Panics(t, func() { _ = b.Write([]byte{1}) })
		assert.Panics(t, func() { b.CheckIntegrity() })
		assert.Panics(t, func() { b.Size() })
	})

	t.Run("ErrorsWrapSentinels", func(t *testing.T) {
		m, _ := heapmgr.New(8)
		defer m.Close()

		_, err := m.Allocate(9)
		assert.True(t, errors.Is(err, heapmgr.ErrCapacityExhausted))
		assert.False(t, errors.Is(err, heapmgr.ErrOverflow))
	})
}
