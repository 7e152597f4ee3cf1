package heapmgr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeapMetrics(t *testing.T) {
	m := newTestHeap(t, 1000)

	mt := m.Metrics()
	assert.Equal(t, Metrics{Capacity: 1000, Free: 1000}, mt)

	a, err := m.Allocate(100)
	require.NoError(t, err)
	b, err := m.Allocate(150)
	require.NoError(t, err)
	_, err = m.Resize(a, 200)
	require.NoError(t, err)
	m.Release(b)
	_, err = m.Allocate(2000)
	require.Error(t, err)
	require.Error(t, a.Write(make([]byte, 201)))
	m.arena.data[a.first] = 1
	a.CheckIntegrity()

	mt = m.Metrics()
	assert.Equal(t, 1000, mt.Capacity)
	assert.Equal(t, 200, mt.InUse)
	assert.Equal(t, 800, mt.Free)
	assert.Equal(t, 1, mt.LiveBlocks)
	assert.InDelta(t, 0.2, mt.Utilization, 1e-9)
	assert.Equal(t, uint64(2), mt.Allocs)
	assert.Equal(t, uint64(1), mt.Releases)
	assert.Equal(t, uint64(1), mt.Resizes)
	assert.Equal(t, uint64(1), mt.Exhausted)
	assert.Equal(t, uint64(1), mt.Overflows)
	assert.Equal(t, uint64(1), mt.Corruptions)

	assert.InDelta(t, 0.2, m.Utilization(), 1e-9)
}

func TestHeapString(t *testing.T) {
	m := newTestHeap(t, 1000)
	_, err := m.Allocate(250)
	require.NoError(t, err)

	assert.Equal(t, "HeapManager{capacity: 1000, in use: 250, free: 750, blocks: 1, usage: 25.0%}", m.String())
}
