package heapmgr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testStruct struct {
	A int64
	B int32
	C int16
	D int8
}

func TestAlloc(t *testing.T) {
	m := newTestHeap(t, 1024)

	b, err := Alloc[int64](m)
	require.NoError(t, err)
	assert.Equal(t, 8, b.Size())

	v, err := Load[int64](b)
	require.NoError(t, err)
	assert.Equal(t, int64(0), v, "fresh block decodes to the zero value")

	require.NoError(t, Store(b, int64(-42)))
	v, err = Load[int64](b)
	require.NoError(t, err)
	assert.Equal(t, int64(-42), v)
	assert.Equal(t, Intact, b.CheckIntegrity())
}

func TestAllocStruct(t *testing.T) {
	m := newTestHeap(t, 1024)

	b, err := Alloc[testStruct](m)
	require.NoError(t, err)
	assert.Equal(t, 15, b.Size())

	want := testStruct{A: 100, B: -2, C: 3, D: -4}
	require.NoError(t, Store(b, want))

	got, err := Load[testStruct](b)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestAllocNotFixedSize(t *testing.T) {
	m := newTestHeap(t, 1024)

	_, err := Alloc[int](m)
	require.ErrorIs(t, err, ErrInvalidSize)
	_, err = Alloc[string](m)
	require.ErrorIs(t, err, ErrInvalidSize)
	assert.Equal(t, 0, m.LiveBlocks())
}

func TestAllocSlice(t *testing.T) {
	m := newTestHeap(t, 1024)

	b, err := AllocSlice[int32](m, 10)
	require.NoError(t, err)
	assert.Equal(t, 40, b.Size())

	in := []int32{0, 2, 4, 6, 8, 10, 12, 14, 16, 18}
	require.NoError(t, Store(b, in))

	out, err := LoadSlice[int32](b)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	// Storing more elements than fit is an overflow.
	require.ErrorIs(t, Store(b, make([]int32, 11)), ErrOverflow)

	for _, n := range []int{0, -1} {
		_, err := AllocSlice[int32](m, n)
		assert.ErrorIs(t, err, ErrInvalidSize)
	}
}

func TestLoadShortBlock(t *testing.T) {
	m := newTestHeap(t, 1024)

	b, err := m.Allocate(2)
	require.NoError(t, err)
	_, err = Load[int64](b)
	require.Error(t, err)
}
