package region

import (
	"errors"
	"sync/atomic"
)

// ErrInvalidSize is returned when a region of non-positive size is requested.
var ErrInvalidSize = errors.New("region: invalid size")

// Region is a fixed-size, zero-initialised byte region.
// It owns the underlying memory and is responsible for releasing it.
type Region struct {
	data   []byte
	closed atomic.Bool
	unmap  func([]byte) error
}

// New reserves size bytes.
func New(size int) (*Region, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	data, unmap, err := osMapAnon(size)
	if err != nil {
		return nil, err
	}
	return &Region{data: data, unmap: unmap}, nil
}

// Bytes returns the region's memory.
// The slice is valid only until Close is called.
func (r *Region) Bytes() []byte {
	if r.closed.Load() {
		return nil
	}
	return r.data
}

// Size returns the size of the region in bytes.
func (r *Region) Size() int {
	return len(r.data)
}

// Close releases the memory. It is idempotent.
func (r *Region) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	data := r.data
	r.data = nil
	if r.unmap != nil && data != nil {
		return r.unmap(data)
	}
	return nil
}
