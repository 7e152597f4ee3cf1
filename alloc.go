package heapmgr

import (
	"encoding/binary"
	"fmt"
)

// Alloc allocates a block sized for one fixed-size value of type T.
// Its contents are the filler, which for the default filler decodes to the
// zero value.
func Alloc[T any](m *HeapManager) (*Block, error) {
	n, err := sizeOf[T]()
	if err != nil {
		return nil, err
	}
	return m.Allocate(n)
}

// AllocSlice allocates a block sized for n fixed-size values of type T.
func AllocSlice[T any](m *HeapManager, n int) (*Block, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d elements", ErrInvalidSize, n)
	}
	size, err := sizeOf[T]()
	if err != nil {
		return nil, err
	}
	return m.Allocate(size * n)
}

// Store writes the little-endian encoding of v to the block.
// v may be a fixed-size value or a slice of them.
func Store[T any](b *Block, v T) error {
	buf, err := binary.Append(nil, binary.LittleEndian, v)
	if err != nil {
		return err
	}
	return b.Write(buf)
}

// Load decodes a value of type T from the start of the block.
func Load[T any](b *Block) (T, error) {
	var v T
	if _, err := binary.Decode(b.Bytes(), binary.LittleEndian, &v); err != nil {
		return v, err
	}
	return v, nil
}

// LoadSlice decodes as many values of type T as fit in the block.
func LoadSlice[T any](b *Block) ([]T, error) {
	size, err := sizeOf[T]()
	if err != nil {
		return nil, err
	}
	data := b.Bytes()
	v := make([]T, len(data)/size)
	if _, err := binary.Decode(data, binary.LittleEndian, v); err != nil {
		return nil, err
	}
	return v, nil
}

func sizeOf[T any]() (int, error) {
	var zero T
	n := binary.Size(zero)
	if n <= 0 {
		return 0, fmt.Errorf("%w: %T has no fixed encoded size", ErrInvalidSize, zero)
	}
	return n, nil
}
