package heapmgr

import "errors"

var (
	// ErrInvalidSize indicates a non-positive or unaddressable size.
	ErrInvalidSize = errors.New("heapmgr: invalid size")

	// ErrCapacityExhausted indicates the request exceeds the free bytes of the arena.
	ErrCapacityExhausted = errors.New("heapmgr: capacity exhausted")

	// ErrOverflow indicates a write longer than the target block.
	ErrOverflow = errors.New("heapmgr: write overflows block")

	// ErrClosed indicates the heap manager has been closed.
	ErrClosed = errors.New("heapmgr: heap closed")

	// ErrCorruptArena indicates a failed structural check.
	ErrCorruptArena = errors.New("heapmgr: corrupt arena")
)
