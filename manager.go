package heapmgr

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// BytesPerMegabyte is the megabyte used to size a heap.
const BytesPerMegabyte = 1_000_000

// HeapManager serves contiguous blocks out of one fixed-capacity Arena.
//
// Allocate, Release and Resize take the manager lock exclusively. Block
// content operations take it shared plus the block's own lock, so content
// operations on different blocks never contend with each other.
type HeapManager struct {
	mu       sync.RWMutex
	arena    *Arena // nil once closed
	capacity int
	live     int
	logger   *slog.Logger
	stats    counters
}

type counters struct {
	allocs      atomic.Uint64
	releases    atomic.Uint64
	resizes     atomic.Uint64
	exhausted   atomic.Uint64
	overflows   atomic.Uint64
	corruptions atomic.Uint64
}

// NewHeapManager creates a heap over a megabytes × BytesPerMegabyte byte arena.
func NewHeapManager(megabytes int, opts ...Option) (*HeapManager, error) {
	if megabytes <= 0 || megabytes > MaxCapacity/BytesPerMegabyte {
		return nil, fmt.Errorf("%w: %d megabytes", ErrInvalidSize, megabytes)
	}
	return New(megabytes*BytesPerMegabyte, opts...)
}

// New creates a heap over an arena of capacity bytes.
func New(capacity int, opts ...Option) (*HeapManager, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	a, err := NewArena(capacity, o.filler)
	if err != nil {
		return nil, err
	}
	o.logger.Debug("heap created", "capacity", capacity)

	return &HeapManager{
		arena:    a,
		capacity: capacity,
		logger:   o.logger,
	}, nil
}

// Allocate carves a block of size bytes at the frontier.
// It succeeds whenever size does not exceed Free, whatever the release history.
func (m *HeapManager) Allocate(size int) (*Block, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: allocate %d bytes", ErrInvalidSize, size)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.arena == nil {
		return nil, ErrClosed
	}

	first, err := m.arena.Carve(size)
	if err != nil {
		m.stats.exhausted.Add(1)
		m.logger.Warn("allocate failed", "size", size, "free", m.arena.Free(), "error", err)
		return nil, err
	}

	b := &Block{
		mgr:    m,
		first:  first,
		size:   size,
		sealed: size,
		digest: m.arena.Checksum(first, size),
	}
	m.live++
	m.stats.allocs.Add(1)
	m.logger.Debug("allocate", "size", size, "cell", first, "in_use", m.arena.InUse(), "free", m.arena.Free())
	return b, nil
}

// Release returns the block's bytes to the arena and invalidates b.
//
// b must be a live block returned by this manager. Releasing a foreign or
// already released block is not detected; using b after Release panics.
// Release reports false only when the manager is closed.
func (m *HeapManager) Release(b *Block) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.arena == nil {
		return false
	}

	size := b.size
	m.arena.Vacate(b.first, size)
	b.mgr, b.first, b.size, b.sealed, b.digest, b.tainted = nil, NilCell, 0, 0, 0, false

	m.live--
	m.stats.releases.Add(1)
	m.logger.Debug("release", "size", size, "in_use", m.arena.InUse(), "free", m.arena.Free())
	return true
}

// Resize moves b to the end of the allocated prefix and grows or shrinks it to
// newSize bytes. The first min(old, newSize) bytes are preserved; grown bytes
// hold the filler. No other block moves. On error b is unchanged.
// A block that fails its integrity check before shrinking keeps failing it.
func (m *HeapManager) Resize(b *Block, newSize int) (*Block, error) {
	if newSize <= 0 {
		return nil, fmt.Errorf("%w: resize to %d bytes", ErrInvalidSize, newSize)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.arena == nil {
		return nil, ErrClosed
	}

	old := b.size
	if grow := newSize - old; grow > m.arena.Free() {
		m.stats.exhausted.Add(1)
		err := fmt.Errorf("%w: grow by %d bytes, %d free", ErrCapacityExhausted, grow, m.arena.Free())
		m.logger.Warn("resize failed", "size", old, "new_size", newSize, "error", err)
		return nil, err
	}

	m.arena.Relocate(b.first, old, m.arena.Frontier())
	switch {
	case newSize > old:
		if _, err := m.arena.Carve(newSize - old); err != nil {
			return nil, err
		}
	case newSize < old:
		if b.sealed <= newSize {
			m.arena.Retract(old - newSize)
			break
		}
		// Damage found before the reseal must survive it.
		if m.arena.Checksum(b.first, b.sealed) != b.digest {
			b.tainted = true
		}
		m.arena.Retract(old - newSize)
		b.sealed = newSize
		b.digest = m.arena.Checksum(b.first, newSize)
	}
	b.size = newSize

	m.stats.resizes.Add(1)
	m.logger.Debug("resize", "size", old, "new_size", newSize, "in_use", m.arena.InUse(), "free", m.arena.Free())
	return b, nil
}

// Capacity returns the arena size in bytes.
func (m *HeapManager) Capacity() int {
	return m.capacity
}

// InUse returns the bytes owned by live blocks.
func (m *HeapManager) InUse() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.arena == nil {
		return 0
	}
	return m.arena.InUse()
}

// Free returns the bytes available to Allocate and Resize.
func (m *HeapManager) Free() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.arena == nil {
		return 0
	}
	return m.arena.Free()
}

// LiveBlocks returns the number of blocks allocated and not yet released.
func (m *HeapManager) LiveBlocks() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.live
}

// Close releases the arena. Blocks must not be used afterwards;
// Allocate and Resize report ErrClosed. Close is idempotent.
func (m *HeapManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.arena == nil {
		return nil
	}
	err := m.arena.Close()
	m.arena = nil
	m.live = 0
	m.logger.Debug("heap closed", "capacity", m.capacity)
	return err
}
