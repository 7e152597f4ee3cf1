package heapmgr

import (
	"fmt"
	"hash/crc32"
	"sync"
)

// Integrity is the result of a block integrity check.
type Integrity uint8

const (
	// Intact means the sealed bytes match the stored digest.
	Intact Integrity = iota
	// Corrupted means the sealed bytes changed without going through Write.
	Corrupted
)

func (i Integrity) String() string {
	switch i {
	case Intact:
		return "intact"
	case Corrupted:
		return "corrupted"
	default:
		return fmt.Sprintf("Integrity(%d)", uint8(i))
	}
}

// Block is the handle of one contiguous allocation.
//
// The digest covers the leading Sealed bytes: all of the block right after
// Allocate, exactly the bytes of the last Write afterwards. Always go through
// the handle; a block's position changes when it is resized.
type Block struct {
	mgr *HeapManager
	mu  sync.Mutex

	// Guarded by mgr.mu; written only under its exclusive lock.
	first CellID
	size  int

	// Guarded by mu, or by mgr.mu held exclusively.
	sealed  int
	digest  uint32
	tainted bool // corrupted before a shrink resealed it
}

// BlockInfo is a diagnostic snapshot of a block.
type BlockInfo struct {
	Cell   CellID // stable id of the first cell
	Offset int    // logical position in the arena
	Size   int
	Sealed int
	Digest uint32
	Data   []byte
}

func (bi BlockInfo) String() string {
	return fmt.Sprintf("block{cell: %d, offset: %d, size: %d, sealed: %d, digest: %08x, data: % x}",
		bi.Cell, bi.Offset, bi.Size, bi.Sealed, bi.Digest, bi.Data)
}

// Size returns the block length in bytes.
func (b *Block) Size() int {
	m := b.mgr
	m.mu.RLock()
	defer m.mu.RUnlock()
	return b.size
}

// Write copies p to the start of the block and seals the digest over p.
// If p is longer than the block nothing is written and ErrOverflow is returned.
func (b *Block) Write(p []byte) error {
	m := b.mgr
	m.mu.RLock()
	defer m.mu.RUnlock()
	b.mu.Lock()
	defer b.mu.Unlock()

	if m.arena == nil {
		return ErrClosed
	}
	if len(p) > b.size {
		m.stats.overflows.Add(1)
		m.logger.Warn("write rejected", "size", b.size, "len", len(p))
		return fmt.Errorf("%w: %d bytes into a %d byte block", ErrOverflow, len(p), b.size)
	}

	m.arena.WriteAt(b.first, p)
	b.seal(p)
	return nil
}

// WriteUnchecked copies p to the start of the block with no bound, the way a
// write through a raw pointer would: bytes past the end land in whatever cells
// follow. Only the block's own bytes are sealed. It returns the number of bytes
// stored and, if p is longer than the block, an ErrOverflow describing the
// spill. Bytes that would land past the end of the arena are dropped.
func (b *Block) WriteUnchecked(p []byte) (int, error) {
	m := b.mgr
	m.mu.Lock()
	defer m.mu.Unlock()
	b.mu.Lock()
	defer b.mu.Unlock()

	if m.arena == nil {
		return 0, ErrClosed
	}

	n := m.arena.WriteAt(b.first, p)
	b.seal(p[:min(n, b.size)])
	if len(p) <= b.size {
		return n, nil
	}

	spilled := len(p) - b.size
	m.stats.overflows.Add(1)
	m.logger.Warn("write overran block", "size", b.size, "len", len(p), "spilled", spilled)
	return n, fmt.Errorf("%w: %d bytes past the end of a %d byte block", ErrOverflow, spilled, b.size)
}

// CheckIntegrity recomputes the digest over the sealed bytes and compares it
// with the stored one. A mismatch means the bytes were modified other than
// through Write, for example by an overrun from a neighbouring block.
// A block of a closed heap reports Corrupted.
func (b *Block) CheckIntegrity() Integrity {
	m := b.mgr
	m.mu.RLock()
	defer m.mu.RUnlock()
	b.mu.Lock()
	defer b.mu.Unlock()

	if m.arena == nil {
		return Corrupted
	}
	if !b.tainted && m.arena.Checksum(b.first, b.sealed) == b.digest {
		return Intact
	}
	m.stats.corruptions.Add(1)
	m.logger.Warn("block corrupted", "size", b.size, "sealed", b.sealed)
	return Corrupted
}

// Bytes returns a copy of the block contents.
func (b *Block) Bytes() []byte {
	m := b.mgr
	m.mu.RLock()
	defer m.mu.RUnlock()
	b.mu.Lock()
	defer b.mu.Unlock()

	if m.arena == nil {
		return nil
	}
	out := make([]byte, b.size)
	m.arena.ReadAt(b.first, out)
	return out
}

// DumpInfo returns a snapshot of the block's range and contents.
func (b *Block) DumpInfo() BlockInfo {
	m := b.mgr
	m.mu.RLock()
	defer m.mu.RUnlock()
	b.mu.Lock()
	defer b.mu.Unlock()

	info := BlockInfo{
		Cell:   b.first,
		Offset: -1,
		Size:   b.size,
		Sealed: b.sealed,
		Digest: b.digest,
	}
	if m.arena != nil {
		info.Offset = m.arena.Offset(b.first)
		info.Data = make([]byte, b.size)
		m.arena.ReadAt(b.first, info.Data)
	}
	return info
}

func (b *Block) String() string {
	return b.DumpInfo().String()
}

func (b *Block) seal(p []byte) {
	b.tainted = false
	b.sealed = len(p)
	b.digest = crc32.Checksum(p, castagnoli)
}
