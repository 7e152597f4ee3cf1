package heapmgr

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

// Verify checks the arena structure and, for the given blocks, that each lies
// entirely inside the allocated prefix and that no two of them share a cell.
// It is a diagnostic; normal operations never call it.
func (m *HeapManager) Verify(blocks ...*Block) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.arena == nil {
		return ErrClosed
	}

	prefix, err := m.arena.verify()
	if err != nil {
		return err
	}
	if got := int(prefix.GetCardinality()); got != m.arena.InUse() {
		return fmt.Errorf("%w: prefix holds %d cells, %d in use", ErrCorruptArena, got, m.arena.InUse())
	}

	owned := roaring.New()
	total := 0
	for i, b := range blocks {
		if b.mgr != m {
			return fmt.Errorf("%w: block %d is not live in this heap", ErrCorruptArena, i)
		}
		n := 0
		for c := range m.arena.Cells(b.first, b.size) {
			if !prefix.Contains(uint32(c)) {
				return fmt.Errorf("%w: block %d cell %d lies past the frontier", ErrCorruptArena, i, c)
			}
			if !owned.CheckedAdd(uint32(c)) {
				return fmt.Errorf("%w: block %d overlaps another block at cell %d", ErrCorruptArena, i, c)
			}
			n++
		}
		if n != b.size {
			return fmt.Errorf("%w: block %d reaches %d of %d cells", ErrCorruptArena, i, n, b.size)
		}
		total += n
	}
	if total > m.arena.InUse() {
		return fmt.Errorf("%w: blocks hold %d bytes, %d in use", ErrCorruptArena, total, m.arena.InUse())
	}
	return nil
}
