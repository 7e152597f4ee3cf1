package heapmgr

import (
	"fmt"
	"hash/crc32"
	"iter"
	"math"
	"unsafe"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/pavanmanishd/heapmgr/internal/region"
)

// CellID identifies one byte cell of an Arena. A cell keeps its id for the
// life of the arena, whatever its logical position.
type CellID int32

// NilCell is the id of no cell.
const NilCell CellID = -1

// MaxCapacity is the largest arena, in bytes, addressable by a CellID.
const MaxCapacity = math.MaxInt32

// linkSize is the number of bytes one link entry occupies in the region.
const linkSize = int(unsafe.Sizeof(CellID(0)))

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Arena is a fixed-capacity, node-addressable sequence of byte cells.
//
// Each cell has a stable id and a stable storage slot; only the logical order
// of cells changes, through the next/prev link tables. The first InUse cells in
// logical order form the allocated prefix, the rest is unused filler starting
// at the frontier. Arena is not goroutine-safe; HeapManager serialises it.
type Arena struct {
	region *region.Region
	data   []byte
	next   []CellID
	prev   []CellID

	head     CellID
	tail     CellID
	frontier CellID // first unused cell, NilCell when the arena is full
	used     int
	filler   byte
}

// NewArena reserves capacity cells, all set to filler and all unused.
func NewArena(capacity int, filler byte) (*Arena, error) {
	if capacity <= 0 || capacity > MaxCapacity || capacity > math.MaxInt/(2*linkSize+1) {
		return nil, fmt.Errorf("%w: capacity %d", ErrInvalidSize, capacity)
	}

	// Layout: next links | prev links | data. The region is page aligned so the
	// link tables are aligned for CellID.
	r, err := region.New(capacity * (2*linkSize + 1))
	if err != nil {
		return nil, err
	}
	buf := r.Bytes()
	links := unsafe.Slice((*CellID)(unsafe.Pointer(&buf[0])), 2*capacity) //nolint:gosec // link tables live in the region

	a := &Arena{
		region:   r,
		next:     links[:capacity:capacity],
		prev:     links[capacity:],
		data:     buf[2*linkSize*capacity:],
		head:     0,
		tail:     CellID(capacity - 1),
		frontier: 0,
		filler:   filler,
	}
	for i := range capacity {
		a.next[i] = CellID(i + 1)
		a.prev[i] = CellID(i - 1)
	}
	a.next[capacity-1] = NilCell
	if filler != 0 {
		for i := range a.data {
			a.data[i] = filler
		}
	}
	return a, nil
}

// Capacity returns the number of cells in the arena.
func (a *Arena) Capacity() int { return len(a.data) }

// InUse returns the number of cells in the allocated prefix.
func (a *Arena) InUse() int { return a.used }

// Free returns the number of unused cells.
func (a *Arena) Free() int { return len(a.data) - a.used }

// Frontier returns the first unused cell, or NilCell when the arena is full.
func (a *Arena) Frontier() CellID { return a.frontier }

// Carve moves n cells from the frontier into the allocated prefix, resets them
// to the filler byte and returns the first of them.
func (a *Arena) Carve(n int) (CellID, error) {
	if n <= 0 {
		return NilCell, fmt.Errorf("%w: carve %d cells", ErrInvalidSize, n)
	}
	if n > a.Free() {
		return NilCell, fmt.Errorf("%w: need %d bytes, %d free", ErrCapacityExhausted, n, a.Free())
	}
	first := a.frontier
	c := first
	// WriteUnchecked can spill past the prefix, so the unused suffix may hold
	// stray bytes.
	for range n {
		a.data[c] = a.filler
		c = a.next[c]
	}
	a.frontier = c
	a.used += n
	return first, nil
}

// Vacate removes the n-cell range starting at first from the allocated prefix.
// The cells are reset to filler and appended at the tail, so the arena keeps
// its capacity and no other cell moves.
func (a *Arena) Vacate(first CellID, n int) {
	last := a.fill(first, n)
	a.unlink(first, last)
	a.link(first, last, NilCell)
	if a.frontier == NilCell {
		a.frontier = first
	}
	a.used -= n
}

// Relocate splices the n-cell range starting at first so that it sits
// immediately before the cell before (at the tail when before is NilCell).
// Cell contents and ids are unchanged. before must not lie inside the range.
func (a *Arena) Relocate(first CellID, n int, before CellID) {
	last := a.advance(first, n-1)
	if a.next[last] == before {
		return
	}
	a.unlink(first, last)
	a.link(first, last, before)
}

// Retract returns the last n cells of the allocated prefix to the unused
// suffix by moving the frontier back over them.
func (a *Arena) Retract(n int) {
	n = min(n, a.used)
	c := a.tail
	if a.frontier != NilCell {
		c = a.prev[a.frontier]
	}
	for range n {
		a.data[c] = a.filler
		a.frontier = c
		c = a.prev[c]
	}
	a.used -= n
}

// ReadAt copies cells starting at first into dst and returns the number copied.
func (a *Arena) ReadAt(first CellID, dst []byte) int {
	n := 0
	for c := first; c != NilCell && n < len(dst); c = a.next[c] {
		dst[n] = a.data[c]
		n++
	}
	return n
}

// WriteAt stores p into the cells starting at first, following the logical
// order with no bound other than the end of the arena. It returns the number
// of bytes stored.
func (a *Arena) WriteAt(first CellID, p []byte) int {
	n := 0
	for c := first; c != NilCell && n < len(p); c = a.next[c] {
		a.data[c] = p[n]
		n++
	}
	return n
}

// Checksum returns the CRC32-C of the n cells starting at first.
func (a *Arena) Checksum(first CellID, n int) uint32 {
	var (
		scratch [512]byte
		sum     uint32
		k       int
	)
	for c := range a.Cells(first, n) {
		scratch[k] = a.data[c]
		k++
		if k == len(scratch) {
			sum = crc32.Update(sum, castagnoli, scratch[:])
			k = 0
		}
	}
	return crc32.Update(sum, castagnoli, scratch[:k])
}

// Cells yields up to n cell ids starting at first in logical order.
func (a *Arena) Cells(first CellID, n int) iter.Seq[CellID] {
	return func(yield func(CellID) bool) {
		for c := first; c != NilCell && n > 0; c = a.next[c] {
			if !yield(c) {
				return
			}
			n--
		}
	}
}

// Offset returns the logical position of cell within the allocated prefix,
// or -1 if the cell is unused.
func (a *Arena) Offset(cell CellID) int {
	i := 0
	for c := range a.Cells(a.head, a.used) {
		if c == cell {
			return i
		}
		i++
	}
	return -1
}

// Close releases the region. The arena must not be used afterwards.
func (a *Arena) Close() error {
	a.data, a.next, a.prev = nil, nil, nil
	return a.region.Close()
}

func (a *Arena) advance(c CellID, n int) CellID {
	for ; n > 0 && c != NilCell; n-- {
		c = a.next[c]
	}
	return c
}

// fill resets n cells starting at first to filler and returns the last one.
func (a *Arena) fill(first CellID, n int) CellID {
	last := first
	for c := range a.Cells(first, n) {
		a.data[c] = a.filler
		last = c
	}
	return last
}

func (a *Arena) unlink(first, last CellID) {
	p, q := a.prev[first], a.next[last]
	if p != NilCell {
		a.next[p] = q
	} else {
		a.head = q
	}
	if q != NilCell {
		a.prev[q] = p
	} else {
		a.tail = p
	}
	a.prev[first] = NilCell
	a.next[last] = NilCell
}

// link inserts the detached range first..last before at, or at the tail.
func (a *Arena) link(first, last, at CellID) {
	var p CellID
	if at == NilCell {
		p = a.tail
		a.tail = last
	} else {
		p = a.prev[at]
		a.prev[at] = last
	}
	if p != NilCell {
		a.next[p] = first
	} else {
		a.head = first
	}
	a.prev[first] = p
	a.next[last] = at
}

// verify walks the whole list checking link symmetry, length, tail and
// frontier position, and returns the set of cells in the allocated prefix.
func (a *Arena) verify() (*roaring.Bitmap, error) {
	var (
		prefix = roaring.New()
		prev   = NilCell
		count  int
	)
	for c := a.head; c != NilCell; c = a.next[c] {
		if count >= len(a.data) {
			return nil, fmt.Errorf("%w: cycle after %d cells", ErrCorruptArena, count)
		}
		if a.prev[c] != prev {
			return nil, fmt.Errorf("%w: cell %d links back to %d, want %d", ErrCorruptArena, c, a.prev[c], prev)
		}
		if count == a.used && c != a.frontier {
			return nil, fmt.Errorf("%w: frontier is cell %d, prefix ends before cell %d", ErrCorruptArena, a.frontier, c)
		}
		if count < a.used {
			prefix.Add(uint32(c))
		}
		prev = c
		count++
	}
	if prev != a.tail {
		return nil, fmt.Errorf("%w: list ends at cell %d, tail is %d", ErrCorruptArena, prev, a.tail)
	}
	if count != len(a.data) {
		return nil, fmt.Errorf("%w: %d cells reachable, capacity %d", ErrCorruptArena, count, len(a.data))
	}
	if a.used == len(a.data) && a.frontier != NilCell {
		return nil, fmt.Errorf("%w: arena full but frontier is cell %d", ErrCorruptArena, a.frontier)
	}
	return prefix, nil
}
