// Package heapmgr implements a heap manager over one fixed-capacity arena.
//
// # Overview
//
// A HeapManager reserves a single byte region up front and serves
// variable-size, contiguous blocks out of it without going through the Go
// allocator. It is designed around two guarantees:
//
//   - Any allocation whose size does not exceed the free bytes succeeds,
//     whatever the history of releases. Fragmentation never reduces the usable
//     total.
//   - Writes past the end of a block are reported, and a block's holder can
//     check whether its bytes were changed by someone else's overrun.
//
// # Basic Usage
//
//	m, err := heapmgr.NewHeapManager(10) // 10 MB arena
//	if err != nil {
//	    return err
//	}
//	defer m.Close()
//
//	b, err := m.Allocate(64)
//	if err != nil {
//	    return err
//	}
//	if err := b.Write(payload); errors.Is(err, heapmgr.ErrOverflow) {
//	    // payload longer than 64 bytes, nothing written
//	}
//	if b.CheckIntegrity() == heapmgr.Corrupted {
//	    // bytes changed without going through Write
//	}
//
//	b, err = m.Resize(b, 128)
//	m.Release(b)
//
// # Memory Layout
//
// The arena is a sequence of byte cells linked in a logical order. Every cell
// keeps its id and storage slot forever; allocation, release and resize only
// relink cells. The allocated prefix runs from the head to the frontier.
//
//   - Allocate carves cells at the frontier.
//   - Release resets a block's cells and appends them at the tail, so the free
//     suffix regains exactly the released bytes and no live block moves.
//   - Resize splices the block to the end of the prefix, then extends or
//     retracts the frontier. Only the resized block changes position; it keeps
//     its identity, so callers must always go through the handle.
//
// Relocation costs O(block length) link updates; no bytes are copied.
//
// # Thread Safety
//
// HeapManager is safe for concurrent use. Allocate, Release and Resize are
// serialised by a manager-wide lock. Write, CheckIntegrity, Bytes and DumpInfo
// hold the manager lock shared and the block's own lock, so operations on
// different blocks run in parallel.
//
// # Integrity
//
// Every block stores a CRC32-C digest of its sealed bytes: the whole block
// right after Allocate, the bytes of the last Write afterwards. Bytes beyond
// the last write are not covered.
//
// # Handle Contract
//
// Handles are not validated. Releasing a block twice, releasing a block of
// another heap or using a block after Release is undefined.
//
// # Metrics and Monitoring
//
//	mt := m.Metrics()
//	fmt.Printf("Utilization: %.2f%%\n", mt.Utilization*100)
//	prometheus.MustRegister(heapmgr.NewCollector(m, ""))
package heapmgr
