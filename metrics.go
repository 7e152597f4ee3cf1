package heapmgr

import "fmt"

// Metrics contains statistical information about a heap.
type Metrics struct {
	Capacity    int     // Arena size in bytes
	InUse       int     // Bytes owned by live blocks
	Free        int     // Bytes available to Allocate
	LiveBlocks  int     // Blocks allocated and not released
	Utilization float64 // Ratio of in-use to capacity (0.0-1.0)

	// Cumulative counters.
	Allocs      uint64
	Releases    uint64
	Resizes     uint64
	Exhausted   uint64 // Allocate/Resize calls refused for capacity
	Overflows   uint64 // Writes longer than their block
	Corruptions uint64 // Integrity checks that failed
}

// Metrics returns a snapshot of heap statistics.
func (m *HeapManager) Metrics() Metrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	mt := Metrics{
		Capacity:    m.capacity,
		LiveBlocks:  m.live,
		Allocs:      m.stats.allocs.Load(),
		Releases:    m.stats.releases.Load(),
		Resizes:     m.stats.resizes.Load(),
		Exhausted:   m.stats.exhausted.Load(),
		Overflows:   m.stats.overflows.Load(),
		Corruptions: m.stats.corruptions.Load(),
	}
	if m.arena != nil {
		mt.InUse = m.arena.InUse()
		mt.Free = m.arena.Free()
	}
	if mt.Capacity > 0 {
		mt.Utilization = float64(mt.InUse) / float64(mt.Capacity)
	}
	return mt
}

// Utilization returns the ratio of bytes in use to capacity (0.0 to 1.0).
func (m *HeapManager) Utilization() float64 {
	return m.Metrics().Utilization
}

func (m *HeapManager) String() string {
	mt := m.Metrics()
	return fmt.Sprintf(
		"HeapManager{capacity: %d, in use: %d, free: %d, blocks: %d, usage: %.1f%%}",
		mt.Capacity, mt.InUse, mt.Free, mt.LiveBlocks, mt.Utilization*100,
	)
}
