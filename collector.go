package heapmgr

import "github.com/prometheus/client_golang/prometheus"

// Collector exports heap Metrics to Prometheus.
type Collector struct {
	m *HeapManager

	capacity    *prometheus.Desc
	inUse       *prometheus.Desc
	free        *prometheus.Desc
	liveBlocks  *prometheus.Desc
	utilization *prometheus.Desc
	operations  *prometheus.Desc
	failures    *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector returns a collector for m. An empty namespace defaults to "heapmgr".
func NewCollector(m *HeapManager, namespace string) *Collector {
	if namespace == "" {
		namespace = "heapmgr"
	}
	desc := func(name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, labels, nil)
	}
	return &Collector{
		m:           m,
		capacity:    desc("capacity_bytes", "Total arena capacity in bytes."),
		inUse:       desc("in_use_bytes", "Bytes owned by live blocks."),
		free:        desc("free_bytes", "Bytes available for allocation."),
		liveBlocks:  desc("live_blocks", "Blocks allocated and not yet released."),
		utilization: desc("utilization_ratio", "Ratio of in-use bytes to capacity."),
		operations:  desc("operations_total", "Structural operations completed.", "op"),
		failures:    desc("failures_total", "Failed or rejected operations.", "kind"),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.capacity
	ch <- c.inUse
	ch <- c.free
	ch <- c.liveBlocks
	ch <- c.utilization
	ch <- c.operations
	ch <- c.failures
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	mt := c.m.Metrics()

	ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(mt.Capacity))
	ch <- prometheus.MustNewConstMetric(c.inUse, prometheus.GaugeValue, float64(mt.InUse))
	ch <- prometheus.MustNewConstMetric(c.free, prometheus.GaugeValue, float64(mt.Free))
	ch <- prometheus.MustNewConstMetric(c.liveBlocks, prometheus.GaugeValue, float64(mt.LiveBlocks))
	ch <- prometheus.MustNewConstMetric(c.utilization, prometheus.GaugeValue, mt.Utilization)

	ch <- prometheus.MustNewConstMetric(c.operations, prometheus.CounterValue, float64(mt.Allocs), "allocate")
	ch <- prometheus.MustNewConstMetric(c.operations, prometheus.CounterValue, float64(mt.Releases), "release")
	ch <- prometheus.MustNewConstMetric(c.operations, prometheus.CounterValue, float64(mt.Resizes), "resize")

	ch <- prometheus.MustNewConstMetric(c.failures, prometheus.CounterValue, float64(mt.Exhausted), "exhausted")
	ch <- prometheus.MustNewConstMetric(c.failures, prometheus.CounterValue, float64(mt.Overflows), "overflow")
	ch <- prometheus.MustNewConstMetric(c.failures, prometheus.CounterValue, float64(mt.Corruptions), "corruption")
}
