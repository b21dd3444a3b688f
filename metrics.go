package ring

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// ringCounters holds the raw per-node counts a RingMetrics exposes. All
// fields are protected by RingMetrics.mu rather than made atomic
// individually, since Collect reads every field as one consistent snapshot.
type ringCounters struct {
	tokenCirculations  int64
	tokenRegenerations int64
	duplicateDropped   int64
	sent               int64
	acked              int64
	naked              int64
	unclaimed          int64
	forwarded          int64
	broadcastDelivered int64
	broadcastCompleted int64
	targetAcked        int64
	targetNaked        int64
}

// RingMetrics is a prometheus.Collector reporting a single node's protocol
// counters, labeled with its nickname. Shaped after
// runZeroInc-conniver/pkg/exporter/exporter.go's TCPInfoCollector: a
// mutex-guarded struct of plain counters plus a Describe/Collect pair built
// from a small table of prometheus.Desc, rather than prometheus's own
// CounterVec bookkeeping.
type RingMetrics struct {
	mu       sync.Mutex
	nickname string
	c        ringCounters

	queueDepth func() int
}

// NewRingMetrics builds a RingMetrics for the given node nickname. depthFn
// is polled at Collect time to report the current outbound queue depth; it
// may be nil if no queue is attached yet.
func NewRingMetrics(nickname string, depthFn func() int) *RingMetrics {
	return &RingMetrics{nickname: nickname, queueDepth: depthFn}
}

func (m *RingMetrics) IncTokenCirculation()   { m.bump(&m.c.tokenCirculations) }
func (m *RingMetrics) IncTokenRegeneration()  { m.bump(&m.c.tokenRegenerations) }
func (m *RingMetrics) IncDuplicateDropped()   { m.bump(&m.c.duplicateDropped) }
func (m *RingMetrics) IncSent()               { m.bump(&m.c.sent) }
func (m *RingMetrics) IncAcked()              { m.bump(&m.c.acked) }
func (m *RingMetrics) IncNaked()              { m.bump(&m.c.naked) }
func (m *RingMetrics) IncUnclaimed()          { m.bump(&m.c.unclaimed) }
func (m *RingMetrics) IncForwarded()          { m.bump(&m.c.forwarded) }
func (m *RingMetrics) IncBroadcastDelivered() { m.bump(&m.c.broadcastDelivered) }
func (m *RingMetrics) IncBroadcastCompleted() { m.bump(&m.c.broadcastCompleted) }
func (m *RingMetrics) IncTargetAcked()        { m.bump(&m.c.targetAcked) }
func (m *RingMetrics) IncTargetNaked()        { m.bump(&m.c.targetNaked) }

func (m *RingMetrics) bump(field *int64) {
	m.mu.Lock()
	*field++
	m.mu.Unlock()
}

// Snapshot returns a copy of the current counters, for operator /debug
// output where a prometheus client isn't in the loop.
func (m *RingMetrics) Snapshot() ringCounters {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.c
}

var ringMetricDescs = []struct {
	name string
	help string
	get  func(*ringCounters) int64
}{
	{"ring_token_circulations_total", "Number of times this node has received and released the token.", func(c *ringCounters) int64 { return c.tokenCirculations }},
	{"ring_token_regenerations_total", "Number of times this node regenerated a lost token.", func(c *ringCounters) int64 { return c.tokenRegenerations }},
	{"ring_duplicate_dropped_total", "Tokens dropped because this node already held the token.", func(c *ringCounters) int64 { return c.duplicateDropped }},
	{"ring_sent_total", "Datagrams sent to the right neighbor.", func(c *ringCounters) int64 { return c.sent }},
	{"ring_acked_total", "ACK packets observed returning to their origin.", func(c *ringCounters) int64 { return c.acked }},
	{"ring_naked_total", "NAK packets observed returning to their origin.", func(c *ringCounters) int64 { return c.naked }},
	{"ring_unclaimed_total", "Packets that completed a full lap without being claimed by any target.", func(c *ringCounters) int64 { return c.unclaimed }},
	{"ring_forwarded_total", "Packets forwarded verbatim toward a destination other than this node.", func(c *ringCounters) int64 { return c.forwarded }},
	{"ring_broadcast_delivered_total", "Broadcast packets delivered locally to this node.", func(c *ringCounters) int64 { return c.broadcastDelivered }},
	{"ring_broadcast_completed_total", "Broadcast packets that completed a full lap back to their originator.", func(c *ringCounters) int64 { return c.broadcastCompleted }},
	{"ring_target_acked_total", "ACKs this node issued as the addressed target.", func(c *ringCounters) int64 { return c.targetAcked }},
	{"ring_target_naked_total", "NAKs this node issued as the addressed target.", func(c *ringCounters) int64 { return c.targetNaked }},
}

// Describe implements prometheus.Collector.
func (m *RingMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range ringMetricDescs {
		ch <- prometheus.NewDesc(d.name, d.help, []string{"nickname"}, nil)
	}
	ch <- prometheus.NewDesc("ring_queue_depth", "Current outbound queue depth.", []string{"nickname"}, nil)
}

// Collect implements prometheus.Collector.
func (m *RingMetrics) Collect(ch chan<- prometheus.Metric) {
	snap := m.Snapshot()
	for _, d := range ringMetricDescs {
		desc := prometheus.NewDesc(d.name, d.help, []string{"nickname"}, nil)
		ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(d.get(&snap)), m.nickname)
	}

	depth := 0
	if m.queueDepth != nil {
		depth = m.queueDepth()
	}
	desc := prometheus.NewDesc("ring_queue_depth", "Current outbound queue depth.", []string{"nickname"}, nil)
	ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, float64(depth), m.nickname)
}
