package telemetry

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics collects scheduler runtime metrics.
type Metrics struct {
	mu sync.RWMutex

	// Counters
	NodesDispatched int64
	NodesCompleted  int64
	NodesFailed     int64

	// Gauges
	ActiveNodes int64

	// Histograms (simplified)
	nodeDurations []time.Duration

	// Exporter (optional)
	exporter MetricsExporter
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		nodeDurations: make([]time.Duration, 0, 1000),
	}
}

// IncNodesDispatched increments the dispatched-node counter.
func (m *Metrics) IncNodesDispatched() {
	atomic.AddInt64(&m.NodesDispatched, 1)
	atomic.AddInt64(&m.ActiveNodes, 1)
}

// IncNodesCompleted increments the completed-node counter.
func (m *Metrics) IncNodesCompleted() {
	atomic.AddInt64(&m.NodesCompleted, 1)
	atomic.AddInt64(&m.ActiveNodes, -1)
}

// IncNodesFailed increments the failed-node counter.
func (m *Metrics) IncNodesFailed() {
	atomic.AddInt64(&m.NodesFailed, 1)
	atomic.AddInt64(&m.ActiveNodes, -1)
}

// RecordNodeDuration records how long a single node's Run took.
func (m *Metrics) RecordNodeDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodeDurations = append(m.nodeDurations, d)
}

// GetSummary returns a summary of collected metrics.
func (m *Metrics) GetSummary() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summary := map[string]interface{}{
		"nodes_dispatched": atomic.LoadInt64(&m.NodesDispatched),
		"nodes_completed":  atomic.LoadInt64(&m.NodesCompleted),
		"nodes_failed":     atomic.LoadInt64(&m.NodesFailed),
		"active_nodes":     atomic.LoadInt64(&m.ActiveNodes),
	}

	if len(m.nodeDurations) > 0 {
		var total time.Duration
		for _, d := range m.nodeDurations {
			total += d
		}
		summary["avg_node_duration_ms"] = total.Milliseconds() / int64(len(m.nodeDurations))
	}

	return summary
}

// SetExporter attaches a metrics exporter.
func (m *Metrics) SetExporter(e MetricsExporter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exporter = e
}

// Flush exports the current metrics snapshot with the given event label.
func (m *Metrics) Flush(event string, labels map[string]string) {
	m.mu.RLock()
	exporter := m.exporter
	m.mu.RUnlock()

	if exporter == nil {
		return
	}

	snapshot := MetricsSnapshot{
		Timestamp: time.Now(),
		Event:     event,
		Metrics:   m.GetSummary(),
		Labels:    labels,
	}
	// Best-effort export.
	_ = exporter.Export(snapshot)
}
