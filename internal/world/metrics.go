package world

import (
	"github.com/hidra-sim/hidra/internal/config"
	"github.com/prometheus/client_golang/prometheus"
)

// Sample is one tick's recorded metrics snapshot, kept in Metrics' ring
// buffer. NeuronLVars is keyed by neuron ID, then by LVar index, limited
// to the indices cfg.MetricsLVarIndices names.
type Sample struct {
	Tick           uint64
	NeuronLVars    map[uint64]map[int]float64
	SynapseWeights map[uint64]float64
	IOValues       map[uint64]float64
}

// Metrics owns a fixed-capacity ring of per-tick samples plus a private
// Prometheus registry — private, not the global default registry, so
// that multiple worlds in one process (as internal/activity's fitness
// search will construct) never collide on metric names.
type Metrics struct {
	cfg   config.HidraConfig
	ring  []Sample
	next  int
	count int

	registry        *prometheus.Registry
	tickGauge       prometheus.Gauge
	neuronCountGa   prometheus.Gauge
	synapseCountGa  prometheus.Gauge
	queueDepthGauge prometheus.Gauge
}

// NewMetrics constructs a Metrics collector sized per cfg.
// MetricsRingCapacity. Capacity 0 disables retention but Prometheus
// gauges are still registered and updated, since those are cheap and
// scraped independently of the ring.
func NewMetrics(cfg config.HidraConfig) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		cfg:      cfg,
		ring:     make([]Sample, cfg.MetricsRingCapacity),
		registry: reg,
		tickGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hidra_current_tick",
			Help: "Current simulation tick.",
		}),
		neuronCountGa: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hidra_active_neuron_count",
			Help: "Number of active neurons.",
		}),
		synapseCountGa: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hidra_active_synapse_count",
			Help: "Number of active synapses.",
		}),
		queueDepthGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hidra_event_queue_depth",
			Help: "Number of events currently queued.",
		}),
	}
	reg.MustRegister(m.tickGauge, m.neuronCountGa, m.synapseCountGa, m.queueDepthGauge)
	return m
}

// Registry exposes the private Prometheus registry so cmd/hidra can
// mount it behind an HTTP handler.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Samples returns the ring buffer's contents in chronological order,
// oldest first.
func (m *Metrics) Samples() []Sample {
	if m.count < len(m.ring) {
		out := make([]Sample, m.count)
		copy(out, m.ring[:m.count])
		return out
	}
	out := make([]Sample, len(m.ring))
	copy(out, m.ring[m.next:])
	copy(out[len(m.ring)-m.next:], m.ring[:m.next])
	return out
}

// record pushes s into the ring, overwriting the oldest entry once full.
func (m *Metrics) record(s Sample) {
	if len(m.ring) == 0 {
		return
	}
	m.ring[m.next] = s
	m.next = (m.next + 1) % len(m.ring)
	if m.count < len(m.ring) {
		m.count++
	}
}
