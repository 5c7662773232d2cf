package supervisor

import "github.com/prometheus/client_golang/prometheus"

// Metrics instruments the supervisor. A nil *Metrics is valid and records nothing.
type Metrics struct {
	running       prometheus.Gauge
	spawnsTotal   *prometheus.CounterVec
	spawnFailures prometheus.Counter
	exitsTotal    *prometheus.CounterVec
}

// NewMetrics creates supervisor metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "variantd",
			Subsystem: "supervisor",
			Name:      "variants_running",
			Help:      "Variant processes currently tracked",
		}),
		spawnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "variantd",
			Subsystem: "supervisor",
			Name:      "spawns_total",
			Help:      "Transcoder processes spawned",
		}, []string{"tier"}),
		spawnFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "variantd",
			Subsystem: "supervisor",
			Name:      "spawn_failures_total",
			Help:      "Transcoder spawns that failed",
		}),
		exitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "variantd",
			Subsystem: "supervisor",
			Name:      "exits_total",
			Help:      "Transcoder exits by reason (stopped, exited)",
		}, []string{"reason"}),
	}
	if reg != nil {
		reg.MustRegister(m.running, m.spawnsTotal, m.spawnFailures, m.exitsTotal)
	}
	return m
}

func (m *Metrics) setRunning(n int) {
	if m != nil {
		m.running.Set(float64(n))
	}
}

func (m *Metrics) spawned(tier string) {
	if m != nil {
		m.spawnsTotal.WithLabelValues(tier).Inc()
	}
}

func (m *Metrics) spawnFailed() {
	if m != nil {
		m.spawnFailures.Inc()
	}
}

func (m *Metrics) exited(reason string) {
	if m != nil {
		m.exitsTotal.WithLabelValues(reason).Inc()
	}
}
