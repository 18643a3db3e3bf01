package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "rateadjuster"

// EngineMetrics records engine call outcomes and configuration changes.
type EngineMetrics struct {
	calls         *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	configChanges *prometheus.CounterVec
}

// NewEngineMetrics creates the engine collectors and registers them with reg.
// A nil registerer leaves them unregistered.
func NewEngineMetrics(reg prometheus.Registerer) (*EngineMetrics, error) {
	m := &EngineMetrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "calls_total",
			Help:      "Total engine compute calls segmented by operation and outcome.",
		}, []string{"op", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "call_duration_seconds",
			Help:      "Latency distribution for engine compute calls, including collaborator reads.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		configChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "config",
			Name:      "changes_total",
			Help:      "Total configuration changes segmented by event.",
		}, []string{"event"}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.calls, m.latency, m.configChanges} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveCall records the outcome and latency of one compute call.
func (m *EngineMetrics) ObserveCall(op string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(op, Outcome(err)).Inc()
	m.latency.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

// ObserveConfigChange counts an installed configuration change.
func (m *EngineMetrics) ObserveConfigChange(event string) {
	if m == nil {
		return
	}
	m.configChanges.WithLabelValues(event).Inc()
}

// Outcome returns the label recorded for err.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return "error"
}
