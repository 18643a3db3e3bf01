package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestEngineMetricsCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewEngineMetrics(reg)
	if err != nil {
		t.Fatalf("new metrics: %v", err)
	}

	m.ObserveCall("rate", time.Now(), nil)
	m.ObserveCall("rate", time.Now(), errors.New("boom"))
	m.ObserveCall("rate", time.Now(), nil)
	m.ObserveConfigChange("RiskPremiumChanged")

	if got := testutil.ToFloat64(m.calls.WithLabelValues("rate", "ok")); got != 2 {
		t.Fatalf("ok calls mismatch: got %v", got)
	}
	if got := testutil.ToFloat64(m.calls.WithLabelValues("rate", "error")); got != 1 {
		t.Fatalf("error calls mismatch: got %v", got)
	}
	if got := testutil.ToFloat64(m.configChanges.WithLabelValues("RiskPremiumChanged")); got != 1 {
		t.Fatalf("config changes mismatch: got %v", got)
	}
}

func TestEngineMetricsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewEngineMetrics(reg); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if _, err := NewEngineMetrics(reg); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *EngineMetrics
	m.ObserveCall("rate", time.Now(), nil)
	m.ObserveConfigChange("RiskPremiumChanged")
}
