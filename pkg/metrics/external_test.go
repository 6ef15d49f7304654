package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestExternalCallMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewExternalCallMetrics(reg)

	m.IncSuccess("weather")
	m.IncSuccess("weather")
	m.IncFailure("llm")
	m.ObserveDuration("weather", 120*time.Millisecond)

	if got := testutil.ToFloat64(m.success.WithLabelValues("weather")); got != 2 {
		t.Fatalf("expected 2 weather successes, got %v", got)
	}
	if got := testutil.ToFloat64(m.failure.WithLabelValues("llm")); got != 1 {
		t.Fatalf("expected 1 llm failure, got %v", got)
	}
}

func TestExternalCallMetricsNilSafe(t *testing.T) {
	var m *ExternalCallMetrics
	m.IncSuccess("weather")
	m.IncFailure("weather")
	m.ObserveDuration("weather", time.Second)

	empty := NewExternalCallMetrics(nil)
	empty.IncSuccess("")
}

func TestNormalizeLabel(t *testing.T) {
	if got := normalizeLabel(""); got != "unknown" {
		t.Fatalf("expected unknown, got %q", got)
	}
	if got := normalizeLabel("geocode"); got != "geocode" {
		t.Fatalf("expected passthrough, got %q", got)
	}
}
