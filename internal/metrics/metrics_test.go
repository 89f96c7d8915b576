package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func value(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var out dto.Metric
	if err := m.Write(&out); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	switch {
	case out.Counter != nil:
		return out.Counter.GetValue()
	case out.Gauge != nil:
		return out.Gauge.GetValue()
	}
	t.Fatalf("unsupported metric type")
	return 0
}

func TestCounters_Increment(t *testing.T) {
	before := value(t, Verifications.WithLabelValues("VERIFIED"))
	Verifications.WithLabelValues("VERIFIED").Inc()
	after := value(t, Verifications.WithLabelValues("VERIFIED"))

	if after-before != 1 {
		t.Errorf("expected counter to increase by 1, got %v", after-before)
	}
}

func TestBreakerState_Gauge(t *testing.T) {
	BreakerState.Set(1)
	if got := value(t, BreakerState); got != 1 {
		t.Errorf("expected gauge 1, got %v", got)
	}
	BreakerState.Set(0)
}
