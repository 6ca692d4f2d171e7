package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveScenario(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveScenario("Shock Event", 100, 2*time.Millisecond)
	m.ObserveScenario("Shock Event", 50, time.Millisecond)

	if got := testutil.ToFloat64(m.StepsSimulated.WithLabelValues("Shock Event")); got != 150 {
		t.Errorf("expected 150 steps, got %v", got)
	}
	if got := testutil.CollectAndCount(m.ScenarioDuration); got != 1 {
		t.Errorf("expected one histogram series, got %d", got)
	}
}

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RunsTotal.WithLabelValues("simulation").Inc()
	m.CacheHits.Inc()
	m.CacheHits.Inc()

	if got := testutil.ToFloat64(m.RunsTotal.WithLabelValues("simulation")); got != 1 {
		t.Errorf("expected 1 run, got %v", got)
	}
	if got := testutil.ToFloat64(m.CacheHits); got != 2 {
		t.Errorf("expected 2 cache hits, got %v", got)
	}
}
