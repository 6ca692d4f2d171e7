package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for credence.
type Metrics struct {
	RunsTotal        *prometheus.CounterVec
	RunFailures      *prometheus.CounterVec
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter
	PublishFailures  prometheus.Counter
	StepsSimulated   *prometheus.CounterVec
	ScenarioDuration *prometheus.HistogramVec
}

// New creates and registers all metrics on reg. A nil reg uses the default
// registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		RunsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credence_runs_total",
				Help: "Simulation and comparison runs served",
			},
			[]string{"kind"},
		),
		RunFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credence_run_failures_total",
				Help: "Runs rejected or failed",
			},
			[]string{"kind"},
		),
		CacheHits: f.NewCounter(prometheus.CounterOpts{
			Name: "credence_cache_hits_total",
			Help: "Runs served from the result cache",
		}),
		CacheMisses: f.NewCounter(prometheus.CounterOpts{
			Name: "credence_cache_misses_total",
			Help: "Runs computed because the cache had no entry",
		}),
		PublishFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "credence_publish_failures_total",
			Help: "Completion events that could not be published",
		}),
		StepsSimulated: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credence_steps_simulated_total",
				Help: "Belief update steps executed per scenario",
			},
			[]string{"scenario"},
		),
		ScenarioDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "credence_scenario_duration_seconds",
				Help:    "Wall time of one scenario run",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
			[]string{"scenario"},
		),
	}
}

// ObserveScenario records one completed scenario run.
func (m *Metrics) ObserveScenario(name string, steps int, elapsed time.Duration) {
	m.StepsSimulated.WithLabelValues(name).Add(float64(steps))
	m.ScenarioDuration.WithLabelValues(name).Observe(elapsed.Seconds())
}
