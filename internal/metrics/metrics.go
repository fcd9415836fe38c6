package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "patternlab"

// Metrics holds the collectors for evolution and breeding. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	generations   *prometheus.CounterVec
	sessions      *prometheus.CounterVec
	bestFitness   *prometheus.GaugeVec
	diversity     *prometheus.GaugeVec
	duration      *prometheus.HistogramVec
	injections    prometheus.Counter
	breedings     *prometheus.CounterVec
	offspring     *prometheus.CounterVec
	compatibility prometheus.Histogram
}

// New registers the collectors on reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		generations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evolution",
			Name:      "generations_total",
			Help:      "Generations evaluated, by strategy",
		}, []string{"strategy"}),
		sessions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evolution",
			Name:      "sessions_total",
			Help:      "Evolution sessions by strategy and final status",
		}, []string{"strategy", "status"}),
		bestFitness: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "evolution",
			Name:      "best_fitness",
			Help:      "Best fitness of the latest generation",
		}, []string{"strategy"}),
		diversity: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "evolution",
			Name:      "diversity",
			Help:      "Mean pairwise genetic distance of the latest generation",
		}, []string{"strategy"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "evolution",
			Name:      "duration_seconds",
			Help:      "Wall time of one evolution session",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"strategy"}),
		injections: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evolution",
			Name:      "diversity_injections_total",
			Help:      "Times low diversity triggered random replacement",
		}),
		breedings: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "breeding",
			Name:      "operations_total",
			Help:      "Breeding calls by strategy and outcome",
		}, []string{"strategy", "status"}),
		offspring: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "breeding",
			Name:      "offspring_total",
			Help:      "Offspring produced, by strategy",
		}, []string{"strategy"}),
		compatibility: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "breeding",
			Name:      "compatibility",
			Help:      "Genre compatibility of bred parent sets",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		}),
	}
}

// ObserveGeneration records one evaluated generation
func (m *Metrics) ObserveGeneration(strategy string, best, diversity float64) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(strategy).Inc()
	m.bestFitness.WithLabelValues(strategy).Set(best)
	m.diversity.WithLabelValues(strategy).Set(diversity)
}

// ObserveSession records a finished evolution session
func (m *Metrics) ObserveSession(strategy, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.sessions.WithLabelValues(strategy, status).Inc()
	m.duration.WithLabelValues(strategy).Observe(elapsed.Seconds())
}

// IncDiversityInjection counts one diversity injection
func (m *Metrics) IncDiversityInjection() {
	if m == nil {
		return
	}
	m.injections.Inc()
}

// ObserveBreeding records one breeding call
func (m *Metrics) ObserveBreeding(strategy string, offspring int, compatibility float64, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.breedings.WithLabelValues(strategy, status).Inc()
	if err != nil {
		return
	}
	m.offspring.WithLabelValues(strategy).Add(float64(offspring))
	m.compatibility.Observe(compatibility)
}
