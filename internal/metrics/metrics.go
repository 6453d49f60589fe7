// Package metrics exposes Prometheus counters for the detect/fetch workflow.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	detections  *prometheus.CounterVec
	moods       *prometheus.CounterVec
	searches    *prometheus.CounterVec
	cache       *prometheus.CounterVec
	stale       prometheus.Counter
	modelsReady prometheus.Gauge
	duration    *prometheus.HistogramVec
}

// New creates a Metrics instance with its collectors registered.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		detections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "moodmusic_detections_total",
			Help: "Detection attempts by outcome",
		}, []string{"outcome"}),
		moods: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "moodmusic_moods_total",
			Help: "Detected moods by label",
		}, []string{"mood"}),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "moodmusic_searches_total",
			Help: "Music searches by outcome",
		}, []string{"outcome"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "moodmusic_search_cache_lookups_total",
			Help: "Search cache lookups by result",
		}, []string{"result"}),
		stale: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "moodmusic_stale_results_discarded_total",
			Help: "Results dropped because a newer detection superseded them",
		}),
		modelsReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "moodmusic_models_ready",
			Help: "1 once both models are loaded",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "moodmusic_step_duration_seconds",
			Help:    "Duration of external calls by step",
			Buckets: prometheus.DefBuckets,
		}, []string{"step"}),
	}

	m.registry.MustRegister(
		m.detections,
		m.moods,
		m.searches,
		m.cache,
		m.stale,
		m.modelsReady,
		m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) DetectionOutcome(outcome string) {
	m.detections.WithLabelValues(outcome).Inc()
}

func (m *Metrics) MoodDetected(mood string) {
	m.moods.WithLabelValues(mood).Inc()
}

func (m *Metrics) SearchOutcome(outcome string) {
	m.searches.WithLabelValues(outcome).Inc()
}

func (m *Metrics) StaleDiscarded() {
	m.stale.Inc()
}

func (m *Metrics) ModelsReady(ready bool) {
	if ready {
		m.modelsReady.Set(1)
		return
	}
	m.modelsReady.Set(0)
}

func (m *Metrics) ObserveStep(step string, seconds float64) {
	m.duration.WithLabelValues(step).Observe(seconds)
}

// CacheLookup records a search cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	if hit {
		m.cache.WithLabelValues("hit").Inc()
		return
	}
	m.cache.WithLabelValues("miss").Inc()
}
