package clone

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespace = "graphclone"
	metricsSubsystem = "clone"
)

// Metrics holds the Prometheus collectors updated by a Cloner.
// A nil *Metrics records nothing.
type Metrics struct {
	// Operations counts clone operations by root type and result (success, error).
	Operations *prometheus.CounterVec
	// Duration measures clone operations by root type.
	Duration *prometheus.HistogramVec
	// Records counts created clone records by type.
	Records *prometheus.CounterVec
	// Patches counts foreign keys re-pointed on existing clones, by type.
	Patches *prometheus.CounterVec
	// Links counts junction rows requested by many-to-many relations, by relation.
	Links *prometheus.CounterVec
}

// NewMetrics creates the clone collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "operations_total",
			Help:      "Total number of clone operations by root type and result.",
		}, []string{"type", "result"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "duration_seconds",
			Help:      "Duration of clone operations in seconds.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10},
		}, []string{"type"}),
		Records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "records_total",
			Help:      "Total number of committed clone records by type.",
		}, []string{"type"}),
		Patches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "patches_total",
			Help:      "Total number of foreign keys patched on existing clones by type.",
		}, []string{"type"}),
		Links: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "links_total",
			Help:      "Total number of many-to-many members attached by relation.",
		}, []string{"relation"}),
	}
	if reg != nil {
		reg.MustRegister(m.Operations, m.Duration, m.Records, m.Patches, m.Links)
	}
	return m
}

// tally counts the writes of one operation. It is published only when
// the operation commits.
type tally struct {
	records map[string]int
	patches map[string]int
	links   map[string]int
}

func newTally() *tally {
	return &tally{
		records: make(map[string]int),
		patches: make(map[string]int),
		links:   make(map[string]int),
	}
}

func (m *Metrics) observe(typ string, start time.Time, t *tally, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.Operations.WithLabelValues(typ, result).Inc()
	m.Duration.WithLabelValues(typ).Observe(time.Since(start).Seconds())
	if err != nil || t == nil {
		return
	}
	for name, n := range t.records {
		m.Records.WithLabelValues(name).Add(float64(n))
	}
	for name, n := range t.patches {
		m.Patches.WithLabelValues(name).Add(float64(n))
	}
	for name, n := range t.links {
		m.Links.WithLabelValues(name).Add(float64(n))
	}
}
