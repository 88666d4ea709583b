// Package metrics exposes cache, compiler and validation activity as
// Prometheus collectors.
package metrics

import (
	"errors"
	"time"

	"github.com/aretw0/schemagate/pkg/schema"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "schemagate"

// Metrics implements cache.Observer and records validation outcomes.
type Metrics struct {
	cacheRequests *prometheus.CounterVec
	compilations  *prometheus.CounterVec
	validations   *prometheus.CounterVec
	causes        *prometheus.CounterVec
	duration      prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		cacheRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_requests_total",
				Help:      "Validator cache lookups by result (hit, miss).",
			},
			[]string{"result"},
		),
		compilations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "compilations_total",
				Help:      "Schema compilations by result (ok, error).",
			},
			[]string{"result"},
		),
		validations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validations_total",
				Help:      "Validated records by result (valid, invalid, error).",
			},
			[]string{"result"},
		),
		causes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validation_causes_total",
				Help:      "Field-level validation failures by cause.",
			},
			[]string{"cause"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "validation_duration_seconds",
				Help:      "Time spent validating a record, including cache lookup.",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
		),
	}

	for _, c := range []prometheus.Collector{m.cacheRequests, m.compilations, m.validations, m.causes, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MustNew is like New but panics on registration errors.
func MustNew(reg prometheus.Registerer) *Metrics {
	m, err := New(reg)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Metrics) CacheHit(string) {
	m.cacheRequests.WithLabelValues("hit").Inc()
}

func (m *Metrics) CacheMiss(string) {
	m.cacheRequests.WithLabelValues("miss").Inc()
}

func (m *Metrics) Compiled(_ string, err error) {
	if err != nil {
		m.compilations.WithLabelValues("error").Inc()
		return
	}
	m.compilations.WithLabelValues("ok").Inc()
}

// ObserveValidation records the outcome of one validation call.
func (m *Metrics) ObserveValidation(elapsed time.Duration, err error) {
	m.duration.Observe(elapsed.Seconds())

	switch {
	case err == nil:
		m.validations.WithLabelValues("valid").Inc()
	case errors.Is(err, schema.ErrValidation):
		m.validations.WithLabelValues("invalid").Inc()
		for _, c := range schema.Causes(err) {
			m.causes.WithLabelValues(string(c.Cause)).Inc()
		}
	default:
		m.validations.WithLabelValues("error").Inc()
	}
}
