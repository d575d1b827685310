package services

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts translator outcomes. A nil *Metrics records nothing.
type Metrics struct {
	requests   *prometheus.CounterVec
	failures   *prometheus.CounterVec
	characters prometheus.Counter
}

// NewMetrics builds the translator collectors and registers them with reg
// when it is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "famlink",
				Name:      "translations_total",
				Help:      "Translations served, by source (same-language, cache, provider).",
			},
			[]string{"source"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "famlink",
				Name:      "translation_failures_total",
				Help:      "Failed translations, by error kind.",
			},
			[]string{"kind"},
		),
		characters: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "famlink",
				Name:      "provider_characters_total",
				Help:      "Characters sent to the translation provider.",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.failures, m.characters)
	}
	return m
}

func (m *Metrics) served(source string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(source).Inc()
}

func (m *Metrics) failed(kind string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(kind).Inc()
}

func (m *Metrics) sent(chars int) {
	if m == nil {
		return
	}
	m.characters.Add(float64(chars))
}
