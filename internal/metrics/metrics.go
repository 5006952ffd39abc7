// Package metrics exposes onboarding counters in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vyap_onboarding"

// Metrics implements core.Recorder on its own registry.
type Metrics struct {
	registry      *prometheus.Registry
	gateDecisions *prometheus.CounterVec
	wizardFinish  *prometheus.CounterVec
	fieldSaves    *prometheus.CounterVec
	snoozes       prometheus.Counter
	sessions      prometheus.Gauge
}

// New registers the onboarding collectors plus the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		gateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gate_decisions_total",
			Help:      "Gate evaluations by outcome.",
		}, []string{"outcome"}),
		wizardFinish: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wizard_finish_total",
			Help:      "Wizard finish attempts by result.",
		}, []string{"result"}),
		fieldSaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "profile_field_saves_total",
			Help:      "Profile editor saves by field and result.",
		}, []string{"field", "result"}),
		snoozes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snoozes_total",
			Help:      "Times the onboarding prompt was snoozed.",
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "device_sessions",
			Help:      "Device sessions currently held in memory.",
		}),
	}
	reg.MustRegister(
		m.gateDecisions, m.wizardFinish, m.fieldSaves, m.snoozes, m.sessions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) GateDecision(outcome string) { m.gateDecisions.WithLabelValues(outcome).Inc() }

func (m *Metrics) WizardFinish(result string) { m.wizardFinish.WithLabelValues(result).Inc() }

func (m *Metrics) FieldSave(field, result string) { m.fieldSaves.WithLabelValues(field, result).Inc() }

func (m *Metrics) Snooze() { m.snoozes.Inc() }

func (m *Metrics) Sessions(n int) { m.sessions.Set(float64(n)) }

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
