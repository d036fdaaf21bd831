// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package fleet

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultOK     = "ok"
	resultFailed = "failed"
	resultPanic  = "panic"
)

// Metrics counts host runs. A nil *Metrics discards everything.
type Metrics struct {
	registry *prometheus.Registry
	runs     *prometheus.CounterVec
	changed  prometheus.Counter
}

// NewMetrics returns metrics registered in their own registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gnmi_intent_runs_total",
				Help: "Host runs by result.",
			},
			[]string{"result"},
		),
		changed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gnmi_intent_changed_total",
			Help: "Host runs that changed the device configuration.",
		}),
	}
	m.registry.MustRegister(m.runs, m.changed)
	return m
}

func (m *Metrics) observe(result string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(result).Inc()
}

// ObserveChanged counts a run that changed a device.
func (m *Metrics) ObserveChanged() {
	if m == nil {
		return
	}
	m.changed.Inc()
}

// WriteTextfile writes the metrics in the text exposition format, for
// the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
