// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package observability

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "paper_digest"

// Metrics holds the counters and gauges of a single CLI invocation. They
// live on a private registry and are flushed to a node-exporter textfile
// at the end of the command.
type Metrics struct {
	registry *prometheus.Registry

	// SourcePapers is the number of records a source returned, by source.
	SourcePapers *prometheus.GaugeVec

	// SourceFailures counts source adapters that failed entirely.
	SourceFailures *prometheus.CounterVec

	// CandidatesSelected is the size of the final selection.
	CandidatesSelected prometheus.Gauge

	// ItemsResolved counts resolved items by stage and tier.
	ItemsResolved *prometheus.CounterVec

	// LastSuccess is the unix time a command last completed, by command.
	LastSuccess *prometheus.GaugeVec
}

// NewMetrics creates and registers all metrics on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		SourcePapers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "source_papers",
			Help:      "Number of papers returned by a discovery source in the last run",
		}, []string{"source"}),
		SourceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_failures_total",
			Help:      "Discovery sources that failed entirely",
		}, []string{"source"}),
		CandidatesSelected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "candidates_selected",
			Help:      "Number of candidates selected in the last discovery run",
		}),
		ItemsResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_resolved_total",
			Help:      "Pipeline items resolved, by stage and tier",
		}, []string{"stage", "tier"}),
		LastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful command",
		}, []string{"command"}),
	}
	m.registry.MustRegister(
		m.SourcePapers,
		m.SourceFailures,
		m.CandidatesSelected,
		m.ItemsResolved,
		m.LastSuccess,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// MarkSuccess records the completion time of command.
func (m *Metrics) MarkSuccess(command string, at time.Time) {
	m.LastSuccess.WithLabelValues(command).Set(float64(at.Unix()))
}

// WriteTextfile writes the registry in Prometheus text format to path.
// An empty path is a no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
