// Package metrics exposes run outcomes as Prometheus gauges and writes
// them in the node-exporter textfile format.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bactopia/bactopia-parser/internal/parser"
	"github.com/bactopia/bactopia-parser/internal/run"
)

// Collector holds the gauges for the most recent run.
type Collector struct {
	registry *prometheus.Registry

	samples       *prometheus.GaugeVec
	sampleErrors  *prometheus.GaugeVec
	duration      prometheus.Gauge
	lastCompleted prometheus.Gauge
	runs          prometheus.Counter
}

// NewCollector creates a collector with its own registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Collector{
		registry: reg,
		samples: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bactopia_run_samples",
				Help: "Samples in the last aggregated run by outcome",
			},
			[]string{"outcome"},
		),
		sampleErrors: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bactopia_run_sample_errors",
				Help: "Samples in the last aggregated run that reported each error kind",
			},
			[]string{"kind"},
		),
		duration: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "bactopia_run_duration_seconds",
				Help: "Time spent aggregating the last run",
			},
		),
		lastCompleted: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "bactopia_run_last_completed_timestamp_seconds",
				Help: "Unix time the last aggregation finished",
			},
		),
		runs: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "bactopia_runs_aggregated_total",
				Help: "Aggregations completed by this process",
			},
		),
	}
}

// Registry returns the registry the gauges are registered on.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Observe replaces the gauges with the outcome of res.
func (c *Collector) Observe(res *run.Result) {
	counts := res.Counts
	c.samples.Reset()
	for outcome, n := range map[string]int{
		"total":          counts.Total,
		"processed":      counts.Processed,
		"qc-failure":     counts.QCFailure,
		"total-excluded": counts.TotalExcluded,
		"missing":        counts.Missing,
		"ignore-list":    counts.IgnoreList,
		"paired-end":     counts.PairedEnd,
		"single-end":     counts.SingleEnd,
	} {
		c.samples.WithLabelValues(outcome).Set(float64(n))
	}

	c.sampleErrors.Reset()
	for _, kind := range parser.ErrorKinds() {
		c.sampleErrors.WithLabelValues(string(kind)).Set(float64(res.ErrorCounts[kind]))
	}

	if res.CompletedAt != nil {
		c.duration.Set(res.CompletedAt.Sub(res.StartedAt).Seconds())
		c.lastCompleted.Set(float64(res.CompletedAt.Unix()))
	}
	c.runs.Inc()
}

// WriteTextfile writes the current gauges to path for the node-exporter
// textfile collector. The parent directory is created if needed.
func (c *Collector) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { //nolint:gosec // G301: collector directory is shared with node-exporter
		return fmt.Errorf("creating metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
