// Package metrics keeps the prometheus counters of batch import runs.
package metrics

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder owns its registry so each process run exports only its own numbers.
type Recorder struct {
	registry *prometheus.Registry

	rows         *prometheus.CounterVec
	units        *prometheus.CounterVec
	unitDuration *prometheus.HistogramVec
	runDuration  prometheus.Gauge
	lastRun      prometheus.Gauge
	lastFailed   prometheus.Gauge
}

func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Recorder{
		registry: reg,
		rows: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mcerdb",
			Subsystem: "import",
			Name:      "rows_total",
			Help:      "Rows processed per source broken down by outcome.",
		}, []string{"source", "outcome"}),
		units: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mcerdb",
			Subsystem: "import",
			Name:      "units_total",
			Help:      "Import units by final state.",
		}, []string{"state"}),
		unitDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mcerdb",
			Subsystem: "import",
			Name:      "unit_duration_seconds",
			Help:      "Wall time of one source import.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"source"}),
		runDuration: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "mcerdb",
			Subsystem: "import",
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
		lastRun: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "mcerdb",
			Subsystem: "import",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
		lastFailed: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "mcerdb",
			Subsystem: "import",
			Name:      "last_run_failed_units",
			Help:      "Failed units in the last run.",
		}),
	}
}

func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// ObserveUnit records one finished unit. counts are outcome -> rows.
func (r *Recorder) ObserveUnit(source, state string, counts map[string]int, d time.Duration) {
	r.units.WithLabelValues(state).Inc()
	r.unitDuration.WithLabelValues(source).Observe(d.Seconds())
	for outcome, n := range counts {
		r.rows.WithLabelValues(source, outcome).Add(float64(n))
	}
}

func (r *Recorder) ObserveRun(finished time.Time, elapsed time.Duration, failed int) {
	r.runDuration.Set(elapsed.Seconds())
	r.lastRun.Set(float64(finished.Unix()))
	r.lastFailed.Set(float64(failed))
}

// WriteTextfile writes the registry in the node exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	return errors.Wrap(prometheus.WriteToTextfile(path, r.registry), "write metrics textfile")
}
