// =============================================================================
// Vessel Flow Parser - Run Metrics
// =============================================================================
//
// Counters describing one run of the parser. Each Recorder owns its own
// registry so concurrent runs (and tests) never share state. After a run the
// registry can be written in the Prometheus text format for a node exporter
// textfile collector.
//
// =============================================================================

package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "flowparser"

// File outcomes used as the "result" label of FilesProcessed.
const (
	ResultSuccess = "success"
	ResultFailed  = "failed"
)

// Recorder holds the run counters.
type Recorder struct {
	registry *prometheus.Registry

	RowsRead          prometheus.Counter
	RowsSkipped       prometheus.Counter
	RowsFailed        prometheus.Counter
	RecordsPushed     prometheus.Counter
	RecordsRolledBack prometheus.Counter
	RecordsDropped    prometheus.Counter
	FilesProcessed    *prometheus.CounterVec
	FileDuration      prometheus.Histogram
}

// NewRecorder creates a Recorder with a fresh registry.
func NewRecorder() *Recorder {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		})
	}

	r := &Recorder{
		registry:          prometheus.NewRegistry(),
		RowsRead:          counter("rows_read_total", "Data rows read from input sheets."),
		RowsSkipped:       counter("rows_skipped_total", "Data rows skipped for being narrower than the minimum width."),
		RowsFailed:        counter("rows_failed_total", "Data rows dropped because a date cell could not be parsed."),
		RecordsPushed:     counter("records_pushed_total", "Records pushed to the sink."),
		RecordsRolledBack: counter("records_rolled_back_total", "Records whose staged fields were rolled back after a commit failure."),
		RecordsDropped:    counter("records_dropped_total", "Rolled back records that were not pushed."),
		FilesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_processed_total",
			Help:      "Input files processed, by result.",
		}, []string{"result"}),
		FileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "file_duration_seconds",
			Help:      "Time spent processing one input file.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	r.registry.MustRegister(
		r.RowsRead,
		r.RowsSkipped,
		r.RowsFailed,
		r.RecordsPushed,
		r.RecordsRolledBack,
		r.RecordsDropped,
		r.FilesProcessed,
		r.FileDuration,
	)
	return r
}

// FileDone records the outcome of one input file.
func (r *Recorder) FileDone(err error, seconds float64) {
	result := ResultSuccess
	if err != nil {
		result = ResultFailed
	}
	r.FilesProcessed.WithLabelValues(result).Inc()
	r.FileDuration.Observe(seconds)
}

// WriteTextfile writes the registry to path in the Prometheus text format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}
