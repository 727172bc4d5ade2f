package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters of one run. Each run registers into its own
// registry so results can be dumped to a textfile when the job ends.
type Metrics struct {
	Registry *prometheus.Registry

	chunksLoaded       prometheus.Counter
	pairRows           *prometheus.CounterVec
	groupsComputed     *prometheus.CounterVec
	groupsDegenerate   *prometheus.CounterVec
	extractionAttempts *prometheus.CounterVec
	writeRetries       prometheus.Counter
}

// NewMetrics creates the run metrics in a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		chunksLoaded: f.NewCounter(prometheus.CounterOpts{
			Name: "entrain_chunks_loaded_total",
			Help: "Chunks loaded from the feature store",
		}),
		pairRows: f.NewCounterVec(prometheus.CounterOpts{
			Name: "entrain_pair_rows_total",
			Help: "Pair rows built, by tag",
		}, []string{"tag"}),
		groupsComputed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "entrain_groups_computed_total",
			Help: "Group/feature results computed, by measure",
		}, []string{"measure"}),
		groupsDegenerate: f.NewCounterVec(prometheus.CounterOpts{
			Name: "entrain_groups_degenerate_total",
			Help: "Group/feature results without a test outcome, by measure",
		}, []string{"measure"}),
		extractionAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "entrain_extraction_attempts_total",
			Help: "Feature extraction attempts, by status",
		}, []string{"status"}),
		writeRetries: f.NewCounter(prometheus.CounterOpts{
			Name: "entrain_store_write_retries_total",
			Help: "Store writes retried after a busy or locked database",
		}),
	}
}

func (m *Metrics) RecordChunksLoaded(n int) { m.chunksLoaded.Add(float64(n)) }

// RecordPairRow counts one pair row; an empty tag is reported as "unpaired".
func (m *Metrics) RecordPairRow(tag string) {
	if tag == "" {
		tag = "unpaired"
	}
	m.pairRows.WithLabelValues(tag).Inc()
}

func (m *Metrics) RecordGroup(measure string, degenerate bool) {
	m.groupsComputed.WithLabelValues(measure).Inc()
	if degenerate {
		m.groupsDegenerate.WithLabelValues(measure).Inc()
	}
}

func (m *Metrics) RecordExtraction(status string) {
	m.extractionAttempts.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordWriteRetry() { m.writeRetries.Inc() }

// WriteTextfile writes the registry in the node exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
