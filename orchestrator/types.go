package orchestrator

import (
	"time"

	"github.com/andreas-weise/individual-variation/analysis"
	"github.com/andreas-weise/individual-variation/measure"
	"github.com/andreas-weise/individual-variation/normalize"
)

// MeasureReport is the outcome of one entrainment measure in a run.
type MeasureReport struct {
	Measure measure.ID `json:"measure"`
	// Entries are the per-speaker results after removing half of the
	// matching pairs.
	Entries []analysis.Entry `json:"entries"`
	// Aggregates are rows pooled across a dimension, when configured.
	Aggregates []analysis.Entry `json:"aggregates,omitempty"`
	Summary    analysis.Summary `json:"summary"`
	Chart      analysis.Chart   `json:"chart"`
	Degenerate int              `json:"degenerate"`
}

// Report is everything a run produces; it is persisted as report.json.
type Report struct {
	RunID         string          `json:"run_id"`
	Corpus        analysis.Corpus `json:"corpus"`
	Normalization normalize.Mode  `json:"normalization"`
	Features      []string        `json:"features"`
	Alpha         float64         `json:"alpha"`
	GeneratedAt   time.Time       `json:"generated_at"`
	Measures      []MeasureReport `json:"measures"`
}

// Measure returns the report of measure id.
func (r *Report) Measure(id measure.ID) (*MeasureReport, bool) {
	for i := range r.Measures {
		if r.Measures[i].Measure == id {
			return &r.Measures[i], true
		}
	}
	return nil, false
}
