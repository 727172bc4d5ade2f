// Package analysis classifies entrainment results and runs the comparative
// tests across speaker groups and corpora.
package analysis

import (
	"github.com/andreas-weise/individual-variation/chunk"
	"github.com/andreas-weise/individual-variation/feature"
	"github.com/andreas-weise/individual-variation/measure"
)

// DefaultAlpha is the significance level for classifying feature results.
const DefaultAlpha = 0.05

// Valence summarizes the signs of a speaker's significant results.
type Valence string

const (
	None     Valence = "0"
	Positive Valence = "+"
	Negative Valence = "-"
	Mixed    Valence = "+/-"
)

// Valences lists the valence labels in reporting order.
var Valences = []Valence{Positive, Negative, Mixed, None}

// Classification counts significant positive and negative feature results.
type Classification struct {
	Positive int     `json:"+"`
	Negative int     `json:"-"`
	Total    int     `json:"+/-"`
	Valence  Valence `json:"pm_type"`
}

// Classify counts the features in cells with p <= alpha by the sign of the
// statistic. Degenerate and missing cells are never significant.
func Classify(cells map[feature.ID]measure.Result, features []feature.ID, alpha float64) Classification {
	var c Classification
	for _, f := range features {
		r, ok := cells[f]
		if !ok || !(r.P <= alpha) {
			continue
		}
		switch {
		case r.Stat > 0:
			c.Positive++
		case r.Stat < 0:
			c.Negative++
		}
	}
	c.Total = c.Positive + c.Negative
	switch {
	case c.Positive == 0 && c.Negative == 0:
		c.Valence = None
	case c.Negative == 0:
		c.Valence = Positive
	case c.Positive == 0:
		c.Valence = Negative
	default:
		c.Valence = Mixed
	}
	return c
}

// Entry is one classified row of a measure table with speaker metadata.
type Entry struct {
	Key     measure.Key
	Cells   map[feature.ID]measure.Result
	Class   Classification
	Speaker chunk.Speaker
	Partner chunk.Speaker
}

// Annotate classifies every row of t.
func Annotate(t *measure.Table, alpha float64) []Entry {
	out := make([]Entry, 0, len(t.Rows))
	for _, r := range t.Rows {
		out = append(out, Entry{
			Key:   r.Key,
			Cells: r.Cells,
			Class: Classify(r.Cells, t.Features, alpha),
		})
	}
	return out
}

// Count returns how many entries satisfy keep.
func Count(entries []Entry, keep func(Entry) bool) int {
	n := 0
	for _, e := range entries {
		if keep(e) {
			n++
		}
	}
	return n
}

// Filter returns the entries satisfying keep.
func Filter(entries []Entry, keep func(Entry) bool) []Entry {
	var out []Entry
	for _, e := range entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

func isSignificant(e Entry) bool { return e.Class.Valence != None }
