// Package measure computes the local convergence and synchrony entrainment
// measures from paired chunk rows.
package measure

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/andreas-weise/individual-variation/feature"
	"github.com/andreas-weise/individual-variation/pairing"
	"github.com/andreas-weise/individual-variation/stats"
)

// ID names an entrainment measure.
type ID string

const (
	LocalConvergence ID = "lcon"
	Synchrony        ID = "syn"
)

// IDs lists the supported measures.
var IDs = []ID{LocalConvergence, Synchrony}

var ErrUnknownMeasure = errors.New("unknown entrainment measure")

func ParseID(s string) (ID, error) {
	switch id := ID(s); id {
	case LocalConvergence, Synchrony:
		return id, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMeasure, s)
}

// Result is a (statistic, p-value, degrees of freedom) triple.
type Result struct {
	Stat float64 `json:"stat"`
	P    float64 `json:"p"`
	DoF  int     `json:"dof"`
}

// Degenerate is the result for n observations that cannot be tested.
func Degenerate(n int) Result {
	return Result{Stat: math.NaN(), P: math.NaN(), DoF: n - 2}
}

// IsDegenerate reports whether r carries no test outcome.
func (r Result) IsDegenerate() bool { return math.IsNaN(r.Stat) }

type resultJSON struct {
	Stat *float64 `json:"stat"`
	P    *float64 `json:"p"`
	DoF  int      `json:"dof"`
}

func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

// MarshalJSON encodes NaN as null.
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(resultJSON{Stat: nullable(r.Stat), P: nullable(r.P), DoF: r.DoF})
}

func (r *Result) UnmarshalJSON(b []byte) error {
	var j resultJSON
	if err := json.Unmarshal(b, &j); err != nil {
		return err
	}
	*r = Result{Stat: orNaN(j.Stat), P: orNaN(j.P), DoF: j.DoF}
	return nil
}

func (r Result) String() string {
	return fmt.Sprintf("(%.4f, %.4g, %d)", r.Stat, r.P, r.DoF)
}

// Row holds the per-feature results of one key. Features without any valid
// observation for the key have no cell.
type Row struct {
	Key   Key
	Cells map[feature.ID]Result
}

// Table is the output of one measure run.
type Table struct {
	Measure  ID
	Features []feature.ID
	Rows     []Row
}

// Lookup returns the row for k.
func (t *Table) Lookup(k Key) (Row, bool) {
	i := sort.Search(len(t.Rows), func(i int) bool { return !t.Rows[i].Key.Less(k) })
	if i < len(t.Rows) && t.Rows[i].Key == k {
		return t.Rows[i], true
	}
	return Row{}, false
}

// TimeAxis selects what similarity is correlated with in local convergence.
type TimeAxis string

const (
	StartTime TimeAxis = "start_time"
	TurnIndex TimeAxis = "turn_index"
)

func ParseTimeAxis(s string) (TimeAxis, error) {
	switch a := TimeAxis(s); a {
	case StartTime, TurnIndex:
		return a, nil
	}
	return "", fmt.Errorf("unknown time axis %q", s)
}

// Options configures a measure run.
type Options struct {
	Features  []feature.ID
	Groupings []Grouping // defaults to PerSpeaker
	Axis      TimeAxis   // local convergence only, defaults to StartTime

	// Observe, when set, is called once per computed cell.
	Observe func(id ID, f feature.ID, k Key, r Result)
}

// Compute runs the measure named by id.
func Compute(id ID, rows []pairing.Row, opts Options) (*Table, error) {
	switch id {
	case Synchrony:
		return ComputeSynchrony(rows, opts), nil
	case LocalConvergence:
		return ComputeLocalConvergence(rows, opts), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMeasure, string(id))
}

// ComputeSynchrony correlates each speaker's turn-initial value with the partner's
// preceding turn-final value, per group. The result is directional: a
// speaker's row only uses exchanges where that speaker responds.
func ComputeSynchrony(rows []pairing.Row, opts Options) *Table {
	return run(Synchrony, rows, opts, synchronyPair)
}

// ComputeLocalConvergence correlates each speaker's similarity to the partner
// with time, per group.
func ComputeLocalConvergence(rows []pairing.Row, opts Options) *Table {
	axis := opts.Axis
	if axis == "" {
		axis = StartTime
	}
	return run(LocalConvergence, rows, opts, convergencePair(axis))
}

// pairFunc extracts the two correlated values of a row for feature f; ok is
// false when the row has no valid observation.
type pairFunc func(r *pairing.Row, f feature.ID) (x, y float64, ok bool)

func synchronyPair(r *pairing.Row, f feature.ID) (float64, float64, bool) {
	if r.Paired == nil || !r.Norm.Has(f) || !r.Paired.Norm.Has(f) {
		return 0, 0, false
	}
	return r.Norm[f], r.Paired.Norm[f], true
}

func convergencePair(axis TimeAxis) pairFunc {
	return func(r *pairing.Row, f feature.ID) (float64, float64, bool) {
		if !r.Sim.Has(f) {
			return 0, 0, false
		}
		t := r.Start
		if axis == TurnIndex {
			t = float64(r.TurnIndexSes)
		}
		return r.Sim[f], t, true
	}
}

type series struct{ x, y []float64 }

func run(id ID, rows []pairing.Row, opts Options, pf pairFunc) *Table {
	features := opts.Features
	if len(features) == 0 {
		features = feature.Analyzed
	}
	groupings := opts.Groupings
	if len(groupings) == 0 {
		groupings = []Grouping{PerSpeaker}
	}

	out := map[Key]map[feature.ID]Result{}
	for _, g := range groupings {
		for _, f := range features {
			groups := map[Key]*series{}
			for i := range rows {
				r := &rows[i]
				if r.Tag != pairing.Adjacent {
					continue
				}
				x, y, ok := pf(r, f)
				if !ok {
					continue
				}
				k := g.key(r.SessionID, r.TaskID, r.SpeakerID)
				s := groups[k]
				if s == nil {
					s = &series{}
					groups[k] = s
				}
				s.x = append(s.x, x)
				s.y = append(s.y, y)
			}
			for k, s := range groups {
				res := test(s.x, s.y)
				if out[k] == nil {
					out[k] = map[feature.ID]Result{}
				}
				out[k][f] = res
				if opts.Observe != nil {
					opts.Observe(id, f, k, res)
				}
			}
		}
	}

	t := &Table{Measure: id, Features: append([]feature.ID(nil), features...)}
	for k, cells := range out {
		t.Rows = append(t.Rows, Row{Key: k, Cells: cells})
	}
	sort.Slice(t.Rows, func(i, j int) bool { return t.Rows[i].Key.Less(t.Rows[j].Key) })
	return t
}

// test correlates x with y, or reports a degenerate result when the group is
// too small or either series is constant.
func test(x, y []float64) Result {
	n := len(x)
	if n < 3 || stats.IsConstant(x) || stats.IsConstant(y) {
		return Degenerate(n)
	}
	r, err := stats.Pearson(x, y)
	if err != nil {
		return Degenerate(n)
	}
	return Result{Stat: r.Stat, P: r.P, DoF: r.DoF}
}
