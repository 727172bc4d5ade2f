package measure

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/andreas-weise/individual-variation/chunk"
	"github.com/andreas-weise/individual-variation/feature"
	"github.com/andreas-weise/individual-variation/pairing"
)

// exchange builds an adjacent row where speaker spk responds with value v to
// the partner's value pv at time start.
func exchange(ses, tsk, spk int64, start, v, pv float64) pairing.Row {
	norm := feature.Missing()
	norm[feature.PitchMean] = v
	pnorm := feature.Missing()
	pnorm[feature.PitchMean] = pv
	sim := feature.Missing()
	if !math.IsNaN(v) && !math.IsNaN(pv) {
		sim[feature.PitchMean] = pairing.Similarity(v, pv)
	}
	return pairing.Row{
		Tag: pairing.Adjacent,
		Chunk: chunk.Chunk{
			SessionID: ses, TaskID: tsk, SpeakerID: spk,
			Start: start, Norm: norm,
		},
		Paired: &chunk.Chunk{Norm: pnorm},
		Sim:    sim,
	}
}

var pitchOnly = Options{Features: []feature.ID{feature.PitchMean}}

func TestSynchronyScenario(t *testing.T) {
	xs := []float64{1.0, 2.0, 3.0, 4.0, 5.0}
	ys := []float64{1.1, 2.0, 2.9, 4.2, 4.8}
	var rows []pairing.Row
	for i := range xs {
		rows = append(rows, exchange(7, 3, 11, float64(i), xs[i], ys[i]))
	}
	tbl := ComputeSynchrony(rows, pitchOnly)
	if len(tbl.Rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(tbl.Rows))
	}
	k := Key{Session: Specific(7), Task: Specific(3), Speaker: Specific(11)}
	if tbl.Rows[0].Key != k {
		t.Fatalf("key = %v, want %v", tbl.Rows[0].Key, k)
	}
	r := tbl.Rows[0].Cells[feature.PitchMean]
	if r.Stat < 0.99 || r.Stat > 1 {
		t.Errorf("r = %v, want close to 1", r.Stat)
	}
	if r.P >= 0.05 {
		t.Errorf("p = %v, want < 0.05", r.P)
	}
	if r.DoF != 3 {
		t.Errorf("dof = %d, want 3", r.DoF)
	}
}

func TestTooFewObservations(t *testing.T) {
	rows := []pairing.Row{
		exchange(1, 1, 1, 0, 1, 2),
		exchange(1, 1, 1, 1, 2, 3),
	}
	for _, id := range IDs {
		tbl, err := Compute(id, rows, pitchOnly)
		if err != nil {
			t.Fatal(err)
		}
		r := tbl.Rows[0].Cells[feature.PitchMean]
		if !math.IsNaN(r.Stat) || !math.IsNaN(r.P) || r.DoF != 0 {
			t.Errorf("%s: result = %v, want (NaN, NaN, 0)", id, r)
		}
	}
}

func TestSingleObservationDoF(t *testing.T) {
	tbl := ComputeSynchrony([]pairing.Row{exchange(1, 1, 1, 0, 1, 2)}, pitchOnly)
	if got := tbl.Rows[0].Cells[feature.PitchMean].DoF; got != -1 {
		t.Errorf("dof = %d, want -1", got)
	}
}

func TestConstantSeries(t *testing.T) {
	var rows []pairing.Row
	for i := 0; i < 6; i++ {
		rows = append(rows, exchange(1, 1, 1, float64(i), 2.0, float64(i)))
	}
	r := ComputeSynchrony(rows, pitchOnly).Rows[0].Cells[feature.PitchMean]
	if !r.IsDegenerate() || !math.IsNaN(r.P) || r.DoF != 4 {
		t.Errorf("synchrony = %v, want (NaN, NaN, 4)", r)
	}

	// identical distance at every exchange: constant similarity
	rows = rows[:0]
	for i := 0; i < 5; i++ {
		rows = append(rows, exchange(1, 1, 1, float64(i), float64(i), float64(i)+0.5))
	}
	r = ComputeLocalConvergence(rows, pitchOnly).Rows[0].Cells[feature.PitchMean]
	if !r.IsDegenerate() || r.DoF != 3 {
		t.Errorf("local convergence = %v, want (NaN, NaN, 3)", r)
	}
}

func TestMissingAndNonAdjacentRowsExcluded(t *testing.T) {
	rows := []pairing.Row{
		exchange(1, 1, 1, 0, 1, 1),
		exchange(1, 1, 1, 1, 2, 2),
		exchange(1, 1, 1, 2, math.NaN(), 3),
		exchange(1, 1, 1, 3, 4, math.NaN()),
		exchange(1, 1, 1, 4, 5, 5),
	}
	x := exchange(1, 1, 1, 5, 100, -100)
	x.Tag = pairing.NonAdjacent
	rows = append(rows, x)
	r := ComputeSynchrony(rows, pitchOnly).Rows[0].Cells[feature.PitchMean]
	if r.DoF != 1 {
		t.Errorf("dof = %d, want 1 (three valid rows)", r.DoF)
	}
	if math.Abs(r.Stat-1) > 1e-9 {
		t.Errorf("r = %v, want 1", r.Stat)
	}
}

func TestKeysCoverOnlyObservedGroups(t *testing.T) {
	rows := []pairing.Row{
		exchange(1, 1, 1, 0, 1, 2),
		exchange(1, 1, 2, 1, 2, 1),
		exchange(2, 3, 4, 0, math.NaN(), 1),
	}
	opts := Options{Features: []feature.ID{feature.PitchMean, feature.Jitter}}
	tbl := ComputeSynchrony(rows, opts)
	if len(tbl.Rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2: %v", len(tbl.Rows), tbl.Rows)
	}
	for _, r := range tbl.Rows {
		if _, ok := r.Cells[feature.Jitter]; ok {
			t.Errorf("%v has a jitter cell without observations", r.Key)
		}
		if _, ok := r.Cells[feature.PitchMean]; !ok {
			t.Errorf("%v lacks a pitch cell", r.Key)
		}
	}
	if !tbl.Rows[0].Key.Less(tbl.Rows[1].Key) {
		t.Error("rows not sorted by key")
	}
	if _, ok := tbl.Lookup(Key{Specific(1), Specific(1), Specific(2)}); !ok {
		t.Error("Lookup missed speaker 2")
	}
}

func TestSynchronyIsPerResponder(t *testing.T) {
	var rows []pairing.Row
	for i := 0; i < 5; i++ {
		f := float64(i)
		rows = append(rows, exchange(1, 1, 1, 2*f, f, f*f))
		rows = append(rows, exchange(1, 1, 2, 2*f+1, -f, f))
	}
	tbl := ComputeSynchrony(rows, pitchOnly)
	if len(tbl.Rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(tbl.Rows))
	}
	a := tbl.Rows[0].Cells[feature.PitchMean]
	b := tbl.Rows[1].Cells[feature.PitchMean]
	if a.Stat <= 0 || math.Abs(b.Stat+1) > 1e-9 {
		t.Errorf("speaker results = %v, %v", a, b)
	}
}

func TestLocalConvergenceTrend(t *testing.T) {
	var rows []pairing.Row
	gaps := []float64{4, 3, 2.5, 1, 0.2}
	for i, g := range gaps {
		rows = append(rows, exchange(1, 1, 1, float64(10*i), 0, g))
	}
	r := ComputeLocalConvergence(rows, pitchOnly).Rows[0].Cells[feature.PitchMean]
	if r.Stat <= 0.9 || r.DoF != 3 {
		t.Errorf("result = %v, want strong positive trend with dof 3", r)
	}

	for i := range rows {
		rows[i].TurnIndexSes = i + 1
	}
	opts := pitchOnly
	opts.Axis = TurnIndex
	byTurn := ComputeLocalConvergence(rows, opts).Rows[0].Cells[feature.PitchMean]
	if math.Abs(byTurn.Stat-r.Stat) > 1e-9 {
		t.Errorf("turn index r = %v, start time r = %v; equally spaced exchanges should agree", byTurn.Stat, r.Stat)
	}
}

func TestAggregateGroupings(t *testing.T) {
	var rows []pairing.Row
	for i := 0; i < 3; i++ {
		f := float64(i)
		rows = append(rows, exchange(1, 1, 1, f, f, f+0.1))
		rows = append(rows, exchange(1, 2, 2, f, f, f-0.1))
	}
	opts := pitchOnly
	opts.Groupings = []Grouping{PerSpeaker, {Session: true}}
	tbl := ComputeSynchrony(rows, opts)
	if len(tbl.Rows) != 3 {
		t.Fatalf("len(rows) = %d, want 3", len(tbl.Rows))
	}
	agg := tbl.Rows[0]
	want := Key{Session: Specific(1), Task: All(), Speaker: All()}
	if agg.Key != want {
		t.Fatalf("first key = %v, want %v", agg.Key, want)
	}
	if dof := agg.Cells[feature.PitchMean].DoF; dof != 4 {
		t.Errorf("pooled dof = %d, want 4", dof)
	}
}

func TestParseID(t *testing.T) {
	if _, err := ParseID("lsim"); !errors.Is(err, ErrUnknownMeasure) {
		t.Errorf("err = %v, want ErrUnknownMeasure", err)
	}
	if _, err := Compute(ID("lsim"), nil, Options{}); !errors.Is(err, ErrUnknownMeasure) {
		t.Errorf("err = %v, want ErrUnknownMeasure", err)
	}
}

func TestDimJSON(t *testing.T) {
	k := Key{Session: Specific(0), Task: All(), Speaker: Specific(12)}
	b, err := json.Marshal(k)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"ses_id":0,"tsk_id":"all","spk_id":12}` {
		t.Errorf("json = %s", b)
	}
	var back Key
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if back != k {
		t.Errorf("decoded %v, want %v", back, k)
	}
	if id, ok := back.Session.ID(); !ok || id != 0 {
		t.Error("session 0 must remain a specific identifier")
	}
}
