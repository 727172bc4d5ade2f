package analysis

import (
	"fmt"
	"math"

	"github.com/andreas-weise/individual-variation/feature"
	"github.com/andreas-weise/individual-variation/stats"
)

type speakerTypeKey struct {
	gender, lang, partnerGender, partnerLang string
}

func typeKey(e Entry) speakerTypeKey {
	return speakerTypeKey{e.Speaker.Gender, e.Speaker.NativeLang, e.Partner.Gender, e.Partner.NativeLang}
}

// countByType counts entries per speaker type for each of the given sets and
// aligns the counts on the union of types, filling absent types with 0.
func countByType(sets ...[]Entry) [][]float64 {
	counts := make([]map[speakerTypeKey]float64, len(sets))
	var order []speakerTypeKey
	seen := map[speakerTypeKey]bool{}
	for i, set := range sets {
		counts[i] = map[speakerTypeKey]float64{}
		for _, e := range set {
			k := typeKey(e)
			counts[i][k]++
			if !seen[k] {
				seen[k] = true
				order = append(order, k)
			}
		}
	}
	out := make([][]float64, len(sets))
	for i := range sets {
		out[i] = make([]float64, len(order))
		for j, k := range order {
			out[i][j] = counts[i][k]
		}
	}
	return out
}

func byValence(v Valence) func(Entry) bool {
	return func(e Entry) bool { return e.Class.Valence == v }
}

// CompareValencePerSpeakerType runs a paired t-test of the number of purely
// positive against purely negative speakers across speaker types.
func CompareValencePerSpeakerType(entries []Entry) (stats.Test, error) {
	c := countByType(Filter(entries, byValence(Positive)), Filter(entries, byValence(Negative)))
	return stats.TTestRel(c[0], c[1])
}

// CompareSigCountPerSpeakerType runs a paired t-test of the number of
// entraining speakers per speaker type under two measures.
func CompareSigCountPerSpeakerType(a, b []Entry) (stats.Test, error) {
	c := countByType(Filter(a, isSignificant), Filter(b, isSignificant))
	return stats.TTestRel(c[0], c[1])
}

// CompareSigCount tests whether the share of entraining speakers differs
// between groups, e.g. two measures within a corpus or one measure across
// corpora.
func CompareSigCount(groups ...[]Entry) (stats.ChiSquareResult, error) {
	obs := make([][]float64, len(groups))
	for i, g := range groups {
		sig := Count(g, isSignificant)
		obs[i] = []float64{float64(sig), float64(len(g) - sig)}
	}
	return stats.ChiSquare(obs)
}

// CompareSigFeatureCount tests whether the number of significant features
// per entraining speaker (1, 2, 3+) differs between groups.
func CompareSigFeatureCount(groups ...[]Entry) (stats.ChiSquareResult, error) {
	obs := make([][]float64, len(groups))
	for i, g := range groups {
		obs[i] = []float64{
			float64(Count(g, func(e Entry) bool { return e.Class.Total == 1 })),
			float64(Count(g, func(e Entry) bool { return e.Class.Total == 2 })),
			float64(Count(g, func(e Entry) bool { return e.Class.Total > 2 })),
		}
	}
	return stats.ChiSquare(obs)
}

// CompareValence tests whether the distribution of non-0 valences differs
// between groups.
func CompareValence(groups ...[]Entry) (stats.ChiSquareResult, error) {
	obs := make([][]float64, len(groups))
	for i, g := range groups {
		obs[i] = []float64{
			float64(Count(g, byValence(Positive))),
			float64(Count(g, byValence(Negative))),
			float64(Count(g, byValence(Mixed))),
		}
	}
	return stats.ChiSquare(obs)
}

// PartialTypeTest is the outcome of ComparePartialSpeakerTypes.
type PartialTypeTest struct {
	stats.ChiSquareResult
	Observed [][]float64 `json:"observed"`
	Rows     []string    `json:"rows"`
}

// ComparePartialSpeakerTypes tests whether valence depends on speaker and
// partner agreeing in one attribute (gender or native_lang). Rows are all
// (speaker, partner) level combinations; with fullProduct false the first
// combination is left out, for corpora lacking that pairing.
func ComparePartialSpeakerTypes(entries []Entry, attr string, levels []string, fullProduct bool) (PartialTypeTest, error) {
	if attr != "gender" && attr != "native_lang" {
		return PartialTypeTest{}, fmt.Errorf("attribute must be gender or native_lang, got %q", attr)
	}
	type cell struct {
		spk, partner string
		v            Valence
	}
	counts := map[cell]float64{}
	for _, e := range entries {
		s, _ := attribute(e.Speaker, attr)
		p, _ := attribute(e.Partner, attr)
		counts[cell{s, p, e.Class.Valence}]++
	}

	var res PartialTypeTest
	for i, s := range levels {
		for j, p := range levels {
			if !fullProduct && i == 0 && j == 0 {
				continue
			}
			row := make([]float64, 0, len(Valences))
			for _, v := range Valences {
				row = append(row, counts[cell{s, p, v}])
			}
			res.Observed = append(res.Observed, row)
			res.Rows = append(res.Rows, s+"-"+p)
		}
	}
	chi, err := stats.ChiSquare(res.Observed)
	if err != nil {
		return res, err
	}
	res.ChiSquareResult = chi
	return res, nil
}

// FeatureTest is a per-feature test outcome.
type FeatureTest struct {
	Feature feature.ID `json:"-"`
	Name    string     `json:"feature"`
	stats.Test
	CohenD float64 `json:"cohen_d,omitempty"`
}

func fisherZ(entries []Entry, f feature.ID) []float64 {
	out := make([]float64, len(entries))
	for i, e := range entries {
		r, ok := e.Cells[f]
		if !ok {
			out[i] = math.NaN()
			continue
		}
		out[i] = stats.FisherZ(r.Stat)
	}
	return out
}

// CompareSpeakerInBothRoles pairs each speaker's result in one role with
// their result in the other role (entries are matched after sorting by
// session and speaker) and runs a paired t-test on the Fisher z-transformed
// statistics per feature.
func CompareSpeakerInBothRoles(a, b []Entry, features []feature.ID) ([]FeatureTest, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("compare roles: %d vs %d entries: %w", len(a), len(b), stats.ErrLengthMismatch)
	}
	a = append([]Entry(nil), a...)
	b = append([]Entry(nil), b...)
	SortBySessionSpeaker(a)
	SortBySessionSpeaker(b)

	out := make([]FeatureTest, 0, len(features))
	for _, f := range features {
		x, y := fisherZ(a, f), fisherZ(b, f)
		t, err := stats.TTestRel(x, y)
		if err != nil {
			return nil, fmt.Errorf("compare roles %s: %w", f, err)
		}
		d, err := stats.CohenD(x, y)
		if err != nil {
			return nil, fmt.Errorf("compare roles %s: %w", f, err)
		}
		out = append(out, FeatureTest{Feature: f, Name: f.String(), Test: t, CohenD: d})
	}
	return out, nil
}

// CorrelateEngYears correlates the Fisher z-transformed results of speakers
// with the given native language with their years of English experience.
// Features with fewer than three speakers yield NaN results.
func CorrelateEngYears(entries []Entry, lang string, features []feature.ID) []FeatureTest {
	sel := Filter(entries, func(e Entry) bool {
		return e.Speaker.NativeLang == lang && !math.IsNaN(e.Speaker.EngYears)
	})
	years := make([]float64, len(sel))
	for i, e := range sel {
		years[i] = e.Speaker.EngYears
	}
	out := make([]FeatureTest, 0, len(features))
	for _, f := range features {
		t, err := stats.Pearson(fisherZ(sel, f), years)
		if err != nil {
			t = stats.Test{Stat: math.NaN(), P: math.NaN(), DoF: len(sel) - 2}
		}
		out = append(out, FeatureTest{Feature: f, Name: f.String(), Test: t})
	}
	return out
}
