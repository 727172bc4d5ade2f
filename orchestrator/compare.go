package orchestrator

import (
	"fmt"
	"math"
	"strings"

	"github.com/andreas-weise/individual-variation/analysis"
	"github.com/andreas-weise/individual-variation/feature"
	"github.com/andreas-weise/individual-variation/measure"
	"github.com/andreas-weise/individual-variation/stats"
)

// TestResult is one named hypothesis test. A failed test keeps its error and
// NaN statistics so the remaining tests still run.
type TestResult struct {
	Name string
	Stat float64
	P    float64
	DoF  int
	Err  error
}

func (r TestResult) String() string {
	if r.Err != nil {
		return fmt.Sprintf("%s: %v", r.Name, r.Err)
	}
	return fmt.Sprintf("%s: %s", r.Name, stats.Test{Stat: r.Stat, P: r.P, DoF: r.DoF})
}

func result(name string, t stats.Test, err error) TestResult {
	if err != nil {
		return TestResult{Name: name, Stat: math.NaN(), P: math.NaN(), Err: err}
	}
	return TestResult{Name: name, Stat: t.Stat, P: t.P, DoF: t.DoF}
}

func chiResult(name string, c stats.ChiSquareResult, err error) TestResult {
	return result(name, c.Test, err)
}

func features(r *Report) []feature.ID {
	ids, err := feature.ParseList(r.Features)
	if err != nil {
		return feature.Analyzed
	}
	return ids
}

// Compare runs the within-run tests of every report, then the tests across
// the role groups of all reports for each measure they share.
func Compare(reports []*Report) []TestResult {
	var out []TestResult
	for _, r := range reports {
		out = append(out, compareWithin(r)...)
	}
	if len(reports) > 1 || (len(reports) == 1 && reports[0].Corpus == analysis.Deception) {
		for _, id := range measure.IDs {
			out = append(out, compareAcross(reports, id)...)
		}
	}
	return out
}

func compareWithin(r *Report) []TestResult {
	var out []TestResult
	prefix := string(r.Corpus) + " " + r.RunID[:min(8, len(r.RunID))]
	name := func(parts ...string) string { return prefix + " " + strings.Join(parts, " ") }

	for _, mr := range r.Measures {
		m := string(mr.Measure)
		t, err := analysis.CompareValencePerSpeakerType(mr.Entries)
		out = append(out, result(name(m, "valence per speaker type"), t, err))

		gender, err := analysis.ComparePartialSpeakerTypes(mr.Entries, "gender", []string{"f", "m"}, true)
		out = append(out, chiResult(name(m, "partial speaker types gender"), gender.ChiSquareResult, err))
		lang, err := analysis.ComparePartialSpeakerTypes(mr.Entries, "native_lang",
			[]string{"Chinese", "English"}, r.Corpus != analysis.Fisher)
		out = append(out, chiResult(name(m, "partial speaker types native_lang"), lang.ChiSquareResult, err))

		for _, ft := range analysis.CorrelateEngYears(mr.Entries, "Chinese", features(r)) {
			out = append(out, result(name(m, "eng years", ft.Name), ft.Test, nil))
		}

		if r.Corpus == analysis.Deception {
			ee := analysis.ByRole(mr.Entries, analysis.RoleInterviewee)
			er := analysis.ByRole(mr.Entries, analysis.RoleInterviewer)
			both, err := analysis.CompareSpeakerInBothRoles(ee, er, features(r))
			if err != nil {
				out = append(out, result(name(m, "both roles"), stats.Test{}, err))
			}
			for _, ft := range both {
				out = append(out, result(name(m, "both roles", ft.Name), ft.Test, nil))
			}
		}
	}

	lc, okL := r.Measure(measure.LocalConvergence)
	syn, okS := r.Measure(measure.Synchrony)
	if okL && okS {
		c, err := analysis.CompareSigCount(lc.Entries, syn.Entries)
		out = append(out, chiResult(name("lcon vs syn sig count"), c, err))
		t, err := analysis.CompareSigCountPerSpeakerType(lc.Entries, syn.Entries)
		out = append(out, result(name("lcon vs syn sig count per speaker type"), t, err))
	}
	return out
}

// compareAcross compares the role groups of all reports (a Fisher run is one
// group, a deception run splits into interviewees and interviewers).
func compareAcross(reports []*Report, id measure.ID) []TestResult {
	var names []string
	var groups [][]analysis.Entry
	for _, r := range reports {
		mr, ok := r.Measure(id)
		if !ok {
			continue
		}
		n, g := roleGroups(r.Corpus, mr.Entries)
		names = append(names, n...)
		groups = append(groups, g...)
	}
	if len(groups) < 2 {
		return nil
	}
	label := string(id) + " " + strings.Join(names, " vs ")
	c, err := analysis.CompareSigCount(groups...)
	out := []TestResult{chiResult(label+" sig count", c, err)}
	c, err = analysis.CompareSigFeatureCount(groups...)
	out = append(out, chiResult(label+" sig feature count", c, err))
	c, err = analysis.CompareValence(groups...)
	out = append(out, chiResult(label+" valence", c, err))
	return out
}
