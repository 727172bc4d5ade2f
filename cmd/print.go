package cmd

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/andreas-weise/individual-variation/analysis"
	"github.com/andreas-weise/individual-variation/orchestrator"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func pct(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", 100*v)
}

func printSummaries(w io.Writer, reports []orchestrator.MeasureReport) {
	tw := newTable(w)
	fmt.Fprintln(tw, "MEASURE\tSPEAKERS\tENTRAINING\t+\t-\t+/-\t1 FEAT\t2 FEAT\t3+ FEAT\tMAX\tDEGENERATE")
	for _, mr := range reports {
		s := mr.Summary
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\t%d\n",
			mr.Measure, s.Speakers, pct(s.EntrainingShare),
			pct(s.ValenceShare[analysis.Positive]),
			pct(s.ValenceShare[analysis.Negative]),
			pct(s.ValenceShare[analysis.Mixed]),
			pct(s.FeatureCountShare[0]), pct(s.FeatureCountShare[1]), pct(s.FeatureCountShare[2]),
			s.MaxFeatures, mr.Degenerate)
	}
	tw.Flush()
}

func printEntries(w io.Writer, mr *orchestrator.MeasureReport) {
	fmt.Fprintf(w, "%s\n", mr.Measure)
	tw := newTable(w)
	fmt.Fprintln(tw, "KEY\tTYPE\t+\t-\tTOTAL\tVALENCE")
	for _, e := range mr.Entries {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n", e.Key, analysis.SpeakerType(e),
			e.Class.Positive, e.Class.Negative, e.Class.Total, e.Class.Valence)
	}
	for _, e := range mr.Aggregates {
		fmt.Fprintf(tw, "%s\t*\t%d\t%d\t%d\t%s\n", e.Key,
			e.Class.Positive, e.Class.Negative, e.Class.Total, e.Class.Valence)
	}
	tw.Flush()
	fmt.Fprintln(w)
}

func printIPUs(w io.Writer, s analysis.IPUStats, cmps []analysis.BinaryComparison) {
	tw := newTable(w)
	fmt.Fprintf(tw, "relevant IPUs\t%d\n", s.Relevant)
	fmt.Fprintf(tw, "syllables per IPU\t%s\n", s.SyllablesPerIPU)
	fmt.Fprintf(tw, "duration per IPU\t%s\n", s.DurationPerIPU)
	fmt.Fprintf(tw, "total hours\t%.2f\n", s.TotalHours)
	fmt.Fprintf(tw, "IPUs per turn\t%s\n", s.IPUsPerTurn)
	fmt.Fprintf(tw, "IPUs per speaker\t%s [%.0f, %.0f]\n", s.PerSpeakerCount, s.PerSpeakerMin, s.PerSpeakerMax)
	fmt.Fprintf(tw, "speech rate per speaker\t%s\n", s.SpeakerRate)
	fmt.Fprintf(tw, "IPU duration per speaker\t%s\n", s.SpeakerDuration)
	fmt.Fprintf(tw, "syllables per IPU per speaker\t%s\n", s.SpeakerSyllables)
	tw.Flush()
	fmt.Fprintln(w)

	tw = newTable(w)
	fmt.Fprintln(tw, "COMPARISON\tLEVELS\tGROUP 0\tGROUP 1\tTEST")
	for _, c := range cmps {
		test := c.Test.String()
		if c.Err != nil {
			test = c.Err.Error()
		}
		fmt.Fprintf(tw, "%s\t%s=%s|%s\t%s\t%s\t%s\n", c.Title, c.Attr, c.Level0, c.Level1, c.Stats0, c.Stats1, test)
	}
	tw.Flush()
}

func printTests(w io.Writer, results []orchestrator.TestResult) {
	tw := newTable(w)
	fmt.Fprintln(tw, "TEST\tSTAT\tP\tDOF")
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(tw, "%s\t%s\t\t\n", r.Name, strings.TrimPrefix(r.Err.Error(), "stats: "))
			continue
		}
		fmt.Fprintf(tw, "%s\t%.6f\t%.6g\t%d\n", r.Name, r.Stat, r.P, r.DoF)
	}
	tw.Flush()
}
