package analysis

import "sort"

// Summary describes how many speakers entrain and how.
type Summary struct {
	Speakers   int `json:"speakers"`
	Entraining int `json:"entraining"`

	// EntrainingShare is the fraction of speakers with a non-0 valence.
	EntrainingShare float64 `json:"entraining_share"`
	// ValenceShare is each valence's fraction of entraining speakers.
	ValenceShare map[Valence]float64 `json:"valence_share"`
	// FeatureCountShare buckets entraining speakers by number of
	// significant features: index 0 is one feature, 1 two, 2 three or more.
	FeatureCountShare [3]float64 `json:"feature_count_share"`
	MaxFeatures       int        `json:"max_features"`
}

// Summarize aggregates classified entries. Shares with a zero denominator
// are reported as 0.
func Summarize(entries []Entry) Summary {
	s := Summary{Speakers: len(entries), ValenceShare: map[Valence]float64{}}
	counts := map[Valence]int{}
	var buckets [3]int
	for _, e := range entries {
		counts[e.Class.Valence]++
		if e.Class.Total > s.MaxFeatures {
			s.MaxFeatures = e.Class.Total
		}
		switch {
		case e.Class.Total == 1:
			buckets[0]++
		case e.Class.Total == 2:
			buckets[1]++
		case e.Class.Total >= 3:
			buckets[2]++
		}
	}
	s.Entraining = s.Speakers - counts[None]
	s.EntrainingShare = share(s.Entraining, s.Speakers)
	for _, v := range []Valence{Positive, Negative, Mixed} {
		s.ValenceShare[v] = share(counts[v], s.Entraining)
	}
	for i, n := range buckets {
		s.FeatureCountShare[i] = share(n, s.Entraining)
	}
	return s
}

func share(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}

// ChartValences are the stacked categories of the valence chart; "x" marks
// speaker types absent from a corpus.
var ChartValences = []string{"+", "-", "+/-", "0", "x"}

// ChartColumn is one stacked bar: the valence shares of a speaker type, in
// ChartValences order.
type ChartColumn struct {
	SpeakerType string    `json:"speaker_type"`
	Shares      []float64 `json:"shares"`
}

// Chart is the data of a stacked valence bar chart.
type Chart struct {
	Title      string        `json:"title"`
	Categories []string      `json:"categories"`
	Columns    []ChartColumn `json:"columns"`
}

// fisherMissingTypes have no speakers in the Fisher corpus.
var fisherMissingTypes = []string{"FC-FC", "FC-MC", "MC-FC", "MC-MC"}

// ValenceBySpeakerType computes per speaker type the share of each valence.
func ValenceBySpeakerType(corpus Corpus, entries []Entry, title string) Chart {
	counts := map[string]map[Valence]int{}
	totals := map[string]int{}
	for _, e := range entries {
		st := SpeakerType(e)
		if st == "" {
			continue
		}
		if counts[st] == nil {
			counts[st] = map[Valence]int{}
		}
		counts[st][e.Class.Valence]++
		totals[st]++
	}

	var cols []ChartColumn
	for st, c := range counts {
		shares := make([]float64, len(ChartValences))
		for i, v := range []Valence{Positive, Negative, Mixed, None} {
			shares[i] = float64(c[v]) / float64(totals[st])
		}
		cols = append(cols, ChartColumn{SpeakerType: st, Shares: shares})
	}
	if corpus == Fisher {
		for _, st := range fisherMissingTypes {
			if _, ok := counts[st]; ok {
				continue
			}
			cols = append(cols, ChartColumn{SpeakerType: st, Shares: []float64{0, 0, 0, 0, 1}})
		}
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i].SpeakerType < cols[j].SpeakerType })
	return Chart{Title: title, Categories: ChartValences, Columns: cols}
}
