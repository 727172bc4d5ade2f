package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/andreas-weise/individual-variation/chunk"
	"github.com/andreas-weise/individual-variation/feature"
	"github.com/andreas-weise/individual-variation/pairing"
	"github.com/andreas-weise/individual-variation/stats"
)

// TurnExchangeIPUs returns the distinct chunks taking part in an adjacent
// pair, either as turn-initial or as turn-final chunk.
func TurnExchangeIPUs(rows []pairing.Row) []chunk.Chunk {
	want := map[int64]bool{}
	for _, r := range rows {
		if r.Tag != pairing.Adjacent {
			continue
		}
		want[r.ChunkID] = true
		if r.Paired != nil {
			want[r.Paired.ChunkID] = true
		}
	}
	seen := map[int64]bool{}
	var out []chunk.Chunk
	for _, r := range rows {
		if want[r.ChunkID] && !seen[r.ChunkID] {
			seen[r.ChunkID] = true
			out = append(out, r.Chunk)
		}
	}
	return out
}

// AllChunks returns the distinct chunks of rows in row order.
func AllChunks(rows []pairing.Row) []chunk.Chunk {
	seen := map[int64]bool{}
	var out []chunk.Chunk
	for _, r := range rows {
		if !seen[r.ChunkID] {
			seen[r.ChunkID] = true
			out = append(out, r.Chunk)
		}
	}
	return out
}

// MeanStd is a mean with its sample standard deviation.
type MeanStd struct {
	Mean float64
	Std  float64
}

func (m MeanStd) String() string { return fmt.Sprintf("%.2f (%.2f)", m.Mean, m.Std) }

func meanStd(x []float64) MeanStd {
	m, s := stats.MeanStd(x)
	return MeanStd{Mean: m, Std: s}
}

// IPUStats summarizes the relevant (turn-exchange) IPUs of a corpus.
type IPUStats struct {
	Relevant         int
	SyllablesPerIPU  MeanStd
	DurationPerIPU   MeanStd
	TotalHours       float64
	IPUsPerTurn      MeanStd
	PerSpeakerCount  MeanStd
	PerSpeakerMin    float64
	PerSpeakerMax    float64
	SpeakerRate      MeanStd
	SpeakerDuration  MeanStd
	SpeakerSyllables MeanStd
}

// syllables recovers the syllable count from the raw speech rate.
func syllables(c chunk.Chunk) float64 { return c.Raw[feature.RateSyl] * c.Duration }

func finite(x []float64) []float64 {
	out := x[:0:0]
	for _, v := range x {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

type speakerIPUs struct {
	count     float64
	rate      float64
	duration  float64
	syllables float64
}

func perSpeaker(rel []chunk.Chunk) map[int64]speakerIPUs {
	groups := map[int64][]chunk.Chunk{}
	for _, c := range rel {
		groups[c.SpeakerID] = append(groups[c.SpeakerID], c)
	}
	out := make(map[int64]speakerIPUs, len(groups))
	for spk, cs := range groups {
		var rate, dur, syl []float64
		for _, c := range cs {
			rate = append(rate, c.Raw[feature.RateSyl])
			dur = append(dur, c.Duration)
			syl = append(syl, syllables(c))
		}
		out[spk] = speakerIPUs{
			count:     float64(len(cs)),
			rate:      meanStd(finite(rate)).Mean,
			duration:  meanStd(finite(dur)).Mean,
			syllables: meanStd(finite(syl)).Mean,
		}
	}
	return out
}

func column(m map[int64]speakerIPUs, get func(speakerIPUs) float64) []float64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	out := make([]float64, 0, len(keys))
	for _, k := range keys {
		out = append(out, get(m[k]))
	}
	return finite(out)
}

// ComputeIPUStats summarizes relevant IPUs; all provides every chunk for the
// IPUs-per-turn figure.
func ComputeIPUStats(rel, all []chunk.Chunk) IPUStats {
	var s IPUStats
	s.Relevant = len(rel)
	var syl, dur []float64
	total := 0.0
	for _, c := range rel {
		syl = append(syl, syllables(c))
		dur = append(dur, c.Duration)
		total += c.Duration
	}
	s.SyllablesPerIPU = meanStd(finite(syl))
	s.DurationPerIPU = meanStd(finite(dur))
	s.TotalHours = total / 3600

	perTurn := map[int64]float64{}
	for _, c := range all {
		perTurn[c.TurnID]++
	}
	turnCounts := make([]float64, 0, len(perTurn))
	for _, n := range perTurn {
		turnCounts = append(turnCounts, n)
	}
	s.IPUsPerTurn = meanStd(turnCounts)

	spk := perSpeaker(rel)
	counts := column(spk, func(v speakerIPUs) float64 { return v.count })
	s.PerSpeakerCount = meanStd(counts)
	if len(counts) > 0 {
		s.PerSpeakerMin, s.PerSpeakerMax = counts[0], counts[0]
		for _, n := range counts {
			s.PerSpeakerMin = math.Min(s.PerSpeakerMin, n)
			s.PerSpeakerMax = math.Max(s.PerSpeakerMax, n)
		}
	}
	s.SpeakerRate = meanStd(column(spk, func(v speakerIPUs) float64 { return v.rate }))
	s.SpeakerDuration = meanStd(column(spk, func(v speakerIPUs) float64 { return v.duration }))
	s.SpeakerSyllables = meanStd(column(spk, func(v speakerIPUs) float64 { return v.syllables }))
	return s
}

// BinaryComparison compares a per-speaker IPU statistic between two levels of
// a speaker attribute.
type BinaryComparison struct {
	Title  string
	Attr   string
	Level0 string
	Level1 string
	Stats0 MeanStd
	Stats1 MeanStd
	Test   stats.Test
	Err    error
}

// CompareBinary compares speakers whose attribute equals level0 with those
// equal to level1 on number, speech rate, duration and syllable count of
// their relevant IPUs, using independent t-tests.
func CompareBinary(rel []chunk.Chunk, attr, level0, level1 string) ([]BinaryComparison, error) {
	var c0, c1 []chunk.Chunk
	for _, c := range rel {
		v, err := attribute(c.Speaker, attr)
		if err != nil {
			return nil, err
		}
		switch v {
		case level0:
			c0 = append(c0, c)
		case level1:
			c1 = append(c1, c)
		}
	}
	s0, s1 := perSpeaker(c0), perSpeaker(c1)
	metrics := []struct {
		title string
		get   func(speakerIPUs) float64
	}{
		{"number of relevant IPUs per speaker", func(v speakerIPUs) float64 { return v.count }},
		{"speech rate of relevant IPUs per speaker", func(v speakerIPUs) float64 { return v.rate }},
		{"duration of relevant IPUs per speaker", func(v speakerIPUs) float64 { return v.duration }},
		{"syllables per relevant IPU per speaker", func(v speakerIPUs) float64 { return v.syllables }},
	}
	out := make([]BinaryComparison, 0, len(metrics))
	for _, m := range metrics {
		x, y := column(s0, m.get), column(s1, m.get)
		t, err := stats.TTestInd(x, y)
		out = append(out, BinaryComparison{
			Title:  m.title,
			Attr:   attr,
			Level0: level0,
			Level1: level1,
			Stats0: meanStd(x),
			Stats1: meanStd(y),
			Test:   t,
			Err:    err,
		})
	}
	return out, nil
}
