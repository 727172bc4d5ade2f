// Package extract measures acoustic-prosodic features of chunks from their
// audio and writes them to the store.
package extract

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/andreas-weise/individual-variation/feature"
)

// Measurements are the raw key/value pairs reported by the extraction
// script. Values that are not numbers (e.g. Praat's --undefined--) are NaN.
type Measurements map[string]float64

// ParseMeasurements reads "key,value" lines.
func ParseMeasurements(r io.Reader) (Measurements, error) {
	m := Measurements{}
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		key, val, ok := strings.Cut(line, ",")
		if !ok {
			return nil, fmt.Errorf("measurements line %d: missing comma in %q", n, line)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			v = math.NaN()
		}
		m[strings.TrimSpace(key)] = v
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read measurements: %w", err)
	}
	return m, nil
}

// get returns the value for key or NaN when absent.
func (m Measurements) get(key string) float64 {
	if v, ok := m[key]; ok {
		return v
	}
	return math.NaN()
}

var scriptKeys = map[string]feature.ID{
	"int_mean":       feature.IntensityMean,
	"int_std":        feature.IntensityStd,
	"int_min":        feature.IntensityMin,
	"int_max":        feature.IntensityMax,
	"f0_mean":        feature.PitchMean,
	"f0_std":         feature.PitchStd,
	"f0_min":         feature.PitchMin,
	"f0_max":         feature.PitchMax,
	"jitter":         feature.Jitter,
	"shimmer":        feature.Shimmer,
	"nhr":            feature.NHR,
	"vcd2tot_frames": feature.RateVcd,
}

// Features maps the measurements onto a feature vector. The syllable rate is
// computed from the syllable count of the chunk's words and the measured
// duration.
func (m Measurements) Features(syllables int) feature.Vector {
	v := feature.Missing()
	for key, f := range scriptKeys {
		v[f] = m.get(key)
	}
	if dur := m.get("dur"); dur > 0 {
		v[feature.RateSyl] = float64(syllables) / dur
	}
	return v
}

// Span returns the measured start, end and duration of the cut audio.
func (m Measurements) Span() (start, end, dur float64) {
	return m.get("start_point"), m.get("end_point"), m.get("dur")
}
