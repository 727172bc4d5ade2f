package feature

import (
	"fmt"
	"math"
)

// ID identifies one acoustic-prosodic feature measured per chunk.
type ID int

const (
	IntensityMean ID = iota
	IntensityStd
	IntensityMin
	IntensityMax
	PitchMean
	PitchStd
	PitchMin
	PitchMax
	Jitter
	Shimmer
	NHR
	RateSyl
	RateVcd

	Count int = iota
)

var names = [Count]string{
	"intensity_mean",
	"intensity_std",
	"intensity_min",
	"intensity_max",
	"pitch_mean",
	"pitch_std",
	"pitch_min",
	"pitch_max",
	"jitter",
	"shimmer",
	"nhr",
	"rate_syl",
	"rate_vcd",
}

// All lists every feature produced by extraction, in storage order.
var All = []ID{
	IntensityMean, IntensityStd, IntensityMin, IntensityMax,
	PitchMean, PitchStd, PitchMin, PitchMax,
	Jitter, Shimmer, NHR, RateSyl, RateVcd,
}

// Analyzed is the default subset used by the entrainment measures.
var Analyzed = []ID{
	IntensityMean, IntensityMax,
	PitchMean, PitchMax,
	Jitter, Shimmer, NHR,
	RateSyl,
}

func (id ID) String() string {
	if id < 0 || int(id) >= Count {
		return fmt.Sprintf("feature(%d)", int(id))
	}
	return names[id]
}

// Parse maps a column name such as "pitch_mean" to its ID.
func Parse(name string) (ID, error) {
	for i, n := range names {
		if n == name {
			return ID(i), nil
		}
	}
	return 0, fmt.Errorf("unknown feature %q", name)
}

// ParseList parses names in order, failing on the first unknown one.
func ParseList(list []string) ([]ID, error) {
	out := make([]ID, 0, len(list))
	for _, n := range list {
		id, err := Parse(n)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// Names returns the column names of ids.
func Names(ids []ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// Vector holds one value per feature. NaN marks a missing (NULL) value.
type Vector [Count]float64

// Missing returns a vector with every value missing.
func Missing() Vector {
	var v Vector
	for i := range v {
		v[i] = math.NaN()
	}
	return v
}

// Has reports whether the value for id is present.
func (v *Vector) Has(id ID) bool { return !math.IsNaN(v[id]) }
