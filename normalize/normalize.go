// Package normalize rescales raw chunk features before pairing.
package normalize

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/andreas-weise/individual-variation/chunk"
	"github.com/andreas-weise/individual-variation/feature"
)

// Mode selects how raw features are normalized.
type Mode string

const (
	Raw     Mode = "RAW"
	Speaker Mode = "SPEAKER"
	Gender  Mode = "GENDER"
)

var ErrUnknownMode = errors.New("unknown normalization mode")

// ParseMode validates s as a Mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case Raw, Speaker, Gender:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Normalize fills Norm for every chunk from Raw. RAW copies the raw values;
// SPEAKER and GENDER z-score each feature within the group, using the
// population standard deviation over the non-missing values. A group with
// zero variance yields non-finite values.
func Normalize(chunks []chunk.Chunk, mode Mode, features []feature.ID) error {
	switch mode {
	case Raw:
		for i := range chunks {
			chunks[i].Norm = feature.Missing()
			for _, f := range features {
				chunks[i].Norm[f] = chunks[i].Raw[f]
			}
		}
		return nil
	case Speaker, Gender:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMode, string(mode))
	}

	groups := map[string][]int{}
	for i, c := range chunks {
		k := groupKey(c, mode)
		groups[k] = append(groups[k], i)
	}

	for i := range chunks {
		chunks[i].Norm = feature.Missing()
	}
	vals := make([]float64, 0, 64)
	for _, members := range groups {
		for _, f := range features {
			vals = vals[:0]
			for _, i := range members {
				if v := chunks[i].Raw[f]; !math.IsNaN(v) {
					vals = append(vals, v)
				}
			}
			if len(vals) == 0 {
				continue
			}
			mean, std := stat.PopMeanStdDev(vals, nil)
			for _, i := range members {
				if v := chunks[i].Raw[f]; !math.IsNaN(v) {
					chunks[i].Norm[f] = (v - mean) / std
				}
			}
		}
	}
	return nil
}

func groupKey(c chunk.Chunk, mode Mode) string {
	if mode == Gender {
		return "g:" + c.Speaker.Gender
	}
	return fmt.Sprintf("s:%d", c.SpeakerID)
}
