package chunk

import (
	"encoding/json"
	"math"

	"github.com/andreas-weise/individual-variation/feature"
)

// Speaker carries the demographic attributes used to group results.
type Speaker struct {
	Gender     string  `json:"gender"`
	NativeLang string  `json:"native_lang"`
	AOrB       string  `json:"speaker_a_or_b"`
	Role       string  `json:"speaker_role"`
	EngYears   float64 `json:"eng_yrs"` // NaN when unknown
}

type speakerJSON struct {
	Gender     string   `json:"gender"`
	NativeLang string   `json:"native_lang"`
	AOrB       string   `json:"speaker_a_or_b"`
	Role       string   `json:"speaker_role"`
	EngYears   *float64 `json:"eng_yrs"`
}

func (s Speaker) MarshalJSON() ([]byte, error) {
	j := speakerJSON{Gender: s.Gender, NativeLang: s.NativeLang, AOrB: s.AOrB, Role: s.Role}
	if !math.IsNaN(s.EngYears) {
		j.EngYears = &s.EngYears
	}
	return json.Marshal(j)
}

func (s *Speaker) UnmarshalJSON(b []byte) error {
	var j speakerJSON
	if err := json.Unmarshal(b, &j); err != nil {
		return err
	}
	*s = Speaker{Gender: j.Gender, NativeLang: j.NativeLang, AOrB: j.AOrB, Role: j.Role, EngYears: math.NaN()}
	if j.EngYears != nil {
		s.EngYears = *j.EngYears
	}
	return nil
}

// Chunk is one transcribed speech segment with its acoustic features.
type Chunk struct {
	SessionID int64
	TaskID    int64
	SpeakerID int64
	TurnID    int64
	ChunkID   int64

	TurnIndex    int // within the task
	TurnIndexSes int // within the session
	ChunkIndex   int // within the turn

	Start    float64 // sec
	End      float64 // sec
	Duration float64 // sec

	Transcript string
	Words      string

	Speaker Speaker

	Raw  feature.Vector
	Norm feature.Vector
}

// Placeholder returns a chunk known only by id; all features are missing.
func Placeholder(id int64) Chunk {
	return Chunk{
		ChunkID: id,
		Raw:     feature.Missing(),
		Norm:    feature.Missing(),
	}
}

// Index maps chunk ids to positions in chunks.
func Index(chunks []Chunk) map[int64]int {
	idx := make(map[int64]int, len(chunks))
	for i, c := range chunks {
		idx[c.ChunkID] = i
	}
	return idx
}
