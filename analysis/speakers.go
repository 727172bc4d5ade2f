package analysis

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/andreas-weise/individual-variation/chunk"
	"github.com/andreas-weise/individual-variation/measure"
	"github.com/andreas-weise/individual-variation/pairing"
)

// Corpus identifies one of the analyzed speech corpora.
type Corpus string

const (
	Fisher    Corpus = "FC"
	Deception Corpus = "XCDC"
)

var ErrUnknownCorpus = errors.New("unknown corpus id")

func ParseCorpus(s string) (Corpus, error) {
	switch c := Corpus(s); c {
	case Fisher, Deception:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCorpus, s)
}

// Speaker roles in the deception corpus.
const (
	RoleInterviewee = "f"
	RoleInterviewer = "d"
)

// TaskSpeaker identifies a speaker within a task.
type TaskSpeaker struct {
	Task    int64 `yaml:"tsk_id" json:"tsk_id"`
	Speaker int64 `yaml:"spk_id" json:"spk_id"`
}

type groupID struct{ ses, tsk, spk int64 }

// AddSpeakerInfo attaches speaker and partner metadata to entries keyed by a
// specific session, task and speaker, taking the first known value of each
// attribute from the adjacent pair rows of that group.
func AddSpeakerInfo(entries []Entry, rows []pairing.Row) {
	type info struct{ spk, partner chunk.Speaker }
	infos := map[groupID]*info{}
	for i := range rows {
		r := &rows[i]
		if r.Tag == pairing.Unpaired {
			continue
		}
		g := groupID{r.SessionID, r.TaskID, r.SpeakerID}
		in := infos[g]
		if in == nil {
			in = &info{spk: blankSpeaker(), partner: blankSpeaker()}
			infos[g] = in
		}
		mergeSpeaker(&in.spk, r.Speaker)
		if r.Paired != nil {
			mergeSpeaker(&in.partner, r.Paired.Speaker)
		}
	}
	for i := range entries {
		ses, ok1 := entries[i].Key.Session.ID()
		tsk, ok2 := entries[i].Key.Task.ID()
		spk, ok3 := entries[i].Key.Speaker.ID()
		if !ok1 || !ok2 || !ok3 {
			continue
		}
		if in := infos[groupID{ses, tsk, spk}]; in != nil {
			entries[i].Speaker = in.spk
			entries[i].Partner = in.partner
		}
	}
}

func blankSpeaker() chunk.Speaker { return chunk.Speaker{EngYears: math.NaN()} }

func mergeSpeaker(dst *chunk.Speaker, src chunk.Speaker) {
	if dst.Gender == "" {
		dst.Gender = src.Gender
	}
	if dst.NativeLang == "" {
		dst.NativeLang = src.NativeLang
	}
	if dst.AOrB == "" {
		dst.AOrB = src.AOrB
	}
	if dst.Role == "" {
		dst.Role = src.Role
	}
	if math.IsNaN(dst.EngYears) {
		dst.EngYears = src.EngYears
	}
}

// FilterHalfOfMatches removes half of the entries whose speaker and partner
// match in gender and native language. For the Fisher corpus speaker B of
// each matching pair is dropped; for the deception corpus the given
// (task, speaker) selection is dropped.
func FilterHalfOfMatches(corpus Corpus, entries []Entry, exclusions []TaskSpeaker) ([]Entry, error) {
	switch corpus {
	case Fisher:
		return Filter(entries, func(e Entry) bool {
			match := e.Speaker.Gender == e.Partner.Gender && e.Speaker.NativeLang == e.Partner.NativeLang
			return !(match && e.Speaker.AOrB == "B")
		}), nil
	case Deception:
		excl := make(map[TaskSpeaker]bool, len(exclusions))
		for _, ts := range exclusions {
			excl[ts] = true
		}
		return Filter(entries, func(e Entry) bool {
			tsk, ok1 := e.Key.Task.ID()
			spk, ok2 := e.Key.Speaker.ID()
			return !(ok1 && ok2 && excl[TaskSpeaker{Task: tsk, Speaker: spk}])
		}), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCorpus, string(corpus))
}

// SpeakerType labels an entry by speaker and partner gender and native
// language, e.g. "FC-ME" for a female native Chinese speaker with a male
// native English partner. It is empty when an attribute is unknown.
func SpeakerType(e Entry) string {
	s, p := e.Speaker, e.Partner
	if s.Gender == "" || s.NativeLang == "" || p.Gender == "" || p.NativeLang == "" {
		return ""
	}
	return strings.ToUpper(s.Gender) + s.NativeLang[:1] + "-" + strings.ToUpper(p.Gender) + p.NativeLang[:1]
}

// ByRole returns entries whose speaker had the given role.
func ByRole(entries []Entry, role string) []Entry {
	return Filter(entries, func(e Entry) bool { return e.Speaker.Role == role })
}

// SortBySessionSpeaker orders entries by session then speaker.
func SortBySessionSpeaker(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].Key, entries[j].Key
		if a.Session != b.Session {
			return measure.Key{Session: a.Session}.Less(measure.Key{Session: b.Session})
		}
		return measure.Key{Speaker: a.Speaker}.Less(measure.Key{Speaker: b.Speaker})
	})
}

func attribute(s chunk.Speaker, name string) (string, error) {
	switch name {
	case "gender":
		return s.Gender, nil
	case "native_lang":
		return s.NativeLang, nil
	case "speaker_role":
		return s.Role, nil
	}
	return "", fmt.Errorf("unknown speaker attribute %q", name)
}
