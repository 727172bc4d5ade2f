package measure

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Dim is one component of a result key: either a specific identifier or the
// aggregate over all identifiers of that dimension.
type Dim struct {
	all bool
	id  int64
}

// Specific returns the Dim for identifier id.
func Specific(id int64) Dim { return Dim{id: id} }

// All returns the Dim aggregating over the whole dimension.
func All() Dim { return Dim{all: true} }

func (d Dim) IsAll() bool { return d.all }

// ID returns the identifier and false when d is the aggregate.
func (d Dim) ID() (int64, bool) { return d.id, !d.all }

func (d Dim) String() string {
	if d.all {
		return "all"
	}
	return strconv.FormatInt(d.id, 10)
}

func (d Dim) less(o Dim) bool {
	if d.all != o.all {
		return d.all
	}
	return d.id < o.id
}

func (d Dim) MarshalJSON() ([]byte, error) {
	if d.all {
		return []byte(`"all"`), nil
	}
	return []byte(strconv.FormatInt(d.id, 10)), nil
}

func (d *Dim) UnmarshalJSON(b []byte) error {
	if string(b) == `"all"` {
		*d = All()
		return nil
	}
	var id int64
	if err := json.Unmarshal(b, &id); err != nil {
		return fmt.Errorf("dim: %w", err)
	}
	*d = Specific(id)
	return nil
}

// Key indexes a measure result by session, task and speaker.
type Key struct {
	Session Dim `json:"ses_id"`
	Task    Dim `json:"tsk_id"`
	Speaker Dim `json:"spk_id"`
}

func (k Key) String() string {
	return fmt.Sprintf("(%s, %s, %s)", k.Session, k.Task, k.Speaker)
}

// Less orders keys by session, task, speaker with aggregates first.
func (k Key) Less(o Key) bool {
	if k.Session != o.Session {
		return k.Session.less(o.Session)
	}
	if k.Task != o.Task {
		return k.Task.less(o.Task)
	}
	return k.Speaker.less(o.Speaker)
}

// Grouping selects which dimensions split the data. A false field pools all
// values of that dimension into a single All group.
type Grouping struct {
	Session bool
	Task    bool
	Speaker bool
}

// PerSpeaker groups by session, task and speaker.
var PerSpeaker = Grouping{Session: true, Task: true, Speaker: true}

// ParseGrouping reads the names of the split dimensions, e.g. ["ses", "tsk"].
func ParseGrouping(dims []string) (Grouping, error) {
	var g Grouping
	for _, d := range dims {
		switch d {
		case "ses", "session":
			g.Session = true
		case "tsk", "task":
			g.Task = true
		case "spk", "speaker":
			g.Speaker = true
		default:
			return Grouping{}, fmt.Errorf("unknown grouping dimension %q", d)
		}
	}
	return g, nil
}

func (g Grouping) key(ses, tsk, spk int64) Key {
	k := Key{Session: All(), Task: All(), Speaker: All()}
	if g.Session {
		k.Session = Specific(ses)
	}
	if g.Task {
		k.Task = Specific(tsk)
	}
	if g.Speaker {
		k.Speaker = Specific(spk)
	}
	return k
}
