package analysis

import (
	"encoding/json"

	"github.com/andreas-weise/individual-variation/chunk"
	"github.com/andreas-weise/individual-variation/feature"
	"github.com/andreas-weise/individual-variation/measure"
)

type entryJSON struct {
	Key     measure.Key               `json:"key"`
	Cells   map[string]measure.Result `json:"cells"`
	Class   Classification            `json:"class"`
	Speaker chunk.Speaker             `json:"speaker"`
	Partner chunk.Speaker             `json:"partner"`
}

// MarshalJSON writes cells keyed by feature name.
func (e Entry) MarshalJSON() ([]byte, error) {
	j := entryJSON{
		Key:     e.Key,
		Cells:   make(map[string]measure.Result, len(e.Cells)),
		Class:   e.Class,
		Speaker: e.Speaker,
		Partner: e.Partner,
	}
	for f, r := range e.Cells {
		j.Cells[f.String()] = r
	}
	return json.Marshal(j)
}

func (e *Entry) UnmarshalJSON(b []byte) error {
	var j entryJSON
	if err := json.Unmarshal(b, &j); err != nil {
		return err
	}
	cells := make(map[feature.ID]measure.Result, len(j.Cells))
	for name, r := range j.Cells {
		f, err := feature.Parse(name)
		if err != nil {
			return err
		}
		cells[f] = r
	}
	*e = Entry{Key: j.Key, Cells: cells, Class: j.Class, Speaker: j.Speaker, Partner: j.Partner}
	return nil
}
