package pairing

import (
	"sort"

	"github.com/andreas-weise/individual-variation/chunk"
)

type turn struct {
	speaker int64
	first   int64
	last    int64
}

// Derive computes the pairing relation from time-ordered chunks. Within each
// task, consecutive turns by different speakers yield an adjacent link from
// the last chunk of the earlier turn to the first chunk of the later one.
// Each adjacent link's turn-final chunk is also linked, non-adjacently, to
// every other turn-initial chunk of the responding speaker in the session.
func Derive(chunks []chunk.Chunk) []Link {
	byTask := map[int64][]chunk.Chunk{}
	var tasks []int64
	for _, c := range chunks {
		if _, ok := byTask[c.TaskID]; !ok {
			tasks = append(tasks, c.TaskID)
		}
		byTask[c.TaskID] = append(byTask[c.TaskID], c)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i] < tasks[j] })

	type initial struct {
		session, speaker, chunk int64
	}
	var adjacent []Link
	var initials []initial
	sessionOf := map[int64]int64{}

	for _, tsk := range tasks {
		cs := byTask[tsk]
		sort.SliceStable(cs, func(i, j int) bool {
			if cs[i].Start != cs[j].Start {
				return cs[i].Start < cs[j].Start
			}
			return cs[i].ChunkID < cs[j].ChunkID
		})
		var turns []turn
		for _, c := range cs {
			sessionOf[c.ChunkID] = c.SessionID
			if n := len(turns); n > 0 && turns[n-1].speaker == c.SpeakerID {
				turns[n-1].last = c.ChunkID
				continue
			}
			turns = append(turns, turn{speaker: c.SpeakerID, first: c.ChunkID, last: c.ChunkID})
			initials = append(initials, initial{c.SessionID, c.SpeakerID, c.ChunkID})
		}
		for i := 1; i < len(turns); i++ {
			adjacent = append(adjacent, Link{Tag: Adjacent, First: turns[i-1].last, Second: turns[i].first})
		}
	}

	speakerOf := map[int64]int64{}
	for _, in := range initials {
		speakerOf[in.chunk] = in.speaker
	}

	links := append([]Link(nil), adjacent...)
	for _, l := range adjacent {
		ses, spk := sessionOf[l.Second], speakerOf[l.Second]
		for _, in := range initials {
			if in.session != ses || in.speaker != spk || in.chunk == l.Second {
				continue
			}
			links = append(links, Link{Tag: NonAdjacent, First: l.First, Second: in.chunk})
		}
	}
	return links
}
