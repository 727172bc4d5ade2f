// Package pairing joins chunks with their conversational counterparts.
//
// A Link connects a turn-final chunk (First) with a later chunk of the other
// speaker (Second). Adjacent links span one turn exchange; non-adjacent links
// connect the same turn-final chunk with the other turn-initial chunks of
// that speaker in the session.
package pairing

import (
	"math"

	"github.com/andreas-weise/individual-variation/chunk"
	"github.com/andreas-weise/individual-variation/feature"
)

// Tag labels a link as adjacent or non-adjacent.
type Tag string

const (
	Adjacent    Tag = "p"
	NonAdjacent Tag = "x"
	Unpaired    Tag = ""
)

// Link is one entry of the pairing relation.
type Link struct {
	Tag    Tag   `json:"p_or_x"`
	First  int64 `json:"chu_id1"`
	Second int64 `json:"chu_id2"`
}

// Row is a chunk joined with the chunk it is paired with. Rows are keyed by
// Index, not ChunkID, since one chunk may appear in several links.
type Row struct {
	Index int
	Tag   Tag
	chunk.Chunk
	Paired *chunk.Chunk
	Sim    feature.Vector
}

// Similarity is the negative absolute difference of a and b.
func Similarity(a, b float64) float64 {
	return -math.Abs(a - b)
}

// Build produces one row per link, plus one row for every chunk that is the
// second element of no link. Links referencing unknown chunks still produce a
// row; the unknown side has no feature values.
func Build(chunks []chunk.Chunk, links []Link) []Row {
	idx := chunk.Index(chunks)
	bySecond := make(map[int64][]int, len(links))
	for i, l := range links {
		bySecond[l.Second] = append(bySecond[l.Second], i)
	}

	rows := make([]Row, 0, len(chunks)+len(links))
	for _, c := range chunks {
		li, ok := bySecond[c.ChunkID]
		if !ok {
			rows = append(rows, newRow(c, Unpaired, nil))
			continue
		}
		for _, i := range li {
			rows = append(rows, newRow(c, links[i].Tag, lookup(chunks, idx, links[i].First)))
		}
	}
	for _, l := range links {
		if _, ok := idx[l.Second]; ok {
			continue
		}
		rows = append(rows, newRow(chunk.Placeholder(l.Second), l.Tag, lookup(chunks, idx, l.First)))
	}

	for i := range rows {
		rows[i].Index = i
	}
	return rows
}

func lookup(chunks []chunk.Chunk, idx map[int64]int, id int64) *chunk.Chunk {
	if i, ok := idx[id]; ok {
		c := chunks[i]
		return &c
	}
	c := chunk.Placeholder(id)
	return &c
}

func newRow(c chunk.Chunk, tag Tag, paired *chunk.Chunk) Row {
	r := Row{Tag: tag, Chunk: c, Paired: paired, Sim: feature.Missing()}
	if paired == nil {
		return r
	}
	for _, f := range feature.All {
		if c.Norm.Has(f) && paired.Norm.Has(f) {
			r.Sim[f] = Similarity(c.Norm[f], paired.Norm[f])
		}
	}
	return r
}
