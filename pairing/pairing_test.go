package pairing

import (
	"math"
	"testing"

	"github.com/andreas-weise/individual-variation/chunk"
	"github.com/andreas-weise/individual-variation/feature"
)

func mk(id, ses, tsk, spk int64, start, pitch float64) chunk.Chunk {
	norm := feature.Missing()
	norm[feature.PitchMean] = pitch
	return chunk.Chunk{
		ChunkID:   id,
		SessionID: ses,
		TaskID:    tsk,
		SpeakerID: spk,
		Start:     start,
		End:       start + 0.5,
		Raw:       norm,
		Norm:      norm,
	}
}

func TestSimilaritySymmetric(t *testing.T) {
	pairs := [][2]float64{{0, 1}, {-2.5, 3.25}, {1e6, -1e-6}, {4, 4}}
	for _, p := range pairs {
		if a, b := Similarity(p[0], p[1]), Similarity(p[1], p[0]); a != b {
			t.Errorf("Similarity(%v, %v) = %v, reversed = %v", p[0], p[1], a, b)
		}
		if s := Similarity(p[0], p[1]); s > 0 {
			t.Errorf("Similarity(%v, %v) = %v, want <= 0", p[0], p[1], s)
		}
	}
}

func TestBuild(t *testing.T) {
	chunks := []chunk.Chunk{
		mk(1, 1, 1, 10, 0, 1.0),
		mk(2, 1, 1, 20, 1, 1.5),
		mk(3, 1, 1, 10, 2, 2.5),
		mk(4, 1, 1, 20, 3, 0.5),
	}
	links := []Link{
		{Adjacent, 1, 2},
		{Adjacent, 2, 3},
		{Adjacent, 3, 4},
		{NonAdjacent, 1, 4},
	}
	rows := Build(chunks, links)

	// chunk 1 unpaired, chunk 4 twice
	if len(rows) != 5 {
		t.Fatalf("len(rows) = %d, want 5", len(rows))
	}
	for i, r := range rows {
		if r.Index != i {
			t.Errorf("rows[%d].Index = %d", i, r.Index)
		}
	}
	if rows[0].Tag != Unpaired || rows[0].Paired != nil {
		t.Errorf("rows[0] = %+v, want unpaired chunk 1", rows[0])
	}
	if rows[0].Sim.Has(feature.PitchMean) {
		t.Error("unpaired row should have no similarity")
	}
	if rows[1].ChunkID != 2 || rows[1].Paired.ChunkID != 1 {
		t.Errorf("rows[1] pairs %d with %d, want 2 with 1", rows[1].ChunkID, rows[1].Paired.ChunkID)
	}
	if got := rows[1].Sim[feature.PitchMean]; got != -0.5 {
		t.Errorf("sim = %v, want -0.5", got)
	}
	if rows[3].ChunkID != 4 || rows[4].ChunkID != 4 {
		t.Fatalf("expected chunk 4 in rows 3 and 4")
	}
	if rows[3].Tag != Adjacent || rows[4].Tag != NonAdjacent {
		t.Errorf("tags = %q, %q", rows[3].Tag, rows[4].Tag)
	}
	if rows[4].Paired.ChunkID != 1 {
		t.Errorf("non-adjacent paired = %d, want 1", rows[4].Paired.ChunkID)
	}
}

func TestBuildKeepsLinksWithUnknownChunks(t *testing.T) {
	chunks := []chunk.Chunk{mk(1, 1, 1, 10, 0, 1.0)}
	links := []Link{{Adjacent, 99, 1}, {Adjacent, 1, 42}}
	rows := Build(chunks, links)
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[0].Paired.ChunkID != 99 || rows[0].Paired.Norm.Has(feature.PitchMean) {
		t.Errorf("unknown first chunk should be a placeholder: %+v", rows[0].Paired)
	}
	if !math.IsNaN(rows[0].Sim[feature.PitchMean]) {
		t.Error("similarity with unknown chunk should be missing")
	}
	if rows[1].ChunkID != 42 || rows[1].Paired.ChunkID != 1 {
		t.Errorf("rows[1] = %d paired with %d, want 42 paired with 1", rows[1].ChunkID, rows[1].Paired.ChunkID)
	}
}

func TestDerive(t *testing.T) {
	// speaker 10: chunks 1,2 | speaker 20: 3 | speaker 10: 4 | speaker 20: 5,6
	chunks := []chunk.Chunk{
		mk(4, 1, 1, 10, 3, 0),
		mk(1, 1, 1, 10, 0, 0),
		mk(2, 1, 1, 10, 1, 0),
		mk(3, 1, 1, 20, 2, 0),
		mk(5, 1, 1, 20, 4, 0),
		mk(6, 1, 1, 20, 5, 0),
	}
	links := Derive(chunks)

	var adj, non []Link
	for _, l := range links {
		switch l.Tag {
		case Adjacent:
			adj = append(adj, l)
		case NonAdjacent:
			non = append(non, l)
		}
	}
	wantAdj := []Link{{Adjacent, 2, 3}, {Adjacent, 3, 4}, {Adjacent, 4, 5}}
	if len(adj) != len(wantAdj) {
		t.Fatalf("adjacent = %v, want %v", adj, wantAdj)
	}
	for i := range wantAdj {
		if adj[i] != wantAdj[i] {
			t.Errorf("adjacent[%d] = %v, want %v", i, adj[i], wantAdj[i])
		}
	}
	// turn-initial chunks: speaker 10 -> 1, 4; speaker 20 -> 3, 5
	wantNon := map[Link]bool{
		{NonAdjacent, 2, 5}: true,
		{NonAdjacent, 3, 1}: true,
		{NonAdjacent, 4, 3}: true,
	}
	if len(non) != len(wantNon) {
		t.Fatalf("non-adjacent = %v, want %d links", non, len(wantNon))
	}
	for _, l := range non {
		if !wantNon[l] {
			t.Errorf("unexpected non-adjacent link %v", l)
		}
	}
}
