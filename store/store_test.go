package store

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/lib/pq"

	"github.com/andreas-weise/individual-variation/chunk"
	"github.com/andreas-weise/individual-variation/feature"
	"github.com/andreas-weise/individual-variation/pairing"
	"github.com/andreas-weise/individual-variation/resilience"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s, err := Open(ctx, DriverSQLite, ":memory:", Options{
		Retry: &resilience.RetryConfig{MaxAttempts: 2, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, BackoffMultiplier: 1},
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return s
}

func records() []ChunkRecord {
	a := chunk.Speaker{Gender: "f", NativeLang: "English", AOrB: "A", EngYears: math.NaN()}
	b := chunk.Speaker{Gender: "m", NativeLang: "Chinese", AOrB: "B", EngYears: 6}
	return []ChunkRecord{
		{SessionID: 1, TaskID: 10, TaskIndex: 1, SpeakerID: 100, TurnID: 1000, TurnIndex: 1, ChunkID: 1, ChunkIndex: 1, Start: 0, End: 1.2, Words: "hello there", Speaker: a},
		{SessionID: 1, TaskID: 10, TaskIndex: 1, SpeakerID: 100, TurnID: 1000, TurnIndex: 1, ChunkID: 2, ChunkIndex: 2, Start: 1.5, End: 2.0, Words: "how are you", Speaker: a},
		{SessionID: 1, TaskID: 10, TaskIndex: 1, SpeakerID: 101, TurnID: 1001, TurnIndex: 2, ChunkID: 3, ChunkIndex: 1, Start: 2.4, End: 3.0, Words: "fine", Speaker: b},
		{SessionID: 1, TaskID: 11, TaskIndex: 2, SpeakerID: 101, TurnID: 1002, TurnIndex: 1, ChunkID: 4, ChunkIndex: 1, Start: 10, End: 11, Words: "next", Speaker: b},
	}
}

func TestImportAndLoadChunks(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	if err := s.ImportChunks(ctx, records()); err != nil {
		t.Fatalf("ImportChunks: %v", err)
	}

	chunks, err := s.LoadChunks(ctx)
	if err != nil {
		t.Fatalf("LoadChunks: %v", err)
	}
	if len(chunks) != 4 {
		t.Fatalf("len = %d, want 4", len(chunks))
	}
	for i, c := range chunks {
		if c.ChunkID != int64(i+1) {
			t.Errorf("chunk %d id = %d, want %d", i, c.ChunkID, i+1)
		}
		if !math.IsNaN(c.Raw[feature.PitchMean]) {
			t.Errorf("chunk %d pitch = %v, want NaN before extraction", i, c.Raw[feature.PitchMean])
		}
	}
	c3 := chunks[2]
	if c3.Speaker.AOrB != "B" || c3.Speaker.EngYears != 6 || c3.Speaker.Gender != "m" {
		t.Errorf("speaker = %+v", c3.Speaker)
	}
	if !math.IsNaN(chunks[0].Speaker.EngYears) {
		t.Errorf("eng years = %v, want NaN", chunks[0].Speaker.EngYears)
	}
	if chunks[3].TurnIndexSes != 3 || c3.TurnIndexSes != 2 {
		t.Errorf("turn_index_ses = %d, %d; want 2, 3", c3.TurnIndexSes, chunks[3].TurnIndexSes)
	}
	if math.Abs(chunks[1].Duration-0.5) > 1e-9 {
		t.Errorf("duration = %v, want 0.5", chunks[1].Duration)
	}

	ids, err := s.SessionIDs(ctx)
	if err != nil || len(ids) != 1 || ids[0] != 1 {
		t.Errorf("SessionIDs = %v, %v", ids, err)
	}
	ses, err := s.SessionChunks(ctx, 1)
	if err != nil || len(ses) != 4 {
		t.Errorf("SessionChunks = %d chunks, %v", len(ses), err)
	}
}

func TestSetFeatures(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	if err := s.ImportChunks(ctx, records()); err != nil {
		t.Fatal(err)
	}
	v := feature.Missing()
	v[feature.PitchMean] = 180.5
	v[feature.RateSyl] = 4.2
	err := s.SetFeatures(ctx, []FeatureUpdate{{ChunkID: 2, Start: 1.50049, End: 1.9996, Duration: 0.4991, Values: v}})
	if err != nil {
		t.Fatalf("SetFeatures: %v", err)
	}
	chunks, err := s.LoadChunks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	c := chunks[1]
	if c.Raw[feature.PitchMean] != 180.5 || c.Raw[feature.RateSyl] != 4.2 {
		t.Errorf("features = %v", c.Raw)
	}
	if !math.IsNaN(c.Raw[feature.Jitter]) {
		t.Errorf("jitter = %v, want NaN", c.Raw[feature.Jitter])
	}
	if c.Start != 1.5 || c.End != 2.0 || c.Duration != 0.499 {
		t.Errorf("times = %v %v %v", c.Start, c.End, c.Duration)
	}
}

func TestSaveAndLoadLinks(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	links := []pairing.Link{
		{Tag: pairing.Adjacent, First: 2, Second: 3},
		{Tag: pairing.NonAdjacent, First: 2, Second: 4},
	}
	if err := s.SaveLinks(ctx, links); err != nil {
		t.Fatalf("SaveLinks: %v", err)
	}
	if err := s.SaveLinks(ctx, links[:1]); err != nil {
		t.Fatalf("SaveLinks again: %v", err)
	}
	got, err := s.LoadLinks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != links[0] {
		t.Errorf("links = %v, want %v", got, links[:1])
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), "mysql", "", Options{}); err == nil {
		t.Error("expected error for unknown driver")
	}
}

func TestRebind(t *testing.T) {
	pg := &Store{driver: DriverPostgres}
	if got := pg.rebind("UPDATE x SET a = ?, b = ? WHERE c = ?"); got != "UPDATE x SET a = $1, b = $2 WHERE c = $3" {
		t.Errorf("rebind = %q", got)
	}
	if got := pg.rebind("INSERT INTO chunk_pairs (p_or_x, chu_id1, chu_id2) VALUES (?, ?, ?)"); !strings.HasSuffix(got, "VALUES ($1, $2, $3)") {
		t.Errorf("rebind = %q", got)
	}
	lite := &Store{driver: DriverSQLite}
	if got := lite.rebind("a = ?"); got != "a = ?" {
		t.Errorf("rebind = %q", got)
	}
}

func TestIsBusy(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("database is locked (5) (SQLITE_BUSY)"), true},
		{&pq.Error{Code: "40001"}, true},
		{&pq.Error{Code: "23505"}, false},
		{errors.New("no such table: chunks"), false},
	}
	for _, tt := range tests {
		if got := isBusy(tt.err); got != tt.want {
			t.Errorf("isBusy(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestStatements(t *testing.T) {
	script, err := LoadSchema(SchemaName)
	if err != nil {
		t.Fatal(err)
	}
	stmts := statements(script)
	if len(stmts) != 8 {
		t.Errorf("statements = %d, want 8", len(stmts))
	}
	for _, s := range stmts {
		if s[len(s)-1] != ';' {
			t.Errorf("statement not terminated: %q", s)
		}
	}
}
