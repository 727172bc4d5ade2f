package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/andreas-weise/individual-variation/chunk"
	"github.com/andreas-weise/individual-variation/feature"
)

var bigTableCols = []string{
	"ses_id", "tsk_id", "spk_id", "tur_id", "chu_id",
	"turn_index", "turn_index_ses", "chunk_index",
	"start_time", "end_time", "duration", "transcript", "words",
	"gender", "native_lang", "a_or_b", "speaker_role", "eng_years",
}

func selectBigTable(where string) string {
	cols := append(append([]string{}, bigTableCols...), featureColumns()...)
	q := "SELECT " + strings.Join(cols, ", ") + "\nFROM big_table"
	if where != "" {
		q += "\nWHERE " + where
	}
	return q + "\nORDER BY ses_id, task_index, turn_index, chunk_index"
}

func featureColumns() []string {
	out := make([]string, len(feature.All))
	for i, f := range feature.All {
		out[i] = f.String()
	}
	return out
}

// LoadChunks returns every chunk with its speaker metadata and raw features,
// ordered by session, task, turn and chunk index. NULL features are NaN.
func (s *Store) LoadChunks(ctx context.Context) ([]chunk.Chunk, error) {
	return s.queryChunks(ctx, selectBigTable(""))
}

// SessionChunks returns the chunks of one session.
func (s *Store) SessionChunks(ctx context.Context, sesID int64) ([]chunk.Chunk, error) {
	return s.queryChunks(ctx, selectBigTable("ses_id = ?"), sesID)
}

func (s *Store) queryChunks(ctx context.Context, query string, args ...any) ([]chunk.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var out []chunk.Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chunk row: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during chunk rows iteration: %w", err)
	}
	return out, nil
}

func scanChunk(rows *sql.Rows) (chunk.Chunk, error) {
	var (
		c                        chunk.Chunk
		turnIdxSes               sql.NullInt64
		duration, engYears       sql.NullFloat64
		transcript, words        sql.NullString
		gender, lang, aOrB, role sql.NullString
		feats                    [feature.Count]sql.NullFloat64
	)
	dest := []any{
		&c.SessionID, &c.TaskID, &c.SpeakerID, &c.TurnID, &c.ChunkID,
		&c.TurnIndex, &turnIdxSes, &c.ChunkIndex,
		&c.Start, &c.End, &duration, &transcript, &words,
		&gender, &lang, &aOrB, &role, &engYears,
	}
	for i := range feats {
		dest = append(dest, &feats[i])
	}
	if err := rows.Scan(dest...); err != nil {
		return c, err
	}
	c.TurnIndexSes = int(turnIdxSes.Int64)
	c.Duration = c.End - c.Start
	if duration.Valid {
		c.Duration = duration.Float64
	}
	c.Transcript = transcript.String
	c.Words = words.String
	c.Speaker = chunk.Speaker{
		Gender:     gender.String,
		NativeLang: lang.String,
		AOrB:       aOrB.String,
		Role:       role.String,
		EngYears:   nullToNaN(engYears),
	}
	for i, f := range feature.All {
		c.Raw[f] = nullToNaN(feats[i])
	}
	c.Norm = feature.Missing()
	return c, nil
}

func nullToNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

func nanToNull(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// SessionIDs returns all session ids in order.
func (s *Store) SessionIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT ses_id FROM sessions ORDER BY ses_id")
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// FeatureUpdate carries the extraction output for one chunk.
type FeatureUpdate struct {
	ChunkID  int64
	Start    float64
	End      float64
	Duration float64
	Values   feature.Vector
}

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }

// SetFeatures writes extracted features in one transaction. Timestamps are
// rounded to milliseconds. The write is retried while the database is busy.
func (s *Store) SetFeatures(ctx context.Context, updates []FeatureUpdate) error {
	cols := featureColumns()
	set := make([]string, 0, len(cols)+3)
	set = append(set, "start_time = ?", "end_time = ?", "duration = ?")
	for _, c := range cols {
		set = append(set, c+" = ?")
	}
	query := s.rebind("UPDATE chunks SET " + strings.Join(set, ", ") + " WHERE chu_id = ?")

	err := s.withRetry(ctx, func(tx Tx) error {
		for _, u := range updates {
			args := []any{round3(u.Start), round3(u.End), round3(u.Duration)}
			for _, f := range feature.All {
				args = append(args, nanToNull(u.Values[f]))
			}
			args = append(args, u.ChunkID)
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("failed to set features of chunk %d: %w", u.ChunkID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.WithField("chunks", len(updates)).Debug("features stored")
	return nil
}

// ChunkRecord is one chunk of a corpus transcript as imported.
type ChunkRecord struct {
	SessionID  int64         `json:"ses_id"`
	TaskID     int64         `json:"tsk_id"`
	TaskIndex  int           `json:"task_index"`
	SpeakerID  int64         `json:"spk_id"`
	TurnID     int64         `json:"tur_id"`
	TurnIndex  int           `json:"turn_index"`
	ChunkID    int64         `json:"chu_id"`
	ChunkIndex int           `json:"chunk_index"`
	Start      float64       `json:"start_time"`
	End        float64       `json:"end_time"`
	Transcript string        `json:"transcript"`
	Words      string        `json:"words"`
	Speaker    chunk.Speaker `json:"speaker"`
}

// ImportChunks inserts speakers, sessions, tasks, turns and chunks described
// by recs. Speakers A and B of a session come from Speaker.AOrB, and the
// session-wide turn index follows task index then turn index. Existing
// speakers are kept.
func (s *Store) ImportChunks(ctx context.Context, recs []ChunkRecord) error {
	type sessionSpk struct{ a, b sql.NullInt64 }
	type turnKey struct {
		ses       int64
		taskIndex int
		turnIndex int
		turn      int64
	}
	speakers := map[int64]chunk.Speaker{}
	sessions := map[int64]*sessionSpk{}
	tasks := map[int64]ChunkRecord{}
	turns := map[int64]ChunkRecord{}
	for _, r := range recs {
		speakers[r.SpeakerID] = r.Speaker
		ss := sessions[r.SessionID]
		if ss == nil {
			ss = &sessionSpk{}
			sessions[r.SessionID] = ss
		}
		id := sql.NullInt64{Int64: r.SpeakerID, Valid: true}
		if r.Speaker.AOrB == "A" {
			ss.a = id
		} else {
			ss.b = id
		}
		tasks[r.TaskID] = r
		turns[r.TurnID] = r
	}

	order := make([]turnKey, 0, len(turns))
	for id, r := range turns {
		order = append(order, turnKey{r.SessionID, r.TaskIndex, r.TurnIndex, id})
	}
	sort.Slice(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if a.ses != b.ses {
			return a.ses < b.ses
		}
		if a.taskIndex != b.taskIndex {
			return a.taskIndex < b.taskIndex
		}
		return a.turnIndex < b.turnIndex
	})
	turnIndexSes := make(map[int64]int, len(order))
	for i, k := range order {
		if i == 0 || order[i-1].ses != k.ses {
			turnIndexSes[k.turn] = 1
			continue
		}
		turnIndexSes[k.turn] = turnIndexSes[order[i-1].turn] + 1
	}

	return s.WithTx(ctx, func(tx Tx) error {
		for _, id := range sortedKeys(speakers) {
			spk := speakers[id]
			_, err := tx.ExecContext(ctx, s.rebind(
				`INSERT INTO speakers (spk_id, gender, native_lang, eng_years)
				VALUES (?, ?, ?, ?)
				ON CONFLICT (spk_id) DO NOTHING`),
				id, spk.Gender, spk.NativeLang, nanToNull(spk.EngYears))
			if err != nil {
				return fmt.Errorf("failed to insert speaker %d: %w", id, err)
			}
		}
		for _, id := range sortedKeys(sessions) {
			ss := sessions[id]
			if _, err := tx.ExecContext(ctx, s.rebind(
				"INSERT INTO sessions (ses_id, spk_id_a, spk_id_b) VALUES (?, ?, ?)"),
				id, ss.a, ss.b); err != nil {
				return fmt.Errorf("failed to insert session %d: %w", id, err)
			}
		}
		for _, id := range sortedKeys(tasks) {
			r := tasks[id]
			if _, err := tx.ExecContext(ctx, s.rebind(
				"INSERT INTO tasks (tsk_id, ses_id, task_index) VALUES (?, ?, ?)"),
				id, r.SessionID, r.TaskIndex); err != nil {
				return fmt.Errorf("failed to insert task %d: %w", id, err)
			}
		}
		for _, k := range order {
			r := turns[k.turn]
			if _, err := tx.ExecContext(ctx, s.rebind(
				`INSERT INTO turns (tur_id, tsk_id, spk_id, turn_index, turn_index_ses, speaker_role)
				VALUES (?, ?, ?, ?, ?, ?)`),
				k.turn, r.TaskID, r.SpeakerID, r.TurnIndex, turnIndexSes[k.turn], r.Speaker.Role); err != nil {
				return fmt.Errorf("failed to insert turn %d: %w", k.turn, err)
			}
		}
		for _, r := range recs {
			if _, err := tx.ExecContext(ctx, s.rebind(
				`INSERT INTO chunks (chu_id, tur_id, chunk_index, start_time, end_time, duration, transcript, words)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
				r.ChunkID, r.TurnID, r.ChunkIndex, r.Start, r.End, round3(r.End-r.Start), r.Transcript, r.Words); err != nil {
				return fmt.Errorf("failed to insert chunk %d: %w", r.ChunkID, err)
			}
		}
		return nil
	})
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
