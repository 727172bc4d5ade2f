package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/andreas-weise/individual-variation/chunk"
	"github.com/andreas-weise/individual-variation/observability"
	"github.com/andreas-weise/individual-variation/store"
)

// MinDuration is the shortest chunk (sec) whose pitch can be measured with a
// 75 Hz floor.
const MinDuration = 0.04

var ErrNoSyllabifier = errors.New("extract: runner needs a syllabifier for rate_syl")

// Store is what the runner needs from the feature store.
type Store interface {
	SessionChunks(ctx context.Context, sesID int64) ([]chunk.Chunk, error)
	SetFeatures(ctx context.Context, updates []store.FeatureUpdate) error
}

// Runner extracts features for whole sessions, several at a time. Each
// session has one wav file per speaker, named <ses_id>.<A|B>.wav.
type Runner struct {
	Extractor   Extractor
	Store       Store
	Syllables   *Syllabifier
	CorpusPath  string
	Workers     int
	MinDuration float64
	Log         logrus.FieldLogger
	Metrics     *observability.Metrics
}

func (r *Runner) logger() logrus.FieldLogger {
	if r.Log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		return l
	}
	return r.Log
}

func (r *Runner) record(status string) {
	if r.Metrics != nil {
		r.Metrics.RecordExtraction(status)
	}
}

// Run processes the sessions and stops at the first failure.
func (r *Runner) Run(ctx context.Context, sessions []int64) error {
	if r.Syllables == nil {
		return ErrNoSyllabifier
	}
	workers := r.Workers
	if workers < 1 {
		workers = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, id := range sessions {
		id := id
		g.Go(func() error { return r.session(ctx, id) })
	}
	return g.Wait()
}

func (r *Runner) session(ctx context.Context, sesID int64) error {
	log := r.logger().WithField("ses_id", sesID)
	chunks, err := r.Store.SessionChunks(ctx, sesID)
	if err != nil {
		return fmt.Errorf("session %d: %w", sesID, err)
	}
	minDur := r.MinDuration
	if minDur <= 0 {
		minDur = MinDuration
	}

	for _, side := range []string{"A", "B"} {
		audio := filepath.Join(r.CorpusPath, fmt.Sprintf("%d.%s.wav", sesID, side))
		var updates []store.FeatureUpdate
		for _, c := range chunks {
			if c.Speaker.AOrB != side {
				continue
			}
			if c.End-c.Start < minDur {
				r.record("skipped")
				continue
			}
			m, err := r.Extractor.Extract(ctx, Job{
				SessionID: sesID,
				ChunkID:   c.ChunkID,
				Audio:     audio,
				Start:     c.Start,
				End:       c.End,
				Cut:       true,
			})
			if err != nil {
				r.record("error")
				return fmt.Errorf("session %d chunk %d: %w", sesID, c.ChunkID, err)
			}
			r.record("ok")
			updates = append(updates, r.update(c, m))
		}
		if len(updates) == 0 {
			continue
		}
		if err := r.Store.SetFeatures(ctx, updates); err != nil {
			return fmt.Errorf("session %d: %w", sesID, err)
		}
		log.WithFields(logrus.Fields{"speaker": side, "chunks": len(updates)}).Info("features extracted")
	}
	return nil
}

func (r *Runner) update(c chunk.Chunk, m Measurements) store.FeatureUpdate {
	words := c.Words
	if words == "" {
		words = PreprocessTranscript(c.Transcript)
	}
	start, end, dur := m.Span()
	if math.IsNaN(start) || math.IsNaN(end) {
		start, end = c.Start, c.End
	}
	if math.IsNaN(dur) {
		dur = end - start
		m["dur"] = dur
	}
	return store.FeatureUpdate{
		ChunkID:  c.ChunkID,
		Start:    start,
		End:      end,
		Duration: dur,
		Values:   m.Features(r.Syllables.Count(words)),
	}
}
