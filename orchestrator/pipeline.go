package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/andreas-weise/individual-variation/analysis"
	"github.com/andreas-weise/individual-variation/chunk"
	"github.com/andreas-weise/individual-variation/clients"
	cfg "github.com/andreas-weise/individual-variation/config"
	"github.com/andreas-weise/individual-variation/feature"
	"github.com/andreas-weise/individual-variation/measure"
	"github.com/andreas-weise/individual-variation/normalize"
	"github.com/andreas-weise/individual-variation/observability"
	"github.com/andreas-weise/individual-variation/pairing"
)

var ErrNotLoaded = errors.New("pipeline data not loaded")

// Source provides chunks and the pairing relation.
type Source interface {
	LoadChunks(ctx context.Context) ([]chunk.Chunk, error)
	LoadLinks(ctx context.Context) ([]pairing.Link, error)
}

// Uploader archives a persisted run bundle.
type Uploader interface {
	Upload(ctx context.Context, runID, dir string) ([]string, error)
}

type Pipeline struct {
	cfg     *cfg.Root
	set     cfg.Settings
	src     Source
	http    *clients.HTTP
	log     *logrus.Entry
	metrics *observability.Metrics
	runID   string

	exclusions []analysis.TaskSpeaker
	rows       []pairing.Row

	// Uploader, when set, receives the bundle after it is written.
	Uploader Uploader
}

// NewPipeline validates the configuration and prepares a run. A nil metrics
// gets a fresh registry.
func NewPipeline(c *cfg.Root, src Source, log logrus.FieldLogger, m *observability.Metrics) (*Pipeline, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	set, err := c.Resolve()
	if err != nil {
		return nil, err
	}
	var excl []analysis.TaskSpeaker
	if set.Corpus == analysis.Deception {
		if excl, err = cfg.LoadExclusions(c.Analysis.Exclusions); err != nil {
			return nil, err
		}
	}
	if m == nil {
		m = observability.NewMetrics()
	}
	runID := observability.NewRunID()
	return &Pipeline{
		cfg:     c,
		set:     set,
		src:     src,
		http:    clients.NewHTTP(cfg.DurSeconds(c.Services.Visualization.Timeout)),
		log:     observability.WithRun(log, runID).WithField("corpus", set.Corpus),
		metrics: m,
		runID:   runID,

		exclusions: excl,
	}, nil
}

func (p *Pipeline) RunID() string { return p.runID }

func (p *Pipeline) Settings() cfg.Settings { return p.set }

// Rows returns the pair rows built by Load.
func (p *Pipeline) Rows() []pairing.Row { return p.rows }

// Load reads the chunks, normalizes their features and joins them with the
// pairing relation. Without stored pairs the relation is derived from the
// turn structure.
func (p *Pipeline) Load(ctx context.Context) error {
	chunks, err := p.src.LoadChunks(ctx)
	if err != nil {
		return err
	}
	p.metrics.RecordChunksLoaded(len(chunks))
	if err := normalize.Normalize(chunks, p.set.Mode, p.set.Features); err != nil {
		return err
	}

	links, err := p.src.LoadLinks(ctx)
	if err != nil {
		return err
	}
	if len(links) == 0 {
		p.log.Warn("no stored chunk pairs, deriving them from turns")
		links = pairing.Derive(chunks)
	}
	p.rows = pairing.Build(chunks, links)
	for _, r := range p.rows {
		p.metrics.RecordPairRow(string(r.Tag))
	}
	p.log.WithFields(logrus.Fields{
		"chunks":        len(chunks),
		"links":         len(links),
		"rows":          len(p.rows),
		"normalization": p.set.Mode,
	}).Info("data loaded")
	return nil
}

// Measure computes one entrainment measure, classifies every speaker and
// summarizes the result.
func (p *Pipeline) Measure(id measure.ID) (*MeasureReport, error) {
	if p.rows == nil {
		return nil, ErrNotLoaded
	}
	log := p.log.WithField("measure", id)
	degenerate := 0
	opts := measure.Options{
		Features:  p.set.Features,
		Groupings: p.set.Groupings,
		Axis:      p.set.Axis,
		Observe: func(id measure.ID, f feature.ID, k measure.Key, r measure.Result) {
			p.metrics.RecordGroup(string(id), r.IsDegenerate())
			if r.IsDegenerate() {
				degenerate++
				log.WithFields(logrus.Fields{"key": k, "feature": f, "dof": r.DoF}).Debug("degenerate group")
			}
		},
	}
	t, err := measure.Compute(id, p.rows, opts)
	if err != nil {
		return nil, err
	}

	spk, agg := splitAggregates(analysis.Annotate(t, p.set.Alpha))
	analysis.AddSpeakerInfo(spk, p.rows)
	filtered, err := analysis.FilterHalfOfMatches(p.set.Corpus, spk, p.exclusions)
	if err != nil {
		return nil, err
	}
	rep := &MeasureReport{
		Measure:    id,
		Entries:    filtered,
		Aggregates: agg,
		Summary:    analysis.Summarize(filtered),
		Chart:      analysis.ValenceBySpeakerType(p.set.Corpus, filtered, fmt.Sprintf("%s %s", p.set.Corpus, id)),
		Degenerate: degenerate,
	}
	log.WithFields(summaryFields(rep.Summary)).Info("measure computed")
	return rep, nil
}

// Run loads the data, computes every configured measure and writes the
// bundle. Chart rendering and upload failures are logged, not returned.
func (p *Pipeline) Run(ctx context.Context) (*Report, string, error) {
	if err := p.Load(ctx); err != nil {
		return nil, "", err
	}
	rep := &Report{
		RunID:         p.runID,
		Corpus:        p.set.Corpus,
		Normalization: p.set.Mode,
		Features:      feature.Names(p.set.Features),
		Alpha:         p.set.Alpha,
		GeneratedAt:   time.Now(),
	}
	for _, id := range p.set.Measures {
		mr, err := p.Measure(id)
		if err != nil {
			return nil, "", err
		}
		rep.Measures = append(rep.Measures, *mr)
	}

	dir, err := Persist(p.cfg.Paths.Outputs, rep)
	if err != nil {
		return nil, "", fmt.Errorf("persist run: %w", err)
	}
	p.log.WithField("dir", dir).Info("bundle written")

	if url := p.cfg.Services.Visualization.URL; url != "" {
		for _, mr := range rep.Measures {
			_, err := p.http.GenerateValenceChart(ctx, url, clients.ValenceChartReq{Chart: mr.Chart, OutputDir: dir})
			if err != nil {
				p.log.WithError(err).WithField("measure", mr.Measure).Warn("chart rendering failed")
			}
		}
	}
	if p.Uploader != nil {
		names, err := p.Uploader.Upload(ctx, p.runID, dir)
		if err != nil {
			p.log.WithError(err).Warn("bundle upload failed")
		} else {
			p.log.WithField("objects", len(names)).Info("bundle uploaded")
		}
	}
	if tf := p.cfg.Metrics.Textfile; tf != "" {
		if err := p.metrics.WriteTextfile(filepath.Clean(tf)); err != nil {
			p.log.WithError(err).Warn("metrics textfile not written")
		}
	}
	return rep, dir, nil
}

// IPUs summarizes the turn-exchange IPUs and compares speakers by gender and
// native language, and by role in the deception corpus.
func (p *Pipeline) IPUs() (analysis.IPUStats, []analysis.BinaryComparison, error) {
	if p.rows == nil {
		return analysis.IPUStats{}, nil, ErrNotLoaded
	}
	rel := analysis.TurnExchangeIPUs(p.rows)
	stats := analysis.ComputeIPUStats(rel, analysis.AllChunks(p.rows))

	type cmp struct{ attr, l0, l1 string }
	cmps := []cmp{{"gender", "f", "m"}, {"native_lang", "Chinese", "English"}}
	if p.set.Corpus == analysis.Deception {
		cmps = append(cmps, cmp{"speaker_role", analysis.RoleInterviewee, analysis.RoleInterviewer})
	}
	var out []analysis.BinaryComparison
	for _, c := range cmps {
		bc, err := analysis.CompareBinary(rel, c.attr, c.l0, c.l1)
		if err != nil {
			return stats, nil, err
		}
		out = append(out, bc...)
	}
	return stats, out, nil
}

// PairStore reads chunks and replaces the pairing relation.
type PairStore interface {
	LoadChunks(ctx context.Context) ([]chunk.Chunk, error)
	SaveLinks(ctx context.Context, links []pairing.Link) error
}

// DerivePairs rebuilds the pairing relation from the turn structure and
// stores it, returning the number of links.
func DerivePairs(ctx context.Context, st PairStore) (int, error) {
	chunks, err := st.LoadChunks(ctx)
	if err != nil {
		return 0, err
	}
	links := pairing.Derive(chunks)
	if err := st.SaveLinks(ctx, links); err != nil {
		return 0, err
	}
	return len(links), nil
}
