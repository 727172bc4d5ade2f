package extract

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
)

// Job describes one chunk to measure.
type Job struct {
	SessionID int64
	ChunkID   int64
	Audio     string  // wav file of the chunk's speaker
	Start     float64 // sec
	End       float64 // sec
	// Cut extracts [Start, End] from Audio and removes pauses; otherwise
	// Audio holds exactly the chunk.
	Cut bool
}

// Extractor measures the features of one chunk.
type Extractor interface {
	Extract(ctx context.Context, job Job) (Measurements, error)
}

const (
	CutScript     = "extract_part_and_cut_pauses.praat"
	FeatureScript = "extract_features.praat"
)

// Praat runs the extraction scripts with the praat binary.
type Praat struct {
	Binary  string // defaults to "praat"
	Scripts string // directory holding CutScript and FeatureScript
	TmpDir  string // defaults to os.TempDir()
}

func (p Praat) run(ctx context.Context, script string, args ...string) error {
	bin := p.Binary
	if bin == "" {
		bin = "praat"
	}
	cmdArgs := append([]string{"--run", filepath.Join(p.Scripts, script)}, args...)
	out, err := exec.CommandContext(ctx, bin, cmdArgs...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("praat %s: %w: %s", script, err, out)
	}
	return nil
}

// Extract cuts the chunk if requested, runs the feature script and parses
// its output. Temporary files are removed afterwards.
func (p Praat) Extract(ctx context.Context, job Job) (Measurements, error) {
	tmp := p.TmpDir
	if tmp == "" {
		tmp = os.TempDir()
	}
	base := fmt.Sprintf("%d_%d", job.SessionID, job.ChunkID)
	cut := filepath.Join(tmp, base+".wav")
	out := filepath.Join(tmp, base+".txt")
	defer os.Remove(cut)
	defer os.Remove(out)

	if job.Cut {
		err := p.run(ctx, CutScript, job.Audio, cut, out,
			strconv.FormatFloat(job.Start, 'f', -1, 64),
			strconv.FormatFloat(job.End, 'f', -1, 64))
		if err != nil {
			return nil, err
		}
	} else if err := copyFile(job.Audio, cut); err != nil {
		return nil, err
	}
	if err := p.run(ctx, FeatureScript, cut, out); err != nil {
		return nil, err
	}

	f, err := os.Open(out)
	if err != nil {
		return nil, fmt.Errorf("praat output: %w", err)
	}
	defer f.Close()
	m, err := ParseMeasurements(f)
	if err != nil {
		return nil, err
	}
	if !job.Cut {
		// the cut script reports the span; whole files use the chunk's own
		m["start_point"] = job.Start
		m["end_point"] = job.End
	}
	return m, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
