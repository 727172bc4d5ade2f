package orchestrator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const ReportFile = "report.json"

func mkRunDir(outputsRoot, runID string) (string, error) {
	ts := time.Now().Format("20060102-150405")
	dir := filepath.Join(outputsRoot, "run_"+ts+"_"+runID[:8])
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Persist writes the report and one chart input per measure into a fresh
// run directory under outputsRoot.
func Persist(outputsRoot string, rep *Report) (string, error) {
	if len(rep.RunID) < 8 {
		return "", fmt.Errorf("persist: run id %q too short", rep.RunID)
	}
	dir, err := mkRunDir(outputsRoot, rep.RunID)
	if err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(dir, ReportFile), rep); err != nil {
		return "", err
	}
	for _, mr := range rep.Measures {
		path := filepath.Join(dir, string(mr.Measure)+"_chart.json")
		if err := writeJSON(path, mr.Chart); err != nil {
			return "", err
		}
	}
	return dir, nil
}

// LoadReport reads the report persisted in dir.
func LoadReport(dir string) (*Report, error) {
	b, err := os.ReadFile(filepath.Join(dir, ReportFile))
	if err != nil {
		return nil, err
	}
	var rep Report
	if err := json.Unmarshal(b, &rep); err != nil {
		return nil, fmt.Errorf("report %s: %w", dir, err)
	}
	return &rep, nil
}
