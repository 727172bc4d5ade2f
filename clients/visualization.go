package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/andreas-weise/individual-variation/analysis"
)

// --- Visualization ---
type ValenceChartReq struct {
	analysis.Chart
	OutputDir string `json:"output_dir,omitempty"`
}
type ChartResp struct{ Status, Path string }

// GenerateValenceChart renders a stacked bar chart of valence shares per
// speaker type.
func (h *HTTP) GenerateValenceChart(ctx context.Context, url string, req ValenceChartReq) (*ChartResp, error) {
	b, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	r, err := http.NewRequestWithContext(ctx, http.MethodPost, url+"/generate-stacked-bar", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	r.Header.Set("Content-Type", "application/json")
	resp, err := h.c.Do(r)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("viz chart %s: %s", resp.Status, string(body))
	}

	var out ChartResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("viz chart decode: %w", err)
	}
	return &out, nil
}
