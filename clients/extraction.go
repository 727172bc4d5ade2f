package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/andreas-weise/individual-variation/extract"
)

// --- Feature extraction (/extract) ---
type ExtractResp struct {
	Measurements map[string]*float64 `json:"measurements"`
}

// Extraction runs feature extraction on a remote service instead of a local
// praat binary. It satisfies extract.Extractor.
type Extraction struct {
	HTTP *HTTP
	URL  string
}

func (e Extraction) Extract(ctx context.Context, job extract.Job) (extract.Measurements, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	fields := map[string]string{
		"ses_id": strconv.FormatInt(job.SessionID, 10),
		"chu_id": strconv.FormatInt(job.ChunkID, 10),
		"start":  strconv.FormatFloat(job.Start, 'f', -1, 64),
		"end":    strconv.FormatFloat(job.End, 'f', -1, 64),
		"cut":    strconv.FormatBool(job.Cut),
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, err
		}
	}

	fw, err := w.CreateFormFile("file", filepath.Base(job.Audio))
	if err != nil {
		return nil, err
	}
	fd, err := os.Open(job.Audio)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	if _, err = io.Copy(fw, fd); err != nil {
		return nil, err
	}
	if err = w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.URL+"/extract", &b)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := e.HTTP.c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("extract %s: %s", resp.Status, string(body))
	}

	var out ExtractResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("extract decode: %w", err)
	}
	m := make(extract.Measurements, len(out.Measurements))
	for k, v := range out.Measurements {
		if v == nil {
			m[k] = math.NaN()
			continue
		}
		m[k] = *v
	}
	return m, nil
}
