package objectstore

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/andreas-weise/individual-variation/config"
)

func TestObjectName(t *testing.T) {
	if got := ObjectName("run-1", filepath.Join("syn", "entries.json")); got != "run-1/syn/entries.json" {
		t.Errorf("ObjectName = %q", got)
	}
}

func TestNewRequiresEndpoint(t *testing.T) {
	if _, err := New(context.Background(), config.ObjectStore{Bucket: "b"}, nil); err == nil {
		t.Error("expected error without endpoint")
	}
}

// fakeS3 accepts bucket HEAD requests and object PUTs.
type fakeS3 struct {
	mu   sync.Mutex
	puts map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodHead:
		w.WriteHeader(http.StatusOK)
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.puts[r.URL.Path] = string(body)
		f.mu.Unlock()
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func TestUpload(t *testing.T) {
	s3 := &fakeS3{puts: map[string]string{}}
	srv := httptest.NewServer(s3)
	defer srv.Close()

	cfg := config.ObjectStore{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "key",
		SecretKey: "secret",
		Bucket:    "entrainment",
	}
	b, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	os.MkdirAll(filepath.Join(dir, "syn"), 0o755)
	os.WriteFile(filepath.Join(dir, "summary.json"), []byte(`{}`), 0o644)
	os.WriteFile(filepath.Join(dir, "syn", "entries.json"), []byte(`[]`), 0o644)

	names, err := b.Upload(context.Background(), "run-1", dir)
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(names)
	if len(names) != 2 || names[0] != "run-1/summary.json" || names[1] != "run-1/syn/entries.json" {
		t.Errorf("names = %v", names)
	}
	// the body may be aws-chunked when signing over plain HTTP
	if body, ok := s3.puts["/entrainment/run-1/syn/entries.json"]; !ok || !strings.Contains(body, "[]") {
		t.Errorf("puts = %v", s3.puts)
	}
}
