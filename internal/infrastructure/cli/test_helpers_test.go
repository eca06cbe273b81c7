package cli

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/felixgeelhaar/timelens/internal/infrastructure/config"
	"github.com/felixgeelhaar/timelens/pkg/storage"
)

const clmPageJSON = `{
  "timestamp": "20250301_120000",
  "data_source": "clm",
  "date_from": "2025-01-01",
  "date_to": "2025-02-28",
  "base_jql": "filter=4242",
  "project_estimates": {"A": 10, "B": 20},
  "project_time_spent": {"A": 5, "B": 30},
  "project_counts": {"A": 3, "B": 7},
  "filtered_count": 10
}`

const jiraPageJSON = `{
  "timestamp": "20250301_130000",
  "data_source": "jira",
  "project_estimates": {"A": 10},
  "project_time_spent": {"A": 5},
  "project_counts": {"A": 3},
  "filtered_count": 3
}`

const fullDatasetJSON = `{
  "success": true,
  "project_estimates": {"A": 100, "C": 50},
  "project_time_spent": {"A": 80, "C": 10},
  "project_counts": {"A": 30, "C": 12},
  "implementation_count": 42
}`

const dashboardJSON = `{
  "success": true,
  "data": {
    "time_series": {
      "dates": ["2025-07-01", "2025-07-02"],
      "actual_time_spent": [100, 110],
      "projected_time_spent": [120, 121]
    },
    "latest_data": {"date": "2025-07-02", "total_time_spent_hours": 880},
    "open_tasks_data": {"A": 2, "B": 5},
    "closed_tasks_data": {"C": 1}
  }
}`

// fakeServer answers the analysis server endpoints and records requests.
type fakeServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []*http.Request
	status   int
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	fs := &fakeServer{status: http.StatusOK}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/full-dataset/{ts}", func(w http.ResponseWriter, r *http.Request) {
		fs.reply(w, r, fullDatasetJSON)
	})
	mux.HandleFunc("GET /jql/special", func(w http.ResponseWriter, r *http.Request) {
		fs.reply(w, r, `{"jql": "project = `+r.URL.Query().Get("project")+`", "url": "https://jira.example.com/issues"}`)
	})
	mux.HandleFunc("GET /api/dashboard/data", func(w http.ResponseWriter, r *http.Request) {
		fs.reply(w, r, dashboardJSON)
	})
	fs.Server = httptest.NewServer(mux)
	t.Cleanup(fs.Close)
	return fs
}

func (fs *fakeServer) reply(w http.ResponseWriter, r *http.Request, body string) {
	fs.mu.Lock()
	fs.requests = append(fs.requests, r.Clone(r.Context()))
	status := fs.status
	fs.mu.Unlock()
	if status != http.StatusOK {
		http.Error(w, "upstream unavailable", status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func (fs *fakeServer) setStatus(code int) {
	fs.mu.Lock()
	fs.status = code
	fs.mu.Unlock()
}

func (fs *fakeServer) calls() []*http.Request {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]*http.Request(nil), fs.requests...)
}

// writePage stores page data in a fresh directory and returns the directory.
func writePage(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, storage.DefaultPageFile), []byte(content), 0600); err != nil {
		t.Fatalf("write page: %v", err)
	}
	return dir
}

// runCLI executes a fresh command tree with an isolated config file.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv(config.EnvServer, "")
	t.Setenv(config.EnvLogLevel, "")

	root := NewRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "timelens.yaml")}, args...))
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}
