package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/felixgeelhaar/timelens/pkg/client"
	"github.com/felixgeelhaar/timelens/pkg/domain/report"
)

func TestRootHelp(t *testing.T) {
	out, _, err := runCLI(t, "--help")
	if err != nil {
		t.Fatalf("help failed: %v", err)
	}
	for _, cmd := range []string{"render", "summary", "jql", "dashboard", "serve", "view", "config"} {
		if !strings.Contains(out, cmd) {
			t.Errorf("help does not list %q", cmd)
		}
	}
}

func TestSummary_Filtered(t *testing.T) {
	srv := newFakeServer(t)
	dir := writePage(t, clmPageJSON)

	out, _, err := runCLI(t, "summary", "--data", dir, "--server", srv.URL)
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	for _, want := range []string{"Selected period (2025-01-01 .. 2025-02-28)", "Total issues", "Efficiency ratio", "1.17", "35.00"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if n := len(srv.calls()); n != 0 {
		t.Errorf("filtered summary made %d server calls", n)
	}
}

func TestSummary_FullJSON(t *testing.T) {
	srv := newFakeServer(t)
	dir := writePage(t, clmPageJSON)

	out, _, err := runCLI(t, "summary", "--data", dir, "--server", srv.URL,
		"--mode", "full", "--json", "--comparison", "--exclude", "C,Z")
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	var got summaryJSONOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if got.Mode != report.ModeFull || got.DateFrom != "" {
		t.Errorf("mode = %s, date_from = %q", got.Mode, got.DateFrom)
	}
	if len(got.Projects) != 1 || got.Projects[0].Project != "A" || got.Projects[0].Estimate != 100 {
		t.Errorf("projects = %+v", got.Projects)
	}
	if len(got.Excluded) != 2 {
		t.Errorf("excluded = %v", got.Excluded)
	}
	var issues string
	for _, r := range got.Rows {
		if r.Label == "Total issues" {
			issues = r.Value
		}
	}
	if issues != "42" {
		t.Errorf("total issues = %q, want 42", issues)
	}

	calls := srv.calls()
	if len(calls) != 1 || calls[0].URL.Path != "/api/full-dataset/20250301_120000" {
		t.Errorf("server calls = %d", len(calls))
	}
}

func TestSummary_FullRequiresCLM(t *testing.T) {
	srv := newFakeServer(t)
	dir := writePage(t, jiraPageJSON)

	_, _, err := runCLI(t, "summary", "--data", dir, "--server", srv.URL, "--mode", "full")
	if !errors.Is(err, errNoFullDataset) {
		t.Fatalf("expected errNoFullDataset, got %v", err)
	}
	if len(srv.calls()) != 0 {
		t.Error("server was called for a Jira analysis")
	}
}

func TestSummary_BadMode(t *testing.T) {
	dir := writePage(t, clmPageJSON)
	_, _, err := runCLI(t, "summary", "--data", dir, "--mode", "monthly")
	if !errors.Is(err, report.ErrInvalidMode) {
		t.Fatalf("expected ErrInvalidMode, got %v", err)
	}
}

func TestRender(t *testing.T) {
	tests := []struct {
		name   string
		format string
		mode   string
		magic  string
		calls  int
	}{
		{"filtered png", "png", "filtered", "\x89PNG", 0},
		{"full svg", "svg", "full", "<svg", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newFakeServer(t)
			dir := writePage(t, clmPageJSON)
			outDir := filepath.Join(t.TempDir(), "charts")

			out, _, err := runCLI(t, "render", "--data", dir, "--server", srv.URL,
				"--output-dir", outDir, "--format", tt.format, "--mode", tt.mode)
			if err != nil {
				t.Fatalf("render failed: %v", err)
			}
			for _, name := range []string{"comparison", "distribution"} {
				path := filepath.Join(outDir, name+"."+tt.format)
				data, err := os.ReadFile(path)
				if err != nil {
					t.Fatalf("chart not written: %v", err)
				}
				if !bytes.Contains(data[:min(len(data), 512)], []byte(tt.magic)) {
					t.Errorf("%s is not %s", path, tt.format)
				}
				if !strings.Contains(out, "wrote "+path) {
					t.Errorf("output does not mention %s", path)
				}
			}
			if got := len(srv.calls()); got != tt.calls {
				t.Errorf("server calls = %d, want %d", got, tt.calls)
			}
		})
	}
}

func TestRender_FetchFailure(t *testing.T) {
	srv := newFakeServer(t)
	srv.setStatus(http.StatusBadGateway)
	dir := writePage(t, clmPageJSON)

	_, _, err := runCLI(t, "render", "--data", dir, "--server", srv.URL,
		"--output-dir", t.TempDir(), "--mode", "full")
	if !errors.Is(err, report.ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}

	var buf bytes.Buffer
	if code := PrintError(&buf, err); code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
	if !strings.Contains(buf.String(), "HTTP 502") || !strings.Contains(buf.String(), "Hint:") {
		t.Errorf("error output = %q", buf.String())
	}
}

func TestJQL(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantIgnore string
		wantFrom   string
		wantType   string
	}{
		{"filtered", []string{"jql", "B"}, "false", "2025-01-01", client.ChartProjectIssues},
		{"full open tasks", []string{"jql", "B", "--mode", "full", "--chart-type", "open_tasks"}, "true", "", client.ChartOpenTasks},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newFakeServer(t)
			dir := writePage(t, clmPageJSON)

			args := append(append([]string{}, tt.args...), "--data", dir, "--server", srv.URL, "--json")
			out, _, err := runCLI(t, args...)
			if err != nil {
				t.Fatalf("jql failed: %v", err)
			}
			var link client.Link
			if err := json.Unmarshal([]byte(out), &link); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if link.JQL != "project = B" {
				t.Errorf("JQL = %q", link.JQL)
			}

			calls := srv.calls()
			if len(calls) != 1 {
				t.Fatalf("server calls = %d", len(calls))
			}
			q := calls[0].URL.Query()
			if q.Get("ignore_period") != tt.wantIgnore || q.Get("date_from") != tt.wantFrom || q.Get("chart_type") != tt.wantType {
				t.Errorf("query = %v", q)
			}
			if q.Get("base_jql") != "filter=4242" || q.Get("timestamp") != "20250301_120000" {
				t.Errorf("page context missing from query: %v", q)
			}
		})
	}
}

func TestJQL_Other(t *testing.T) {
	srv := newFakeServer(t)
	dir := writePage(t, clmPageJSON)
	_, _, err := runCLI(t, "jql", report.OtherLabel, "--data", dir, "--server", srv.URL)

	var cliErr *CLIError
	if !errors.As(MapError(err), &cliErr) || !strings.Contains(cliErr.Hint, "Other") {
		t.Fatalf("expected Other hint, got %v", err)
	}
}

func TestDashboard(t *testing.T) {
	srv := newFakeServer(t)
	outDir := t.TempDir()

	out, _, err := runCLI(t, "dashboard", "--server", srv.URL, "--output-dir", outDir,
		"--budget", "365", "--year", "2025", "--tasks")
	if err != nil {
		t.Fatalf("dashboard failed: %v", err)
	}
	for _, want := range []string{"Budget tracking as of 2025-07-02", "110.00", "Open tasks", "Closed tasks"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if _, err := os.Stat(filepath.Join(outDir, "dashboard.png")); err != nil {
		t.Errorf("dashboard chart not written: %v", err)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	t.Setenv("TIMELENS_SERVER", "")
	path := filepath.Join(t.TempDir(), "timelens.yaml")
	run := func(args ...string) (string, error) {
		root := NewRootCmd()
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetErr(&out)
		root.SetArgs(append([]string{"--config", path}, args...))
		err := root.Execute()
		return out.String(), err
	}

	if _, err := run("config", "init"); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if _, err := run("config", "init"); err == nil {
		t.Error("expected error when the file exists")
	}
	if _, err := run("config", "init", "--force"); err != nil {
		t.Errorf("init --force failed: %v", err)
	}

	out, err := run("config", "show", "--server", "http://analysis:5000")
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	if !strings.Contains(out, "server: http://analysis:5000") || !strings.Contains(out, "budget_days: 23000") {
		t.Errorf("show output:\n%s", out)
	}
}
