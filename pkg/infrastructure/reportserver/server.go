// Package reportserver serves an analysis as an HTML page with the dataset
// toggle, the project filter and live chart images.
package reportserver

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/felixgeelhaar/timelens/pkg/application"
	"github.com/felixgeelhaar/timelens/pkg/chart"
	"github.com/felixgeelhaar/timelens/pkg/client"
	"github.com/felixgeelhaar/timelens/pkg/domain/report"
)

//go:embed templates/*
var templatesFS embed.FS

// Server is the report HTTP server for one session.
type Server struct {
	addr     string
	session  *application.Session
	renderer *chart.Renderer
	logger   *slog.Logger
	tmpl     *template.Template
	events   http.Handler

	mu        sync.Mutex
	server    *http.Server
	cancel    context.CancelFunc
	lastError string
}

// Option configures a Server.
type Option func(*Server)

// WithEventStream serves h at /events. The page reloads when another
// client switches the mode.
func WithEventStream(h http.Handler) Option {
	return func(s *Server) { s.events = h }
}

// NewServer creates a report server. Charts are served as SVG.
func NewServer(addr string, session *application.Session, logger *slog.Logger, opts ...Option) (*Server, error) {
	if session == nil {
		return nil, errors.New("reportserver: nil session")
	}
	if logger == nil {
		logger = slog.Default()
	}
	tmpl, err := template.New("").ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	s := &Server{
		addr:     addr,
		session:  session,
		renderer: chart.NewRenderer(chart.FormatSVG),
		logger:   logger,
		tmpl:     tmpl,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handler returns the routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /mode", s.handleMode)
	mux.HandleFunc("POST /filter", s.handleFilter)
	mux.HandleFunc("POST /dismiss", s.handleDismiss)
	mux.HandleFunc("GET /chart/{name}", s.handleChart)
	mux.HandleFunc("GET /api/view", s.handleAPIView)
	mux.HandleFunc("GET /api/jql", s.handleAPIJQL)
	mux.HandleFunc("GET /jql", s.handleJQL)
	if s.events != nil {
		mux.Handle("GET /events", s.events)
	}
	return mux
}

// Start serves until Shutdown.
func (s *Server) Start() error {
	baseCtx, cancel := context.WithCancel(context.Background())
	// No write timeout: /events streams for the lifetime of the page.
	srv := &http.Server{
		Addr:        s.addr,
		Handler:     s.Handler(),
		ReadTimeout: 15 * time.Second,
		BaseContext: func(net.Listener) context.Context { return baseCtx },
	}
	s.mu.Lock()
	s.server, s.cancel = srv, cancel
	s.mu.Unlock()

	s.logger.Info("report server starting", "addr", s.addr)
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server. Open event streams are closed.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv, cancel := s.server, s.cancel
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	cancel()
	return srv.Shutdown(ctx)
}

// PageView holds data for template rendering.
type PageView struct {
	Title        string
	Timestamp    string
	Period       string
	Mode         report.Mode
	ModeLabel    string
	OtherMode    report.Mode
	OtherLabel   string
	CanToggle    bool
	Error        string
	Version      uint64
	LiveUpdates  bool
	Summary      []report.SummaryRow
	Projects     []ProjectView
	Distribution []SegmentView
}

// ProjectView is one entry of the project filter.
type ProjectView struct {
	ID       report.ProjectID
	Excluded bool
}

// SegmentView is one distribution row.
type SegmentView struct {
	Label   string
	Project report.ProjectID
	Count   int
	Share   int
}

func (s *Server) pageView() PageView {
	sess := s.session
	mode := sess.Controller.Mode()
	state := sess.Board.State()

	v := PageView{
		Title:       "Time tracking report",
		Timestamp:   sess.Page.Timestamp,
		Mode:        mode,
		ModeLabel:   mode.Label(),
		OtherMode:   mode.Other(),
		OtherLabel:  mode.Other().Label(),
		CanToggle:   sess.CanToggle(),
		Version:     state.Version,
		LiveUpdates: s.events != nil,
		Summary:     state.Summary.Rows(),
	}
	if !mode.IgnoresPeriod() && (sess.Page.DateFrom != "" || sess.Page.DateTo != "") {
		v.Period = sess.Page.DateFrom + " .. " + sess.Page.DateTo
	}

	s.mu.Lock()
	v.Error = s.lastError
	s.mu.Unlock()

	for _, id := range sess.Comparison.Projects() {
		v.Projects = append(v.Projects, ProjectView{ID: id, Excluded: sess.Comparison.IsExcluded(id)})
	}
	for i, c := range state.Distribution.Categories {
		v.Distribution = append(v.Distribution, SegmentView{
			Label:   c.Label,
			Project: c.Project,
			Count:   c.Count,
			Share:   state.Distribution.Share(i),
		})
	}
	return v
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, "report.html", s.pageView())
}

func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	if raw := r.FormValue("mode"); raw != "" {
		mode, parseErr := report.ParseMode(raw)
		if parseErr != nil {
			http.Error(w, parseErr.Error(), http.StatusBadRequest)
			return
		}
		err = s.session.Controller.Switch(ctx, mode)
	} else {
		err = s.session.Controller.Toggle(ctx)
	}

	switch {
	case err == nil:
		s.setError("")
	case errors.Is(err, report.ErrTransitionInFlight):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	default:
		s.setError(err.Error())
	}
	s.done(w, r)
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	cmp := s.session.Comparison
	var err error
	switch action := r.FormValue("action"); action {
	case "select_all":
		err = cmp.SelectAll()
	case "deselect_all":
		err = cmp.DeselectAll()
	case "reset":
		err = cmp.ResetFilter()
	case "set":
		project := report.ProjectID(r.FormValue("project"))
		excluded, parseErr := strconv.ParseBool(r.FormValue("excluded"))
		if project == "" || parseErr != nil {
			http.Error(w, "project and excluded are required", http.StatusBadRequest)
			return
		}
		err = cmp.SetExclusion(project, excluded)
	default:
		http.Error(w, fmt.Sprintf("unknown action %q", action), http.StatusBadRequest)
		return
	}
	if err != nil {
		s.logger.Warn("filter redraw failed", "error", err)
	}
	s.done(w, r)
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	s.setError("")
	s.done(w, r)
}

// done redirects browsers back to the page and answers API clients with the
// current view.
func (s *Server) done(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Accept") == "application/json" {
		s.handleAPIView(w, r)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	state := s.session.Board.State()
	var buf bytes.Buffer
	var err error
	switch r.PathValue("name") {
	case chart.ComparisonFile:
		err = s.renderer.Comparison(&buf, state.Comparison)
	case chart.DistributionFile:
		err = s.renderer.Distribution(&buf, state.Distribution)
	default:
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.logger.Error("chart render failed", "chart", r.PathValue("name"), "error", err)
		http.Error(w, "chart render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

// APIView is the JSON form of the page.
type APIView struct {
	Mode         report.Mode             `json:"mode"`
	State        string                  `json:"state"`
	FullFetched  bool                    `json:"full_fetched"`
	Error        string                  `json:"error,omitempty"`
	Excluded     []report.ProjectID      `json:"excluded"`
	Comparison   report.ComparisonView   `json:"comparison"`
	Distribution report.DistributionView `json:"distribution"`
	Summary      []report.SummaryRow     `json:"summary"`
}

func (s *Server) handleAPIView(w http.ResponseWriter, r *http.Request) {
	sess := s.session
	state := sess.Board.State()
	s.mu.Lock()
	lastErr := s.lastError
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, APIView{
		Mode:         sess.Controller.Mode(),
		State:        sess.Controller.State(),
		FullFetched:  sess.Controller.HasFullBeenFetched(),
		Error:        lastErr,
		Excluded:     sess.Comparison.Excluded(),
		Comparison:   state.Comparison,
		Distribution: state.Distribution,
		Summary:      state.Summary.Rows(),
	})
}

func (s *Server) resolveLink(r *http.Request) (*client.Link, int, error) {
	chartType := r.URL.Query().Get("chart_type")
	if chartType == "" {
		chartType = client.ChartProjectIssues
	}
	link, err := s.session.Queries.Link(r.Context(), report.ProjectID(r.URL.Query().Get("project")),
		chartType, s.session.Controller.Mode())
	switch {
	case err == nil:
		return link, http.StatusOK, nil
	case errors.Is(err, report.ErrFetchFailed):
		return nil, http.StatusBadGateway, err
	default:
		return nil, http.StatusBadRequest, err
	}
}

func (s *Server) handleAPIJQL(w http.ResponseWriter, r *http.Request) {
	link, status, err := s.resolveLink(r)
	if err != nil {
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, link)
}

func (s *Server) handleJQL(w http.ResponseWriter, r *http.Request) {
	link, status, err := s.resolveLink(r)
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}
	http.Redirect(w, r, link.URL, http.StatusFound)
}

func (s *Server) setError(msg string) {
	s.mu.Lock()
	s.lastError = msg
	s.mu.Unlock()
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("template error", "template", name, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
