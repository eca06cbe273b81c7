package chart

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/felixgeelhaar/timelens/pkg/domain/report"
)

// File names written by FileSink, without extension.
const (
	ComparisonFile   = "comparison"
	DistributionFile = "distribution"
	DashboardFile    = "dashboard"
)

// FileSink writes each applied view to an image file in Dir. Files are
// replaced atomically so viewers never read a half-written image.
type FileSink struct {
	Dir      string
	Renderer *Renderer

	mu      sync.Mutex
	written []string
}

func NewFileSink(dir string, r *Renderer) *FileSink {
	return &FileSink{Dir: dir, Renderer: r}
}

func (s *FileSink) ApplyComparison(v report.ComparisonView) error {
	var buf bytes.Buffer
	if err := s.Renderer.Comparison(&buf, v); err != nil {
		return fmt.Errorf("render comparison chart: %w", err)
	}
	return s.write(ComparisonFile, buf.Bytes())
}

func (s *FileSink) ApplyDistribution(v report.DistributionView) error {
	var buf bytes.Buffer
	if err := s.Renderer.Distribution(&buf, v); err != nil {
		return fmt.Errorf("render distribution chart: %w", err)
	}
	return s.write(DistributionFile, buf.Bytes())
}

// Path returns the file a view named name is written to.
func (s *FileSink) Path(name string) string {
	return filepath.Join(s.Dir, name+s.Renderer.Format.Ext())
}

// Written lists the files written so far, oldest first.
func (s *FileSink) Written() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.written...)
}

// WriteFile stores an already rendered image under name.
func (s *FileSink) WriteFile(name string, data []byte) error {
	return s.write(name, data)
}

func (s *FileSink) write(name string, data []byte) error {
	if s.Dir == "" {
		return fmt.Errorf("%s chart: %w", name, report.ErrMissingTarget)
	}
	if err := os.MkdirAll(s.Dir, 0750); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	path := s.Path(name)
	tmp, err := os.CreateTemp(s.Dir, "."+name+"-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", path, err)
	}

	s.mu.Lock()
	s.written = append(s.written, path)
	s.mu.Unlock()
	return nil
}
