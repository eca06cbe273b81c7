// Package storage reads the page data an analysis run leaves behind.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/timelens/pkg/domain/report"
)

// DefaultPageFile is the name analysis runs write their chart data to.
const DefaultPageFile = "chart_data.json"

// PageStore loads page data files. Reads are retried briefly because the
// file may be rewritten by the analysis job while being watched.
type PageStore struct {
	retryConfig retry.Config
}

func NewPageStore() *PageStore {
	return &PageStore{
		retryConfig: retry.Config{
			MaxAttempts:   3,
			InitialDelay:  10 * time.Millisecond,
			BackoffPolicy: retry.BackoffExponential,
		},
	}
}

// ResolvePath accepts either a page data file or an analysis directory
// containing DefaultPageFile.
func ResolvePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("page data path cannot be empty")
	}
	clean := filepath.Clean(path)
	info, err := os.Stat(clean)
	if err != nil {
		return "", fmt.Errorf("stat page data: %w", err)
	}
	if info.IsDir() {
		clean = filepath.Join(clean, DefaultPageFile)
	}
	return clean, nil
}

// Load reads, validates and decodes the page data at path.
func (s *PageStore) Load(ctx context.Context, path string) (*report.PageData, error) {
	resolved, err := ResolvePath(path)
	if err != nil {
		return nil, err
	}

	retryer := retry.New[[]byte](s.retryConfig)
	data, err := retryer.Do(ctx, func(ctx context.Context) ([]byte, error) {
		// #nosec G304 -- path is supplied by the user on purpose
		b, err := os.ReadFile(resolved)
		if err != nil {
			return nil, fmt.Errorf("failed to read page data: %w", err)
		}
		if len(b) == 0 {
			return nil, fmt.Errorf("page data file %s is empty", resolved)
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Decode validates and decodes a page data blob.
func Decode(data []byte) (*report.PageData, error) {
	if err := report.ValidatePageDataJSON(data); err != nil {
		return nil, err
	}
	var src report.PageSource
	if err := json.Unmarshal(data, &src); err != nil {
		return nil, fmt.Errorf("%w: %v", report.ErrInvalidDataset, err)
	}
	return report.NewPageData(src)
}
