// Package client is a typed HTTP client for the reporting server endpoints
// used by timelens: the full CLM dataset, the special JQL builder and the
// dashboard data.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/fortify/timeout"
	"github.com/felixgeelhaar/timelens/pkg/domain/dashboard"
	"github.com/felixgeelhaar/timelens/pkg/domain/report"
	"golang.org/x/sync/singleflight"
)

const maxErrorBody = 512

// Client talks to the reporting server. It is safe for concurrent use.
type Client struct {
	baseURL  *url.URL
	http     *http.Client
	retryCfg retry.Config
	timeout  time.Duration
	logger   *slog.Logger
	group    singleflight.Group
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("parse server url: %q is not absolute", baseURL)
	}

	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{}
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.maxAttempts < 1 {
		o.maxAttempts = 1
	}

	return &Client{
		baseURL: u,
		http:    o.httpClient,
		timeout: o.timeout,
		logger:  o.logger,
		retryCfg: retry.Config{
			MaxAttempts:   o.maxAttempts,
			InitialDelay:  o.initialDelay,
			BackoffPolicy: retry.BackoffExponential,
		},
	}, nil
}

// get performs a GET with retry inside an overall timeout and returns the
// body of a 2xx response. escapedPath is appended to the base URL as is.
func (c *Client) get(ctx context.Context, escapedPath string, query url.Values) ([]byte, error) {
	path, err := url.PathUnescape(escapedPath)
	if err != nil {
		return nil, fmt.Errorf("request path %q: %w", escapedPath, err)
	}
	u := *c.baseURL
	u.RawPath = u.EscapedPath() + escapedPath
	u.Path = u.Path + path
	if query != nil {
		u.RawQuery = query.Encode()
	}
	target := u.String()

	r := retry.New[[]byte](c.retryCfg)
	t := timeout.New[[]byte](timeout.Config{DefaultTimeout: c.timeout})

	return t.Execute(ctx, c.timeout, func(ctx context.Context) ([]byte, error) {
		return r.Do(ctx, func(ctx context.Context) ([]byte, error) {
			start := time.Now()
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
			if err != nil {
				return nil, err
			}
			req.Header.Set("Accept", "application/json")

			resp, err := c.http.Do(req)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return nil, fmt.Errorf("read body: %w", err)
			}
			c.logger.DebugContext(ctx, "http request", "url", target, "status", resp.StatusCode, "duration", time.Since(start))

			if resp.StatusCode < 200 || resp.StatusCode > 299 {
				msg := string(body)
				if len(msg) > maxErrorBody {
					msg = msg[:maxErrorBody]
				}
				return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(msg)}
			}
			return body, nil
		})
	})
}

type fullDatasetResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	report.Source
}

// FullDataset fetches the unfiltered CLM dataset of the analysis run
// identified by timestamp. Concurrent calls for the same run share one
// request; every caller receives its own copy.
//
// All failures are returned as *report.FetchError.
func (c *Client) FullDataset(ctx context.Context, timestamp string) (*report.Dataset, error) {
	const op = "fetch full dataset"
	if timestamp == "" {
		return nil, &report.FetchError{Op: op, Err: fmt.Errorf("%w: empty timestamp", report.ErrMalformedResponse)}
	}

	v, err, shared := c.group.Do(timestamp, func() (any, error) {
		return c.fetchFullDataset(ctx, timestamp)
	})
	if err != nil {
		return nil, &report.FetchError{Op: op, Err: err}
	}
	if shared {
		c.logger.DebugContext(ctx, "full dataset request shared", "timestamp", timestamp)
	}
	return v.(*report.Dataset).Clone(), nil
}

func (c *Client) fetchFullDataset(ctx context.Context, timestamp string) (*report.Dataset, error) {
	body, err := c.get(ctx, "/api/full-dataset/"+url.PathEscape(timestamp), nil)
	if err != nil {
		return nil, err
	}
	if err := report.ValidateFullDatasetJSON(body); err != nil {
		return nil, err
	}

	var resp fullDatasetResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", report.ErrMalformedResponse, err)
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "success=false"
		}
		return nil, fmt.Errorf("%w: %s", report.ErrMalformedResponse, msg)
	}

	ds, err := report.NewDataset(resp.Source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", report.ErrMalformedResponse, err)
	}
	return ds, nil
}

// Chart types understood by the special JQL endpoint.
const (
	ChartProjectIssues = "project_issues"
	ChartOpenTasks     = "open_tasks"
	ChartClosedTasks   = "closed_tasks"
)

// LinkQuery identifies the issues behind one chart segment.
type LinkQuery struct {
	Project   string
	ChartType string
	CLM       bool
	DateFrom  string
	DateTo    string
	BaseJQL   string
	Timestamp string
	// IgnorePeriod drops the date bounds; set for the full dataset.
	IgnorePeriod bool
}

func (q LinkQuery) values() url.Values {
	v := url.Values{}
	v.Set("project", q.Project)
	v.Set("chart_type", q.ChartType)
	v.Set("is_clm", strconv.FormatBool(q.CLM))
	if !q.IgnorePeriod {
		if q.DateFrom != "" {
			v.Set("date_from", q.DateFrom)
		}
		if q.DateTo != "" {
			v.Set("date_to", q.DateTo)
		}
	}
	if q.BaseJQL != "" {
		v.Set("base_jql", q.BaseJQL)
	}
	if q.Timestamp != "" {
		v.Set("timestamp", q.Timestamp)
	}
	v.Set("ignore_period", strconv.FormatBool(q.IgnorePeriod))
	if q.ChartType == ChartOpenTasks || q.ChartType == ChartClosedTasks {
		v.Set("count_based", "true")
	}
	return v
}

// Link is a resolved Jira deep link.
type Link struct {
	JQL string `json:"jql"`
	URL string `json:"url"`
}

// SpecialJQL asks the server to build the JQL for a chart segment.
func (c *Client) SpecialJQL(ctx context.Context, q LinkQuery) (*Link, error) {
	const op = "resolve jql"
	if q.Project == "" || q.ChartType == "" {
		return nil, &report.FetchError{Op: op, Err: fmt.Errorf("%w: project and chart type are required", report.ErrMalformedResponse)}
	}
	body, err := c.get(ctx, "/jql/special", q.values())
	if err != nil {
		return nil, &report.FetchError{Op: op, Err: err}
	}
	var link Link
	if err := json.Unmarshal(body, &link); err != nil {
		return nil, &report.FetchError{Op: op, Err: fmt.Errorf("%w: %v", report.ErrMalformedResponse, err)}
	}
	if link.URL == "" {
		return nil, &report.FetchError{Op: op, Err: fmt.Errorf("%w: missing url", report.ErrMalformedResponse)}
	}
	return &link, nil
}

type dashboardResponse struct {
	Success bool                `json:"success"`
	Error   string              `json:"error,omitempty"`
	Data    *dashboard.Snapshot `json:"data"`
}

// Dashboard fetches the latest dashboard snapshot.
func (c *Client) Dashboard(ctx context.Context) (*dashboard.Snapshot, error) {
	const op = "fetch dashboard"
	body, err := c.get(ctx, "/api/dashboard/data", nil)
	if err != nil {
		return nil, &report.FetchError{Op: op, Err: err}
	}
	var resp dashboardResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &report.FetchError{Op: op, Err: fmt.Errorf("%w: %v", report.ErrMalformedResponse, err)}
	}
	if !resp.Success {
		return nil, &report.FetchError{Op: op, Err: fmt.Errorf("%w: %s", ErrServer, resp.Error)}
	}
	if resp.Data == nil {
		return nil, &report.FetchError{Op: op, Err: fmt.Errorf("%w: missing data", report.ErrMalformedResponse)}
	}
	return resp.Data, nil
}
