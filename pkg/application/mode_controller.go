package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/timelens/pkg/domain/events"
	"github.com/felixgeelhaar/timelens/pkg/domain/report"
)

// View is a display that follows the active dataset.
type View interface {
	Name() string
	Render(ds *report.Dataset) error
}

// FullDatasetFetcher loads the unfiltered dataset of an analysis run.
type FullDatasetFetcher interface {
	FullDataset(ctx context.Context, timestamp string) (*report.Dataset, error)
}

// Views are the three displays kept consistent by the controller. A nil
// view counts as a missing render target.
type Views struct {
	Comparison   View
	Summary      View
	Distribution View
}

// ControllerOption configures a ModeController.
type ControllerOption func(*ModeController)

// WithLogger sets the controller logger.
func WithLogger(l *slog.Logger) ControllerOption {
	return func(c *ModeController) { c.logger = l }
}

// WithPublisher sets where session events go.
func WithPublisher(p events.Publisher) ControllerOption {
	return func(c *ModeController) { c.publisher = p }
}

// WithDistributionDelay postpones the distribution render after a switch.
func WithDistributionDelay(d time.Duration) ControllerOption {
	return func(c *ModeController) { c.distributionDelay = d }
}

// WithSessionID tags published events.
func WithSessionID(id string) ControllerOption {
	return func(c *ModeController) { c.session = id }
}

// ModeController owns the active dataset mode and the snapshot cache, and
// re-renders the views on every switch.
//
// The full dataset is fetched at most once per controller. While a fetch is
// in flight the machine sits in the transitioning state and further switches
// are rejected with report.ErrTransitionInFlight. Commits and renders happen
// under the lock, so views never observe a half-applied switch.
type ModeController struct {
	mu sync.Mutex

	fsm       *report.ModeStateMachine
	timestamp string
	filtered  *report.Dataset
	full      *report.Dataset
	hasFull   bool

	fetcher FullDatasetFetcher
	views   Views

	distributionDelay time.Duration
	logger            *slog.Logger
	publisher         events.Publisher
	session           string
}

// NewModeController seeds the controller with the filtered dataset of page.
// It does not render; call Redraw for the initial paint.
func NewModeController(page *report.PageData, fetcher FullDatasetFetcher, views Views, opts ...ControllerOption) (*ModeController, error) {
	if page == nil || page.Filtered == nil {
		return nil, fmt.Errorf("%w: no filtered dataset", report.ErrInvalidDataset)
	}
	if err := page.Filtered.Validate(); err != nil {
		return nil, err
	}
	fsm, err := report.NewModeStateMachine(page.Timestamp)
	if err != nil {
		return nil, err
	}

	c := &ModeController{
		fsm:       fsm,
		timestamp: page.Timestamp,
		filtered:  page.Filtered.Clone(),
		fetcher:   fetcher,
		views:     views,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.publisher == nil {
		c.publisher = events.NopPublisher{}
	}
	return c, nil
}

// Mode returns the mode currently on screen.
func (c *ModeController) Mode() report.Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fsm.Mode()
}

// State returns the machine state: filtered, full or transitioning.
func (c *ModeController) State() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fsm.Current()
}

// HasFullBeenFetched reports whether the full snapshot is cached.
func (c *ModeController) HasFullBeenFetched() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasFull
}

// Active returns a copy of the dataset currently on screen.
func (c *ModeController) Active() *report.Dataset {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeLocked().Clone()
}

func (c *ModeController) activeLocked() *report.Dataset {
	if c.fsm.Mode() == report.ModeFull {
		return c.full
	}
	return c.filtered
}

// Toggle switches to the other mode.
func (c *ModeController) Toggle(ctx context.Context) error {
	return c.Switch(ctx, c.Mode().Other())
}

// Switch makes target the active mode. Switching to the current mode does
// nothing. A failed fetch leaves the filtered mode active and is returned as
// *report.FetchError. Once the mode has changed, view failures are returned
// joined, as Redraw does, and the new mode stays active.
func (c *ModeController) Switch(ctx context.Context, target report.Mode) error {
	if !target.IsValid() {
		return fmt.Errorf("%w: %q", report.ErrInvalidMode, target)
	}

	c.mu.Lock()
	if c.fsm.Transitioning() {
		c.mu.Unlock()
		return report.ErrTransitionInFlight
	}
	from := c.fsm.Mode()
	if from == target {
		c.mu.Unlock()
		return nil
	}

	if target == report.ModeFiltered {
		renderErr, err := c.commitLocked(ctx, report.EventShowFiltered)
		projects := len(c.filtered.Order)
		c.mu.Unlock()
		if err != nil {
			return err
		}
		c.publish(ctx, events.NewModeSwitched(c.session, from.String(), target.String(), true, projects))
		return renderErr
	}

	if c.hasFull {
		renderErr, err := c.commitLocked(ctx, report.EventUseCachedFull)
		projects := len(c.full.Order)
		c.mu.Unlock()
		if err != nil {
			return err
		}
		c.publish(ctx, events.NewModeSwitched(c.session, from.String(), target.String(), true, projects))
		return renderErr
	}

	if err := c.fsm.Fire(report.EventFetchFull); err != nil {
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()

	start := time.Now()
	ds, err := c.fetch(ctx)
	elapsed := time.Since(start)

	c.mu.Lock()
	if err != nil {
		if fireErr := c.fsm.Fire(report.EventFetchFailed); fireErr != nil {
			c.logger.ErrorContext(ctx, "mode machine did not revert", "error", fireErr)
		}
		c.mu.Unlock()
		c.logger.WarnContext(ctx, "full dataset unavailable", "timestamp", c.timestamp, "error", err)
		c.publish(ctx, events.NewFetchFailed(c.session, "full dataset", err))
		return err
	}

	c.full = ds
	c.hasFull = true
	renderErr, commitErr := c.commitLocked(ctx, report.EventFetchSucceeded)
	c.mu.Unlock()
	if commitErr != nil {
		return commitErr
	}

	c.publish(ctx, events.NewFullDatasetFetched(c.session, c.timestamp, len(ds.Order), elapsed))
	c.publish(ctx, events.NewModeSwitched(c.session, from.String(), target.String(), false, len(ds.Order)))
	return renderErr
}

// fetch runs outside the lock. Every failure comes back as *report.FetchError.
func (c *ModeController) fetch(ctx context.Context) (*report.Dataset, error) {
	const op = "fetch full dataset"
	if c.fetcher == nil {
		return nil, &report.FetchError{Op: op, Err: errors.New("no server configured")}
	}
	ds, err := c.fetcher.FullDataset(ctx, c.timestamp)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		var fetchErr *report.FetchError
		if errors.As(err, &fetchErr) {
			return nil, err
		}
		return nil, &report.FetchError{Op: op, Err: err}
	}
	if ds == nil {
		return nil, &report.FetchError{Op: op, Err: fmt.Errorf("%w: empty answer", report.ErrMalformedResponse)}
	}
	if err := ds.Validate(); err != nil {
		return nil, &report.FetchError{Op: op, Err: fmt.Errorf("%w: %v", report.ErrMalformedResponse, err)}
	}
	return ds, nil
}

// commitLocked fires the event and paints the now active dataset. err is
// set only when the machine refused the event; renderErr carries the view
// failures of a committed switch.
func (c *ModeController) commitLocked(ctx context.Context, event string) (renderErr, err error) {
	if err := c.fsm.Fire(event); err != nil {
		return nil, err
	}
	c.logger.InfoContext(ctx, "dataset mode", "mode", c.fsm.Mode(), "event", event)
	return c.renderLocked(ctx), nil
}

// Redraw repaints every view with the active dataset. Per-view failures are
// logged and joined into the returned error.
func (c *ModeController) Redraw() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renderLocked(context.Background())
}

// renderLocked renders in the fixed order comparison, summary,
// distribution. One failing view does not stop the others.
func (c *ModeController) renderLocked(ctx context.Context) error {
	ds := c.activeLocked()
	var errs []error
	render := func(name string, v View) {
		if v == nil {
			err := fmt.Errorf("%s view: %w", name, report.ErrMissingTarget)
			c.logger.WarnContext(ctx, "view not rendered", "view", name, "error", err)
			errs = append(errs, err)
			return
		}
		if err := v.Render(ds.Clone()); err != nil {
			c.logger.WarnContext(ctx, "view not rendered", "view", v.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s view: %w", v.Name(), err))
		}
	}

	render("comparison", c.views.Comparison)
	render("summary", c.views.Summary)
	if c.distributionDelay > 0 {
		t := time.NewTimer(c.distributionDelay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
		}
	}
	render("distribution", c.views.Distribution)
	return errors.Join(errs...)
}

func (c *ModeController) publish(ctx context.Context, event events.DomainEvent) {
	if err := c.publisher.Publish(ctx, event); err != nil {
		c.logger.WarnContext(ctx, "event not delivered", "event", event.EventType(), "error", err)
	}
}
