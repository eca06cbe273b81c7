package events

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestEventDispatcher_Publish(t *testing.T) {
	d := NewEventDispatcher()

	var got []string
	d.RegisterHandler("specific", func(ctx context.Context, event DomainEvent) error {
		got = append(got, "specific:"+event.EventType())
		return nil
	}, EventTypeModeSwitched)
	d.RegisterWildcard("all", func(ctx context.Context, event DomainEvent) error {
		got = append(got, "all:"+event.EventType())
		return nil
	})

	if err := d.Publish(context.Background(), NewModeSwitched("s1", "filtered", "full", false, 3)); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if err := d.Publish(context.Background(), NewFetchFailed("s1", "full dataset", errors.New("boom"))); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	want := []string{"specific:mode.switched", "all:mode.switched", "all:dataset.fetch_failed"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("handlers called = %v, want %v", got, want)
	}
	if n := d.HandlerCount(EventTypeModeSwitched); n != 2 {
		t.Errorf("HandlerCount = %d, want 2", n)
	}
}

func TestEventDispatcher_StopsOnError(t *testing.T) {
	d := NewEventDispatcher()
	second := false
	d.RegisterHandler("fails", func(context.Context, DomainEvent) error {
		return errors.New("handler error")
	}, EventTypeModeSwitched)
	d.RegisterHandler("second", func(context.Context, DomainEvent) error {
		second = true
		return nil
	}, EventTypeModeSwitched)

	if err := d.Publish(context.Background(), NewModeSwitched("s", "a", "b", true, 0)); err == nil {
		t.Fatal("expected error")
	}
	if second {
		t.Error("second handler ran despite ContinueOnError=false")
	}
}

func TestEventDispatcher_ContinueOnError(t *testing.T) {
	d := NewEventDispatcher()
	d.ContinueOnError = true
	fail := func(context.Context, DomainEvent) error { return errors.New("nope") }
	d.RegisterHandler("a", fail, EventTypeFetchFailed)
	d.RegisterHandler("b", fail, EventTypeFetchFailed)

	err := d.Publish(context.Background(), NewFetchFailed("s", "op", errors.New("x")))
	var dispatchErr *DispatchError
	if !errors.As(err, &dispatchErr) {
		t.Fatalf("expected DispatchError, got %v", err)
	}
	if len(dispatchErr.Errors) != 2 {
		t.Errorf("collected %d errors, want 2", len(dispatchErr.Errors))
	}
}

func TestLogHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	d := NewEventDispatcher()
	NewLogHandler(logger).Register(d)

	_ = d.Publish(context.Background(), NewFullDatasetFetched("sess", "20250301", 12, 0))
	_ = d.Publish(context.Background(), NewFetchFailed("sess", "full dataset", errors.New("HTTP 502")))

	out := buf.String()
	for _, want := range []string{"full dataset fetched", "projects=12", "fetch failed", "HTTP 502", "session=sess"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestNewEvents_HaveIDs(t *testing.T) {
	a := NewDashboardRefreshed("s", "2025-01-01", 4)
	b := NewDashboardRefreshed("s", "2025-01-01", 4)
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("event ids should be unique, got %q and %q", a.ID, b.ID)
	}
	if a.OccurredAt().IsZero() {
		t.Error("OccurredAt is zero")
	}
}
