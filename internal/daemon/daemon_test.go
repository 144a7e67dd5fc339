package daemon_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"cuadrilla/internal/api"
	"cuadrilla/internal/daemon"
	"cuadrilla/internal/dictation"
	"cuadrilla/internal/submission"
	"cuadrilla/internal/testsupport"
)

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	d, err := daemon.New(cfg, store, nil, "")
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Stop()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	status := d.Status(ctx)
	if !status.Running || status.RunID == "" {
		t.Fatalf("unexpected status after start: %#v", status)
	}
	if d.Addr() == "" {
		t.Fatal("expected api listener address")
	}

	// Second start should fail
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	if d.Status(ctx).Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestSecondDaemonIsLockedOut(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first, err := daemon.New(cfg, testsupport.MustOpenStore(t, cfg), nil, "")
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	ctx := context.Background()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	t.Cleanup(first.Stop)

	second, err := daemon.New(cfg, testsupport.MustOpenStore(t, cfg), nil, "")
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := second.Start(ctx); err == nil {
		second.Stop()
		t.Fatal("expected lock contention error")
	}
}

func TestDictationRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	for _, name := range []string{"Obra Uno", "Obra Dos", "Obra Tres"} {
		testsupport.MustCreateSite(t, store, name)
	}
	d, err := daemon.New(cfg, store, nil, "")
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	srv := httptest.NewServer(d.Handler())
	defer srv.Close()

	client, err := api.NewClient(srv.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	queue := submission.New(client, 3)
	defer queue.Close()

	ctx := context.Background()
	submit := func() {
		t.Helper()
		result := dictation.Parse("id 1 2 3 4 5 present id 9 9 9 9 9 absent")
		if len(result.Pairs) != 2 {
			t.Fatalf("expected 2 pairs, got %#v", result.Pairs)
		}
		if err := queue.Enqueue(result.Pairs...); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
		if err := queue.Drain(ctx); err != nil {
			t.Fatalf("Drain: %v", err)
		}
	}

	submit()
	summary, err := client.Summary(ctx, 3, "")
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.Present != 1 || summary.Absent != 1 || summary.ActiveWorkers != 2 {
		t.Fatalf("unexpected summary: %#v", summary)
	}

	submit()
	again, err := client.Summary(ctx, 3, "")
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if again != summary {
		t.Fatalf("resubmission changed counts: %#v vs %#v", again, summary)
	}

	entries, err := client.Day(ctx, 3, "")
	if err != nil {
		t.Fatalf("Day: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	other, err := client.Day(ctx, 1, "")
	if err != nil {
		t.Fatalf("Day(site 1): %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected site 1 untouched, got %d entries", len(other))
	}
}
