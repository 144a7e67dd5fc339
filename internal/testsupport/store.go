package testsupport

import (
	"context"
	"testing"
	"time"

	"cuadrilla/internal/attendance"
	"cuadrilla/internal/config"
)

// MustOpenStore opens an attendance.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config, opts ...attendance.Option) *attendance.Store {
	t.Helper()

	store, err := attendance.Open(cfg, opts...)
	if err != nil {
		t.Fatalf("attendance.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustCreateSite creates a site for tests using the provided store.
func MustCreateSite(t testing.TB, store *attendance.Store, name string) *attendance.Site {
	t.Helper()

	site, err := store.CreateSite(context.Background(), name)
	if err != nil {
		t.Fatalf("store.CreateSite: %v", err)
	}
	return site
}

// FixedClock returns a clock that always reports ts.
func FixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}
