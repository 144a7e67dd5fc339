package api_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"cuadrilla/internal/api"
	"cuadrilla/internal/attendance"
	"cuadrilla/internal/services"
	"cuadrilla/internal/testsupport"
)

func newActivityService(t *testing.T) (*api.ActivityService, *attendance.Site) {
	t.Helper()
	now := time.Date(2026, 3, 9, 8, 0, 0, 0, time.Local)
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t), attendance.WithClock(testsupport.FixedClock(now)))
	site := testsupport.MustCreateSite(t, store, "Obra Norte")
	return api.NewActivityService(store, nil), site
}

func TestActivityServiceAddForms(t *testing.T) {
	svc, site := newActivityService(t)
	ctx := context.Background()

	single, err := svc.Add(ctx, site.ID, api.AddActivitiesRequest{Description: "poda", Date: "2026-03-10"})
	if err != nil {
		t.Fatalf("Add single: %v", err)
	}
	if len(single) != 1 || single[0].Date != "2026-03-10" {
		t.Fatalf("unexpected single add %#v", single)
	}

	batch, err := svc.Add(ctx, site.ID, api.AddActivitiesRequest{
		Date: "2026-03-10",
		Items: []api.ActivityItem{
			{Description: "riego"},
			{Description: "cosecha", Date: "2026-03-11"},
		},
	})
	if err != nil {
		t.Fatalf("Add items: %v", err)
	}
	if batch[0].Date != "2026-03-10" || batch[0].OrderIndex != 2 || batch[1].Date != "2026-03-11" {
		t.Fatalf("unexpected batch %#v", batch)
	}

	listed, err := svc.List(ctx, site.ID, "2026-03-10")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 activities on 2026-03-10, got %#v", listed)
	}
	if today, _ := svc.List(ctx, site.ID, ""); len(today) != 0 {
		t.Fatalf("expected nothing logged for today, got %#v", today)
	}
}

func TestActivityServiceErrors(t *testing.T) {
	svc, site := newActivityService(t)
	ctx := context.Background()

	if _, err := svc.Add(ctx, 0, api.AddActivitiesRequest{Description: "riego"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("missing site: %v", err)
	}
	if _, err := svc.Add(ctx, site.ID, api.AddActivitiesRequest{}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("blank description: %v", err)
	}
	if _, err := svc.List(ctx, site.ID+10, ""); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("unknown site: %v", err)
	}
	if err := svc.Delete(ctx, site.ID, 99); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("unknown activity: %v", err)
	}

	added, err := svc.Add(ctx, site.ID, api.AddActivitiesRequest{Description: "riego"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	description := "riego tecnificado"
	updated, err := svc.Update(ctx, site.ID, added[0].ID, api.UpdateActivityRequest{Description: &description})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Description != description {
		t.Fatalf("description = %q", updated.Description)
	}
	if err := svc.Delete(ctx, site.ID, added[0].ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}
