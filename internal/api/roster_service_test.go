package api_test

import (
	"context"
	"errors"
	"testing"

	"cuadrilla/internal/api"
	"cuadrilla/internal/services"
	"cuadrilla/internal/testsupport"
)

func TestRosterLifecycle(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	svc := api.NewRosterService(store, nil)
	ctx := context.Background()

	site, err := svc.CreateSite(ctx, api.CreateSiteRequest{Name: "  Obra   Sur "})
	if err != nil {
		t.Fatalf("CreateSite: %v", err)
	}
	if site.Name != "Obra Sur" {
		t.Fatalf("site name = %q", site.Name)
	}

	registered, err := svc.RegisterWorker(ctx, api.RegisterWorkerRequest{SiteID: site.ID, DocumentID: "7.654.321-0", FullName: "pedro perez"})
	if err != nil {
		t.Fatalf("RegisterWorker: %v", err)
	}
	if !registered.Created || registered.Worker.DocumentID != "76543210" {
		t.Fatalf("unexpected registration: %#v", registered)
	}

	if _, err := svc.RegisterWorker(ctx, api.RegisterWorkerRequest{SiteID: site.ID, DocumentID: "76543210"}); !errors.Is(err, services.ErrConflict) {
		t.Fatalf("duplicate registration: err = %v", err)
	}

	renamed, err := svc.RenameWorker(ctx, registered.Worker.ID, api.UpdateWorkerRequest{FullName: "Pedro Pérez"})
	if err != nil {
		t.Fatalf("RenameWorker: %v", err)
	}
	if renamed.FullName != "Pedro Pérez" {
		t.Fatalf("renamed = %q", renamed.FullName)
	}

	if _, err := svc.DeactivateWorker(ctx, registered.Worker.ID); err != nil {
		t.Fatalf("DeactivateWorker: %v", err)
	}
	active, err := svc.Workers(ctx, site.ID, false)
	if err != nil {
		t.Fatalf("Workers: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("expected no active workers, got %d", len(active))
	}
	all, err := svc.Workers(ctx, site.ID, true)
	if err != nil {
		t.Fatalf("Workers(all): %v", err)
	}
	if len(all) != 1 || all[0].Active {
		t.Fatalf("unexpected workers: %#v", all)
	}

	again, err := svc.RegisterWorker(ctx, api.RegisterWorkerRequest{SiteID: site.ID, DocumentID: "76543210", FullName: "Pedro"})
	if err != nil {
		t.Fatalf("re-register: %v", err)
	}
	if again.Created || !again.Worker.Active {
		t.Fatalf("expected reactivation, got %#v", again)
	}
}

func TestRosterValidation(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	svc := api.NewRosterService(store, nil)
	ctx := context.Background()

	if _, err := svc.CreateSite(ctx, api.CreateSiteRequest{Name: " "}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("blank site: err = %v", err)
	}
	if _, err := svc.RegisterWorker(ctx, api.RegisterWorkerRequest{SiteID: 1, DocumentID: "12"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("short document: err = %v", err)
	}
	if _, err := svc.RegisterWorker(ctx, api.RegisterWorkerRequest{SiteID: 42, DocumentID: "12345"}); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("unknown site: err = %v", err)
	}
	if _, err := svc.Workers(ctx, 0, false); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("missing site: err = %v", err)
	}
	if _, err := svc.RenameWorker(ctx, 99, api.UpdateWorkerRequest{FullName: "x"}); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("unknown worker: err = %v", err)
	}
}

func TestRosterRenameAndDeleteSite(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	svc := api.NewRosterService(store, nil)
	ctx := context.Background()
	north := testsupport.MustCreateSite(t, store, "Obra Norte")
	testsupport.MustCreateSite(t, store, "Obra Sur")

	renamed, err := svc.RenameSite(ctx, north.ID, api.UpdateSiteRequest{Name: "Obra Centro"})
	if err != nil {
		t.Fatalf("RenameSite: %v", err)
	}
	if renamed.Name != "Obra Centro" {
		t.Fatalf("name = %q", renamed.Name)
	}
	if _, err := svc.RenameSite(ctx, north.ID, api.UpdateSiteRequest{Name: "obra sur"}); !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if _, err := svc.CreateSite(ctx, api.CreateSiteRequest{Name: "OBRA CENTRO"}); !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected ErrConflict on create, got %v", err)
	}

	if _, err := svc.RegisterWorker(ctx, api.RegisterWorkerRequest{SiteID: north.ID, DocumentID: "12345678"}); err != nil {
		t.Fatalf("RegisterWorker: %v", err)
	}
	resp, err := svc.DeleteSite(ctx, north.ID)
	if err != nil {
		t.Fatalf("DeleteSite: %v", err)
	}
	if !resp.OK || resp.Workers != 1 {
		t.Fatalf("unexpected delete response %#v", resp)
	}
	if _, err := svc.DeleteSite(ctx, 0); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	sites, err := svc.Sites(ctx)
	if err != nil {
		t.Fatalf("Sites: %v", err)
	}
	if len(sites) != 1 || sites[0].Name != "Obra Sur" {
		t.Fatalf("unexpected sites %#v", sites)
	}
}
