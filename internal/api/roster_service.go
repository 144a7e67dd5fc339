package api

import (
	"context"
	"fmt"
	"log/slog"

	"cuadrilla/internal/attendance"
	"cuadrilla/internal/dictation"
	"cuadrilla/internal/logging"
	"cuadrilla/internal/services"
)

// RosterStore abstracts site and worker administration.
type RosterStore interface {
	CreateSite(ctx context.Context, name string) (*attendance.Site, error)
	ListSites(ctx context.Context) ([]attendance.Site, error)
	GetSite(ctx context.Context, id int64) (*attendance.Site, error)
	RenameSite(ctx context.Context, id int64, name string) (*attendance.Site, error)
	DeleteSite(ctx context.Context, id int64) (attendance.SiteRemoval, error)
	RegisterWorker(ctx context.Context, siteID int64, documentID, fullName string) (*attendance.Worker, bool, error)
	ListWorkers(ctx context.Context, siteID int64, includeInactive bool) ([]attendance.Worker, error)
	RenameWorker(ctx context.Context, id int64, fullName string) (*attendance.Worker, error)
	DeactivateWorker(ctx context.Context, id int64) (*attendance.Worker, error)
}

// RosterService exposes site and worker administration returning API DTOs.
type RosterService struct {
	store  RosterStore
	logger *slog.Logger
}

// NewRosterService constructs a RosterService around store.
func NewRosterService(store RosterStore, logger *slog.Logger) *RosterService {
	if store == nil {
		return nil
	}
	return &RosterService{store: store, logger: logging.NewComponentLogger(logger, "roster")}
}

// CreateSite registers a site.
func (s *RosterService) CreateSite(ctx context.Context, req CreateSiteRequest) (Site, error) {
	site, err := s.store.CreateSite(ctx, req.Name)
	if err != nil {
		return Site{}, err
	}
	return FromSite(site), nil
}

// Sites lists every site.
func (s *RosterService) Sites(ctx context.Context) ([]Site, error) {
	sites, err := s.store.ListSites(ctx)
	if err != nil {
		return nil, err
	}
	return FromSites(sites), nil
}

// RenameSite changes a site's name.
func (s *RosterService) RenameSite(ctx context.Context, id int64, req UpdateSiteRequest) (Site, error) {
	if id <= 0 {
		return Site{}, services.Wrap(services.ErrValidation, "roster", "rename site", "site id is required", nil)
	}
	site, err := s.store.RenameSite(ctx, id, req.Name)
	if err != nil {
		return Site{}, err
	}
	return FromSite(site), nil
}

// DeleteSite removes a site with its workers, attendance and activity log.
func (s *RosterService) DeleteSite(ctx context.Context, id int64) (DeleteSiteResponse, error) {
	if id <= 0 {
		return DeleteSiteResponse{}, services.Wrap(services.ErrValidation, "roster", "delete site", "site id is required", nil)
	}
	removal, err := s.store.DeleteSite(ctx, id)
	if err != nil {
		return DeleteSiteResponse{}, err
	}
	logging.WarnWithContext(logging.WithContext(ctx, s.logger), "site deleted with its history", "site_deleted",
		logging.SiteID(id),
		logging.Int("workers", removal.Workers),
		logging.Int("records", removal.Records),
		logging.String(logging.FieldErrorHint, "restore from a database backup if this was unintended"),
		logging.String(logging.FieldImpact, "attendance history for the site is gone"),
	)
	return DeleteSiteResponse{
		OK:         true,
		SiteID:     removal.SiteID,
		Workers:    removal.Workers,
		Records:    removal.Records,
		Activities: removal.Activities,
	}, nil
}

// RegisterWorker creates or reactivates a worker after normalizing its document.
func (s *RosterService) RegisterWorker(ctx context.Context, req RegisterWorkerRequest) (RegisterWorkerResponse, error) {
	if req.SiteID <= 0 {
		return RegisterWorkerResponse{}, services.Wrap(services.ErrValidation, "roster", "register worker", "siteId is required", nil)
	}
	documentID, ok := dictation.NormalizeDocument(req.DocumentID)
	if !ok {
		return RegisterWorkerResponse{}, services.Wrap(services.ErrValidation, "roster", "register worker",
			fmt.Sprintf("documentId %q is missing or invalid", req.DocumentID), nil)
	}
	if _, err := s.store.GetSite(ctx, req.SiteID); err != nil {
		return RegisterWorkerResponse{}, err
	}
	worker, created, err := s.store.RegisterWorker(ctx, req.SiteID, documentID, req.FullName)
	if err != nil {
		return RegisterWorkerResponse{}, err
	}
	logging.WithContext(ctx, s.logger).Info("worker registered",
		logging.DocumentID(documentID),
		logging.Bool("created", created),
	)
	return RegisterWorkerResponse{Created: created, Worker: FromWorker(worker)}, nil
}

// Workers lists a site's workers.
func (s *RosterService) Workers(ctx context.Context, siteID int64, includeInactive bool) ([]Worker, error) {
	if siteID <= 0 {
		return nil, services.Wrap(services.ErrValidation, "roster", "list workers", "siteId is required", nil)
	}
	if _, err := s.store.GetSite(ctx, siteID); err != nil {
		return nil, err
	}
	workers, err := s.store.ListWorkers(ctx, siteID, includeInactive)
	if err != nil {
		return nil, err
	}
	return FromWorkers(workers), nil
}

// RenameWorker updates a worker's display name.
func (s *RosterService) RenameWorker(ctx context.Context, id int64, req UpdateWorkerRequest) (Worker, error) {
	worker, err := s.store.RenameWorker(ctx, id, req.FullName)
	if err != nil {
		return Worker{}, err
	}
	return FromWorker(worker), nil
}

// DeactivateWorker hides a worker from active listings.
func (s *RosterService) DeactivateWorker(ctx context.Context, id int64) (Worker, error) {
	worker, err := s.store.DeactivateWorker(ctx, id)
	if err != nil {
		return Worker{}, err
	}
	logging.WithContext(ctx, s.logger).Info("worker deactivated", logging.Int64("worker_id", id))
	return FromWorker(worker), nil
}
